package yoloconv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKnownLine(t *testing.T) {
	yb, err := Normalize(BoxFromXYXY(76, 0, 281, 128), 1280, 960)
	require.NoError(t, err)
	assert.Equal(t, "0 0.139453 0.066667 0.160156 0.133333", yb.Format(0))
}

func TestNormalizeXYWH(t *testing.T) {
	yb, err := Normalize(BBoxXYWH.Box([4]float64{76, 0, 281, 128}), 1280, 960)
	require.NoError(t, err)

	assert.InDelta(t, (76+281/2.0)/1280, yb.CX, 1e-12)
	assert.InDelta(t, 64/960.0, yb.CY, 1e-12)
	assert.InDelta(t, 281/1280.0, yb.W, 1e-12)
	assert.InDelta(t, 128/960.0, yb.H, 1e-12)
}

func TestNormalizeRoundTrip(t *testing.T) {
	const width, height = 1920.0, 1080.0

	for x := 0.0; x < width; x += 173 {
		for y := 0.0; y < height; y += 97 {
			w := (width - x) / 3
			h := (height - y) / 2
			if w <= 0 || h <= 0 {
				continue
			}
			box := BoxFromXYWH(x, y, w, h)

			yb, err := Normalize(box, width, height)
			require.NoError(t, err)

			// Scale back to pixels.
			assert.InDelta(t, x+w/2, yb.CX*width, 1e-9)
			assert.InDelta(t, y+h/2, yb.CY*height, 1e-9)
			assert.InDelta(t, w, yb.W*width, 1e-9)
			assert.InDelta(t, h, yb.H*height, 1e-9)
		}
	}
}

func TestNormalizeClampsToCanvas(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		want YOLOBox
	}{
		{"covers canvas", BoxFromXYXY(-50, -50, 2000, 2000), YOLOBox{0.5, 0.5, 1, 1}},
		{"overflows bottom right", BoxFromXYXY(1200, 900, 1400, 1000),
			YOLOBox{1240.0 / 1280, 930.0 / 960, 80.0 / 1280, 60.0 / 960}},
		{"overflows top left", BoxFromXYXY(-10, -20, 10, 20),
			YOLOBox{5.0 / 1280, 10.0 / 960, 10.0 / 1280, 20.0 / 960}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yb, err := Normalize(tt.box, 1280, 960)
			require.NoError(t, err)

			for _, v := range []float64{yb.CX, yb.CY, yb.W, yb.H} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
			assert.InDelta(t, tt.want.CX, yb.CX, 1e-12)
			assert.InDelta(t, tt.want.CY, yb.CY, 1e-12)
			assert.InDelta(t, tt.want.W, yb.W, 1e-12)
			assert.InDelta(t, tt.want.H, yb.H, 1e-12)
		})
	}
}

func TestNormalizeInvalidGeometry(t *testing.T) {
	tests := []struct {
		name          string
		box           Box
		width, height float64
	}{
		{"zero image width", BoxFromXYWH(0, 0, 10, 10), 0, 100},
		{"negative image height", BoxFromXYWH(0, 0, 10, 10), 100, -1},
		{"zero box width", BoxFromXYWH(5, 5, 0, 10), 100, 100},
		{"negative box height", BoxFromXYXY(5, 50, 10, 40), 100, 100},
		{"outside of canvas", BoxFromXYWH(150, 0, 10, 10), 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.box, tt.width, tt.height)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGeometry), "got %v", err)
		})
	}
}

func TestParseBBoxFormat(t *testing.T) {
	f, err := ParseBBoxFormat("XYWH")
	require.NoError(t, err)
	assert.Equal(t, BBoxXYWH, f)

	f, err = ParseBBoxFormat("")
	require.NoError(t, err)
	assert.Equal(t, BBoxXYXY, f)

	_, err = ParseBBoxFormat("cxcywh")
	assert.ErrorIs(t, err, ErrConfiguration)
}
