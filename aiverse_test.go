package yoloconv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScene = `{
  "images": [
    {"id": 1, "file_name": "beauty.0001.png", "width": 1280, "height": 960},
    {"id": "cam2", "file_name": "beauty.0002.jpg", "alt_name": "alt.png"}
  ],
  "instances": [
    {"image_id": 1, "class": "house_north_america", "subclass": "medium",
     "superclass": "building", "bbox": [76, 0, 281, 128]},
    {"image_id": "cam2", "class": "tree", "bbox": [1, 2, 3]},
    {"class": "car", "bbox": [0, 0, 10, 10]}
  ]
}`

func TestParseScene(t *testing.T) {
	ann, err := ParseScene(strings.NewReader(sampleScene), ParseOptions{})
	require.NoError(t, err)

	wantImages := map[string]ImageRecord{
		"1": {ID: "1", FileName: "beauty.0001.png", Width: 1280, Height: 960, HasWidth: true,
			HasHeight: true},
		"cam2": {ID: "cam2", FileName: "beauty.0002.jpg"},
	}
	if diff := cmp.Diff(wantImages, ann.Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"1", "cam2"}, ann.ImageOrder)

	require.Len(t, ann.Instances, 3)
	first := ann.Instances[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "1", first.ImageID)
	assert.Equal(t, []float64{76, 0, 281, 128}, first.BBox)
	assert.Equal(t, "house_north_america", *first.Class)
	assert.Equal(t, "medium", *first.Subclass)
	assert.Equal(t, "building", *first.Superclass)

	second := ann.Instances[1]
	assert.Equal(t, "cam2", second.ImageID)
	assert.Nil(t, second.Subclass)
	assert.Len(t, second.BBox, 3)

	// An instance without image_id is left for the scene processor to reject.
	assert.Equal(t, "", ann.Instances[2].ImageID)
	assert.Equal(t, 2, ann.Instances[2].Index)
}

func TestParseSceneImageKey(t *testing.T) {
	ann, err := ParseScene(strings.NewReader(sampleScene), ParseOptions{ImageKey: "alt_name"})
	require.NoError(t, err)

	assert.Equal(t, "", ann.Images["1"].FileName)
	assert.Equal(t, "alt.png", ann.Images["cam2"].FileName)
}

func TestParseSceneMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":          `{"images": [`,
		"missing images":    `{"instances": []}`,
		"missing instances": `{"images": []}`,
		"null images":       `{"images": null, "instances": []}`,
		"image without id":  `{"images": [{"file_name": "a.png"}], "instances": []}`,
		"object id":         `{"images": [{"id": {"a": 1}}], "instances": []}`,
		"duplicate id":      `{"images": [{"id": 1}, {"id": 1}], "instances": []}`,
		"string width":      `{"images": [{"id": 1, "width": "wide"}], "instances": []}`,
		"bbox of strings":   `{"images": [], "instances": [{"image_id": 1, "bbox": ["a"]}]}`,
		"numeric class":     `{"images": [], "instances": [{"image_id": 1, "class": 5}]}`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScene(strings.NewReader(doc), ParseOptions{})
			assert.ErrorIs(t, err, ErrMalformedAnnotation)
		})
	}
}

func TestReadSceneMissingFile(t *testing.T) {
	_, err := ReadScene(t.TempDir()+"/nope.json", ParseOptions{})
	assert.ErrorIs(t, err, ErrMalformedAnnotation)
}

func TestParseSceneDimensionPresence(t *testing.T) {
	ann, err := ParseScene(strings.NewReader(`{
  "images": [
    {"id": 1, "width": 0, "height": 100},
    {"id": 2, "width": null},
    {"id": 3, "height": 50}
  ],
  "instances": []
}`), ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, ImageRecord{ID: "1", HasWidth: true, Height: 100, HasHeight: true}, ann.Images["1"])
	assert.Equal(t, ImageRecord{ID: "2"}, ann.Images["2"])
	assert.Equal(t, ImageRecord{ID: "3", Height: 50, HasHeight: true}, ann.Images["3"])
}

func TestParseSceneNumericIDs(t *testing.T) {
	ann, err := ParseScene(strings.NewReader(`{
  "images": [{"id": 1}, {"id": 2.5}, {"id": "01"}],
  "instances": [
    {"image_id": 1.0},
    {"image_id": 1e0},
    {"image_id": 2.5},
    {"image_id": "01"}
  ]
}`), ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2.5", "01"}, ann.ImageOrder)
	var ids []string
	for _, inst := range ann.Instances {
		ids = append(ids, inst.ImageID)
	}
	assert.Equal(t, []string{"1", "1", "2.5", "01"}, ids)

	// Integral ids collide regardless of their notation.
	_, err = ParseScene(strings.NewReader(`{"images": [{"id": 3}, {"id": 3.0}], "instances": []}`),
		ParseOptions{})
	assert.ErrorIs(t, err, ErrMalformedAnnotation)
}
