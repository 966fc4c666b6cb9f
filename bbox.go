package yoloconv

// Bounding box conversion from absolute pixel coordinates to the normalized YOLO form.

import (
	"fmt"
	"math"
	"strings"
)

// Box is an axis-aligned bounding box in absolute pixel coordinates.
type Box struct {
	Coords [4]float64 // Absolute x1, y1, x2, y2 offsets from the top-left corner.
}

// BoxFromXYXY builds a Box from corner coordinates.
func BoxFromXYXY(x1, y1, x2, y2 float64) Box {
	return Box{Coords: [4]float64{x1, y1, x2, y2}}
}

// BoxFromXYWH builds a Box from the top-left corner and the box extents.
func BoxFromXYWH(x, y, w, h float64) Box {
	return Box{Coords: [4]float64{x, y, x + w, y + h}}
}

// Width is the box width from b.Coords.
func (b Box) Width() float64 {
	return b.Coords[2] - b.Coords[0]
}

// Height is the box height from b.Coords.
func (b Box) Height() float64 {
	return b.Coords[3] - b.Coords[1]
}

// clip returns b intersected with the canvas [0,width]x[0,height].
func (b Box) clip(width, height float64) Box {
	return BoxFromXYXY(
		math.Max(0, math.Min(b.Coords[0], width)),
		math.Max(0, math.Min(b.Coords[1], height)),
		math.Max(0, math.Min(b.Coords[2], width)),
		math.Max(0, math.Min(b.Coords[3], height)),
	)
}

// BBoxFormat is the convention of the 4-tuple bbox in the source annotations.
type BBoxFormat int

// The supported bbox conventions.
const (
	BBoxXYXY BBoxFormat = iota // x_min, y_min, x_max, y_max
	BBoxXYWH                   // x, y, width, height
)

// ParseBBoxFormat parses "xyxy" or "xywh".
func ParseBBoxFormat(s string) (BBoxFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xyxy", "":
		return BBoxXYXY, nil
	case "xywh":
		return BBoxXYWH, nil
	}
	return 0, fmt.Errorf("%w: unknown bbox format %q", ErrConfiguration, s)
}

func (f BBoxFormat) String() string {
	if f == BBoxXYWH {
		return "xywh"
	}
	return "xyxy"
}

// Box interprets v according to the format.
func (f BBoxFormat) Box(v [4]float64) Box {
	if f == BBoxXYWH {
		return BoxFromXYWH(v[0], v[1], v[2], v[3])
	}
	return BoxFromXYXY(v[0], v[1], v[2], v[3])
}

// YOLOBox is a box in YOLO form: center and extents as fractions of the image size.
type YOLOBox struct {
	CX, CY, W, H float64
}

// Format renders the label-file line for the box with the given class index.
func (b YOLOBox) Format(class int) string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", class, b.CX, b.CY, b.W, b.H)
}

// Normalize converts the absolute pixel box to YOLO form for an image of the given size.
//
// The box is clipped to the image before conversion, so boxes running off the canvas yield
// components in [0, 1]. Returns an error wrapping ErrInvalidGeometry if the image size or box
// extents are not positive, or if the box lies entirely outside the image.
func Normalize(box Box, imageWidth, imageHeight float64) (YOLOBox, error) {
	if !(imageWidth > 0) || !(imageHeight > 0) {
		return YOLOBox{}, fmt.Errorf("%w: image size %gx%g", ErrInvalidGeometry, imageWidth,
			imageHeight)
	}
	if !(box.Width() > 0) || !(box.Height() > 0) {
		return YOLOBox{}, fmt.Errorf("%w: box extent %gx%g", ErrInvalidGeometry, box.Width(),
			box.Height())
	}

	c := box.clip(imageWidth, imageHeight)
	if c.Width() <= 0 || c.Height() <= 0 {
		return YOLOBox{}, fmt.Errorf("%w: box %v outside of %gx%g image", ErrInvalidGeometry,
			box.Coords, imageWidth, imageHeight)
	}

	return YOLOBox{
		CX: clamp01((c.Coords[0] + c.Width()/2) / imageWidth),
		CY: clamp01((c.Coords[1] + c.Height()/2) / imageHeight),
		W:  clamp01(c.Width() / imageWidth),
		H:  clamp01(c.Height() / imageHeight),
	}, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}
