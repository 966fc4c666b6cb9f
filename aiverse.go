package yoloconv

// AI Verse scene annotation specific functionality.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// DefaultAnnotationName is the file name of the per-scene AI Verse annotation document.
const DefaultAnnotationName = "scene_instances.json"

// DefaultImageKey is the key in the images list that holds the image file name.
const DefaultImageKey = "file_name"

// ImageRecord is an entry of the scene's images list.
type ImageRecord struct {
	ID        string // Source-defined ID, unique within the scene. See parseID for numbers.
	FileName  string // Empty if the record has no file name.
	Width     float64
	Height    float64
	HasWidth  bool // False if width is missing or null.
	HasHeight bool // False if height is missing or null.
}

// InstanceRecord is an annotated object instance of a scene.
type InstanceRecord struct {
	Index      int       // Position in the scene's instances list.
	ImageID    string    // Refers to ImageRecord.ID.
	BBox       []float64 // The raw bbox values. Valid boxes have 4 elements.
	Class      *string   // Nil if absent.
	Subclass   *string   // Nil if absent.
	Superclass *string   // Nil if absent.
}

// SceneAnnotations is the parsed annotation document of a single scene.
type SceneAnnotations struct {
	Images     map[string]ImageRecord
	ImageOrder []string // Image IDs in source order.
	Instances  []InstanceRecord
}

// ParseOptions configures the annotation parser.
type ParseOptions struct {
	ImageKey string // The key in images[] holding the file name. Defaults to DefaultImageKey.
}

type aiverseInstance struct {
	ImageID    json.RawMessage `json:"image_id"`
	BBox       []float64       `json:"bbox"`
	Class      *string         `json:"class"`
	Subclass   *string         `json:"subclass"`
	Superclass *string         `json:"superclass"`
}

type aiverseScene struct {
	Images    *[]map[string]json.RawMessage `json:"images"`
	Instances *[]aiverseInstance            `json:"instances"`
}

// ReadScene reads and parses the annotation document at path.
func ReadScene(path string, opts ParseOptions) (ann *SceneAnnotations, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %q: %v", ErrMalformedAnnotation, path, err)
	}
	defer closeWithErrCheck(f, &err)

	ann, err = ParseScene(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	return ann, nil
}

// ParseScene parses an AI Verse annotation document.
//
// Returns an error wrapping ErrMalformedAnnotation if the document is not valid JSON, lacks the
// images or instances lists, or has entries of the wrong shape. Missing fields that only affect
// individual instances (class fields, bbox, image dimensions) are left for the caller to handle.
func ParseScene(r io.Reader, opts ParseOptions) (*SceneAnnotations, error) {
	imageKey := opts.ImageKey
	if imageKey == "" {
		imageKey = DefaultImageKey
	}

	var doc aiverseScene
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnnotation, err)
	}
	if doc.Images == nil {
		return nil, fmt.Errorf("%w: missing key \"images\"", ErrMalformedAnnotation)
	}
	if doc.Instances == nil {
		return nil, fmt.Errorf("%w: missing key \"instances\"", ErrMalformedAnnotation)
	}

	ann := &SceneAnnotations{
		Images:     make(map[string]ImageRecord, len(*doc.Images)),
		ImageOrder: make([]string, 0, len(*doc.Images)),
		Instances:  make([]InstanceRecord, 0, len(*doc.Instances)),
	}

	for i, im := range *doc.Images {
		rec, err := parseImageRecord(im, imageKey)
		if err != nil {
			return nil, fmt.Errorf("%w: images[%d]: %v", ErrMalformedAnnotation, i, err)
		}
		if _, dup := ann.Images[rec.ID]; dup {
			return nil, fmt.Errorf("%w: images[%d]: duplicate id %q", ErrMalformedAnnotation, i,
				rec.ID)
		}
		ann.Images[rec.ID] = rec
		ann.ImageOrder = append(ann.ImageOrder, rec.ID)
	}

	for i, inst := range *doc.Instances {
		rec := InstanceRecord{
			Index:      i,
			BBox:       inst.BBox,
			Class:      inst.Class,
			Subclass:   inst.Subclass,
			Superclass: inst.Superclass,
		}
		if len(inst.ImageID) > 0 && !isJSONNull(inst.ImageID) {
			id, err := parseID(inst.ImageID)
			if err != nil {
				return nil, fmt.Errorf("%w: instances[%d].image_id: %v", ErrMalformedAnnotation, i,
					err)
			}
			rec.ImageID = id
		}
		ann.Instances = append(ann.Instances, rec)
	}

	return ann, nil
}

// parseImageRecord converts one element of the images list.
func parseImageRecord(im map[string]json.RawMessage, imageKey string) (ImageRecord, error) {
	var rec ImageRecord

	raw, ok := im["id"]
	if !ok || isJSONNull(raw) {
		return rec, fmt.Errorf("missing id")
	}
	id, err := parseID(raw)
	if err != nil {
		return rec, fmt.Errorf("id: %v", err)
	}
	rec.ID = id

	if raw, ok := im[imageKey]; ok && !isJSONNull(raw) {
		if err := json.Unmarshal(raw, &rec.FileName); err != nil {
			return rec, fmt.Errorf("%s: %v", imageKey, err)
		}
	}

	dims := []struct {
		key     string
		v       *float64
		present *bool
	}{
		{"width", &rec.Width, &rec.HasWidth},
		{"height", &rec.Height, &rec.HasHeight},
	}
	for _, d := range dims {
		if raw, ok := im[d.key]; ok && !isJSONNull(raw) {
			if err := json.Unmarshal(raw, d.v); err != nil {
				return rec, fmt.Errorf("%s: %v", d.key, err)
			}
			*d.present = true
		}
	}

	return rec, nil
}

// parseID returns the key for a JSON string or number ID. Integral numbers are keyed by their
// integer value, so 1, 1.0 and 1e0 refer to the same record. Other numbers keep their JSON text.
func parseID(raw json.RawMessage) (string, error) {
	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()

	var v interface{}
	if err := d.Decode(&v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case json.Number:
		return numberKey(v), nil
	}
	return "", fmt.Errorf("unsupported id type %T", v)
}

func numberKey(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

// maxExactInt is the largest integer up to which every float64 integer is exact.
const maxExactInt = 1 << 53

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
