package yoloconv

// Conversion of a single scene's annotations into YOLO output artifacts.

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Scene is a directory holding one annotation document and the images it references.
type Scene struct {
	ID             string // The directory base name, used to prefix output file names.
	Dir            string
	AnnotationPath string
}

// Artifact describes the output for a single image: the image copy and the label file.
type Artifact struct {
	SceneID    string
	ImageID    string
	SourcePath string   // The image to copy.
	ImageName  string   // The output image file name, unique within the run.
	LabelName  string   // The output label file name, ImageName with a ".txt" extension.
	Lines      []string // The YOLO label lines, may be empty.
}

// SceneOptions configures the scene processor.
type SceneOptions struct {
	LabelField      LabelField
	LabelSeparator  string // Joins composite labels. Defaults to DefaultLabelSeparator.
	LabelMappings   LabelMappings
	BBoxFormat      BBoxFormat
	ImageExtensions []string // Defaults to DefaultImageExtensions.
	Strict          bool     // Abort on the first per-item error instead of skipping the item.

	// EmitEmpty emits an artifact with an empty label file for images without any valid
	// instance. Otherwise such images are not written at all.
	EmitEmpty bool
}

// SceneProcessor turns parsed scene annotations into artifacts. It performs no writes; the only
// file system access is to locate images and, if the annotations lack them, read image sizes.
type SceneProcessor struct {
	opts     SceneOptions
	exts     extensionSet
	registry *Registry
	report   *Report

	imageSize func(path string) (int, int, error)
}

// NewSceneProcessor returns a processor that resolves labels in registry and records skipped
// items in report.
func NewSceneProcessor(registry *Registry, report *Report, opts SceneOptions) *SceneProcessor {
	if opts.LabelSeparator == "" {
		opts.LabelSeparator = DefaultLabelSeparator
	}
	if len(opts.ImageExtensions) == 0 {
		opts.ImageExtensions = DefaultImageExtensions
	}
	return &SceneProcessor{
		opts:      opts,
		exts:      newExtensionSet(opts.ImageExtensions),
		registry:  registry,
		report:    report,
		imageSize: imageSize,
	}
}

// imageState caches the resolution of an image record within a scene.
type imageState struct {
	rec           ImageRecord
	path          string
	err           error // Resolution error.
	width, height float64
	sizeErr       error
	sizeRead      bool
}

// sceneRun holds the per-scene state of a Process call.
type sceneRun struct {
	p      *SceneProcessor
	scene  Scene
	ann    *SceneAnnotations
	images map[string]*imageState
	lines  map[string][]string // Label lines by image ID.
}

// Process converts the annotations of scene. Instances are handled in source order, so the
// label indices assigned in the registry only depend on the order of scenes and instances.
//
// In strict mode the first per-item error is returned. Otherwise offending instances and images
// are skipped and recorded in the report; only errors that are never recoverable are returned.
func (p *SceneProcessor) Process(scene Scene, ann *SceneAnnotations) ([]Artifact, error) {
	run := &sceneRun{
		p:      p,
		scene:  scene,
		ann:    ann,
		images: make(map[string]*imageState, len(ann.Images)),
		lines:  make(map[string][]string, len(ann.Images)),
	}

	// Every image is emitted with EmitEmpty, so all of them must resolve.
	if p.opts.EmitEmpty {
		for _, id := range ann.ImageOrder {
			if _, err := run.image(id); err != nil {
				return nil, err
			}
		}
	}

	for _, inst := range ann.Instances {
		if err := run.instance(inst); err != nil {
			if err := p.skip(scene, err); err != nil {
				return nil, err
			}
		}
	}

	return run.artifacts()
}

// skip applies the strict/lenient policy to err. Returns nil if the item may be skipped.
func (p *SceneProcessor) skip(scene Scene, err error) error {
	var ie *ItemError
	if errors.As(err, &ie) && ie.Scene == "" {
		ie.Scene = scene.ID
	}
	if p.opts.Strict || !Recoverable(err) {
		return err
	}
	if p.report != nil {
		p.report.add(scene.ID, err)
	}
	return nil
}

// image returns the resolved state of the image with the given ID, resolving it on first use.
// The error is only non-nil if a resolution failure must abort the scene.
func (r *sceneRun) image(id string) (*imageState, error) {
	if st, ok := r.images[id]; ok {
		return st, nil
	}

	st := &imageState{rec: r.ann.Images[id]}
	st.path, st.err = resolveImagePath(r.scene.Dir, st.rec.FileName, r.p.exts)
	r.images[id] = st

	if st.err != nil {
		err := &ItemError{Kind: ErrMissingImageFile, Scene: r.scene.ID, ImageID: id,
			Instance: -1, Err: st.err}
		if err := r.p.skip(r.scene, err); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// size returns the image dimensions. Values absent from the annotations are read from the image
// file; present values are returned as given, even if not positive.
func (st *imageState) size(read func(string) (int, int, error)) (float64, float64, error) {
	if st.rec.HasWidth && st.rec.HasHeight {
		return st.rec.Width, st.rec.Height, nil
	}
	if !st.sizeRead {
		st.sizeRead = true
		w, h, err := read(st.path)
		st.width, st.height, st.sizeErr = float64(w), float64(h), err
	}
	if st.sizeErr != nil {
		return 0, 0, st.sizeErr
	}

	width, height := st.width, st.height
	if st.rec.HasWidth {
		width = st.rec.Width
	}
	if st.rec.HasHeight {
		height = st.rec.Height
	}
	return width, height, nil
}

// instance converts a single instance and appends its label line.
func (r *sceneRun) instance(inst InstanceRecord) error {
	itemErr := func(kind error, field string, cause error) error {
		return &ItemError{Kind: kind, Scene: r.scene.ID, ImageID: inst.ImageID,
			Instance: inst.Index, Field: field, Err: cause}
	}

	if _, ok := r.ann.Images[inst.ImageID]; !ok {
		return itemErr(ErrDanglingReference, "image_id",
			fmt.Errorf("no image with id %q", inst.ImageID))
	}
	st, err := r.image(inst.ImageID)
	if err != nil {
		return err
	}
	if st.err != nil {
		return itemErr(ErrMissingImageFile, "", st.err)
	}

	label, err := r.p.opts.LabelField.Label(inst, r.p.opts.LabelSeparator)
	if err != nil {
		return err
	}
	label = r.p.opts.LabelMappings.Apply(label)

	if len(inst.BBox) != 4 {
		return itemErr(ErrInvalidGeometry, "bbox",
			fmt.Errorf("expected 4 values, got %d", len(inst.BBox)))
	}
	width, height, err := st.size(r.p.imageSize)
	if err != nil {
		return itemErr(ErrInvalidGeometry, "width/height", err)
	}
	box := r.p.opts.BBoxFormat.Box([4]float64{inst.BBox[0], inst.BBox[1], inst.BBox[2],
		inst.BBox[3]})
	yb, err := Normalize(box, width, height)
	if err != nil {
		return itemErr(ErrInvalidGeometry, "bbox", err)
	}

	// Register the label only for instances that produce a line.
	class := r.p.registry.Resolve(label)
	r.lines[inst.ImageID] = append(r.lines[inst.ImageID], yb.Format(class))
	return nil
}

// artifacts finalizes the label buffers, one artifact per resolved image in source order.
// Records that resolve to the same image file share one artifact.
func (r *sceneRun) artifacts() ([]Artifact, error) {
	out := make([]Artifact, 0, len(r.images))
	byPath := make(map[string]int, len(r.images))
	claims := make(outputClaims, 2*len(r.images))

	for _, id := range r.ann.ImageOrder {
		st, ok := r.images[id]
		if !ok || st.err != nil {
			continue
		}
		lines := r.lines[id]
		if !r.p.opts.EmitEmpty && len(lines) == 0 {
			continue
		}

		if i, dup := byPath[st.path]; dup {
			out[i].Lines = append(out[i].Lines, lines...)
			continue
		}

		imageName, labelName, err := r.outputNames(st.path, claims)
		if err != nil {
			return nil, err
		}
		claims.claim(imageName, labelName, st.path)
		byPath[st.path] = len(out)
		out = append(out, Artifact{
			SceneID:    r.scene.ID,
			ImageID:    id,
			SourcePath: st.path,
			ImageName:  imageName,
			LabelName:  labelName,
			Lines:      lines,
		})
	}

	return out, nil
}

// outputNames returns the output image and label file names for the image at path. The image
// name is "{scene_id}_{base name}", or "{scene_id}_{relative path}" with the path separators
// replaced by "_" if another file of the scene already uses the former.
func (r *sceneRun) outputNames(path string, claims outputClaims) (string, string, error) {
	imageName := r.scene.ID + "_" + filepath.Base(path)
	if claims.conflict(imageName, labelFileName(imageName), path) != "" {
		rel, err := filepath.Rel(r.scene.Dir, path)
		if err != nil {
			return "", "", fmt.Errorf("%w: scene %q: %v", ErrFatalIO, r.scene.ID, err)
		}
		imageName = r.scene.ID + "_" + strings.ReplaceAll(filepath.ToSlash(rel), "/", "_")
	}

	labelName := labelFileName(imageName)
	if prev := claims.conflict(imageName, labelName, path); prev != "" {
		return "", "", fmt.Errorf("%w: scene %q: output names of %q and %q collide", ErrFatalIO,
			r.scene.ID, prev, path)
	}
	return imageName, labelName, nil
}
