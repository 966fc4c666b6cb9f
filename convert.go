package yoloconv

// Top-level conversion of an AI Verse dataset into a YOLO dataset.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Options configures a conversion run.
type Options struct {
	InputRoot      string // The dataset root with the scene directories.
	OutputRoot     string // The YOLO dataset root. images/ and labels/ are created inside.
	AnnotationName string // The per-scene annotation file name. Defaults to DefaultAnnotationName.
	ImageKey       string // The file name key in the images list. Defaults to DefaultImageKey.
	ManifestName   string // The manifest file name. Defaults to DefaultManifestName.

	// Clean deletes the images and labels directories, the manifest and the class names file
	// before converting.
	Clean bool

	ClassNames   bool   // Also write the class names to classes.txt.
	SeedManifest string // Continue the class numbering of this manifest, if set.
	Workers      int    // The number of concurrent image copies/label writes per scene.

	Scene SceneOptions

	// Progress, if not nil, is called after each scene.
	Progress func(done, total int, scene Scene)
}

// Result summarises a completed conversion.
type Result struct {
	Scenes        int // Scenes found.
	SkippedScenes int // Scenes that produced no output because of skipped items.
	Images        int // Images written.
	Instances     int // Label lines written.
	Labels        []LabelEntry
	ManifestPath  string
	Report        *Report
}

// Converter converts a dataset according to its Options.
type Converter struct {
	opts   Options
	logger *slog.Logger
}

// NewConverter validates opts and returns a Converter. A nil logger discards log output.
func NewConverter(opts Options, logger *slog.Logger) (*Converter, error) {
	if opts.InputRoot == "" {
		return nil, fmt.Errorf("%w: missing input root", ErrConfiguration)
	}
	if opts.OutputRoot == "" {
		return nil, fmt.Errorf("%w: missing output root", ErrConfiguration)
	}
	if opts.AnnotationName == "" {
		opts.AnnotationName = DefaultAnnotationName
	}
	if opts.ImageKey == "" {
		opts.ImageKey = DefaultImageKey
	}
	if opts.ManifestName == "" {
		opts.ManifestName = DefaultManifestName
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Converter{opts: opts, logger: logger}, nil
}

// Run converts all scenes below the input root.
//
// Scenes are processed one after another in lexical order of their directories. Returns an
// error wrapping ErrFatalIO if the input root is unusable or the output cannot be written, an
// error wrapping ErrMalformedAnnotation for unreadable annotation documents, and in strict
// mode the first per-item error. Cancelling ctx stops the run between scenes.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	logger := c.logger.With("run_id", uuid.NewString())

	info, err := os.Stat(c.opts.InputRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot access the input root: %v", ErrFatalIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: input root %q is not a directory", ErrFatalIO,
			c.opts.InputRoot)
	}
	outRoot, err := filepath.Abs(c.opts.OutputRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid output root %q: %v", ErrFatalIO, c.opts.OutputRoot,
			err)
	}
	if err := os.MkdirAll(outRoot, 0755); err != nil {
		return nil, fmt.Errorf("%w: cannot create the output root: %v", ErrFatalIO, err)
	}

	// Guard against concurrent runs writing into the same output. The lock file is left in
	// place so that every run locks the same inode.
	lockPath := filepath.Join(outRoot, lockFileName)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot lock %q: %v", ErrFatalIO, lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: another conversion is writing to %q", ErrFatalIO, outRoot)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release the output lock", "error", err)
		}
	}()

	registry, err := c.newRegistry()
	if err != nil {
		return nil, err
	}

	scenes, err := DiscoverScenes(c.opts.InputRoot, c.opts.AnnotationName)
	if err != nil {
		return nil, err
	}
	logger.Info("discovered scenes", "count", len(scenes), "input", c.opts.InputRoot)

	if err := c.prepareOutput(outRoot); err != nil {
		return nil, err
	}

	report := NewReport(logger)
	proc := NewSceneProcessor(registry, report, c.opts.Scene)
	res := &Result{Scenes: len(scenes), Report: report}
	claims := make(outputClaims)

	for i, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ann, err := ReadScene(scene.AnnotationPath, ParseOptions{ImageKey: c.opts.ImageKey})
		if err != nil {
			return nil, fmt.Errorf("scene %q: %w", scene.ID, err)
		}

		warningsBefore := len(report.Warnings)
		artifacts, err := proc.Process(scene, ann)
		if err != nil {
			return nil, err
		}
		if len(artifacts) == 0 && len(report.Warnings) > warningsBefore {
			res.SkippedScenes++
			logger.Warn("scene produced no output", "scene", scene.ID)
		}

		for _, a := range artifacts {
			if prev := claims.conflict(a.ImageName, a.LabelName, a.SourcePath); prev != "" {
				return nil, fmt.Errorf("%w: output names of %q and %q collide", ErrFatalIO, prev,
					a.SourcePath)
			}
			claims.claim(a.ImageName, a.LabelName, a.SourcePath)
		}

		if err := writeArtifacts(outRoot, artifacts, c.opts.Workers); err != nil {
			return nil, err
		}
		for _, a := range artifacts {
			res.Instances += len(a.Lines)
		}
		res.Images += len(artifacts)

		logger.Debug("scene converted", "scene", scene.ID, "images", len(artifacts))
		if c.opts.Progress != nil {
			c.opts.Progress(i+1, len(scenes), scene)
		}
	}

	res.Labels = registry.Entries()
	res.ManifestPath = filepath.Join(outRoot, c.opts.ManifestName)
	if err := WriteManifest(res.ManifestPath, NewManifest(outRoot, registry)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFatalIO, err)
	}
	if c.opts.ClassNames {
		if err := WriteClassNames(filepath.Join(outRoot, ClassesFileName), res.Labels); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFatalIO, err)
		}
	}

	logger.Info("conversion finished", "scenes", res.Scenes, "images", res.Images,
		"instances", res.Instances, "classes", len(res.Labels),
		"skipped_instances", report.SkippedInstances(), "skipped_images", report.SkippedImages())
	return res, nil
}

// newRegistry returns an empty registry, or one seeded from the configured manifest.
func (c *Converter) newRegistry() (*Registry, error) {
	if c.opts.SeedManifest == "" {
		return NewRegistry(), nil
	}
	m, err := LoadManifest(c.opts.SeedManifest)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot load the seed manifest: %v", ErrConfiguration, err)
	}
	return NewRegistryFromEntries(m.Entries())
}

// prepareOutput creates the output directories, removing previous results first if requested.
func (c *Converter) prepareOutput(outRoot string) error {
	if c.opts.Clean {
		for _, d := range []string{ImagesDir, LabelsDir} {
			if err := os.RemoveAll(filepath.Join(outRoot, d)); err != nil {
				return fmt.Errorf("%w: cannot clean %q: %v", ErrFatalIO, d, err)
			}
		}
		for _, f := range []string{c.opts.ManifestName, ClassesFileName} {
			err := os.Remove(filepath.Join(outRoot, f))
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: cannot clean %q: %v", ErrFatalIO, f, err)
			}
		}
	}

	for _, d := range []string{ImagesDir, LabelsDir} {
		if err := os.MkdirAll(filepath.Join(outRoot, d), 0755); err != nil {
			return fmt.Errorf("%w: cannot create %q: %v", ErrFatalIO, d, err)
		}
	}
	return nil
}

// DiscoverScenes returns all directories below root (including root) that contain a file named
// annotationName, sorted by directory path. Scene IDs are the directory base names and must be
// unique.
func DiscoverScenes(root, annotationName string) ([]Scene, error) {
	var scenes []Scene
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != annotationName {
			return nil
		}
		dir := filepath.Dir(path)
		scenes = append(scenes, Scene{
			ID:             filepath.Base(dir),
			Dir:            dir,
			AnnotationPath: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: cannot scan %q: %v", ErrFatalIO, root, err)
	}

	sort.Slice(scenes, func(i, j int) bool { return scenes[i].Dir < scenes[j].Dir })

	seen := make(map[string]string, len(scenes))
	for _, s := range scenes {
		if prev, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%w: scenes %q and %q share the ID %q", ErrFatalIO, prev,
				s.Dir, s.ID)
		}
		seen[s.ID] = s.Dir
	}

	return scenes, nil
}

// writeArtifacts copies the images and writes the label files of artifacts to outRoot.
//
// The artifacts are processed concurrently from a work queue by at most numTasks goroutines.
// Each artifact has its own output files.
func writeArtifacts(outRoot string, artifacts []Artifact, numTasks int) error {
	if len(artifacts) < numTasks {
		numTasks = len(artifacts)
	}
	if numTasks == 0 {
		return nil
	}

	workQueue := make(chan *Artifact, 2*numTasks)
	errs := make(chan error, 1)
	trySendError := func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	var wg sync.WaitGroup
	wg.Add(numTasks)
	for i := 0; i < numTasks; i++ {
		go func() {
			defer wg.Done()
			for a := range workQueue {
				if err := writeArtifact(outRoot, a); err != nil {
					trySendError(err)
				}
			}
		}()
	}

	for i := range artifacts {
		workQueue <- &artifacts[i]
	}
	close(workQueue)
	wg.Wait()

	close(errs)
	if err := <-errs; err != nil {
		return err
	}
	return nil
}

// writeArtifact copies the image unless it already exists and writes the label file.
func writeArtifact(outRoot string, a *Artifact) error {
	imagePath := filepath.Join(outRoot, ImagesDir, a.ImageName)
	if !isRegularFile(imagePath) {
		if err := copyFile(a.SourcePath, imagePath); err != nil {
			return fmt.Errorf("%w: failed to copy %q: %v", ErrFatalIO, a.SourcePath, err)
		}
	}

	labelPath := filepath.Join(outRoot, LabelsDir, a.LabelName)
	if err := WriteLabelFile(labelPath, a.Lines); err != nil {
		return fmt.Errorf("%w: %v", ErrFatalIO, err)
	}
	return nil
}
