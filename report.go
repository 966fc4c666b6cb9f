package yoloconv

import (
	"errors"
	"log/slog"
)

// Warning is a recoverable failure that was skipped in lenient mode.
type Warning struct {
	Kind     error // One of the Err* kinds.
	Scene    string
	ImageID  string
	Instance int // Index in the scene's instance list, or -1 if the whole image was skipped.
	Err      error
}

// KindCount is the number of warnings of one kind.
type KindCount struct {
	Kind  error
	Count int
}

// Report collects the warnings of a conversion run.
type Report struct {
	Warnings []Warning

	logger *slog.Logger
}

// NewReport returns an empty report. Added warnings are logged to logger if it is not nil.
func NewReport(logger *slog.Logger) *Report {
	return &Report{logger: logger}
}

// add records err as a warning for the given scene.
func (r *Report) add(scene string, err error) {
	w := Warning{Kind: KindOf(err), Scene: scene, Instance: -1, Err: err}
	var ie *ItemError
	if errors.As(err, &ie) {
		w.ImageID = ie.ImageID
		w.Instance = ie.Instance
	}
	r.Warnings = append(r.Warnings, w)

	if r.logger != nil {
		r.logger.Warn("skipped", "scene", scene, "kind", kindName(w.Kind), "error", err)
	}
}

// SkippedInstances is the number of instances that contribute no label line.
func (r *Report) SkippedInstances() int {
	n := 0
	for _, w := range r.Warnings {
		if w.Instance >= 0 {
			n++
		}
	}
	return n
}

// SkippedImages is the number of images that were not written.
func (r *Report) SkippedImages() int {
	return len(r.Warnings) - r.SkippedInstances()
}

// ByKind returns the number of warnings per error kind, in a fixed kind order. Kinds without
// warnings are omitted.
func (r *Report) ByKind() []KindCount {
	counts := make(map[error]int)
	for _, w := range r.Warnings {
		counts[w.Kind]++
	}

	var out []KindCount
	for _, k := range errorKinds {
		if c := counts[k]; c > 0 {
			out = append(out, KindCount{Kind: k, Count: c})
		}
	}
	if c := counts[nil]; c > 0 {
		out = append(out, KindCount{Count: c})
	}
	return out
}

func kindName(kind error) string {
	if kind == nil {
		return "unknown"
	}
	return kind.Error()
}
