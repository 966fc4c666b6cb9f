package yoloconv

// Error kinds raised while converting a dataset.

import (
	"errors"
	"fmt"
	"strings"
)

// The error kinds. Test for them with errors.Is.
var (
	ErrMalformedAnnotation = errors.New("malformed annotation")
	ErrMissingField        = errors.New("missing label field")
	ErrDanglingReference   = errors.New("dangling image reference")
	ErrMissingImageFile    = errors.New("missing image file")
	ErrInvalidGeometry     = errors.New("invalid geometry")
	ErrFatalIO             = errors.New("fatal I/O error")
	ErrConfiguration       = errors.New("configuration error")
)

// errorKinds lists the kinds in report order.
var errorKinds = []error{
	ErrMalformedAnnotation,
	ErrMissingField,
	ErrDanglingReference,
	ErrMissingImageFile,
	ErrInvalidGeometry,
	ErrFatalIO,
	ErrConfiguration,
}

// ItemError locates a failure within a scene.
type ItemError struct {
	Kind     error  // One of the Err* kinds.
	Scene    string // Scene ID, may be empty.
	ImageID  string // Image ID, may be empty.
	Instance int    // Index in the scene's instance list, or -1.
	Field    string // The offending field, may be empty.
	Err      error  // The underlying cause, may be nil.
}

func (e *ItemError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	var where []string
	if e.Scene != "" {
		where = append(where, fmt.Sprintf("scene %q", e.Scene))
	}
	if e.Instance >= 0 {
		where = append(where, fmt.Sprintf("instance %d", e.Instance))
	}
	if e.ImageID != "" {
		where = append(where, fmt.Sprintf("image %q", e.ImageID))
	}
	if e.Field != "" {
		where = append(where, fmt.Sprintf("field %q", e.Field))
	}
	if len(where) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(where, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ItemError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Recoverable reports whether lenient mode may skip the item that caused err. Fatal I/O and
// malformed annotation errors always abort.
func Recoverable(err error) bool {
	if err == nil || errors.Is(err, ErrFatalIO) || errors.Is(err, ErrMalformedAnnotation) ||
		errors.Is(err, ErrConfiguration) {
		return false
	}
	return errors.Is(err, ErrMissingField) || errors.Is(err, ErrDanglingReference) ||
		errors.Is(err, ErrMissingImageFile) || errors.Is(err, ErrInvalidGeometry)
}

// KindOf returns the error kind of err, or nil if err is not one of the known kinds.
func KindOf(err error) error {
	for _, k := range errorKinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
