package yoloconv

// Derivation of training label strings from the AI Verse class taxonomy.

import (
	"fmt"
	"strings"
)

// LabelField selects which instance attribute(s) become the label string.
type LabelField int

// The known label field selectors.
const (
	LabelClass         LabelField = iota // The class value.
	LabelSubclass                        // The subclass value.
	LabelSuperclass                      // The superclass value.
	LabelClassSubclass                   // Class and subclass joined by the separator.
	LabelPath                            // Superclass, class, subclass joined, empty parts omitted.
)

// DefaultLabelSeparator joins the parts of composite labels.
const DefaultLabelSeparator = "/"

var labelFieldNames = map[LabelField]string{
	LabelClass:         "class",
	LabelSubclass:      "subclass",
	LabelSuperclass:    "superclass",
	LabelClassSubclass: "class_subclass",
	LabelPath:          "path",
}

// ParseLabelField parses the selector name as used in the configuration.
func ParseLabelField(s string) (LabelField, error) {
	for k, v := range labelFieldNames {
		if v == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown label field %q", ErrConfiguration, s)
}

func (f LabelField) String() string {
	if s, ok := labelFieldNames[f]; ok {
		return s
	}
	return fmt.Sprintf("LabelField(%d)", int(f))
}

// Label derives the label string for inst. Returns an error wrapping ErrMissingField if a field
// required by the selector is absent.
func (f LabelField) Label(inst InstanceRecord, sep string) (string, error) {
	missing := func(field string) error {
		return &ItemError{Kind: ErrMissingField, ImageID: inst.ImageID, Instance: inst.Index,
			Field: field}
	}

	switch f {
	case LabelClass:
		if inst.Class == nil {
			return "", missing("class")
		}
		return *inst.Class, nil
	case LabelSubclass:
		if inst.Subclass == nil {
			return "", missing("subclass")
		}
		return *inst.Subclass, nil
	case LabelSuperclass:
		if inst.Superclass == nil {
			return "", missing("superclass")
		}
		return *inst.Superclass, nil
	case LabelClassSubclass:
		if inst.Class == nil {
			return "", missing("class")
		}
		if inst.Subclass == nil {
			return "", missing("subclass")
		}
		return joinNonEmpty(sep, *inst.Class, *inst.Subclass), nil
	case LabelPath:
		var parts []string
		for _, p := range []*string{inst.Superclass, inst.Class, inst.Subclass} {
			if p != nil {
				parts = append(parts, *p)
			}
		}
		label := joinNonEmpty(sep, parts...)
		if label == "" {
			return "", missing("superclass/class/subclass")
		}
		return label, nil
	}
	return "", fmt.Errorf("%w: unknown label field %d", ErrConfiguration, int(f))
}

func joinNonEmpty(sep string, parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}

// LabelMappings replaces label (sub-)strings with substitution values, in order.
type LabelMappings []struct{ old, new string }

// ParseLabelMappings parses mappings of the format old=new.
func ParseLabelMappings(mappings []string) (LabelMappings, error) {
	if len(mappings) == 0 {
		return nil, nil
	}

	replacements := make(LabelMappings, len(mappings))
	for i, v := range mappings {
		a := strings.Split(v, "=")
		if len(a) != 2 || a[0] == "" {
			return nil, fmt.Errorf("%w: invalid label mapping %q", ErrConfiguration, v)
		}

		replacements[i].old = a[0]
		replacements[i].new = a[1]
	}
	return replacements, nil
}

// Apply returns label with all replacements applied in order.
func (m LabelMappings) Apply(label string) string {
	for _, r := range m {
		label = strings.Replace(label, r.old, r.new, -1)
	}
	return label
}
