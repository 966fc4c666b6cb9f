package yoloconv

// YOLO (Ultralytics) dataset output.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output layout below the output root.
const (
	ImagesDir            = "images"
	LabelsDir            = "labels"
	ClassesFileName      = "classes.txt"
	DefaultManifestName  = "data.yaml"
	lockFileName         = ".yoloconv.lock"
	manifestIndentSpaces = 2
)

// Manifest is the Ultralytics dataset description. Train and val both point at the images
// directory; no split is performed.
type Manifest struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Names map[int]string `yaml:"names"`
}

// NewManifest builds the manifest for the dataset at root from the registry state.
func NewManifest(root string, registry *Registry) *Manifest {
	m := &Manifest{
		Path:  filepath.ToSlash(root),
		Train: ImagesDir,
		Val:   ImagesDir,
		Names: make(map[int]string, registry.Len()),
	}
	for _, e := range registry.Entries() {
		m.Names[e.Index] = e.Label
	}
	return m
}

// Entries returns the class names ordered by index.
func (m *Manifest) Entries() []LabelEntry {
	entries := make([]LabelEntry, 0, len(m.Names))
	for i, name := range m.Names {
		entries = append(entries, LabelEntry{Index: i, Label: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	return entries
}

// WriteManifest writes m as YAML to path. Names are written in index order.
func WriteManifest(path string, m *Manifest) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(manifestIndentSpaces)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode the manifest: %v", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode the manifest: %v", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %v", path, err)
	}
	return nil
}

// LoadManifest reads a manifest written by WriteManifest or another Ultralytics tool.
func LoadManifest(path string) (*Manifest, error) {
	enc, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(enc, &m); err != nil {
		return nil, fmt.Errorf("failed to parse the manifest %q: %v", path, err)
	}
	if m.Names == nil {
		m.Names = make(map[int]string)
	}
	return &m, nil
}

// labelFileName returns the label file name that belongs to the output image imageName.
func labelFileName(imageName string) string {
	_, baseNoExt, _ := splitPath(imageName)
	return baseNoExt + ".txt"
}

// outputClaims maps output files, relative to the output root, to the source image they were
// claimed for.
type outputClaims map[string]string

// conflict returns the source that already claimed the image or label file, or "" if both are
// free or claimed by source itself.
func (c outputClaims) conflict(imageName, labelName, source string) string {
	for _, p := range []string{filepath.Join(ImagesDir, imageName), filepath.Join(LabelsDir, labelName)} {
		if prev, ok := c[p]; ok && prev != source {
			return prev
		}
	}
	return ""
}

func (c outputClaims) claim(imageName, labelName, source string) {
	c[filepath.Join(ImagesDir, imageName)] = source
	c[filepath.Join(LabelsDir, labelName)] = source
}

// WriteLabelFile writes the YOLO label lines to path, one per line.
func WriteLabelFile(path string, lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("cannot write file %q: %v", path, err)
	}
	return nil
}

// WriteClassNames writes the class names in index order, one per line.
func WriteClassNames(path string, entries []LabelEntry) error {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Label
	}
	return WriteLabelFile(path, lines)
}
