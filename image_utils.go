package yoloconv

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultImageExtensions are the image file types accepted by default.
var DefaultImageExtensions = []string{".png", ".jpg", ".jpeg"}

// fallbackImagePrefix marks the preferred image when a record has no file name.
const fallbackImagePrefix = "beauty."

// extensionSet is a set of lower-case file extensions, including the leading dot.
type extensionSet map[string]bool

func newExtensionSet(exts []string) extensionSet {
	s := make(extensionSet, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		s[e] = true
	}
	return s
}

func (s extensionSet) matches(name string) bool {
	return s[strings.ToLower(filepath.Ext(name))]
}

// resolveImagePath finds the image file for a record of the scene in sceneDir.
//
// A declared fileName is looked up relative to sceneDir, then by its base name directly in
// sceneDir. Without a file name, the lexically first file with an allowed extension is used,
// preferring files named "beauty.*".
func resolveImagePath(sceneDir, fileName string, exts extensionSet) (string, error) {
	if fileName != "" {
		if !exts.matches(fileName) {
			return "", fmt.Errorf("file %q does not have an allowed extension", fileName)
		}
		candidates := []string{
			filepath.Join(sceneDir, fileName),
			filepath.Join(sceneDir, filepath.Base(fileName)),
		}
		for _, p := range candidates {
			if isRegularFile(p) {
				return p, nil
			}
		}
		return "", fmt.Errorf("file %q not found in %q", fileName, sceneDir)
	}

	names, err := filesInDir(sceneDir, exts.matches)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no file name declared and no image found in %q", sceneDir)
	}
	for _, n := range names {
		if strings.HasPrefix(n, fallbackImagePrefix) {
			return filepath.Join(sceneDir, n), nil
		}
	}
	return filepath.Join(sceneDir, names[0]), nil
}

// imageSize reads the image at path and returns its width and height as displayed, i.e. after
// applying the EXIF orientation.
func imageSize(path string) (width, height int, err error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0, fmt.Errorf("cannot read image size of %q: %v", path, err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
