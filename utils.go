package yoloconv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// filesInDir returns the names of all regular files (or symlinks) found directly in directory
// dirPath for which keep returns true, sorted lexically.
func filesInDir(dirPath string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %q: %v", dirPath, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		// Must be a regular file or a symlink.
		if !e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0 {
			continue
		}
		if keep == nil || keep(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// splitPath splits the given file path into the dir name, the base name without extension and the
// extension (with the dot, may be empty).
func splitPath(path string) (dir, baseNoExt, ext string) {
	dir, file := filepath.Split(path)
	ext = filepath.Ext(file)
	dir = strings.TrimSuffix(dir, string(os.PathSeparator))
	baseNoExt = file[0 : len(file)-len(ext)]

	return dir, baseNoExt, ext
}

// isRegularFile reports whether path exists and is a regular file, following symlinks.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// copyFile streams src to dst, creating or truncating dst with mode 0644.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(in, &err)

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(out, &err)

	_, err = io.Copy(out, in)
	return err
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
