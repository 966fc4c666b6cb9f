package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	scene := filepath.Join(root, "scene.0001")
	require.NoError(t, os.MkdirAll(scene, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scene, "scene_instances.json"), []byte(`{
  "images": [{"id": 1, "file_name": "beauty.0001.png", "width": 1280, "height": 960}],
  "instances": [
    {"image_id": 1, "class": "house_north_america", "bbox": [76, 0, 281, 128]},
    {"image_id": 1, "class": "tree", "bbox": [0, 0, 0, 0]}
  ]
}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scene, "beauty.0001.png"), []byte("png"), 0o644))
	return root
}

func TestConvertCommand(t *testing.T) {
	in := writeDataset(t)
	out := filepath.Join(t.TempDir(), "yolo")

	stdout, stderr, err := execute(t, "convert", "--in", in, "--out", out, "--classes-txt",
		"--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	assert.Contains(t, stdout, "Scenes: 1, Images: 1, YOLO instances: 1, Classes: 1")
	assert.Contains(t, stdout, "Skipped 1 instances and 0 images in 0 scenes without output:")
	assert.Contains(t, stdout, "invalid geometry")
	assert.Contains(t, stdout, "Dataset YAML: "+filepath.Join(out, "data.yaml"))

	label, err := os.ReadFile(filepath.Join(out, "labels", "scene.0001_beauty.0001.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0 0.139453 0.066667 0.160156 0.133333\n", string(label))
	assert.FileExists(t, filepath.Join(out, "images", "scene.0001_beauty.0001.png"))
	assert.FileExists(t, filepath.Join(out, "classes.txt"))
}

func TestConvertCommandStrict(t *testing.T) {
	in := writeDataset(t)

	_, _, err := execute(t, "convert", "--in", in, "--out", t.TempDir(), "--strict",
		"--log-level", "error")
	assert.ErrorContains(t, err, "invalid geometry")
}

func TestConvertCommandFlagsOverrideConfig(t *testing.T) {
	in := writeDataset(t)
	out := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "yoloconv.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
strict = true

[paths]
input_root = "`+filepath.ToSlash(in)+`"
output_root = "/nonexistent/never-used"

[output]
manifest_name = "dataset.yaml"
`), 0o644))

	stdout, _, err := execute(t, "convert", "-c", cfgPath, "--out", out, "--strict=false",
		"--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Dataset YAML: "+filepath.Join(out, "dataset.yaml"))
	assert.FileExists(t, filepath.Join(out, "dataset.yaml"))
}

func TestConvertCommandRequiresRoots(t *testing.T) {
	_, _, err := execute(t, "convert", "--in", t.TempDir())
	assert.ErrorContains(t, err, "paths.output_root is required")
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yoloconv.toml")

	stdout, _, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote sample configuration to "+path)

	_, _, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = execute(t, "config", "init", path, "--overwrite")
	require.NoError(t, err)

	stdout, _, err = execute(t, "config", "validate", path)
	require.NoError(t, err)
	assert.Equal(t, "Configuration valid\n", stdout)

	require.NoError(t, os.WriteFile(path, []byte("[labels]\nfield = \"category\"\n"), 0o644))
	_, _, err = execute(t, "config", "validate", path)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", stdout)
}
