package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the dataset locations.
type Paths struct {
	InputRoot    string `toml:"input_root"`
	OutputRoot   string `toml:"output_root"`
	SeedManifest string `toml:"seed_manifest"`
}

// Annotations describes how the AI Verse scene documents are read.
type Annotations struct {
	FileName        string   `toml:"file_name"`
	ImageKey        string   `toml:"image_key"`
	BBoxFormat      string   `toml:"bbox_format"`
	ImageExtensions []string `toml:"image_extensions"`
}

// Labels controls how class labels are derived from instances.
type Labels struct {
	Field     string   `toml:"field"`
	Separator string   `toml:"separator"`
	Mappings  []string `toml:"mappings"`
}

// Output contains configuration for the YOLO dataset that is written.
type Output struct {
	ManifestName string `toml:"manifest_name"`
	Clean        bool   `toml:"clean"`
	EmitEmpty    bool   `toml:"emit_empty"`
	ClassesTxt   bool   `toml:"classes_txt"`
	Workers      int    `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the complete converter configuration.
type Config struct {
	Strict      bool        `toml:"strict"`
	Paths       Paths       `toml:"paths"`
	Annotations Annotations `toml:"annotations"`
	Labels      Labels      `toml:"labels"`
	Output      Output      `toml:"output"`
	Logging     Logging     `toml:"logging"`
}

// Load reads the TOML file at path on top of the defaults. An empty path uses the defaults
// only. If override is not nil it is applied after the file, e.g. for command-line flags. The
// result is normalized and validated.
func Load(path string, override func(*Config)) (*Config, error) {
	cfg := Default()

	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return nil, err
		}
		file, err := os.Open(expanded)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", expanded, err)
		}
	}

	if override != nil {
		override(&cfg)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandPath resolves a leading tilde and makes the path absolute.
func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
