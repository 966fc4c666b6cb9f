package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sensorable/yoloconv"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnnotations(); err != nil {
		return err
	}
	if err := c.validateLabels(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.InputRoot == "" {
		return errors.New("paths.input_root is required")
	}
	if c.Paths.OutputRoot == "" {
		return errors.New("paths.output_root is required")
	}
	if c.Paths.InputRoot == c.Paths.OutputRoot {
		return errors.New("paths.input_root and paths.output_root cannot be identical")
	}
	return nil
}

func (c *Config) validateAnnotations() error {
	if c.Annotations.FileName == "" || strings.ContainsRune(c.Annotations.FileName, filepath.Separator) {
		return fmt.Errorf("annotations.file_name must be a plain file name, got %q", c.Annotations.FileName)
	}
	if c.Annotations.ImageKey == "" {
		return errors.New("annotations.image_key must be set")
	}
	if len(c.Annotations.ImageExtensions) == 0 {
		return errors.New("annotations.image_extensions must list at least one extension")
	}
	if _, err := yoloconv.ParseBBoxFormat(c.Annotations.BBoxFormat); err != nil {
		return fmt.Errorf("annotations.bbox_format: %w", err)
	}
	return nil
}

func (c *Config) validateLabels() error {
	if _, err := yoloconv.ParseLabelField(c.Labels.Field); err != nil {
		return fmt.Errorf("labels.field: %w", err)
	}
	if c.Labels.Separator == "" {
		return errors.New("labels.separator must not be empty")
	}
	if _, err := yoloconv.ParseLabelMappings(c.Labels.Mappings); err != nil {
		return fmt.Errorf("labels.mappings: %w", err)
	}
	return nil
}

func (c *Config) validateOutput() error {
	name := c.Output.ManifestName
	if name == "" || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("output.manifest_name must be a plain file name, got %q", name)
	}
	switch name {
	case yoloconv.ImagesDir, yoloconv.LabelsDir, yoloconv.ClassesFileName:
		return fmt.Errorf("output.manifest_name %q collides with the dataset layout", name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
