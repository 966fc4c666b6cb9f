package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnnotations()
	c.normalizeLabels()
	c.normalizeOutput()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputRoot, err = expandPath(strings.TrimSpace(c.Paths.InputRoot)); err != nil {
		return fmt.Errorf("paths.input_root: %w", err)
	}
	if c.Paths.OutputRoot, err = expandPath(strings.TrimSpace(c.Paths.OutputRoot)); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}
	if c.Paths.SeedManifest, err = expandPath(strings.TrimSpace(c.Paths.SeedManifest)); err != nil {
		return fmt.Errorf("paths.seed_manifest: %w", err)
	}
	return nil
}

func (c *Config) normalizeAnnotations() {
	c.Annotations.FileName = strings.TrimSpace(c.Annotations.FileName)
	c.Annotations.ImageKey = strings.TrimSpace(c.Annotations.ImageKey)
	c.Annotations.BBoxFormat = strings.ToLower(strings.TrimSpace(c.Annotations.BBoxFormat))

	exts := c.Annotations.ImageExtensions[:0]
	for _, e := range c.Annotations.ImageExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	c.Annotations.ImageExtensions = exts
}

func (c *Config) normalizeLabels() {
	c.Labels.Field = strings.ToLower(strings.TrimSpace(c.Labels.Field))
	mappings := c.Labels.Mappings[:0]
	for _, m := range c.Labels.Mappings {
		if m = strings.TrimSpace(m); m != "" {
			mappings = append(mappings, m)
		}
	}
	c.Labels.Mappings = mappings
}

func (c *Config) normalizeOutput() {
	c.Output.ManifestName = strings.TrimSpace(c.Output.ManifestName)
	if c.Output.Workers <= 0 {
		c.Output.Workers = defaultWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
