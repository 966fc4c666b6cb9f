// Package config loads, normalizes, and validates yoloconv configuration data.
//
// It supplies the converter defaults, reads an optional TOML file, lets the
// command line override individual values, expands user paths, and translates
// the result into yoloconv.Options.
package config
