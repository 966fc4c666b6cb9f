package config

import "github.com/sensorable/yoloconv"

const (
	defaultBBoxFormat   = "xyxy"
	defaultLabelField   = "class"
	defaultEmitEmpty    = true
	defaultWorkers      = 1
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultManifestName = yoloconv.DefaultManifestName
)

// Default returns a Config populated with the converter defaults. The input and output roots
// have no default.
func Default() Config {
	return Config{
		Annotations: Annotations{
			FileName:        yoloconv.DefaultAnnotationName,
			ImageKey:        yoloconv.DefaultImageKey,
			BBoxFormat:      defaultBBoxFormat,
			ImageExtensions: append([]string(nil), yoloconv.DefaultImageExtensions...),
		},
		Labels: Labels{
			Field:     defaultLabelField,
			Separator: yoloconv.DefaultLabelSeparator,
		},
		Output: Output{
			ManifestName: defaultManifestName,
			EmitEmpty:    defaultEmitEmpty,
			Workers:      defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
