package config

import "github.com/sensorable/yoloconv"

// ConverterOptions translates the configuration into options for yoloconv.NewConverter.
func (c *Config) ConverterOptions() (yoloconv.Options, error) {
	field, err := yoloconv.ParseLabelField(c.Labels.Field)
	if err != nil {
		return yoloconv.Options{}, err
	}
	bboxFormat, err := yoloconv.ParseBBoxFormat(c.Annotations.BBoxFormat)
	if err != nil {
		return yoloconv.Options{}, err
	}
	mappings, err := yoloconv.ParseLabelMappings(c.Labels.Mappings)
	if err != nil {
		return yoloconv.Options{}, err
	}

	return yoloconv.Options{
		InputRoot:      c.Paths.InputRoot,
		OutputRoot:     c.Paths.OutputRoot,
		AnnotationName: c.Annotations.FileName,
		ImageKey:       c.Annotations.ImageKey,
		ManifestName:   c.Output.ManifestName,
		Clean:          c.Output.Clean,
		ClassNames:     c.Output.ClassesTxt,
		SeedManifest:   c.Paths.SeedManifest,
		Workers:        c.Output.Workers,
		Scene: yoloconv.SceneOptions{
			LabelField:      field,
			LabelSeparator:  c.Labels.Separator,
			LabelMappings:   mappings,
			BBoxFormat:      bboxFormat,
			ImageExtensions: c.Annotations.ImageExtensions,
			Strict:          c.Strict,
			EmitEmpty:       c.Output.EmitEmpty,
		},
	}, nil
}
