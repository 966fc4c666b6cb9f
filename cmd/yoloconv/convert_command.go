package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sensorable/yoloconv"
	"github.com/sensorable/yoloconv/internal/config"
	"github.com/sensorable/yoloconv/internal/logging"
)

// convertFlags holds the command-line values of the convert command. Only flags that were set
// explicitly override the configuration file.
type convertFlags struct {
	configPath string

	inputRoot    string
	outputRoot   string
	seedManifest string

	annotationName  string
	imageKey        string
	bboxFormat      string
	imageExtensions []string

	labelField     string
	labelSeparator string
	labelMappings  []string

	manifestName string
	clean        bool
	emitEmpty    bool
	classesTxt   bool
	workers      int
	strict       bool

	logLevel   string
	logFormat  string
	noProgress bool
}

func newConvertCommand() *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert all scenes below the input directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath, func(c *config.Config) {
				f.apply(cmd.Flags(), c)
			})
			if err != nil {
				return err
			}
			return runConvert(cmd, cfg, !f.noProgress)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "The TOML configuration `file`")
	fl.StringVar(&f.inputRoot, "in", "", "The dataset root containing the scene directories")
	fl.StringVar(&f.outputRoot, "out", "", "The output directory; images/ and labels/ are created inside")
	fl.StringVar(&f.seedManifest, "seed-manifest", "", "Continue the class numbering of this data.yaml")
	fl.StringVar(&f.annotationName, "annotation-name", yoloconv.DefaultAnnotationName, "The per-scene annotation file name")
	fl.StringVar(&f.imageKey, "image-key", yoloconv.DefaultImageKey, "Key in images[] for the file name")
	fl.StringVar(&f.bboxFormat, "bbox-format", "xyxy", "Layout of the bbox values: xyxy or xywh")
	fl.StringSliceVar(&f.imageExtensions, "image-extensions", yoloconv.DefaultImageExtensions, "Allowed image file extensions")
	fl.StringVar(&f.labelField, "label-field", "class", "Field used for class names: class, subclass, superclass, path, class_subclass")
	fl.StringVar(&f.labelSeparator, "label-separator", yoloconv.DefaultLabelSeparator, "Separator for composite label fields")
	fl.StringSliceVar(&f.labelMappings, "map-label", nil, "Label substring replacement `old=new`; may be repeated")
	fl.StringVar(&f.manifestName, "yaml-name", yoloconv.DefaultManifestName, "Name of the generated dataset YAML file")
	fl.BoolVar(&f.clean, "clean", false, "Delete images/, labels/, the dataset YAML and classes.txt before running")
	fl.BoolVar(&f.emitEmpty, "emit-empty", true, "Write images without valid instances with an empty label file")
	fl.BoolVar(&f.classesTxt, "classes-txt", false, "Also write the class names to classes.txt")
	fl.IntVar(&f.workers, "workers", 1, "Concurrent image copies per scene")
	fl.BoolVar(&f.strict, "strict", false, "Fail on missing files, fields or invalid boxes instead of skipping them")
	fl.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fl.StringVar(&f.logFormat, "log-format", "console", "Log format: console or json")
	fl.BoolVar(&f.noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

// apply copies the explicitly set flags into c.
func (f *convertFlags) apply(fl *pflag.FlagSet, c *config.Config) {
	set := func(name string, fn func()) {
		if fl.Changed(name) {
			fn()
		}
	}
	set("in", func() { c.Paths.InputRoot = f.inputRoot })
	set("out", func() { c.Paths.OutputRoot = f.outputRoot })
	set("seed-manifest", func() { c.Paths.SeedManifest = f.seedManifest })
	set("annotation-name", func() { c.Annotations.FileName = f.annotationName })
	set("image-key", func() { c.Annotations.ImageKey = f.imageKey })
	set("bbox-format", func() { c.Annotations.BBoxFormat = f.bboxFormat })
	set("image-extensions", func() { c.Annotations.ImageExtensions = f.imageExtensions })
	set("label-field", func() { c.Labels.Field = f.labelField })
	set("label-separator", func() { c.Labels.Separator = f.labelSeparator })
	set("map-label", func() { c.Labels.Mappings = f.labelMappings })
	set("yaml-name", func() { c.Output.ManifestName = f.manifestName })
	set("clean", func() { c.Output.Clean = f.clean })
	set("emit-empty", func() { c.Output.EmitEmpty = f.emitEmpty })
	set("classes-txt", func() { c.Output.ClassesTxt = f.classesTxt })
	set("workers", func() { c.Output.Workers = f.workers })
	set("strict", func() { c.Strict = f.strict })
	set("log-level", func() { c.Logging.Level = f.logLevel })
	set("log-format", func() { c.Logging.Format = f.logFormat })
}

func runConvert(cmd *cobra.Command, cfg *config.Config, showProgress bool) error {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	opts, err := cfg.ConverterOptions()
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if showProgress && isTerminal(cmd.ErrOrStderr()) {
		opts.Progress = func(done, total int, scene yoloconv.Scene) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Converting scenes"),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
				)
			}
			_ = bar.Set(done)
		}
	}

	conv, err := yoloconv.NewConverter(opts, logger)
	if err != nil {
		return err
	}
	res, err := conv.Run(cmd.Context())
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), res, cfg)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
