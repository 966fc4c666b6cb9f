package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/sensorable/yoloconv"
	"github.com/sensorable/yoloconv/internal/config"
)

// printSummary writes the run totals and, if items were skipped, a table of skips by error kind.
func printSummary(w io.Writer, res *yoloconv.Result, cfg *config.Config) {
	fmt.Fprintf(w, "Scenes: %d, Images: %d, YOLO instances: %d, Classes: %d\n",
		res.Scenes, res.Images, res.Instances, len(res.Labels))

	if kinds := res.Report.ByKind(); len(kinds) > 0 {
		fmt.Fprintf(w, "Skipped %d instances and %d images in %d scenes without output:\n",
			res.Report.SkippedInstances(), res.Report.SkippedImages(), res.SkippedScenes)
		fmt.Fprintln(w, renderSkipTable(kinds))
	}

	fmt.Fprintf(w, "Wrote: %s and %s\n", filepath.Join(cfg.Paths.OutputRoot, yoloconv.ImagesDir),
		filepath.Join(cfg.Paths.OutputRoot, yoloconv.LabelsDir))
	fmt.Fprintf(w, "Dataset YAML: %s\n", res.ManifestPath)
}
