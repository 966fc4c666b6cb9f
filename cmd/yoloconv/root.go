package main

import (
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "yoloconv",
		Short:         "Convert AI Verse scene datasets to the YOLO format",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newConvertCommand())
	root.AddCommand(newConfigCommand())
	return root
}
