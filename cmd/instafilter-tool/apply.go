package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DMarby/instafilter/internal/cache/memory"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/pipeline"
	"github.com/DMarby/instafilter/internal/tracing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type applyOptions struct {
	filter       string
	intensity    float64
	radius       float64
	scale        float64
	format       string
	quality      int
	maxImageSize int
	verbose      bool
}

func newApplyCommand() *cobra.Command {
	defaults := filter.DefaultControls()
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply <input> <output>",
		Short: "Apply a filter to an image file",
		Long: `Decodes the input image, runs the filter with the given control values and writes the result.
Controls that aren't set keep their default values, and are ignored by filters that don't respond to them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := filter.Update{}
			if cmd.Flags().Changed("intensity") {
				update.Intensity = &opts.intensity
			}
			if cmd.Flags().Changed("radius") {
				update.Radius = &opts.radius
			}
			if cmd.Flags().Changed("scale") {
				update.Scale = &opts.scale
			}

			return runApply(cmd, opts, update, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.filter, "filter", "f", filter.DefaultName, "filter to apply")
	f.Float64Var(&opts.intensity, "intensity", defaults.Intensity, "intensity control value")
	f.Float64Var(&opts.radius, "radius", defaults.Radius, "radius control value")
	f.Float64Var(&opts.scale, "scale", defaults.Scale, "scale control value")
	f.StringVar(&opts.format, "format", "", "output format (jpeg, png), defaults to the output file extension")
	f.IntVar(&opts.quality, "quality", 90, "jpeg output quality")
	f.IntVar(&opts.maxImageSize, "max-image-size", 0, "scale the input down to fit within this many pixels, 0 to disable")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log processing details")

	return cmd
}

func runApply(cmd *cobra.Command, opts *applyOptions, update filter.Update, input, output string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	entry, ok := filter.Default().Lookup(opts.filter)
	if !ok {
		return fmt.Errorf("unknown filter %q, see the filters command", opts.filter)
	}

	format, err := outputFormat(opts.format, output)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	img, err := pipeline.Decode(data, opts.maxImageSize)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", input, err)
	}

	level := zap.WarnLevel
	if opts.verbose {
		level = zap.DebugLevel
	}
	log := logger.New(level)
	defer log.Sync()

	processor := pipeline.New(ctx, log, tracing.Noop(log, "instafilter-tool"), 1, memory.New(1), opts.quality)

	result, err := processor.Process(ctx, &pipeline.Task{
		Source:       img,
		SourceDigest: pipeline.Digest(data),
		Filter:       entry.New,
		Capabilities: entry.Capabilities(),
		Controls:     update.Apply(filter.DefaultControls()),
		Format:       format,
	})
	if err != nil {
		return fmt.Errorf("error applying %s: %w", entry.Name, err)
	}

	if err := os.WriteFile(output, result.Data, 0644); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s applied with %v\n", output, entry.Name, result.Applied)
	return err
}

// outputFormat returns the named format, or the format matching the output file extension
func outputFormat(name, output string) (pipeline.Format, error) {
	if name != "" {
		return pipeline.ParseFormat(name)
	}

	format, err := pipeline.ParseFormat(filepath.Ext(output))
	if err != nil {
		return "", fmt.Errorf("can't tell the format of %s, set --format", output)
	}

	return format, nil
}
