package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/grouting/pixelate/config"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// usageError is a flag parse failure that has already been written, together
// with the usage text, to the flag set's output.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// parseFlags parses args into fs and reports problems on output exactly once.
// pflag is kept quiet during Parse; the help text or the parse error followed
// by the help text is written here instead. Parse failures other than -h come
// back as *usageError.
func parseFlags(fs *pflag.FlagSet, args []string, output io.Writer) error {
	usage := fs.Usage
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	err := fs.Parse(args)

	fs.Usage = usage
	fs.SetOutput(output)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, pflag.ErrHelp):
		usage()
		return err
	default:
		fmt.Fprintf(output, "%v\n\n", err)
		usage()
		return &usageError{err: err}
	}
}

// options holds flags that are not part of config.Config.
type options struct {
	configFile string
	all        bool
}

// newFlagSet binds every flag to cfg, so the values already in cfg become the
// flag defaults. Building it twice (defaults first, then the loaded config
// file) lets explicit flags override file values.
func newFlagSet(cfg *config.Config, opts *options, output io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("pixelate", pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.SortFlags = false

	fs.BoolVarP(&cfg.KeepDimensions, "keep-dimensions", "k", cfg.KeepDimensions, "Keep the dimensions of the output image the same as the input")
	fs.BoolVarP(&cfg.ForceCrop, "force-crop", "f", cfg.ForceCrop, "Force crop the image in order for it to be divisible by the scale factor")
	fs.BoolVarP(&cfg.Centre, "centre", "c", cfg.Centre, "Centre the image if cropping is required")
	fs.BoolVarP(&cfg.Overwrite, "overwrite", "o", cfg.Overwrite, "Overwrite the input image")
	fs.BoolVarP(&opts.all, "all", "a", false, "Use all optional flags (-k -f -c -o)")
	fs.StringVarP(&cfg.OutputDir, "output-dir", "d", cfg.OutputDir, "Directory to write pixelated images to (default: next to the input)")
	fs.BoolVarP(&cfg.Recursive, "recursive", "r", cfg.Recursive, "Descend into sub-directories when the path is a directory")
	fs.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "Number of images processed concurrently in directory mode")
	fs.IntVar(&cfg.MaxDimension, "max-dimension", cfg.MaxDimension, "Downscale images whose longest side exceeds this before pixelating (0 disables)")
	fs.BoolVar(&cfg.AutoRotate, "auto-rotate", cfg.AutoRotate, "Apply JPEG EXIF orientation while decoding")
	fs.IntVar(&cfg.JPEGQuality, "jpeg-quality", cfg.JPEGQuality, "JPEG output quality (1-100)")
	fs.Float32Var(&cfg.WebPQuality, "webp-quality", cfg.WebPQuality, "Lossy WebP output quality (0-100). Setting it switches WebP output to lossy")
	fs.BoolVar(&cfg.WebPLossless, "webp-lossless", cfg.WebPLossless, "Write lossless WebP output")
	fs.StringVar(&opts.configFile, "config", opts.configFile, "Path to a JSON or YAML configuration file")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Append log lines to this file")
	fs.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show a spinner while processing a directory")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print a stage timing report at the end")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: pixelate [options] <path> <scale_factor>\n\n")
		fmt.Fprintf(output, "Pixelate an image, or every image in a directory, by averaging scale×scale blocks.\n\n")
		fmt.Fprintf(output, "Arguments:\n")
		fmt.Fprintf(output, "  path          The path of the image or directory that you want to process\n")
		fmt.Fprintf(output, "  scale_factor  The block edge length, between 2 and 8\n\n")
		fmt.Fprintf(output, "Options:\n")
		fmt.Fprint(output, fs.FlagUsages())
		fmt.Fprintf(output, "\nExamples:\n")
		fmt.Fprintf(output, "  pixelate photo.png 4\n")
		fmt.Fprintf(output, "  pixelate -kfc ./sprites 8 --output-dir ./out\n")
		fmt.Fprintf(output, "  pixelate --config pixelate.yaml\n")
	}

	return fs
}

// parseArgs builds the run configuration from the command line.
//
// Arguments:
//   - args: The command line arguments without the program name.
//   - output: Where usage and flag errors are written, once each.
//
// Returns:
//   - *config.Config: The merged configuration, not yet validated.
//   - error: pflag.ErrHelp when -h was given, a *usageError when a flag could
//     not be parsed, or a config file or positional argument error.
func parseArgs(args []string, output io.Writer) (*config.Config, error) {
	cfg := config.DefaultConfig()
	opts := &options{}

	fs := newFlagSet(cfg, opts, output)
	if err := parseFlags(fs, args, output); err != nil {
		return nil, err
	}

	if opts.configFile != "" {
		loaded, err := config.LoadConfig(opts.configFile)
		if err != nil {
			return nil, err
		}

		cfg = loaded
		opts = &options{configFile: opts.configFile}
		fs = newFlagSet(cfg, opts, output)
		if err := parseFlags(fs, args, output); err != nil {
			return nil, err
		}
	}

	if opts.all {
		cfg.EnableAll()
	}

	// Asking for a lossy quality means lossy output, unless lossless was
	// requested explicitly as well.
	if fs.Changed("webp-quality") && !fs.Changed("webp-lossless") {
		cfg.WebPLossless = false
	}

	positional := fs.Args()
	if len(positional) > 2 {
		return nil, errors.Errorf("expected at most 2 arguments, got %d", len(positional))
	}
	if len(positional) >= 1 {
		cfg.Path = positional[0]
	}
	if len(positional) == 2 {
		scale, err := strconv.Atoi(positional[1])
		if err != nil {
			return nil, errors.Errorf("scale factor must be an integer, got %q", positional[1])
		}
		cfg.ScaleFactor = scale
	}

	return cfg, nil
}
