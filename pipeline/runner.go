// Package pipeline runs the decode, reconcile, pixelate and encode steps over
// a single image file or a directory of images.
package pipeline

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/grouting/pixelate/config"
	"github.com/grouting/pixelate/images"
	"github.com/grouting/pixelate/images/kernels"
	"github.com/grouting/pixelate/logger"
	"github.com/grouting/pixelate/profiler"
	"github.com/pkg/errors"
)

// Outcome is the result of processing one image.
type Outcome struct {
	// Path is the input image.
	Path string
	// OutputPath is where the result was written. Empty on failure.
	OutputPath string
	// Width and Height are the decoded (and pre-scaled) input dimensions.
	Width, Height int
	// Crop is the region that was pixelated.
	Crop images.CropRect
	// Cropped is true when Crop is smaller than the input.
	Cropped bool
	// Err is nil on success and an *ImageError otherwise.
	Err error
}

// Report summarises a run.
type Report struct {
	// Policy is the error policy the run used.
	Policy ErrorPolicy
	// Total is the number of images the run attempted.
	Total int
	// Processed counts images written successfully.
	Processed int
	// Skipped counts images that failed under SkipAndContinue.
	Skipped int
	// Failed counts images that failed under FailFast. Only the first of them
	// is returned as the run's error.
	Failed int
	// Outcomes holds one entry per finished image, sorted by path.
	Outcomes []Outcome
	// Duration is the wall time of the run.
	Duration time.Duration
}

// Runner processes images according to a Config.
type Runner struct {
	cfg    *config.Config
	params images.Params
	log    *logger.Logger
	prof   *profiler.Profiler

	// progress receives the spinner when cfg.Progress is set.
	progress io.Writer
}

// NewRunner validates cfg and returns a Runner.
//
// Arguments:
//   - cfg: The run configuration.
//   - log: Destination for per-image messages. nil discards them.
//   - prof: Optional stage profiler. nil disables profiling.
//
// Returns:
//   - *Runner: The runner.
//   - error: The validation error, if any.
func NewRunner(cfg *config.Config, log *logger.Logger, prof *profiler.Profiler) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.New(nil)
	}

	return &Runner{
		cfg:      cfg,
		params:   params,
		log:      log,
		prof:     prof,
		progress: os.Stderr,
	}, nil
}

// SetProgressOutput redirects the progress spinner.
func (r *Runner) SetProgressOutput(w io.Writer) {
	r.progress = w
}

// Run processes cfg.Path. A file is processed with FailFast; a directory is
// scanned and processed with SkipAndContinue.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	info, err := os.Stat(r.cfg.Path)
	if err != nil {
		return nil, &ImageError{Stage: StageOpen, Path: r.cfg.Path, Err: err}
	}

	if !info.IsDir() {
		return r.RunFile(ctx, r.cfg.Path)
	}

	return r.RunDirectory(ctx, r.cfg.Path)
}

// RunFile processes one image. Any failure is returned.
func (r *Runner) RunFile(ctx context.Context, path string) (*Report, error) {
	// A single image has nothing to run beside it, so split its rows instead.
	px := &images.Pixelator{Parallel: true}

	return r.run(ctx, filepath.Dir(path), []string{path}, FailFast, px)
}

// RunDirectory processes every image in dir. Failures are logged and skipped.
func (r *Runner) RunDirectory(ctx context.Context, dir string) (*Report, error) {
	paths, err := CollectImageFiles(dir, r.cfg.Recursive)
	if err != nil {
		return nil, err
	}

	if !r.cfg.Overwrite {
		kept := paths[:0]
		for _, p := range paths {
			if !isOutputName(p) {
				kept = append(kept, p)
			}
		}
		paths = kept
	}

	px := &images.Pixelator{Pool: &kernels.Pool{}}

	return r.run(ctx, dir, paths, SkipAndContinue, px)
}

// RunPaths processes the given files with an explicit policy. root is used to
// lay out files under cfg.OutputDir.
func (r *Runner) RunPaths(ctx context.Context, root string, paths []string, policy ErrorPolicy) (*Report, error) {
	return r.run(ctx, root, paths, policy, &images.Pixelator{Pool: &kernels.Pool{}})
}

func (r *Runner) run(
	ctx context.Context,
	root string,
	paths []string,
	policy ErrorPolicy,
	px *images.Pixelator,
) (*Report, error) {
	start := time.Now()
	report := &Report{Policy: policy, Total: len(paths)}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string, len(paths))
	results := make(chan Outcome, len(paths))
	var processed int64

	workers := r.cfg.Workers
	if workers > len(paths) {
		workers = len(paths)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(ctx, &wg, jobs, results, &processed, func(ctx context.Context, path string) Outcome {
			return r.processImage(ctx, root, path, px)
		})
	}

	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	var stopProgress func()
	if r.cfg.Progress && len(paths) > 1 {
		stopProgress = startProgress(r.progress, &processed, int64(len(paths)))
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	firstErr, interrupted := r.collect(report, results, policy, cancel)

	if stopProgress != nil {
		stopProgress()
	}

	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].Path < report.Outcomes[j].Path
	})
	report.Duration = time.Since(start)

	if firstErr != nil {
		return report, firstErr
	}
	if interrupted {
		return report, ctx.Err()
	}

	return report, nil
}

// collect drains results into report. Under FailFast the first failure
// cancels the run and is returned; failures from images that were already in
// flight are counted in Report.Failed and logged as warnings. interrupted is
// true when some image never started because the context ended.
func (r *Runner) collect(
	report *Report,
	results <-chan Outcome,
	policy ErrorPolicy,
	cancel context.CancelFunc,
) (firstErr error, interrupted bool) {
	for out := range results {
		report.Outcomes = append(report.Outcomes, out)

		switch {
		case out.Err == nil:
			report.Processed++
		case isContextErr(out.Err):
			// Never started, either after a FailFast error or because the
			// caller's context ended.
			interrupted = true
		case policy == FailFast:
			report.Failed++
			if firstErr == nil {
				firstErr = out.Err
				cancel()
				continue
			}
			r.log.Warnf("%v; also failed", out.Err)
		default:
			report.Skipped++
			r.log.Errorf("%v; skipping", out.Err)
		}
	}

	return firstErr, interrupted
}

// processImage runs every stage for one image.
func (r *Runner) processImage(ctx context.Context, root, path string, px *images.Pixelator) Outcome {
	out := Outcome{Path: path}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	format, err := images.FormatFromPath(path)
	if err != nil {
		out.Err = &ImageError{Stage: StageDecode, Path: path, Err: err}
		return out
	}

	buf, err := r.decode(path, format)
	if err != nil {
		out.Err = err
		return out
	}

	if r.cfg.MaxDimension > 0 {
		done := r.prof.StartOperation("prescale")
		buf = images.Prescale(buf, r.cfg.MaxDimension)
		done()
	}

	b := buf.Bounds()
	out.Width, out.Height = b.Dx(), b.Dy()

	done := r.prof.StartOperation("pixelate")
	res, err := px.Process(buf, r.params)
	done()
	if err != nil {
		out.Err = &ImageError{Stage: StagePixelate, Path: path, Err: err}
		return out
	}
	defer px.Release(res.Image)

	out.Crop, out.Cropped = res.Crop, res.Cropped
	if res.Cropped {
		r.log.Infof("cropped '%s' from %dx%d to %dx%d at (%d, %d)",
			path, out.Width, out.Height, res.Crop.Width, res.Crop.Height, res.Crop.X, res.Crop.Y)
	}

	outputPath := OutputPath(root, path, r.cfg.OutputDir, r.cfg.Overwrite)
	done = r.prof.StartOperation("encode")
	err = writeImage(outputPath, res.Image, format, r.cfg.EncodeOptions())
	done()
	if err != nil {
		out.Err = &ImageError{Stage: StageSave, Path: path, Err: err}
		return out
	}

	out.OutputPath = outputPath
	r.prof.RecordMetric("megapixels", float64(out.Width*out.Height)/1e6)

	return out
}

// decode opens and decodes one image file.
func (r *Runner) decode(path string, format images.ImageFormat) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ImageError{Stage: StageOpen, Path: path, Err: err}
	}
	defer f.Close()

	done := r.prof.StartOperation("decode")
	buf, err := images.Decode(f, format, r.cfg.DecodeOptions())
	done()
	if err != nil {
		return nil, &ImageError{Stage: StageDecode, Path: path, Err: err}
	}

	return buf, nil
}

// writeImage encodes img into a temporary file next to path and renames it
// into place, so an overwritten input is never left half written.
func writeImage(path string, img *image.NRGBA, format images.ImageFormat, opts images.EncodeOptions) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	tmp, err := os.CreateTemp(dir, ".pixelate-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	tmpName := tmp.Name()

	// An overwritten file keeps its permission bits.
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to set output file mode")
	}

	if err := images.Encode(tmp, img, format, opts); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close temporary file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to move output into place")
	}

	return nil
}
