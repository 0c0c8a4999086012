package pipeline

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/grouting/pixelate/config"
	"github.com/grouting/pixelate/images"
	"github.com/grouting/pixelate/logger"
	"github.com/grouting/pixelate/profiler"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, cfg *config.Config) (*Runner, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	r, err := NewRunner(cfg, logger.New(&logs), nil)
	require.NoError(t, err)
	return r, &logs
}

func testConfig(path string, scale int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Path = path
	cfg.ScaleFactor = scale
	cfg.Workers = 2
	return cfg
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	_, err := NewRunner(testConfig("x.png", 9), nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, images.ErrInvalidScaleFactor))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunFileShrink(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cat.png")
	writePNG(t, input, 8, 8)

	r, _ := newTestRunner(t, testConfig(input, 4))
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, FailFast, report.Policy)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Processed)
	require.Len(t, report.Outcomes, 1)

	out := filepath.Join(dir, "pixelated_cat.png")
	assert.Equal(t, out, report.Outcomes[0].OutputPath)
	assert.Equal(t, image.Rect(0, 0, 2, 2), readPNGBounds(t, out))
	assert.Equal(t, image.Rect(0, 0, 8, 8), readPNGBounds(t, input), "input untouched")
}

func TestRunFileForceCropKeepDimensions(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "wide.png")
	writePNG(t, input, 10, 9)

	cfg := testConfig(input, 4)
	cfg.ForceCrop = true
	cfg.Centre = true
	cfg.KeepDimensions = true

	r, logs := newTestRunner(t, cfg)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	outcome := report.Outcomes[0]
	assert.True(t, outcome.Cropped)
	assert.Equal(t, images.CropRect{X: 1, Y: 0, Width: 8, Height: 8}, outcome.Crop)
	assert.Equal(t, image.Rect(0, 0, 8, 8), readPNGBounds(t, outcome.OutputPath))
	assert.Contains(t, logs.String(), "cropped")
}

func TestRunFileNotDivisible(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "odd.png")
	writePNG(t, input, 5, 4)

	r, _ := newTestRunner(t, testConfig(input, 2))
	report, err := r.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)

	assert.True(t, errors.Is(err, images.ErrNotDivisible))
	var imgErr *ImageError
	require.True(t, errors.As(err, &imgErr))
	assert.Equal(t, StagePixelate, imgErr.Stage)
	assert.Contains(t, err.Error(), "-f flag")

	assert.Equal(t, 0, report.Processed)
	assert.NoFileExists(t, filepath.Join(dir, "pixelated_odd.png"))
}

func TestRunFileOverwrite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cat.png")
	writePNG(t, input, 8, 4)

	cfg := testConfig(input, 2)
	cfg.Overwrite = true

	r, _ := newTestRunner(t, cfg)
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 4, 2), readPNGBounds(t, input))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files left behind")
	assert.Equal(t, "cat.png", entries[0].Name())
}

func TestRunFileOverwriteKeepsMode(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cat.png")
	writePNG(t, input, 8, 4)
	require.NoError(t, os.Chmod(input, 0o600))

	cfg := testConfig(input, 2)
	cfg.Overwrite = true

	r, _ := newTestRunner(t, cfg)
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(input)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.Equal(t, image.Rect(0, 0, 4, 2), readPNGBounds(t, input))
}

func TestRunFileNewOutputMode(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cat.png")
	writePNG(t, input, 4, 4)
	require.NoError(t, os.Chmod(input, 0o600))

	r, _ := newTestRunner(t, testConfig(input, 2))
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "pixelated_cat.png"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestRunMissingPath(t *testing.T) {
	r, _ := newTestRunner(t, testConfig(filepath.Join(t.TempDir(), "gone.png"), 2))
	_, err := r.Run(context.Background())

	var imgErr *ImageError
	require.True(t, errors.As(err, &imgErr))
	assert.Equal(t, StageOpen, imgErr.Stage)
	assert.True(t, os.IsNotExist(errors.Cause(imgErr.Err)))
}

func TestRunDirectorySkipsFailures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "good.png"), 8, 8)
	writePNG(t, filepath.Join(dir, "bad.png"), 5, 4)
	writePNG(t, filepath.Join(dir, "pixelated_old.png"), 8, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	r, logs := newTestRunner(t, testConfig(dir, 2))
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SkipAndContinue, report.Policy)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 2, report.Skipped)

	assert.FileExists(t, filepath.Join(dir, "pixelated_good.png"))
	assert.NoFileExists(t, filepath.Join(dir, "pixelated_bad.png"))
	assert.NoFileExists(t, filepath.Join(dir, "pixelated_pixelated_old.png"))

	assert.Contains(t, logs.String(), "image dimensions at '"+filepath.Join(dir, "bad.png")+"' were not divisible")
	assert.Contains(t, logs.String(), "could not decode image at '"+filepath.Join(dir, "broken.png")+"'")
	assert.Contains(t, logs.String(), "; skipping")

	paths := make([]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		paths = append(paths, filepath.Base(o.Path))
	}
	assert.Equal(t, []string{"bad.png", "broken.png", "good.png"}, paths)
}

func TestRunDirectoryOutputDirRecursive(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writePNG(t, filepath.Join(src, "a.png"), 8, 8)
	writePNG(t, filepath.Join(src, "sub", "b.png"), 16, 8)

	cfg := testConfig(src, 8)
	cfg.Recursive = true
	cfg.OutputDir = dst
	cfg.Workers = 4

	r, _ := newTestRunner(t, cfg)
	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)

	assert.Equal(t, image.Rect(0, 0, 1, 1), readPNGBounds(t, filepath.Join(dst, "pixelated_a.png")))
	assert.Equal(t, image.Rect(0, 0, 2, 1), readPNGBounds(t, filepath.Join(dst, "sub", "pixelated_b.png")))
}

func TestRunPathsFailFast(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "a_bad.png")
	good := filepath.Join(dir, "b_good.png")
	writePNG(t, bad, 5, 4)
	writePNG(t, good, 4, 4)

	cfg := testConfig(dir, 2)
	cfg.Workers = 1

	r, _ := newTestRunner(t, cfg)
	report, err := r.RunPaths(context.Background(), dir, []string{bad, good}, FailFast)
	require.Error(t, err)
	assert.True(t, errors.Is(err, images.ErrNotDivisible))
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 2, report.Total)
}

func TestCollectFailFastWarnsOnLaterFailures(t *testing.T) {
	r, logs := newTestRunner(t, testConfig("dir", 2))

	first := &ImageError{Stage: StagePixelate, Path: "a.png", Err: images.ErrNotDivisible}
	second := &ImageError{Stage: StageDecode, Path: "b.png", Err: errors.New("unexpected EOF")}

	results := make(chan Outcome, 4)
	results <- Outcome{Path: "a.png", Err: first}
	results <- Outcome{Path: "b.png", Err: second}
	results <- Outcome{Path: "c.png"}
	results <- Outcome{Path: "d.png", Err: &ImageError{Stage: StageOpen, Path: "d.png", Err: context.Canceled}}
	close(results)

	var cancelled int
	report := &Report{Policy: FailFast}
	firstErr, interrupted := r.collect(report, results, FailFast, func() { cancelled++ })

	assert.Same(t, first, firstErr)
	assert.True(t, interrupted)
	assert.Equal(t, 1, cancelled)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	assert.Len(t, report.Outcomes, 4)

	assert.Contains(t, logs.String(), "WARN")
	assert.Contains(t, logs.String(), "could not decode image at 'b.png'")
	assert.NotContains(t, logs.String(), "a.png", "the returned error is left to the caller")
}

func TestRunCancelledContext(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(t, filepath.Join(dir, name), 4, 4)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newTestRunner(t, testConfig(dir, 2))
	report, err := r.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Skipped)
	assert.NoFileExists(t, filepath.Join(dir, "pixelated_a.png"))
}

func TestRunEmptyDirectory(t *testing.T) {
	r, _ := newTestRunner(t, testConfig(t.TempDir(), 2))
	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, report.Outcomes)
}

func TestRunRecordsStages(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "big.png")
	writePNG(t, input, 32, 16)

	cfg := testConfig(input, 2)
	cfg.MaxDimension = 16

	prof := profiler.New()
	r, err := NewRunner(cfg, nil, prof)
	require.NoError(t, err)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, report.Outcomes[0].Width)
	assert.Equal(t, 8, report.Outcomes[0].Height)

	var names []string
	for _, op := range prof.Operations() {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{"decode", "encode", "pixelate", "prescale"}, names)
}

func TestRunProgress(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png"} {
		writePNG(t, filepath.Join(dir, name), 4, 4)
	}

	cfg := testConfig(dir, 2)
	cfg.Progress = true

	r, _ := newTestRunner(t, cfg)
	var progress bytes.Buffer
	r.SetProgressOutput(&progress)

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, progress.String(), "Pixelation complete. 2/2 images processed.")
}
