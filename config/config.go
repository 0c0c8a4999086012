// Package config holds the settings of a pixelate run and loads them from
// JSON or YAML files.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/grouting/pixelate/images"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration of a pixelate run.
type Config struct {
	// Path is the image file or directory to process.
	Path string `json:"path" yaml:"path"`
	// ScaleFactor is the block edge length, in [2, 8].
	ScaleFactor int `json:"scale_factor" yaml:"scale_factor"`
	// KeepDimensions keeps the output the size of the (cropped) input.
	KeepDimensions bool `json:"keep_dimensions" yaml:"keep_dimensions"`
	// ForceCrop crops images whose dimensions are not divisible by ScaleFactor.
	ForceCrop bool `json:"force_crop" yaml:"force_crop"`
	// Centre centres the crop region.
	Centre bool `json:"centre" yaml:"centre"`
	// Overwrite replaces the input file instead of writing pixelated_<name>.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`
	// OutputDir, when set, receives the output files instead of the input's directory.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Recursive descends into sub-directories in directory mode.
	Recursive bool `json:"recursive" yaml:"recursive"`
	// Workers is the number of images processed concurrently in directory mode.
	Workers int `json:"workers" yaml:"workers"`
	// MaxDimension bounds the longest side before pixelation. Zero disables it.
	MaxDimension int `json:"max_dimension" yaml:"max_dimension"`
	// AutoRotate applies JPEG EXIF orientation while decoding.
	AutoRotate bool `json:"auto_rotate" yaml:"auto_rotate"`
	// JPEGQuality is the JPEG encoder quality, in [1, 100].
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`
	// WebPQuality is the lossy WebP encoder quality, in [0, 100]. Only used
	// when WebPLossless is false.
	WebPQuality float32 `json:"webp_quality" yaml:"webp_quality"`
	// WebPLossless selects lossless WebP output. On by default so block edges
	// stay sharp.
	WebPLossless bool `json:"webp_lossless" yaml:"webp_lossless"`
	// LogFile, when set, receives a copy of every log line.
	LogFile string `json:"log_file" yaml:"log_file"`
	// Progress shows a spinner while a directory is processed.
	Progress bool `json:"progress" yaml:"progress"`
	// Stats prints a stage timing report at the end of the run.
	Stats bool `json:"stats" yaml:"stats"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:      runtime.NumCPU(),
		JPEGQuality:  90,
		WebPQuality:  90,
		WebPLossless: true,
	}
}

// EnableAll turns on every optional behaviour flag, like the CLI's --all.
func (c *Config) EnableAll() {
	c.KeepDimensions = true
	c.ForceCrop = true
	c.Centre = true
	c.Overwrite = true
}

// Scale returns the validated scale factor.
func (c *Config) Scale() (images.ScaleFactor, error) {
	return images.ParseScaleFactor(c.ScaleFactor)
}

// Params returns the per-image pixelation parameters.
func (c *Config) Params() (images.Params, error) {
	scale, err := c.Scale()
	if err != nil {
		return images.Params{}, err
	}

	return images.Params{
		Scale:     scale,
		AllowCrop: c.ForceCrop,
		Centre:    c.Centre,
		Mode:      images.ModeFor(c.KeepDimensions),
	}, nil
}

// DecodeOptions returns the codec decode options.
func (c *Config) DecodeOptions() images.DecodeOptions {
	return images.DecodeOptions{AutoRotate: c.AutoRotate}
}

// EncodeOptions returns the codec encode options.
func (c *Config) EncodeOptions() images.EncodeOptions {
	return images.EncodeOptions{
		JPEGQuality:  c.JPEGQuality,
		WebPQuality:  c.WebPQuality,
		WebPLossless: c.WebPLossless,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Path == "" {
		return errors.New("path is required")
	}
	if _, err := c.Scale(); err != nil {
		return err
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be a positive integer, got %d", c.Workers)
	}
	if c.MaxDimension < 0 {
		return errors.Errorf("max dimension must not be negative, got %d", c.MaxDimension)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.Errorf("jpeg quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.WebPQuality < 0 || c.WebPQuality > 100 {
		return errors.Errorf("webp quality must be between 0 and 100, got %g", c.WebPQuality)
	}
	return nil
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Fields missing from the file keep their DefaultConfig values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		err = json.Unmarshal(data, config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		return nil, errors.Errorf("unsupported config file extension: %q", filepath.Ext(filename))
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON or YAML file, chosen by extension.
func (c *Config) SaveConfig(filename string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.Errorf("unsupported config file extension: %q", filepath.Ext(filename))
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}
