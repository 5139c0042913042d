package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every knob of one batch run. All values have documented
// defaults and are validated once at batch start, never lazily mid-pipeline.
type Config struct {
	Input       InputConfig      `mapstructure:"input" yaml:"input"`
	Output      OutputConfig     `mapstructure:"output" yaml:"output"`
	Filter      FilterConfig     `mapstructure:"filter" yaml:"filter"`
	Reference   string           `mapstructure:"reference" yaml:"reference"` // "average" or "none"
	Montage     string           `mapstructure:"montage" yaml:"montage"`     // "standard_1020" or "" to disable
	Electrodes  ElectrodesConfig `mapstructure:"electrodes" yaml:"electrodes"`
	BadChannels BadChannelConfig `mapstructure:"bad_channels" yaml:"bad_channels"`
	Spectral    SpectralConfig   `mapstructure:"spectral" yaml:"spectral"`
}

type InputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	// Files lists explicit recordings; when set, directory discovery is
	// bypassed.
	Files []string `mapstructure:"files" yaml:"files,omitempty"`
	// RenameTable overrides discovery of the single rename table.
	RenameTable string `mapstructure:"rename_table" yaml:"rename_table,omitempty"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	Overwrite bool   `mapstructure:"overwrite" yaml:"overwrite"`
}

type FilterConfig struct {
	LowHz   float64 `mapstructure:"low_hz" yaml:"low_hz"`
	HighHz  float64 `mapstructure:"high_hz" yaml:"high_hz"`
	MainsHz float64 `mapstructure:"mains_hz" yaml:"mains_hz"` // 50 in EU, 60 in US
	NotchQ  float64 `mapstructure:"notch_q" yaml:"notch_q"`
}

type ElectrodesConfig struct {
	Left  string `mapstructure:"left" yaml:"left"`
	Right string `mapstructure:"right" yaml:"right"`
}

type BadChannelConfig struct {
	// ZThreshold is the robust z-score beyond which a channel is bad.
	ZThreshold float64 `mapstructure:"z_threshold" yaml:"z_threshold"`
	Disabled   bool    `mapstructure:"disabled" yaml:"disabled"`
}

type SpectralConfig struct {
	AlphaLowHz    float64 `mapstructure:"alpha_low_hz" yaml:"alpha_low_hz"`
	AlphaHighHz   float64 `mapstructure:"alpha_high_hz" yaml:"alpha_high_hz"`
	WindowSeconds float64 `mapstructure:"window_seconds" yaml:"window_seconds"`
	Overlap       float64 `mapstructure:"overlap" yaml:"overlap"`
}

// Default returns the configuration used when no file or flags override it.
func Default() *Config {
	return &Config{
		Input:     InputConfig{Directory: "."},
		Filter:    FilterConfig{LowHz: 1, HighHz: 40, MainsHz: 50, NotchQ: 30},
		Reference: "average",
		Montage:   "standard_1020",
		Electrodes: ElectrodesConfig{
			Left:  "F3",
			Right: "F4",
		},
		BadChannels: BadChannelConfig{ZThreshold: 5.0},
		Spectral: SpectralConfig{
			AlphaLowHz:    8,
			AlphaHighHz:   13,
			WindowSeconds: 2.0,
			Overlap:       0.5,
		},
	}
}

// Load reads configuration from the given YAML file, merged over the
// defaults. An empty path returns the defaults; a missing explicit file is an
// error. Environment variables prefixed FAAPIPE_ override file values.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	if configFile == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("FAAPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// Validate checks the whole configuration up front so a misconfigured batch
// fails before any file is touched.
func (c *Config) Validate() error {
	if c.Input.Directory == "" && len(c.Input.Files) == 0 {
		return fmt.Errorf("input: directory or explicit files required")
	}

	if c.Filter.LowHz <= 0 {
		return fmt.Errorf("filter: low cutoff must be > 0 Hz, got %g", c.Filter.LowHz)
	}
	if c.Filter.LowHz >= c.Filter.HighHz {
		return fmt.Errorf("filter: low cutoff %g Hz must be below high cutoff %g Hz",
			c.Filter.LowHz, c.Filter.HighHz)
	}
	if c.Filter.MainsHz <= 0 {
		return fmt.Errorf("filter: mains frequency must be > 0 Hz, got %g", c.Filter.MainsHz)
	}

	switch c.Reference {
	case "average", "none":
	default:
		return fmt.Errorf("reference: must be 'average' or 'none', got %q", c.Reference)
	}

	if c.Montage != "" && c.Montage != "standard_1020" {
		return fmt.Errorf("montage: must be 'standard_1020' or empty, got %q", c.Montage)
	}

	if c.Electrodes.Left == "" || c.Electrodes.Right == "" {
		return fmt.Errorf("electrodes: left and right labels are required")
	}
	if c.Electrodes.Left == c.Electrodes.Right {
		return fmt.Errorf("electrodes: left and right must differ, both are %q", c.Electrodes.Left)
	}

	if c.BadChannels.ZThreshold <= 0 {
		return fmt.Errorf("bad_channels: z_threshold must be > 0, got %g", c.BadChannels.ZThreshold)
	}

	if c.Spectral.AlphaLowHz <= 0 || c.Spectral.AlphaLowHz >= c.Spectral.AlphaHighHz {
		return fmt.Errorf("spectral: invalid alpha band %g-%g Hz",
			c.Spectral.AlphaLowHz, c.Spectral.AlphaHighHz)
	}
	if c.Spectral.WindowSeconds <= 0 {
		return fmt.Errorf("spectral: window_seconds must be > 0, got %g", c.Spectral.WindowSeconds)
	}
	if c.Spectral.Overlap < 0 || c.Spectral.Overlap >= 1 {
		return fmt.Errorf("spectral: overlap must be in [0, 1), got %g", c.Spectral.Overlap)
	}

	return nil
}

// OutputDirectory resolves the effective output directory: the configured one
// or, when unset, the input directory.
func (c *Config) OutputDirectory() string {
	if c.Output.Directory != "" {
		return expandPath(c.Output.Directory)
	}
	return expandPath(c.Input.Directory)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
