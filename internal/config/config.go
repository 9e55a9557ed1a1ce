package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "80ms" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Canvas is the surface geometry: CSS pixels plus device pixel ratio.
type Canvas struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	PixelRatio float64 `yaml:"pixel_ratio"`
}

// Config is the process configuration. Zero values fall back to
// Default(); a missing file is not an error.
type Config struct {
	// ServerURL is the websocket endpoint. When empty and Discover is
	// set, the LAN is browsed for an advertised server instead.
	ServerURL string `yaml:"server_url"`
	Discover  bool   `yaml:"discover"`

	DisplayName string  `yaml:"display_name"`
	Color       string  `yaml:"color"`
	Width       float64 `yaml:"width"`

	ReconnectAttempts int      `yaml:"reconnect_attempts"`
	ReconnectDelay    Duration `yaml:"reconnect_delay"`
	CursorInterval    Duration `yaml:"cursor_interval"`

	Canvas Canvas `yaml:"canvas"`

	// Snapshot paths written on shutdown; empty disables.
	SnapshotPNG string `yaml:"snapshot_png"`
	SnapshotPDF string `yaml:"snapshot_pdf"`
}

func Default() Config {
	return Config{
		Discover:          true,
		Color:             "#000000",
		Width:             3,
		ReconnectAttempts: 5,
		ReconnectDelay:    Duration(2 * time.Second),
		CursorInterval:    Duration(80 * time.Millisecond),
		Canvas:            Canvas{Width: 1280, Height: 720, PixelRatio: 1},
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
