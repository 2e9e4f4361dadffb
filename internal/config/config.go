package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Coordinate spaces for stored annotations
const (
	SpaceDisplay = "display"
	SpaceImage   = "image"
)

// Config holds the application configuration
type Config struct {
	ImageSet ImageSetConfig `json:"imageset"`
	Viewport ViewportConfig `json:"viewport"`
	Output   OutputConfig   `json:"output"`
	Server   ServerConfig   `json:"server"`
	Suggest  SuggestConfig  `json:"suggest"`
}

// ImageSetConfig controls which files of a folder are offered for labeling
type ImageSetConfig struct {
	Extensions []string `json:"extensions"`
}

// ViewportConfig holds display box and zoom settings
type ViewportConfig struct {
	MaxWidth        int     `json:"max_width"`
	MaxHeight       int     `json:"max_height"`
	ZoomIn          float64 `json:"zoom_in"`
	ZoomOut         float64 `json:"zoom_out"`
	MinZoom         float64 `json:"min_zoom"`
	MaxZoom         float64 `json:"max_zoom"`
	CoordinateSpace string  `json:"coordinate_space"`
	FrameFormat     string  `json:"frame_format"`
	FrameQuality    int     `json:"frame_quality"`
}

// OutputConfig holds configuration for annotation files
type OutputConfig struct {
	// Dir is where annotation files are written. Empty means the working directory.
	Dir          string `json:"dir"`
	BesideImage  bool   `json:"beside_image"`
	LoadExisting bool   `json:"load_existing"`
}

// ServerConfig holds configuration for the local UI server
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SuggestConfig holds configuration for model-assisted label suggestion
type SuggestConfig struct {
	Enabled  bool   `json:"enabled"`
	Backend  string `json:"backend"`
	URL      string `json:"url"`
	Model    string `json:"model"`
	SendSize int    `json:"send_size"`
	SendQ    int    `json:"send_quality"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		ImageSet: ImageSetConfig{
			Extensions: []string{".jpg", ".jpeg", ".png"},
		},
		Viewport: ViewportConfig{
			MaxWidth:        800,
			MaxHeight:       600,
			ZoomIn:          1.1,
			ZoomOut:         0.9,
			MinZoom:         0.01,
			MaxZoom:         8,
			CoordinateSpace: SpaceDisplay,
			FrameFormat:     "png",
			FrameQuality:    90,
		},
		Output: OutputConfig{
			Dir:          "",
			BesideImage:  false,
			LoadExisting: false,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8088",
		},
		Suggest: SuggestConfig{
			Enabled:  false,
			Backend:  "ollama",
			URL:      "",
			Model:    "openbmb/minicpm-v4.5",
			SendSize: 512,
			SendQ:    85,
		},
	}
}

// LoadFromFile loads configuration from a JSON file.
// Fields missing from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.ImageSet.Extensions) == 0 {
		return fmt.Errorf("imageset.extensions cannot be empty")
	}
	for _, ext := range c.ImageSet.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("imageset.extensions: %q must start with a dot", ext)
		}
	}

	if c.Viewport.MaxWidth < 1 || c.Viewport.MaxHeight < 1 {
		return fmt.Errorf("viewport.max_width and viewport.max_height must be positive")
	}

	if c.Viewport.ZoomIn <= 1 {
		return fmt.Errorf("viewport.zoom_in must be greater than 1")
	}

	if c.Viewport.ZoomOut <= 0 || c.Viewport.ZoomOut >= 1 {
		return fmt.Errorf("viewport.zoom_out must be between 0 and 1")
	}

	if c.Viewport.MinZoom <= 0 || c.Viewport.MinZoom > 1 {
		return fmt.Errorf("viewport.min_zoom must be in (0, 1]")
	}

	if c.Viewport.MaxZoom < 1 || c.Viewport.MaxZoom > 32 {
		return fmt.Errorf("viewport.max_zoom must be between 1 and 32")
	}

	switch c.Viewport.CoordinateSpace {
	case SpaceDisplay, SpaceImage:
	default:
		return fmt.Errorf("viewport.coordinate_space must be %q or %q", SpaceDisplay, SpaceImage)
	}

	switch strings.ToLower(c.Viewport.FrameFormat) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("viewport.frame_format must be png, jpg or webp")
	}

	if c.Viewport.FrameQuality < 1 || c.Viewport.FrameQuality > 100 {
		return fmt.Errorf("viewport.frame_quality must be between 1 and 100")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	if c.Suggest.Enabled {
		switch c.Suggest.Backend {
		case "ollama", "llamacpp":
		default:
			return fmt.Errorf("suggest.backend must be ollama or llamacpp")
		}
		if c.Suggest.Model == "" {
			return fmt.Errorf("suggest.model cannot be empty")
		}
		if c.Suggest.SendQ < 1 || c.Suggest.SendQ > 100 {
			return fmt.Errorf("suggest.send_quality must be between 1 and 100")
		}
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-labeler", "config.json")
}
