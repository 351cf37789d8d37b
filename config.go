package worksheets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/flanksource/worksheets/fetch"
	"github.com/flanksource/worksheets/layout"
	"github.com/flanksource/worksheets/pdf"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of the service, loaded from YAML and
// overridden by command line flags
type Config struct {
	Server ServerConfig   `yaml:"server" json:"server"`
	Render RenderConfig   `yaml:"render" json:"render"`
	Layout layout.Options `yaml:"layout" json:"layout"`
	Fetch  fetch.Options  `yaml:"fetch" json:"fetch"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdownTimeout"`

	// MaxBodyBytes limits the size of a request body
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"maxBodyBytes"`

	// CORSOrigins lists allowed origins, "*" allows any
	CORSOrigins []string `yaml:"cors_origins" json:"corsOrigins"`
}

// RenderConfig selects and configures the PDF renderer
type RenderConfig struct {
	Renderer pdf.Kind       `yaml:"renderer" json:"renderer"`
	Page     pdf.PageConfig `yaml:"page" json:"page"`

	// Validate runs every generated document through pdfcpu before returning it
	Validate bool `yaml:"validate" json:"validate"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    2 << 20,
			CORSOrigins:     []string{"*"},
		},
		Render: RenderConfig{
			Renderer: pdf.KindFpdf,
			Page:     pdf.DefaultPageConfig(),
			Validate: true,
		},
		Layout: layout.DefaultOptions(),
		Fetch:  fetch.DefaultOptions(),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, config.Validate()
}

// Validate checks values that cannot be fixed up with a default
func (c Config) Validate() error {
	switch c.Render.Renderer {
	case pdf.KindFpdf, pdf.KindMaroto, "":
	default:
		return fmt.Errorf("unknown renderer %q, expected one of %v", c.Render.Renderer, pdf.Kinds())
	}
	if _, err := layout.LabelsFor(c.Layout.Locale); err != nil && c.Layout.Labels.Question == "" {
		return err
	}
	if c.Render.Page.Width < 0 || c.Render.Page.Height < 0 {
		return fmt.Errorf("invalid page size %.0fx%.0f", c.Render.Page.Width, c.Render.Page.Height)
	}
	if c.Render.Page.ContentWidth() <= 0 {
		return fmt.Errorf("page margins leave no room for content")
	}
	return nil
}

func (c Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}
