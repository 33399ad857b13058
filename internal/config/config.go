package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/Pavankumarbhedam/Pdf-compressior/internal/domain"
)

type Client struct {
	Service  Service  `yaml:"service"`
	Download Download `yaml:"download"`
	Target   Target   `yaml:"target"`
	Progress Progress `yaml:"progress"`
	Log      Log      `yaml:"log"`
}

type Service struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Download struct {
	// Dir is where saved results are written.
	Dir string `yaml:"dir"`
}

type Target struct {
	DefaultKb int `yaml:"default_kb"`
}

type Progress struct {
	Interval time.Duration `yaml:"interval"`
}

type Log struct {
	// Path of the log file used while the interactive UI owns the terminal.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() Client {
	return Client{
		Service:  Service{URL: "http://localhost:8080", Timeout: 2 * time.Minute},
		Download: Download{Dir: "."},
		Target:   Target{DefaultKb: 100},
		Progress: Progress{Interval: 120 * time.Millisecond},
		Log:      Log{Path: filepath.Join(os.TempDir(), "pdfcompress.log")},
	}
}

// Parse overlays the YAML file at path onto the defaults. An empty path
// yields the defaults.
func Parse(path string) (Client, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Client{}, fmt.Errorf("read config: %w", err)
	}
	if err = yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Client{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c Client) Validate() error {
	if c.Service.URL == "" {
		return errors.New("service.url is required")
	}
	u, err := url.Parse(c.Service.URL)
	if err != nil {
		return fmt.Errorf("service.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service.url: unsupported scheme %q", u.Scheme)
	}
	if c.Service.Timeout <= 0 {
		return errors.New("service.timeout must be positive")
	}
	if c.Target.DefaultKb < domain.MinTargetKb {
		return fmt.Errorf("target.default_kb must be at least %d", domain.MinTargetKb)
	}
	if c.Progress.Interval <= 0 {
		return errors.New("progress.interval must be positive")
	}
	return nil
}
