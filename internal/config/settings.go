package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	ioutils "github.com/handiism/gr-downloader/internal/io"
	"github.com/handiism/gr-downloader/internal/model"
)

const (
	// DefaultBaseURL is the camera's address on its own Wi-Fi network.
	DefaultBaseURL = "http://192.168.0.1"

	// DefaultConfigPath is where the CLI looks for settings when --config is not given.
	DefaultConfigPath = "~/.config/gr-downloader/config.toml"
)

// Settings holds all configuration options.
type Settings struct {
	// Camera settings
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`

	// Download settings
	DownloadsPath   string `toml:"downloads_path"`
	Format          string `toml:"format"`
	CatalogTimeout  int    `toml:"catalog_timeout"`  // seconds
	DownloadTimeout int    `toml:"download_timeout"` // seconds

	// Log settings
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// DefaultSettings returns settings with default values.
//
// The download path defaults to ~/Pictures/RicohGRII. If the home directory
// cannot be determined the path is left empty and Validate reports it.
func DefaultSettings() *Settings {
	downloads := ""
	if home, err := homedir.Dir(); err == nil && home != "" {
		downloads = filepath.Join(home, "Pictures", "RicohGRII")
	}
	return &Settings{
		BaseURL:   DefaultBaseURL,
		UserAgent: "gr-downloader",

		DownloadsPath:   downloads,
		Format:          string(model.FormatAll),
		CatalogTimeout:  30,
		DownloadTimeout: 60,

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads settings from a TOML file on top of the defaults.
//
// A leading "~" in path is expanded. A missing file is not an error: the
// defaults are returned. Path values inside the file are expanded too.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand config path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", expanded, err)
	}

	if err := settings.normalize(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save writes settings to a TOML file, creating parent directories.
func (s *Settings) Save(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand config path: %w", err)
	}

	if err := ioutils.EnsureDir(filepath.Dir(expanded)); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(expanded, data, 0644)
}

// SetDownloadsPath expands a leading "~" in path and stores it as the download root.
func (s *Settings) SetDownloadsPath(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand path %q: %w", path, err)
	}
	s.DownloadsPath = expanded
	return nil
}

// Validate ensures the settings are usable.
func (s *Settings) Validate() error {
	if _, err := model.ParseFormat(s.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}

	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url: %q must be an http(s) URL", s.BaseURL)
	}

	if s.DownloadsPath == "" {
		return errors.New("downloads_path: cannot determine home directory, set downloads_path or use --path")
	}
	if err := ioutils.ValidatePath(s.DownloadsPath); err != nil {
		return fmt.Errorf("downloads_path: %w", err)
	}

	if s.CatalogTimeout <= 0 {
		return errors.New("catalog_timeout must be positive")
	}
	if s.DownloadTimeout <= 0 {
		return errors.New("download_timeout must be positive")
	}
	return nil
}

// CatalogTimeoutDuration returns the catalog timeout as a time.Duration.
func (s *Settings) CatalogTimeoutDuration() time.Duration {
	return time.Duration(s.CatalogTimeout) * time.Second
}

// DownloadTimeoutDuration returns the per-file download timeout as a time.Duration.
func (s *Settings) DownloadTimeoutDuration() time.Duration {
	return time.Duration(s.DownloadTimeout) * time.Second
}

func (s *Settings) normalize() error {
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	s.Format = strings.ToLower(strings.TrimSpace(s.Format))
	if s.DownloadsPath != "" {
		if err := s.SetDownloadsPath(s.DownloadsPath); err != nil {
			return err
		}
	}
	return nil
}
