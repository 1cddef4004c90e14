package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	return home
}

func TestDefaultSettings(t *testing.T) {
	home := withHome(t)

	s := DefaultSettings()
	if s.BaseURL != "http://192.168.0.1" {
		t.Errorf("BaseURL = %q", s.BaseURL)
	}
	if s.DownloadsPath != filepath.Join(home, "Pictures", "RicohGRII") {
		t.Errorf("DownloadsPath = %q", s.DownloadsPath)
	}
	if s.Format != "all" {
		t.Errorf("Format = %q, want all", s.Format)
	}
	if s.CatalogTimeoutDuration().Seconds() != 30 || s.DownloadTimeoutDuration().Seconds() != 60 {
		t.Errorf("timeouts = %s/%s, want 30s/60s", s.CatalogTimeoutDuration(), s.DownloadTimeoutDuration())
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default settings invalid: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	withHome(t)

	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", s.BaseURL)
	}
}

func TestLoad_OverridesAndExpands(t *testing.T) {
	home := withHome(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
base_url = "http://10.0.0.5/"
downloads_path = "~/camera"
format = "DNG"
download_timeout = 120
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.BaseURL != "http://10.0.0.5" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", s.BaseURL)
	}
	if s.DownloadsPath != filepath.Join(home, "camera") {
		t.Errorf("DownloadsPath = %q, want expanded", s.DownloadsPath)
	}
	if s.Format != "dng" {
		t.Errorf("Format = %q, want dng", s.Format)
	}
	if s.DownloadTimeout != 120 {
		t.Errorf("DownloadTimeout = %d, want 120", s.DownloadTimeout)
	}
	if s.CatalogTimeout != 30 {
		t.Errorf("CatalogTimeout = %d, want default 30", s.CatalogTimeout)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	withHome(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("base_url = [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	withHome(t)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	s := DefaultSettings()
	s.Format = "jpg"
	s.BaseURL = "http://192.168.0.2"

	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Format != "jpg" || loaded.BaseURL != "http://192.168.0.2" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestValidate(t *testing.T) {
	withHome(t)

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"bad format", func(s *Settings) { s.Format = "png" }, "format"},
		{"bad scheme", func(s *Settings) { s.BaseURL = "ftp://192.168.0.1" }, "base_url"},
		{"no host", func(s *Settings) { s.BaseURL = "http://" }, "base_url"},
		{"empty path", func(s *Settings) { s.DownloadsPath = "" }, "downloads_path"},
		{"traversal path", func(s *Settings) { s.DownloadsPath = "/tmp/../etc" }, "downloads_path"},
		{"zero catalog timeout", func(s *Settings) { s.CatalogTimeout = 0 }, "catalog_timeout"},
		{"negative download timeout", func(s *Settings) { s.DownloadTimeout = -1 }, "download_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
