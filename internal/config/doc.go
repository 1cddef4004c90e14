// Package config provides configuration management for gr-downloader.
//
// This package handles:
//   - Loading and saving settings from TOML files
//   - Default configuration values
//   - Validation before any network activity
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Camera at http://192.168.0.1
//	// Downloads to ~/Pictures/RicohGRII/{YYYY-MM-DD}/
//	// 30s catalog timeout, 60s per-file timeout
//
// # Loading from File
//
//	settings, err := config.Load("~/.config/gr-downloader/config.toml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Example File
//
//	base_url = "http://192.168.0.1"
//	downloads_path = "~/Pictures/RicohGRII"
//	format = "dng"
//	download_timeout = 120
package config
