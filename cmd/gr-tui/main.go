package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/handiism/gr-downloader/internal/config"
	"github.com/handiism/gr-downloader/internal/logging"
	"github.com/handiism/gr-downloader/internal/model"
	"github.com/handiism/gr-downloader/internal/tui"
)

func main() {
	cmd := newRootCommand(func(settings *config.Settings) error {
		// The alternate screen owns the terminal; diagnostics are dropped.
		return tui.Run(settings, logging.Discard())
	})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the gr-tui command. start receives the resolved
// settings and runs the interface.
func newRootCommand(start func(*config.Settings) error) *cobra.Command {
	var (
		configPath string
		path       string
		baseURL    string
		format     = model.FormatAll
	)

	cmd := &cobra.Command{
		Use:           "gr-tui",
		Short:         "Interactive photo downloader for Ricoh GR cameras",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				settings.Format = format.String()
			}
			if baseURL != "" {
				settings.BaseURL = strings.TrimRight(baseURL, "/")
			}
			if path != "" {
				if err := settings.SetDownloadsPath(path); err != nil {
					return err
				}
			}
			if err := settings.Validate(); err != nil {
				return err
			}
			return start(settings)
		},
	}

	flags := cmd.Flags()
	flags.VarP(&format, "format", "f", "initially selected format: dng, jpg or all")
	flags.StringVarP(&configPath, "config", "c", "", "configuration file path (default "+config.DefaultConfigPath+")")
	flags.StringVarP(&path, "path", "p", "", "download directory (default ~/Pictures/RicohGRII)")
	flags.StringVar(&baseURL, "base-url", "", "camera API base URL (default "+config.DefaultBaseURL+")")

	return cmd
}

func loadSettings(path string) (*config.Settings, error) {
	if path == "" {
		if _, err := homedir.Dir(); err != nil {
			return config.DefaultSettings(), nil
		}
		path = config.DefaultConfigPath
	}
	settings, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return settings, nil
}
