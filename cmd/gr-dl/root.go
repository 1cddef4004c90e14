package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/handiism/gr-downloader/internal/camera"
	"github.com/handiism/gr-downloader/internal/config"
	"github.com/handiism/gr-downloader/internal/download"
	ioutils "github.com/handiism/gr-downloader/internal/io"
	"github.com/handiism/gr-downloader/internal/logging"
	"github.com/handiism/gr-downloader/internal/model"
)

// ErrInvalidArgument is returned for command line values rejected before
// any request is made.
var ErrInvalidArgument = errors.New("invalid argument")

type options struct {
	format     model.Format
	file       string
	path       string
	configPath string
	baseURL    string
	verbose    bool
	list       bool
	logFormat  string
}

func newRootCommand() *cobra.Command {
	opts := &options{format: model.FormatAll}

	cmd := &cobra.Command{
		Use:   "gr-dl",
		Short: "Download photos from a Ricoh GR camera over Wi-Fi",
		Long: `gr-dl fetches the photo catalog from a Ricoh GR camera connected over
Wi-Fi and saves the selected photos into date folders (YYYY-MM-DD).
Photos that already exist locally are skipped.`,
		Example: `  gr-dl
  gr-dl -f dng -p ~/Pictures/GR
  gr-dl -F R0001234.DNG`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.VarP(&opts.format, "format", "f", "file format to download: dng, jpg or all")
	flags.StringVarP(&opts.file, "file", "F", "", "download only the file with this exact name")
	flags.StringVarP(&opts.path, "path", "p", "", "download directory (default ~/Pictures/RicohGRII)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file path (default "+config.DefaultConfigPath+")")
	flags.StringVar(&opts.baseURL, "base-url", "", "camera API base URL (default "+config.DefaultBaseURL+")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "show diagnostic logging")
	flags.BoolVarP(&opts.list, "list", "l", false, "list the photos on the camera without downloading")
	flags.StringVar(&opts.logFormat, "log-format", "", "diagnostic log format: console or json")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	settings, err := loadSettings(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		settings.Format = opts.format.String()
	}
	if opts.baseURL != "" {
		settings.BaseURL = strings.TrimRight(opts.baseURL, "/")
	}
	if opts.path != "" {
		if err := settings.SetDownloadsPath(opts.path); err != nil {
			return fmt.Errorf("%w: --path: %w", ErrInvalidArgument, err)
		}
	}
	if opts.verbose {
		settings.LogLevel = "debug"
	}
	if opts.logFormat != "" {
		settings.LogFormat = opts.logFormat
	}

	filter := model.Filter{}
	if flags.Changed("file") {
		filter.FileName = ioutils.SanitizeFileName(opts.file)
		if filter.FileName == "" {
			return fmt.Errorf("%w: --file %q has no valid characters", ErrInvalidArgument, opts.file)
		}
		if len(filter.FileName) > ioutils.MaxNameLength {
			return fmt.Errorf("%w: --file is longer than %d characters", ErrInvalidArgument, ioutils.MaxNameLength)
		}
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	filter.Format, _ = model.ParseFormat(settings.Format)

	logger, err := logging.New(logging.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	printer := newPrinter(out, opts.verbose)

	manager := download.NewManager(settings, printer.Event,
		download.WithLogger(logger),
		download.WithFileProgress(printer.FileProgress),
	)

	base := settings.DownloadsPath
	logger.Debug("settings resolved",
		"base_url", settings.BaseURL,
		"path", base,
		"format", filter.Format,
		"file", filter.FileName,
	)

	if opts.list {
		return listPhotos(ctx, out, manager, filter, base)
	}

	printer.Info(fmt.Sprintf("Target directory: %s", base))

	if err := ioutils.EnsureDir(base); err != nil {
		return fmt.Errorf("cannot create base directory %s: %w", base, err)
	}

	lock, err := ioutils.LockDir(base)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	summary, err := manager.Run(ctx, filter, base)
	printer.EndProgress()
	if err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}
		return err
	}

	printer.Summary(summary, base)
	return nil
}

// loadSettings reads the configuration file on top of the defaults. A
// missing file yields the defaults; the default path is not consulted at
// all when the home directory is unknown.
func loadSettings(path string) (*config.Settings, error) {
	if path != "" {
		settings, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return settings, nil
	}

	if _, err := homedir.Dir(); err != nil {
		return config.DefaultSettings(), nil
	}
	settings, err := config.Load(config.DefaultConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return settings, nil
}

func listPhotos(ctx context.Context, out io.Writer, manager *download.Manager, filter model.Filter, base string) error {
	photos, err := manager.FetchCatalog(ctx)
	if err != nil {
		return err
	}
	selected := filter.Select(photos)

	fmt.Fprintln(out, renderPhotoTable(selected, base))
	fmt.Fprintf(out, "%d of %d photos matching %s in %d folders\n",
		len(selected), len(photos), filter.Describe(), len(camera.Tags(photos)))
	return nil
}
