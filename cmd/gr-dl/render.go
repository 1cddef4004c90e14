package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/handiism/gr-downloader/internal/download"
	ioutils "github.com/handiism/gr-downloader/internal/io"
	"github.com/handiism/gr-downloader/internal/model"
)

// printer renders manager events for a terminal or a plain stream.
type printer struct {
	out     io.Writer
	verbose bool

	// interactive enables the in-place byte progress line.
	interactive bool
	inProgress  bool

	infoStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	warningStyle lipgloss.Style
	successStyle lipgloss.Style
	mutedStyle   lipgloss.Style
	titleStyle   lipgloss.Style
}

func newPrinter(out io.Writer, verbose bool) *printer {
	r := lipgloss.NewRenderer(out)
	return &printer{
		out:          out,
		verbose:      verbose,
		interactive:  isTerminal(out),
		infoStyle:    r.NewStyle().Foreground(lipgloss.Color("#7D56F4")),
		errorStyle:   r.NewStyle().Foreground(lipgloss.Color("#FF5555")),
		warningStyle: r.NewStyle().Foreground(lipgloss.Color("#FFB86C")),
		successStyle: r.NewStyle().Foreground(lipgloss.Color("#50FA7B")),
		mutedStyle:   r.NewStyle().Foreground(lipgloss.Color("#626262")),
		titleStyle:   r.NewStyle().Bold(true),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Event prints one progress event on its own line.
func (p *printer) Event(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !p.verbose {
		return
	}
	p.EndProgress()

	var prefix string
	switch event.Level {
	case download.LevelError:
		prefix = p.errorStyle.Render("✗ ")
	case download.LevelWarning:
		prefix = p.warningStyle.Render("! ")
	case download.LevelSuccess:
		prefix = p.successStyle.Render("✓ ")
	case download.LevelInfo:
		prefix = p.infoStyle.Render("• ")
	default:
		prefix = "  "
	}
	fmt.Fprintln(p.out, prefix+event.Message)
}

// Info prints an informational line outside of a run.
func (p *printer) Info(msg string) {
	p.Event(download.ProgressEvent{Message: msg, Level: download.LevelInfo})
}

// FileProgress rewrites the current line with the byte progress of the
// photo being downloaded. Non-interactive outputs get nothing.
func (p *printer) FileProgress(fp download.FileProgress) {
	if !p.interactive {
		return
	}
	p.inProgress = true
	fmt.Fprint(p.out, formatProgress(fp))
}

// EndProgress terminates a pending progress line.
func (p *printer) EndProgress() {
	if p.inProgress {
		fmt.Fprintln(p.out)
		p.inProgress = false
	}
}

// Summary prints the final report of a run.
func (p *printer) Summary(s download.Summary, base string) {
	p.EndProgress()
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.titleStyle.Render(fmt.Sprintf("Download complete. Downloaded %d photos to %s", s.Downloaded, base)))

	details := fmt.Sprintf("%d selected, %d skipped, %d failed, %.2f MB received",
		s.Selected, s.Skipped, s.Failed, float64(s.Bytes)/1024/1024)
	if s.Failed > 0 {
		fmt.Fprintln(p.out, p.warningStyle.Render(details))
		return
	}
	fmt.Fprintln(p.out, p.mutedStyle.Render(details))
}

func formatProgress(fp download.FileProgress) string {
	received := float64(fp.Received) / 1024
	if fp.Total <= 0 {
		return fmt.Sprintf("\r%s: %.2f KB", fp.Name, received)
	}
	total := float64(fp.Total) / 1024
	percent := float64(fp.Received) / float64(fp.Total) * 100
	return fmt.Sprintf("\r%s: %.1f%% (%.2f KB / %.2f KB)", fp.Name, percent, received, total)
}

// renderPhotoTable lists photos with their local state under base.
func renderPhotoTable(photos []*model.Photo, base string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Folder", "Name", "Date", "Local"})

	for i, photo := range photos {
		state := "missing"
		if ioutils.FileExists(photo.FilePath(base)) {
			state = "saved"
		}
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), photo.Tag, photo.Name, photo.Date, state})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
