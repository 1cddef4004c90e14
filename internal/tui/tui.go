// Package tui provides a Bubble Tea terminal user interface for gr-downloader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/gr-downloader/internal/config"
	"github.com/handiism/gr-downloader/internal/download"
	ioutils "github.com/handiism/gr-downloader/internal/io"
	"github.com/handiism/gr-downloader/internal/logging"
	"github.com/handiism/gr-downloader/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// maxLogs is the number of log lines kept on screen.
const maxLogs = 10

var formats = []model.Format{model.FormatAll, model.FormatJPG, model.FormatDNG}

var errCancelled = errors.New("cancelled by user")

// State represents the current UI state.
type State int

const (
	StateSelect State = iota
	StateFetching
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	fileInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logger    *slog.Logger
	format    model.Format
	logs      []LogEntry
	err       error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc
	msgs   chan tea.Msg
	lock   *ioutils.DirLock

	// Run progress
	found    int
	selected int
	current  download.FileProgress
	summary  download.Summary
	quitting bool

	width int
}

// NewModel creates a new TUI model downloading with settings.
func NewModel(settings *config.Settings, logger *slog.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "R0001234.DNG (optional)"
	ti.Focus()
	ti.CharLimit = ioutils.MaxNameLength
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	format, err := model.ParseFormat(settings.Format)
	if err != nil {
		format = model.FormatAll
	}

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateSelect,
		fileInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logger:    logging.OrDiscard(logger),
		format:    format,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent for every manager progress event.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// FileProgressMsg carries byte progress of the current photo.
	FileProgressMsg struct {
		Progress download.FileProgress
	}

	// CatalogMsg is sent once the base directory is prepared and the
	// catalog has been fetched.
	CatalogMsg struct {
		Photos []*model.Photo
		Lock   *ioutils.DirLock
		Err    error
	}

	// DownloadDoneMsg is sent when the download loop returns.
	DownloadDoneMsg struct {
		Summary download.Summary
		Err     error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			if m.state == StateFetching || m.state == StateDownloading {
				// Quit once the background work has returned, so a cancelled
				// transfer gets to remove its partial file.
				m.quitting = true
				return m, nil
			}
			m.release()
			return m, tea.Quit

		case "esc":
			if m.state == StateSelect {
				return m, tea.Quit
			}
			if m.state == StateFetching || m.state == StateDownloading {
				m.cancel()
			}

		case "tab":
			if m.state == StateSelect {
				m.format = nextFormat(m.format)
				return m, nil
			}

		case "enter":
			if m.state == StateSelect {
				return m.start()
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				return m.reset(), textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case CatalogMsg:
		if m.quitting {
			msg.Lock.Unlock()
			return m, tea.Quit
		}
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			if m.ctx.Err() != nil {
				m.err = errCancelled
			}
			return m, nil
		}
		m.lock = msg.Lock
		m.found = len(msg.Photos)
		selected := m.filter().Select(msg.Photos)
		m.selected = len(selected)
		m.state = StateDownloading
		m.msgs = make(chan tea.Msg, 64)
		m.addLog(download.ProgressEvent{
			Message: fmt.Sprintf("Found %d photos, %d matching %s", m.found, m.selected, m.filter().Describe()),
			Level:   download.LevelInfo,
		})
		return m, tea.Batch(
			runDownloads(m.ctx, m.settings, m.logger, selected, m.msgs),
			waitForMsg(m.msgs),
		)

	case ProgressMsg:
		m.addLog(msg.Event)
		cmds = append(cmds, waitForMsg(m.msgs))

	case FileProgressMsg:
		m.current = msg.Progress
		if msg.Progress.Total > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(msg.Progress.Received)/float64(msg.Progress.Total)))
		}
		cmds = append(cmds, waitForMsg(m.msgs))

	case DownloadDoneMsg:
		m.release()
		m.summary = msg.Summary
		if m.quitting {
			return m, tea.Quit
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errCancelled
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateSelect {
		var cmd tea.Cmd
		m.fileInput, cmd = m.fileInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// start validates the selection and begins fetching the catalog.
func (m Model) start() (tea.Model, tea.Cmd) {
	if raw := strings.TrimSpace(m.fileInput.Value()); raw != "" && ioutils.SanitizeFileName(raw) == "" {
		m.state = StateError
		m.err = fmt.Errorf("file name %q has no valid characters", raw)
		return m, nil
	}
	m.state = StateFetching
	return m, tea.Batch(prepareRun(m.ctx, m.settings, m.logger), m.spinner.Tick)
}

func (m Model) reset() Model {
	m.release()
	m.state = StateSelect
	m.logs = nil
	m.err = nil
	m.found = 0
	m.selected = 0
	m.current = download.FileProgress{}
	m.summary = download.Summary{}
	m.msgs = nil
	m.quitting = false
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.fileInput.SetValue("")
	m.fileInput.Focus()
	return m
}

func (m *Model) release() {
	if m.lock != nil {
		m.lock.Unlock()
		m.lock = nil
	}
}

// filter builds the photo filter from the current selection.
func (m Model) filter() model.Filter {
	return model.Filter{
		Format:   m.format,
		FileName: ioutils.SanitizeFileName(strings.TrimSpace(m.fileInput.Value())),
	}
}

func (m *Model) addLog(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func nextFormat(f model.Format) model.Format {
	for i, candidate := range formats {
		if candidate == f {
			return formats[(i+1)%len(formats)]
		}
	}
	return model.FormatAll
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("GR Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download photos from a Ricoh GR camera over Wi-Fi"))
	b.WriteString("\n\n")

	switch m.state {
	case StateSelect:
		b.WriteString(m.viewSelect())
	case StateFetching:
		b.WriteString(m.viewFetching())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewSelect() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Format:"))
	b.WriteString(" ")
	for i, f := range formats {
		if i > 0 {
			b.WriteString("  ")
		}
		if f == m.format {
			b.WriteString(selectedStyle.Render("[" + f.String() + "]"))
		} else {
			b.WriteString(dimStyle.Render(" " + f.String() + " "))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(subtitleStyle.Render("Exact file name:"))
	b.WriteString("\n")
	b.WriteString(m.fileInput.View())
	b.WriteString("\n\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("Camera: %s", m.settings.BaseURL)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadsPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewFetching() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Fetching photo list from camera..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.current.Name != "" {
		b.WriteString(infoStyle.Render(fmt.Sprintf("Photo %d/%d: %s", m.current.Index, m.current.Count, m.current.Name)))
		b.WriteString("\n")
		b.WriteString(m.progress.View())
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(formatBytes(m.current)))
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("Processing %d photos...", m.selected)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	s := m.summary
	return boxStyle.Render(fmt.Sprintf(
		"Download Complete!\n\n"+
			"Downloaded: %d\n"+
			"Skipped:    %d\n"+
			"Failed:     %d\n"+
			"Size:       %.2f MB\n\n"+
			"Saved to %s",
		s.Downloaded,
		s.Skipped,
		s.Failed,
		float64(s.Bytes)/1024/1024,
		m.settings.DownloadsPath,
	))
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s\n", m.err.Error()))
	}
	if m.summary.Selected > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n  %d downloaded, %d skipped, %d failed before stopping",
			m.summary.Downloaded, m.summary.Skipped, m.summary.Failed)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateSelect:
		return "enter: start • tab: format • esc: quit"
	case StateFetching, StateDownloading:
		if m.quitting {
			return "stopping..."
		}
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

func formatBytes(fp download.FileProgress) string {
	received := float64(fp.Received) / 1024
	if fp.Total <= 0 {
		return fmt.Sprintf("%.2f KB", received)
	}
	return fmt.Sprintf("%.1f%% (%.2f KB / %.2f KB)",
		float64(fp.Received)/float64(fp.Total)*100, received, float64(fp.Total)/1024)
}

// prepareRun creates and locks the base directory, then fetches the catalog.
func prepareRun(ctx context.Context, settings *config.Settings, logger *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		base := settings.DownloadsPath
		if err := ioutils.ValidatePath(base); err != nil {
			return CatalogMsg{Err: err}
		}
		if err := ioutils.EnsureDir(base); err != nil {
			return CatalogMsg{Err: fmt.Errorf("cannot create base directory %s: %w", base, err)}
		}
		lock, err := ioutils.LockDir(base)
		if err != nil {
			return CatalogMsg{Err: err}
		}

		manager := download.NewManager(settings, nil, download.WithLogger(logger))
		photos, err := manager.FetchCatalog(ctx)
		if err != nil {
			lock.Unlock()
			return CatalogMsg{Err: err}
		}
		return CatalogMsg{Photos: photos, Lock: lock}
	}
}

// runDownloads processes photos in the background, forwarding progress to
// msgs. DownloadDoneMsg is always the last message sent.
func runDownloads(ctx context.Context, settings *config.Settings, logger *slog.Logger, photos []*model.Photo, msgs chan<- tea.Msg) tea.Cmd {
	return func() tea.Msg {
		manager := download.NewManager(settings,
			func(event download.ProgressEvent) {
				msgs <- ProgressMsg{Event: event}
			},
			download.WithLogger(logger),
			download.WithFileProgress(func(fp download.FileProgress) {
				// Byte updates are dropped rather than slowing the transfer.
				select {
				case msgs <- FileProgressMsg{Progress: fp}:
				default:
				}
			}),
		)

		summary, err := manager.Download(ctx, photos, settings.DownloadsPath)
		msgs <- DownloadDoneMsg{Summary: summary, Err: err}
		return nil
	}
}

// waitForMsg delivers the next message produced by runDownloads.
func waitForMsg(msgs <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-msgs
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, logger *slog.Logger) error {
	p := tea.NewProgram(NewModel(settings, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
