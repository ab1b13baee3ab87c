package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"gccontent/internal/analyzer"
	"gccontent/internal/config"
	"gccontent/internal/history"
	"gccontent/internal/logging"
	"gccontent/internal/report"
)

// Colors for modern design
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	surfaceColor   = lipgloss.Color("#1F2937") // Dark gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor     = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor    = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

const (
	noResultWarning = "Analyze something first!"
	savedNotice     = "Analysis saved successfully!"
	defaultSaveName = "gc_report.txt"
)

type prompt int

const (
	promptNone prompt = iota
	promptLoad
	promptSave
)

func (p prompt) String() string {
	switch p {
	case promptLoad:
		return "Load FASTA"
	case promptSave:
		return "Save report"
	default:
		return ""
	}
}

// fileLoadedMsg carries the content of a file opened with ctrl+o.
type fileLoadedMsg struct {
	path    string
	content string
	err     error
}

// savedMsg reports the outcome of writing a report.
type savedMsg struct {
	path string
	err  error
}

type loadedText struct {
	raw   string
	shown string
}

type model struct {
	input  textarea.Model
	path   textinput.Model
	prompt prompt

	// result is the last successful analysis; it is what ctrl+s saves and
	// is cleared whenever an analysis fails or the input is cleared.
	result *analyzer.Result
	err    string
	notice string

	// loaded is the raw text of the last loaded file. The textarea rewrites
	// tabs and drops control characters, so the raw text stays the analysis
	// input until the buffer no longer shows what was loaded.
	loaded *loadedText

	logger *log.Logger
	store  history.Store

	showHelp bool
	width    int
	height   int
}

func initialModel(logger *log.Logger, store history.Store) model {
	ta := textarea.New()
	ta.Placeholder = "Add your DNA sequence or load a FASTA file (ctrl+o)"
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(65)
	ta.SetHeight(15)
	ta.Focus()

	ti := textinput.New()
	ti.Prompt = "path: "
	ti.CharLimit = 4096

	if logger == nil {
		logger = logging.Discard()
	}
	return model{input: ta, path: ti, logger: logger, store: store}
}

func (m model) Init() tea.Cmd {
	return textarea.Blink
}

// analyze runs the analyzer on the current buffer, or on the loaded file
// when the buffer still holds it unedited.
func (m model) analyze(source string) model {
	text := m.input.Value()
	if m.loaded != nil {
		if text == m.loaded.shown {
			return m.analyzeText(m.loaded.raw, "file")
		}
		m.loaded = nil
	}
	return m.analyzeText(text, source)
}

// analyzeText analyzes text and updates the held result.
func (m model) analyzeText(text, source string) model {
	res, err := analyzer.Analyze(text)
	if m.store != nil {
		if _, aerr := m.store.Append(context.Background(), history.FromResult(source, res, err)); aerr != nil {
			m.logger.Warn("failed to record analysis", "err", aerr)
		}
	}
	m.notice = ""
	if err != nil {
		m.result = nil
		m.err = err.Error()
		if verr, ok := analyzer.AsValidation(err); ok {
			m.logger.Info("sequence rejected", "source", source, "kind", verr.Kind, "offset", verr.Offset)
		}
		return m
	}
	m.err = ""
	m.result = &res
	m.logger.Info("sequence analyzed", "source", source, "length", res.Length, "gc_percent", res.GCPercent)
	return m
}

func (m model) clear() model {
	m.input.Reset()
	m.loaded = nil
	m.result = nil
	m.err = ""
	m.notice = ""
	return m
}

func (m model) openPrompt(p prompt, value string) (model, tea.Cmd) {
	m.prompt = p
	m.path.SetValue(value)
	m.path.CursorEnd()
	m.input.Blur()
	return m, m.path.Focus()
}

func (m model) closePrompt() (model, tea.Cmd) {
	m.prompt = promptNone
	m.path.Blur()
	return m, m.input.Focus()
}

// loadFileCmd reads path off the update loop.
func loadFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return fileLoadedMsg{path: path, err: err}
		}
		defer f.Close()
		text, err := analyzer.ReadText(f)
		return fileLoadedMsg{path: path, content: text, err: err}
	}
}

// saveCmd writes the export of res to path. The result is passed by value
// so the saved file always describes the analysis the user saw.
func saveCmd(path string, res analyzer.Result) tea.Cmd {
	if filepath.Ext(path) == "" {
		path += ".txt"
	}
	return func() tea.Msg {
		err := os.WriteFile(path, []byte(report.Export(res)), 0o644)
		return savedMsg{path: path, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w := msg.Width - 6
		if w < 20 {
			w = 20
		}
		m.input.SetWidth(w)
		m.path.Width = w - len(m.path.Prompt)
		return m, nil

	case fileLoadedMsg:
		if msg.err != nil {
			m.logger.Error("failed to load file", "path", msg.path, "err", msg.err)
			m.result = nil
			m.err = fmt.Sprintf("Could not read %s: %v", msg.path, msg.err)
			return m, nil
		}
		m.logger.Debug("file loaded", "path", msg.path, "bytes", len(msg.content))
		m.input.SetValue(msg.content)
		m.loaded = &loadedText{raw: msg.content, shown: m.input.Value()}
		return m.analyzeText(msg.content, "file"), nil

	case savedMsg:
		if msg.err != nil {
			m.logger.Error("failed to save report", "path", msg.path, "err", msg.err)
			m.notice = ""
			m.err = fmt.Sprintf("Could not save %s: %v", msg.path, msg.err)
			return m, nil
		}
		m.logger.Info("report saved", "path", msg.path)
		m.err = ""
		m.notice = savedNotice
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		switch msg.String() {
		case "ctrl+r":
			return m.analyze("paste"), nil
		case "ctrl+l":
			return m.clear(), nil
		case "ctrl+o":
			return m.openPrompt(promptLoad, "")
		case "ctrl+s":
			if m.result == nil {
				m.notice = noResultWarning
				return m, nil
			}
			return m.openPrompt(promptSave, defaultSaveName)
		case "f1":
			m.showHelp = !m.showHelp
			return m, nil
		case "esc":
			if m.showHelp {
				m.showHelp = false
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.prompt != promptNone {
		m.path, cmd = m.path.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closePrompt()
	case "enter":
		path := strings.TrimSpace(m.path.Value())
		p := m.prompt
		var focus tea.Cmd
		m, focus = m.closePrompt()
		if path == "" {
			return m, focus
		}
		switch p {
		case promptLoad:
			return m, tea.Batch(focus, loadFileCmd(path))
		case promptSave:
			if m.result == nil {
				m.notice = noResultWarning
				return m, focus
			}
			return m, tea.Batch(focus, saveCmd(path, *m.result))
		}
		return m, focus
	}
	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.showHelp {
		return m.renderHelpModal()
	}

	header := titleStyle.Render("🧬 DNA GC Analyzer")
	sub := helpStyle.Render("Add your DNA sequence or Load FASTA:")

	parts := []string{header, sub, containerStyle.Render(m.input.View())}
	if m.prompt != promptNone {
		parts = append(parts, noticeStyle.Render(m.prompt.String()+" (enter to confirm, esc to cancel)"), m.path.View())
	}
	parts = append(parts, "", m.renderOutcome(), "", m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) renderOutcome() string {
	var lines []string
	if m.err != "" {
		lines = append(lines, errorStyle.Render("Error: "+m.err))
	} else if m.result != nil {
		lines = append(lines, resultStyle.Render(report.Summary(*m.result)))
	}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderStatusBar() string {
	status := "ctrl+o load • ctrl+r analyze • ctrl+l clear • ctrl+s save • f1 help • ctrl+c quit"
	width := m.width
	if width <= 0 {
		width = lipgloss.Width(status) + 2
	}
	return statusBarStyle.Width(width).Render(status)
}

func (m model) renderHelpModal() string {
	helpContent := `🧬 DNA GC Analyzer - Help

Editing:
  type / paste   Enter a sequence (optional ">" header line)

Actions:
  ctrl+o         Load a FASTA file and analyze it
  ctrl+r         Analyze the current sequence
  ctrl+l         Clear input and result
  ctrl+s         Save the last result to a text file

General:
  f1, esc        Toggle this help
  ctrl+c         Quit application
`
	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60)

	modal := modalStyle.Render(helpContent)
	if m.width == 0 || m.height == 0 {
		return modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run sets up config, logging and history, then drives the program until it
// quits. Everything it opens is closed before it returns.
func run(args []string, opts ...tea.ProgramOption) error {
	fl := flag.NewFlagSet("gccontent-tui", flag.ContinueOnError)
	configPath := fl.String("config", "", "path to config file (optional)")
	logFile := fl.String("log", "", "path to append logs to (overrides config)")
	verbose := fl.Bool("verbose", false, "enable verbose (debug) logging")
	if err := fl.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	// the terminal belongs to the UI; only log when a file is configured
	logger := logging.Discard()
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger, _ = logging.New(logging.Options{Prefix: "gccontent-tui", Level: cfg.LogLevel, Verbose: *verbose, Out: f})
	}

	store, err := history.Open(cfg.HistoryStore, cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close history store", "err", err)
			}
		}()
	}

	m := initialModel(logger, store)
	// a file argument is loaded and analyzed on start
	var startCmd tea.Cmd
	if fl.NArg() > 0 {
		startCmd = loadFileCmd(fl.Arg(0))
	}
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(startModel{model: m, start: startCmd}, opts...)
	if _, err := p.Run(); err != nil {
		logger.Error("program failed", "err", err)
		return err
	}
	return nil
}

// startModel runs an extra command on Init, used for a file given on the
// command line.
type startModel struct {
	model
	start tea.Cmd
}

func (s startModel) Init() tea.Cmd {
	return tea.Batch(s.model.Init(), s.start)
}
