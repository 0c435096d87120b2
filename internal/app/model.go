package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jwulff/romakan/internal/config"
	"github.com/jwulff/romakan/internal/ime"
	"github.com/jwulff/romakan/internal/kanji"
	"github.com/jwulff/romakan/internal/logging"
	"github.com/jwulff/romakan/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfigSource publishes reloaded configurations. *config.Loader is one.
type ConfigSource interface {
	Changes() <-chan *config.Config
	Errors() <-chan error
}

// screen is what the session draws on. It is shared by pointer so copies
// of Model see the same session output.
type screen struct {
	preview    string
	candidates []string
	highlight  int
	status     string
	output     string
}

func (s *screen) ShowPreview(text string) { s.preview = text }

func (s *screen) ShowCandidates(candidates []string, highlight int) {
	s.candidates = candidates
	s.highlight = highlight
}

func (s *screen) ShowStatus(status string) { s.status = status }

func (s *screen) Append(text string) { s.output += text }

func (s *screen) deleteLastRune() {
	r := []rune(s.output)
	if len(r) > 0 {
		s.output = string(r[:len(r)-1])
	}
}

// Model is the root bubbletea model for the romakan TUI.
type Model struct {
	session *ime.Session
	screen  *screen
	ui      config.UIConfig
	log     *slog.Logger
	level   *slog.LevelVar
	updates ConfigSource

	// UI state
	width  int
	height int

	// Errors
	errorMessage   string
	errorTransient bool
}

// New creates a model around a fresh session.
func New(kc *kanji.Converter, cfg *config.Config, logger *slog.Logger) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	scr := &screen{highlight: -1}
	sess := ime.New(kc, scr, scr,
		ime.WithLogger(logger),
		ime.WithEnabled(cfg.IME.StartEnabled),
	)
	return Model{
		session: sess,
		screen:  scr,
		ui:      cfg.UI,
		log:     logger,
	}
}

// WithConfigSource makes the model apply configs published by src.
func (m Model) WithConfigSource(src ConfigSource) Model {
	m.updates = src
	return m
}

// WithLogLevel lets config reloads change the verbosity of the model's
// logger, which must have been built on level.
func (m Model) WithLogLevel(level *slog.LevelVar) Model {
	m.level = level
	return m
}

// Output returns the text committed so far.
func (m Model) Output() string { return m.screen.output }

// Init starts listening for config reloads.
func (m Model) Init() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return watchConfigCmd(m.updates)
}

// watchConfigCmd waits for the next reload or reload error.
func watchConfigCmd(src ConfigSource) tea.Cmd {
	return func() tea.Msg {
		select {
		case cfg, ok := <-src.Changes():
			if !ok {
				return nil
			}
			return ConfigChangedMsg{Config: cfg}
		case err, ok := <-src.Errors():
			if !ok {
				return nil
			}
			return ConfigErrorMsg{Err: err}
		}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ConfigChangedMsg:
		if msg.Config != nil {
			m.ui = msg.Config.UI
			if m.level != nil {
				if err := logging.SetLevel(m.level, msg.Config.Log.Level); err != nil {
					m.log.Warn("log level unchanged", "error", err)
				}
			}
			m.log.Info("config reloaded", "max_candidates", m.ui.MaxCandidates, "log_level", msg.Config.Log.Level)
		}
		return m, m.Init()

	case ConfigErrorMsg:
		m.errorMessage = msg.Err.Error()
		m.errorTransient = true
		m.log.Warn("config reload failed", "error", msg.Err)
		return m, tea.Batch(clearTransientErrorCmd(), m.Init())

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleKey maps key presses to session events.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.session

	switch msg.String() {
	case KeyCtrlC:
		return m, tea.Quit

	case KeySpace:
		s.OnSpace()

	case KeyEnter:
		s.OnEnter()

	case KeyBackspace:
		if s.Composing() {
			s.OnBackspace()
		} else {
			m.screen.deleteLastRune()
		}

	case KeyEsc:
		s.OnEscape()

	case KeyToggle, KeyToggleAlt:
		s.OnToggleEnabled()

	case KeyShrink:
		s.OnShrinkSegment()

	case KeyExtend:
		s.OnExtendSegment()

	case KeyPrev:
		s.OnPreviousCandidate()

	case KeyNext:
		if s.State() == ime.StateConvert {
			s.OnSpace()
		}

	case KeyHiragana, KeyHiraAlt:
		s.OnCommitAsHiragana()

	case KeyKatakana, KeyKataAlt:
		s.OnCommitAsKatakana()

	case KeyClearOut:
		if !s.Composing() {
			m.screen.output = ""
		}

	default:
		if msg.Type != tea.KeyRunes {
			return m, nil
		}
		// Pasted text arrives as one message.
		for _, r := range msg.Runes {
			if r == ' ' {
				s.OnSpace()
			} else {
				s.OnCharacter(string(r))
			}
		}
	}

	m.log.Debug("key", "key", msg.String(), "state", s.State().String())
	return m, nil
}

func (m Model) maxCandidates() int {
	if m.ui.MaxCandidates < 1 {
		return 9
	}
	return m.ui.MaxCandidates
}

func (m Model) outputVisibleLines() int {
	if m.height == 0 {
		return 10
	}
	// Reserve: header(1) + dividers(3) + title(1) + preview(1) + candidates(1) + error(1) + footer(1)
	reserved := 9
	return max(3, m.height-reserved)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Output field
	sections = append(sections, m.renderOutput())

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Composition
	sections = append(sections, m.renderPreview())
	sections = append(sections, m.renderCandidates())

	// Divider
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	// Error bar
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	// Footer
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("ROMAKAN")

	var badge string
	if m.session.Enabled() {
		badge = ui.ModeOnStyle.Render(m.screen.status)
	} else {
		badge = ui.ModeOffStyle.Render(m.screen.status)
	}

	header := title + " " + badge
	if m.ui.ShowRomajiStatus {
		header += ui.StatusStyle.Render("  " + m.statusText())
	}
	return header
}

func (m Model) statusText() string {
	if m.session.State() != ime.StateConvert {
		return m.session.State().String()
	}
	return fmt.Sprintf("%s %d/%d", m.session.State(), m.screen.highlight+1, len(m.screen.candidates))
}

func (m Model) renderOutput() string {
	height := m.outputVisibleLines()
	lines := wrapWidth(m.screen.output, max(10, m.width-2))

	start := 0
	if len(lines) > height {
		start = len(lines) - height
	}
	lines = lines[start:]

	var rows []string
	rows = append(rows, ui.PanelTitleStyle.Render("OUTPUT"))
	for i, l := range lines {
		row := "  " + ui.OutputStyle.Render(l)
		if i == len(lines)-1 {
			row += ui.CursorStyle.Render("▌")
		}
		rows = append(rows, row)
	}
	for len(rows) < height+1 {
		rows = append(rows, "")
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderPreview() string {
	if m.screen.preview == "" {
		return ui.DimStyle.Render("  ▸")
	}
	text := runewidth.Truncate(m.screen.preview, max(1, m.width-4), "…")
	return ui.DimStyle.Render("  ▸ ") + ui.PreviewStyle.Render(text)
}

// renderCandidates shows the page of candidates holding the highlight.
// Digits select by absolute position, so only the first nine are numbered.
func (m Model) renderCandidates() string {
	cands := m.screen.candidates
	if len(cands) == 0 {
		return ""
	}

	per := m.maxCandidates()
	start := 0
	if m.screen.highlight > 0 {
		start = (m.screen.highlight / per) * per
	}
	end := min(start+per, len(cands))

	budget := m.width - 4
	used := 0
	var parts []string
	for i := start; i < end; i++ {
		label := "·"
		if i < 9 {
			label = fmt.Sprintf("%d", i+1)
		}
		w := runewidth.StringWidth(label+"."+cands[i]) + 1
		if used+w > budget {
			end = i
			break
		}
		used += w

		text := ui.CandidateStyle.Render(cands[i])
		if i == m.screen.highlight {
			text = ui.SelectedCandidateStyle.Render(cands[i])
		}
		parts = append(parts, ui.CandidateIndexStyle.Render(label+".")+text)
	}

	bar := "  " + strings.Join(parts, " ")
	if start > 0 || end < len(cands) {
		bar += ui.DimStyle.Render(" …")
	}
	return bar
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	if m.session.State() == ime.StateConvert {
		parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Next"))
		parts = append(parts, ui.FooterKeyStyle.Render("1-9")+ui.FooterDescStyle.Render(" Pick"))
		parts = append(parts, ui.FooterKeyStyle.Render("←→")+ui.FooterDescStyle.Render(" Segment"))
		parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Commit"))
		parts = append(parts, ui.FooterKeyStyle.Render("F6/F7")+ui.FooterDescStyle.Render(" Kana"))
		parts = append(parts, ui.FooterKeyStyle.Render("Esc")+ui.FooterDescStyle.Render(" Cancel"))
	} else {
		parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Convert"))
		parts = append(parts, ui.FooterKeyStyle.Render("F10")+ui.FooterDescStyle.Render(" あ/A"))
		parts = append(parts, ui.FooterKeyStyle.Render("^L")+ui.FooterDescStyle.Render(" Clear"))
	}

	parts = append(parts, ui.FooterKeyStyle.Render("^C")+ui.FooterDescStyle.Render(" Quit"))

	return padRight(strings.Join(parts, "  "), m.width)
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// wrapWidth breaks text into lines of at most width display cells. Japanese
// text has no spaces to break on, so it wraps by rune.
func wrapWidth(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current strings.Builder
		used := 0
		for _, r := range paragraph {
			w := runewidth.RuneWidth(r)
			if used+w > width {
				lines = append(lines, current.String())
				current.Reset()
				used = 0
			}
			current.WriteRune(r)
			used += w
		}
		lines = append(lines, current.String())
	}
	return lines
}
