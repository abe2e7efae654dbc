// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/taxocard/internal/config"
	"github.com/nibzard/taxocard/internal/manager"
	"github.com/nibzard/taxocard/internal/parallel"
	"github.com/nibzard/taxocard/internal/validator"
)

// CardStatus is the validation state of one stored card.
type CardStatus struct {
	Name   string
	Result validator.Result
	Err    error
}

// State reports "accepted", "rejected" or "error".
func (c CardStatus) State() string {
	switch {
	case c.Err != nil:
		return manager.OutcomeError
	case c.Result.Accepted:
		return manager.OutcomeAccepted
	default:
		return manager.OutcomeRejected
	}
}

// Loader produces the card list shown by the TUI.
type Loader func(ctx context.Context) ([]CardStatus, error)

// DirLoader validates every card in cfg.CardDir against the edit
// configuration its metadata names.
func DirLoader(cfg *config.Config) Loader {
	configs := manager.NewDirConfigStore(cfg.ConfigDir)
	opts := []validator.Option{validator.WithMaxSplineSegments(cfg.MaxSplineSegments)}
	return func(ctx context.Context) ([]CardStatus, error) {
		paths, err := filepath.Glob(filepath.Join(cfg.CardDir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("list cards: %w", err)
		}
		sort.Strings(paths)
		results, _ := parallel.ValidateFiles(ctx, paths, cfg.Workers, configs.SnapshotFor, opts...)
		statuses := make([]CardStatus, 0, len(results))
		for _, r := range results {
			status := CardStatus{Name: filepath.Base(r.TaskID), Result: r.Result, Err: r.Error}
			if r.Skipped {
				status.Err = errors.New("not validated")
			}
			statuses = append(statuses, status)
		}
		return statuses, nil
	}
}

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	interval time.Duration
	loader   Loader
}

// WithRefreshInterval sets how often the card directory is re-validated.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithLoader replaces the card directory loader.
func WithLoader(l Loader) TUIOption {
	return func(c *tuiConfig) {
		c.loader = l
	}
}

// RunTUI starts the card viewer.
func RunTUI(ctx context.Context, cfg *config.Config, opts ...TUIOption) error {
	c := &tuiConfig{interval: 2 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	if c.loader == nil {
		c.loader = DirLoader(cfg)
	}

	if !IsTTY(os.Stdout) {
		return errors.New("tui requires a TTY")
	}

	model := newTUIModel(ctx, cfg, c)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type filter string

const (
	filterNone     filter = ""
	filterRejected filter = manager.OutcomeRejected
	filterAccepted filter = manager.OutcomeAccepted
)

type tuiModel struct {
	ctx      context.Context
	cfg      *config.Config
	loader   Loader
	interval time.Duration

	cards    []CardStatus
	loadErr  error
	loaded   bool
	cursor   int
	filter   filter
	showHelp bool
	lastLoad time.Time
}

type tickMsg time.Time

type loadedMsg struct {
	cards []CardStatus
	err   error
	at    time.Time
}

func newTUIModel(ctx context.Context, cfg *config.Config, c *tuiConfig) *tuiModel {
	return &tuiModel{
		ctx:      ctx,
		cfg:      cfg,
		loader:   c.loader,
		interval: c.interval,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), tickCmd(m.interval))
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "f5":
			return m, m.loadCmd()
		case "h", "?":
			m.showHelp = !m.showHelp
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.visible())-1 {
				m.cursor++
			}
		case "1":
			m.setFilter(filterRejected)
		case "2":
			m.setFilter(filterAccepted)
		case "0":
			m.setFilter(filterNone)
		}
	case tickMsg:
		return m, tea.Batch(m.loadCmd(), tickCmd(m.interval))
	case loadedMsg:
		m.loaded = true
		m.loadErr = msg.err
		m.lastLoad = msg.at
		if msg.err == nil {
			m.cards = msg.cards
		}
		m.clampCursor()
	}
	return m, nil
}

func (m *tuiModel) setFilter(f filter) {
	m.filter = f
	m.cursor = 0
}

func (m *tuiModel) clampCursor() {
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// visible returns the cards passing the current filter.
func (m *tuiModel) visible() []CardStatus {
	if m.filter == filterNone {
		return m.cards
	}
	var out []CardStatus
	for _, c := range m.cards {
		if c.State() == string(m.filter) {
			out = append(out, c)
		}
	}
	return out
}

func (m *tuiModel) loadCmd() tea.Cmd {
	ctx, loader := m.ctx, m.loader
	return func() tea.Msg {
		cards, err := loader(ctx)
		return loadedMsg{cards: cards, err: err, at: time.Now()}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
	acceptedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	rejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	mutedStyle    = lipgloss.NewStyle().Faint(true)
)

func (m *tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("taxocard cards") + "\n\n")

	if m.showHelp {
		writeHelp(&b)
		m.writeFooter(&b)
		return b.String()
	}
	if m.loadErr != nil {
		b.WriteString(errorStyle.Render("Error loading cards:") + "\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		m.writeFooter(&b)
		return b.String()
	}
	if !m.loaded {
		b.WriteString("Validating...\n\n")
		m.writeFooter(&b)
		return b.String()
	}

	m.writeOverview(&b)
	visible := m.visible()
	m.writeList(&b, visible)
	if m.cursor < len(visible) {
		writeDetail(&b, visible[m.cursor])
	}
	m.writeConfig(&b)
	m.writeFooter(&b)
	return b.String()
}

func (m *tuiModel) writeOverview(b *strings.Builder) {
	counts := map[string]int{}
	for _, c := range m.cards {
		counts[c.State()]++
	}
	b.WriteString(headingStyle.Render("Overview") + "\n\n")
	b.WriteString(fmt.Sprintf("  Cards: %d  %s  %s  %s\n\n",
		len(m.cards),
		acceptedStyle.Render(fmt.Sprintf("Accepted: %d", counts[manager.OutcomeAccepted])),
		rejectedStyle.Render(fmt.Sprintf("Rejected: %d", counts[manager.OutcomeRejected])),
		errorStyle.Render(fmt.Sprintf("Errors: %d", counts[manager.OutcomeError])),
	))
	if m.filter != filterNone {
		b.WriteString(fmt.Sprintf("  Filter: %s (0 to clear)\n\n", m.filter))
	}
}

func (m *tuiModel) writeList(b *strings.Builder, cards []CardStatus) {
	b.WriteString(headingStyle.Render("Cards") + "\n\n")
	if len(cards) == 0 {
		b.WriteString(mutedStyle.Render("  No cards.") + "\n\n")
		return
	}
	for i, c := range cards {
		line := fmt.Sprintf("  %s %-40s %s", stateIcon(c), c.Name, stateText(c))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func writeDetail(b *strings.Builder, c CardStatus) {
	b.WriteString(headingStyle.Render(c.Name) + "\n\n")
	switch {
	case c.Err != nil:
		b.WriteString("  " + errorStyle.Render(c.Err.Error()) + "\n\n")
		return
	case c.Result.Accepted:
		b.WriteString("  " + acceptedStyle.Render("No violations.") + "\n\n")
		return
	}
	const maxShown = 10
	for i, v := range c.Result.Violations {
		if i == maxShown {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  ... %d more", len(c.Result.Violations)-maxShown)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("  [%s] %s\n", v.Kind, v.Location))
		b.WriteString(mutedStyle.Render("      "+v.Message) + "\n")
	}
	b.WriteString("\n")
}

func (m *tuiModel) writeConfig(b *strings.Builder) {
	if m.cfg == nil {
		return
	}
	b.WriteString(headingStyle.Render("Configuration") + "\n\n")
	b.WriteString(fmt.Sprintf("  Card Dir:   %s\n", m.cfg.CardDir))
	b.WriteString(fmt.Sprintf("  Config Dir: %s\n\n", m.cfg.ConfigDir))
}

func writeHelp(b *strings.Builder) {
	b.WriteString(headingStyle.Render("Keyboard Shortcuts") + "\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  r, F5        Re-validate now\n")
	b.WriteString("  up/k, down/j Select card\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  1            Show rejected cards\n")
	b.WriteString("  2            Show accepted cards\n")
	b.WriteString("  0            Clear filter\n\n")
}

func (m *tuiModel) writeFooter(b *strings.Builder) {
	footer := fmt.Sprintf("Press h for help | q to quit | Refreshing every %s", m.interval)
	if !m.lastLoad.IsZero() {
		footer += " | Last check " + m.lastLoad.Format("15:04:05")
	}
	b.WriteString(mutedStyle.Render(footer) + "\n")
}

func stateIcon(c CardStatus) string {
	switch c.State() {
	case manager.OutcomeAccepted:
		return acceptedStyle.Render("x")
	case manager.OutcomeRejected:
		return rejectedStyle.Render("!")
	}
	return errorStyle.Render("?")
}

func stateText(c CardStatus) string {
	switch c.State() {
	case manager.OutcomeAccepted:
		return "accepted"
	case manager.OutcomeRejected:
		return fmt.Sprintf("%d violation(s)", len(c.Result.Violations))
	}
	return "error"
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
