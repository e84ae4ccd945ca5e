// Package tui shows the NPU panel in a terminal, either once as plain text
// or as an interactive bubbletea program.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kisy/npustat/pkg/engine"
)

type tickMsg time.Time

// cycleMsg reports the end of a sync cycle started from the program.
type cycleMsg struct {
	trigger engine.Trigger
	err     error
}

type App struct {
	ctx context.Context
	eng *engine.Engine

	width  int
	height int

	refreshing bool
	lastErr    error

	// Vertical scrolling state
	scrollOffset  int
	contentHeight int
}

// NewApp drives eng, which must already be mounted. Cycles started by the
// program use ctx.
func NewApp(ctx context.Context, eng *engine.Engine) *App {
	return &App{ctx: ctx, eng: eng}
}

func (a *App) Init() tea.Cmd {
	return a.tick()
}

func (a *App) tick() tea.Cmd {
	return tea.Tick(a.eng.Interval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) poll() tea.Cmd {
	return func() tea.Msg {
		return cycleMsg{trigger: engine.TriggerPoll, err: a.eng.Poll(a.ctx)}
	}
}

func (a *App) refresh() tea.Cmd {
	return func() tea.Msg {
		return cycleMsg{trigger: engine.TriggerManual, err: a.eng.Refresh(a.ctx)}
	}
}

// Reserve space for: status and help (3 lines), scroll hints (2 lines)
func (a *App) contentAreaHeight() int {
	return max(1, a.height-5)
}

func (a *App) maxScrollOffset() int {
	avail := a.contentAreaHeight()
	if a.contentHeight <= avail {
		return 0
	}
	return a.contentHeight - avail
}

func (a *App) clampScroll() {
	a.scrollOffset = max(0, min(a.scrollOffset, a.maxScrollOffset()))
}

func (a *App) applyScroll(content string) string {
	lines := strings.Split(content, "\n")
	a.contentHeight = len(lines)
	a.clampScroll()

	avail := a.contentAreaHeight()
	if len(lines) <= avail {
		return content
	}

	end := min(a.scrollOffset+avail, len(lines))
	result := strings.Join(lines[a.scrollOffset:end], "\n")
	if a.scrollOffset > 0 {
		result = ScrollHintStyle.Render("▲") + "\n" + result
	}
	if a.scrollOffset < a.maxScrollOffset() {
		result += "\n" + ScrollHintStyle.Render("▼")
	}
	return result
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.clampScroll()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "r":
			if a.refreshing {
				return a, nil
			}
			a.refreshing = true
			return a, a.refresh()
		case "up", "k":
			if a.scrollOffset > 0 {
				a.scrollOffset--
			}
		case "down", "j":
			a.scrollOffset++
			a.clampScroll()
		case "pgup", "ctrl+u":
			a.scrollOffset = max(0, a.scrollOffset-max(1, a.contentAreaHeight()/2))
		case "pgdown", "ctrl+d":
			a.scrollOffset += max(1, a.contentAreaHeight()/2)
			a.clampScroll()
		case "home":
			a.scrollOffset = 0
		case "end":
			a.scrollOffset = a.maxScrollOffset()
		}

	case tickMsg:
		return a, tea.Batch(a.poll(), a.tick())

	case cycleMsg:
		if msg.trigger == engine.TriggerManual {
			a.refreshing = false
		}
		if msg.err != nil && !errors.Is(msg.err, engine.ErrRefreshBusy) {
			a.lastErr = msg.err
		} else {
			a.lastErr = nil
		}
	}

	return a, nil
}

func (a *App) View() string {
	tr := a.eng.Tr()
	s := a.eng.Surface()
	if a.width == 0 || s == nil {
		return tr("Loading...")
	}

	content := a.applyScroll(renderText(s, tr, colored))

	var status string
	if _, busy := s.Attr(engine.IDRefresh, "disabled"); busy || a.refreshing {
		status = BusyStyle.Render(tr("Refreshing..."))
	} else if a.lastErr != nil {
		status = ErrorStyle.Render(a.lastErr.Error())
	}

	help := HelpStyle.Render("r: " + tr("Manual Refresh") +
		" • ↑/↓ k/j: " + tr("scroll") +
		" • PgUp/PgDn: " + tr("page") +
		" • q: " + tr("quit"))

	return lipgloss.JoinVertical(lipgloss.Left,
		content,
		"",
		status,
		help,
	)
}
