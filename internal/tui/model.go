package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jasperwreed/campus-market/internal/api"
	"github.com/jasperwreed/campus-market/internal/filter"
	"github.com/jasperwreed/campus-market/internal/models"
	"github.com/jasperwreed/campus-market/internal/search"
)

type inputMode int

const (
	modeNormal inputMode = iota
	modeCommand
	modeSearch
	modeAsk
)

type loadedMsg struct {
	categories []models.Category
	catErr     error
	err        error
}

type searchDoneMsg struct {
	ai    bool
	query string
	err   error
}

type model struct {
	ctx            context.Context
	searcher       *search.Searcher
	categorySource CategorySource
	logger         *zap.Logger

	categories    []string
	list          list.Model
	viewport      viewport.Model
	input         textinput.Model
	selected      *models.Listing
	width         int
	height        int
	ready         bool
	mode          inputMode
	statusMessage string
	view          search.View
}

func newModel(ctx context.Context, searcher *search.Searcher, categories CategorySource, logger *zap.Logger) model {
	if logger == nil {
		logger = zap.NewNop()
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Listings"
	l.SetShowStatusBar(true)
	// Filtering is done by the searcher, not by the list.
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle

	vp := viewport.New(0, 0)
	vp.SetContent("Select a listing to view")

	input := textinput.New()
	input.CharLimit = 256
	input.Width = 50

	return model{
		ctx:            ctx,
		searcher:       searcher,
		categorySource: categories,
		logger:         logger,
		categories:     api.CategoryNames(api.DefaultCategories),
		list:           l,
		viewport:       vp,
		input:          input,
		mode:           modeNormal,
		statusMessage:  "Loading listings...",
		view:           searcher.Snapshot(),
	}
}

func (m model) Init() tea.Cmd {
	return m.loadCmd()
}

// loadCmd fetches the catalog and the category list concurrently.
func (m model) loadCmd() tea.Cmd {
	ctx, s, src := m.ctx, m.searcher, m.categorySource
	return func() tea.Msg {
		var (
			g          errgroup.Group
			categories []models.Category
			catErr     error
		)
		g.Go(func() error {
			return s.Load(ctx)
		})
		if src != nil {
			g.Go(func() error {
				categories, catErr = src.FetchCategories(ctx)
				return nil
			})
		}
		err := g.Wait()
		return loadedMsg{categories: categories, catErr: catErr, err: err}
	}
}

func (m model) searchCmd(query string) tea.Cmd {
	ctx, s := m.ctx, m.searcher
	return func() tea.Msg {
		return searchDoneMsg{query: query, err: s.Search(ctx, query)}
	}
}

func (m model) askCmd(query string) tea.Cmd {
	ctx, s := m.ctx, m.searcher
	return func() tea.Msg {
		return searchDoneMsg{ai: true, query: query, err: s.AISearch(ctx, query)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.ready = true
		}

		listWidth := m.width / 3
		m.list.SetSize(listWidth, m.height-3)

		m.viewport.Width = m.width - listWidth - 4
		m.viewport.Height = m.height - 5

		m.input.Width = m.width - 4
		if m.selected != nil {
			m.updateViewport()
		}

	case loadedMsg:
		m.applyLoaded(msg)
		return m, nil

	case searchDoneMsg:
		m.applySearchDone(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.searcher.Cancel()
			return m, tea.Quit
		}

		switch m.mode {
		case modeNormal:
			switch msg.String() {
			case "q":
				m.searcher.Cancel()
				return m, tea.Quit

			case ":":
				return m, m.startInput(modeCommand, ":", "")

			case "/":
				return m, m.startInput(modeSearch, "search: ", m.view.Selection.Query())

			case "a":
				return m, m.startInput(modeAsk, "ask AI: ", "")

			case "esc":
				if m.view.Mode == search.ModeRemote {
					m.statusMessage = "Returning to all listings..."
					return m, m.searchCmd(m.view.Selection.Query())
				}
				return m, nil

			case "r":
				m.statusMessage = "Reloading listings..."
				return m, m.loadCmd()

			case "x":
				return m, m.clearFilters()

			case "enter":
				if item, ok := m.list.SelectedItem().(listItem); ok {
					l := item.listing
					m.selected = &l
					m.updateViewport()
				}
				return m, nil

			case "?":
				m.showHelp()
				return m, nil
			}

		case modeCommand, modeSearch, modeAsk:
			switch msg.String() {
			case "enter":
				value := m.input.Value()
				mode := m.mode
				m.stopInput()
				switch mode {
				case modeCommand:
					return m, m.executeCommand(value)
				case modeSearch:
					m.statusMessage = fmt.Sprintf("Searching for: %s", value)
					return m, m.searchCmd(value)
				default:
					if strings.TrimSpace(value) == "" {
						m.statusMessage = "Type a question to ask the AI"
						return m, nil
					}
					m.statusMessage = fmt.Sprintf("Asking AI: %s", value)
					return m, m.askCmd(value)
				}

			case "esc":
				m.stopInput()
				m.statusMessage = ""
				return m, nil
			}
		}
	}

	switch m.mode {
	case modeNormal:
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)

	default:
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *model) startInput(mode inputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return textinput.Blink
}

func (m *model) stopInput() {
	m.mode = modeNormal
	m.input.Blur()
	m.input.SetValue("")
}

func (m *model) applyLoaded(msg loadedMsg) {
	if msg.catErr != nil {
		m.logger.Warn("using fallback categories", zap.Error(msg.catErr))
	}
	if len(msg.categories) > 0 {
		m.categories = api.CategoryNames(msg.categories)
	}

	switch {
	case errors.Is(msg.err, search.ErrSuperseded):
		return
	case msg.err != nil:
		m.statusMessage = fmt.Sprintf("Failed to load listings: %v", msg.err)
	default:
		m.statusMessage = ""
	}
	m.refresh()
	if msg.err == nil {
		m.statusMessage = fmt.Sprintf("Loaded %d listings", len(m.searcher.Catalog()))
	}
}

func (m *model) applySearchDone(msg searchDoneMsg) {
	if errors.Is(msg.err, search.ErrSuperseded) {
		// A newer request owns the result.
		return
	}

	switch {
	case errors.Is(msg.err, search.ErrAuthRequired):
		m.statusMessage = "AI search requires login: run 'market auth login --token <token>'"
	case errors.Is(msg.err, search.ErrEmptyQuery):
		m.statusMessage = "Type a question to ask the AI"
	case errors.Is(msg.err, api.ErrUnreachable):
		m.statusMessage = "Cannot reach the marketplace backend"
	case msg.err != nil && msg.ai:
		m.statusMessage = fmt.Sprintf("AI search failed: %v", msg.err)
	case msg.err != nil:
		m.statusMessage = fmt.Sprintf("Search failed: %v", msg.err)
	}

	m.refresh()
	if msg.err != nil {
		return
	}

	switch {
	case msg.ai && m.view.Message != "":
		m.statusMessage = m.view.Message
	case msg.ai:
		m.statusMessage = fmt.Sprintf("AI found %d listings for '%s'", len(m.view.Listings), msg.query)
	default:
		m.statusMessage = fmt.Sprintf("%d listings", len(m.view.Listings))
	}
}

func (m *model) executeCommand(cmdStr string) tea.Cmd {
	parts := strings.Fields(cmdStr)
	if len(parts) == 0 {
		return nil
	}

	command := parts[0]
	args := parts[1:]
	rest := strings.Join(args, " ")

	switch command {
	case "cat", "category":
		if rest == "" {
			m.statusMessage = "Usage: :cat <category>"
			return nil
		}
		name, ok := m.resolveCategory(rest)
		if !ok {
			m.statusMessage = fmt.Sprintf("Unknown category: %s", rest)
			return nil
		}
		if m.searcher.ToggleCategory(name) {
			m.statusMessage = fmt.Sprintf("Category %s on", name)
		} else {
			m.statusMessage = fmt.Sprintf("Category %s off", name)
		}

	case "min", "max":
		p, err := filter.ParsePrice(rest)
		if err != nil {
			m.statusMessage = err.Error()
			return nil
		}
		if command == "min" {
			m.searcher.SetMinPrice(p)
		} else {
			m.searcher.SetMaxPrice(p)
		}
		if p == nil {
			m.statusMessage = fmt.Sprintf("%s price cleared", command)
		} else {
			m.statusMessage = fmt.Sprintf("%s price $%s", command, p.StringFixed(2))
		}

	case "clear":
		return m.clearFilters()

	case "search":
		m.statusMessage = fmt.Sprintf("Searching for: %s", rest)
		return m.searchCmd(rest)

	case "ask":
		if rest == "" {
			m.statusMessage = "Usage: :ask <question>"
			return nil
		}
		m.statusMessage = fmt.Sprintf("Asking AI: %s", rest)
		return m.askCmd(rest)

	case "reload":
		m.statusMessage = "Reloading listings..."
		return m.loadCmd()

	case "help", "h":
		m.showHelp()
		return nil

	case "quit", "q":
		m.statusMessage = "Use 'q' key in normal mode to quit"
		return nil

	default:
		m.statusMessage = fmt.Sprintf("Unknown command: %s", command)
		return nil
	}

	m.refresh()
	if m.view.Mode == search.ModeRemote {
		m.statusMessage += " (showing AI results, esc to return)"
	}
	return nil
}

func (m *model) clearFilters() tea.Cmd {
	m.searcher.SetCategories(nil)
	m.searcher.ClearPrice()
	m.statusMessage = "Filters cleared"
	return m.searchCmd("")
}

func (m *model) resolveCategory(name string) (string, bool) {
	for _, c := range m.categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

func (m *model) refresh() {
	m.view = m.searcher.Snapshot()

	items := make([]list.Item, 0, len(m.view.Listings))
	for _, l := range m.view.Listings {
		items = append(items, listItem{listing: l})
	}
	m.list.SetItems(items)

	if m.view.Mode == search.ModeRemote {
		m.list.Title = "AI results"
	} else {
		m.list.Title = "Listings"
	}
}

func (m *model) updateViewport() {
	if m.selected == nil {
		m.viewport.SetContent("Select a listing to view")
		return
	}

	content, err := RenderDetail(*m.selected, m.viewport.Width, "dark")
	if err != nil {
		m.logger.Debug("glamour render failed", zap.Error(err))
		content = detailMarkdown(*m.selected)
	}
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

func (m *model) showHelp() {
	help := `
Commands (press : to enter command mode):

  :cat <name>     - Toggle a category filter
  :min <price>    - Set minimum price (empty clears)
  :max <price>    - Set maximum price (empty clears)
  :clear          - Clear all filters and the search text
  :search <text>  - Search listing titles
  :ask <question> - AI search (requires login)
  :reload         - Reload listings from the backend
  :help           - Show this help

Normal Mode Keys:
  j/k or ↑/↓     - Navigate list
  enter          - View listing
  /              - Search titles
  a              - Ask the AI
  esc            - Leave AI results
  x              - Clear filters
  r              - Reload
  ?              - Show help
  q              - Quit

Filters apply to the full catalog. AI results are shown exactly as
returned; press esc or run a search to go back to filtered listings.
`

	m.viewport.SetContent(help)
	m.viewport.GotoTop()
}

func (m model) statusLine() string {
	var badge string
	if m.view.Mode == search.ModeRemote {
		badge = remoteBadgeStyle.Render("AI")
	} else {
		badge = localBadgeStyle.Render("LOCAL")
	}

	parts := []string{fmt.Sprintf("%d of %d", len(m.view.Listings), m.view.Candidates)}
	if m.view.Mode == search.ModeRemote {
		parts = append(parts, fmt.Sprintf("ask: %q", m.view.AIQuery))
	} else {
		parts = append(parts, m.view.Selection.String())
	}
	if m.view.Loading {
		parts = append(parts, "loading...")
	}

	status := m.statusMessage
	if m.view.Err != nil && status == "" {
		status = errorStyle.Render(m.view.Err.Error())
	}
	if status != "" {
		parts = append(parts, status)
	}

	return badge + " " + strings.Join(parts, " | ")
}

func (m model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	listView := paneStyle.
		Width(m.width/3 - 2).
		Height(m.height - 3).
		Render(m.list.View())

	contentView := paneStyle.
		Width(m.width - m.width/3 - 2).
		Height(m.height - 3).
		Render(m.viewport.View())

	var bottom string
	if m.mode != modeNormal {
		bottom = m.input.View()
	} else {
		bottom = helpStyle.Render("  j/k: navigate • enter: view • /: search • a: ask AI • :: command • ?: help • q: quit")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, listView, contentView) +
		"\n" + m.statusLine() + "\n" + bottom
}
