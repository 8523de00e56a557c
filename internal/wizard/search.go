package wizard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/nav"
)

// ResultKind is what a search result points at.
type ResultKind int

const (
	ResultArtist ResultKind = iota
	ResultAlbum
	ResultSong
)

// Result represents a search result item.
type Result struct {
	Kind     ResultKind
	ID       string
	Title    string
	Subtitle string
}

// SearchFunc runs a search against the player.
type SearchFunc func(ctx context.Context, query string, mode core.SearchMode) (core.SearchResults, error)

// Results flattens search results into picker rows, artists first, naming
// them from lib.
func Results(lib *core.Library, res core.SearchResults) []Result {
	var out []Result
	for _, id := range res.Artists {
		out = append(out, Result{Kind: ResultArtist, ID: id, Title: lib.Artists[id].Name, Subtitle: "(Artist)"})
	}
	for _, id := range res.Albums {
		album := lib.Albums[id]
		out = append(out, Result{Kind: ResultAlbum, ID: id, Title: album.Name, Subtitle: lib.Artists[album.Artist].Name + " (Album)"})
	}
	for _, id := range res.Songs {
		r := Result{Kind: ResultSong, ID: id, Title: id}
		if song, ok := lib.Song(id); ok {
			r.Title = song.Title
		}
		if a, ok := lib.ArtistOf(id); ok {
			r.Subtitle = a.Name
		}
		out = append(out, r)
	}
	return out
}

// SearchModel is the bubbletea model for the search wizard.
type SearchModel struct {
	input      textinput.Model
	results    []Result
	cursor     int
	mode       core.SearchMode
	search     SearchFunc
	library    *core.Library
	dispatcher *nav.SearchDispatcher
	queries    chan nav.Page
	done       chan struct{}
	selected   *Result
	err        error
	searching  bool
	width      int
	height     int
}

// Styles
var (
	searchTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	searchTabStyle = lipgloss.NewStyle().
			Padding(0, 2)

	searchActiveTabStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Background(lipgloss.Color("205")).
				Foreground(lipgloss.Color("0"))

	searchResultStyle = lipgloss.NewStyle().
				PaddingLeft(2)

	searchSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	searchSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))
)

// NewSearchModel creates a new search wizard model. Typed queries are sent
// after debounce of quiet.
func NewSearchModel(search SearchFunc, lib *core.Library, debounce time.Duration) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Search for artists, albums, songs..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	m := SearchModel{
		input:   ti,
		search:  search,
		library: lib,
		mode:    core.SearchLibrary,
		queries: make(chan nav.Page, 8),
		done:    make(chan struct{}),
		width:   80,
		height:  20,
	}
	m.dispatcher = nav.NewSearchDispatcher(debounce, func(p nav.Page) {
		select {
		case m.queries <- p:
		case <-m.done:
		}
	})
	return m
}

// queryMsg is a debounced query ready to run.
type queryMsg nav.Page

// searchResultsMsg contains search results.
type searchResultsMsg struct {
	page    nav.Page
	results []Result
	err     error
}

// Init initializes the model.
func (m SearchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen())
}

func (m SearchModel) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-m.queries:
			return queryMsg(p)
		case <-m.done:
			return nil
		}
	}
}

// page is the search page for the current input and mode.
func (m SearchModel) page() nav.Page {
	return nav.Search(strings.TrimSpace(m.input.Value()), m.mode == core.SearchSongs)
}

// Update handles messages.
func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.dispatcher.Cancel()
			return m, tea.Quit

		case "enter":
			if len(m.results) > 0 && m.cursor < len(m.results) {
				m.selected = &m.results[m.cursor]
				m.dispatcher.Cancel()
				return m, tea.Quit
			}
			return m, nil

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil

		case "tab", "shift+tab":
			if m.mode == core.SearchLibrary {
				m.mode = core.SearchSongs
			} else {
				m.mode = core.SearchLibrary
			}
			m.dispatcher.SetManager(m.mode == core.SearchSongs)
			if p := m.page(); p.Query != "" {
				m.searching = true
				return m, m.doSearch(p)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case queryMsg:
		m.searching = true
		return m, tea.Batch(m.doSearch(nav.Page(msg)), m.listen())

	case searchResultsMsg:
		// Drop answers to queries the input has moved past.
		if msg.page != m.page() {
			return m, nil
		}
		m.searching = false
		m.results = msg.results
		m.err = msg.err
		m.cursor = 0
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.dispatcher.Input(m.input.Value())
	}
	return m, cmd
}

// doSearch performs the search.
func (m SearchModel) doSearch(page nav.Page) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		mode := core.SearchLibrary
		if page.Manager {
			mode = core.SearchSongs
		}
		res, err := m.search(ctx, page.Query, mode)
		if err != nil {
			return searchResultsMsg{page: page, err: err}
		}
		return searchResultsMsg{page: page, results: Results(m.library, res)}
	}
}

// View renders the model.
func (m SearchModel) View() string {
	var b strings.Builder

	// Title
	b.WriteString(searchTitleStyle.Render("🔍 Search"))
	b.WriteString("\n\n")

	// Search input
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	// Mode tabs
	tabs := []string{"Library", "Songs"}
	for i, tab := range tabs {
		if core.SearchMode(i) == m.mode {
			b.WriteString(searchActiveTabStyle.Render(tab))
		} else {
			b.WriteString(searchTabStyle.Render(tab))
		}
	}
	b.WriteString("\n\n")

	// Results
	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("Error: " + m.err.Error()))
	} else if m.searching {
		b.WriteString("Searching...")
	} else if len(m.results) == 0 && m.input.Value() != "" {
		b.WriteString("No results found")
	} else {
		maxResults := m.height - 10
		if maxResults < 5 {
			maxResults = 5
		}
		for i, result := range m.results {
			if i >= maxResults {
				b.WriteString(searchSubtitleStyle.Render("  ...and more"))
				break
			}

			line := result.Title
			if result.Subtitle != "" {
				line += " " + searchSubtitleStyle.Render(result.Subtitle)
			}

			if i == m.cursor {
				b.WriteString(searchSelectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(searchResultStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	// Help
	b.WriteString("\n")
	b.WriteString(searchSubtitleStyle.Render("↑/↓ navigate • tab switch mode • enter select • esc quit"))

	return b.String()
}

// Selected returns the selected result, or nil if none.
func (m SearchModel) Selected() *Result {
	return m.selected
}

// RunSearch runs the search wizard and returns the selected result.
func RunSearch(search SearchFunc, lib *core.Library, debounce time.Duration) (*Result, error) {
	model := NewSearchModel(search, lib, debounce)
	defer close(model.done)

	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(SearchModel).Selected(), nil
}
