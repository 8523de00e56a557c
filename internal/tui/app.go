package tui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/encore/internal/config"
	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
	"github.com/tessro/encore/internal/nav"
	"github.com/tessro/encore/internal/scheduler"
	"github.com/tessro/encore/internal/tail"
	"github.com/tessro/encore/internal/transport"
	"github.com/tessro/encore/internal/tui/components"
	"github.com/tessro/encore/internal/tui/styles"
)

const (
	seekStep    = 5 * time.Second
	volumeStep  = 0.05
	errorTTL    = 5 * time.Second
	callTimeout = 5 * time.Second
)

// Options configures the UI.
type Options struct {
	Authority core.Authority
	Config    *config.Config
	Logger    *slog.Logger
	Version   string

	// runner overrides how the controller issues calls, for tests.
	runner transport.Runner
}

// Model is the main TUI model
type Model struct {
	auth    core.Authority
	ctl     *transport.Controller
	library *core.Library
	stack   *nav.Stack
	search  *nav.SearchDispatcher
	cfg     *config.Config
	version string
	logger  *slog.Logger

	// msgs carries messages from controller, dispatcher and watcher
	// goroutines into the program.
	msgs chan tea.Msg
	done chan struct{}

	width   int
	height  int
	display transport.Display
	results searchState

	// Components
	list       *components.List
	nowPlaying *components.NowPlaying
	history    *components.History

	// Search input
	searchInput textinput.Model
	typing      bool

	showHelp    bool
	lastError   error
	errorExpiry time.Time
	quitting    bool
}

// Messages
type frameMsg struct{}
type navigateMsg nav.Page
type historyMsg tail.Event
type errMsg struct {
	intent string
	err    error
}
type searchResultsMsg struct {
	page    nav.Page
	results core.SearchResults
	err     error
}

// NewModel creates a model browsing lib and controlling opts.Authority.
func NewModel(opts Options, lib *core.Library) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ti := textinput.New()
	ti.Placeholder = "Search artists, albums, songs..."
	ti.CharLimit = 100
	ti.Width = 50

	m := Model{
		auth:        opts.Authority,
		library:     lib,
		stack:       nav.NewStack(),
		cfg:         cfg,
		version:     opts.Version,
		logger:      logger,
		msgs:        make(chan tea.Msg, 64),
		done:        make(chan struct{}),
		list:        components.NewList(),
		nowPlaying:  components.NewNowPlaying(lib),
		history:     components.NewHistory(),
		searchInput: ti,
	}

	m.ctl = transport.New(transport.Config{
		Authority:        opts.Authority,
		Catalog:          lib,
		Host:             scheduler.IntervalHost{Interval: cfg.Player.FrameIntervalDuration()},
		Runner:           opts.runner,
		Logger:           logger,
		RestartThreshold: cfg.Player.RestartThresholdDuration(),
		PlayTolerance:    cfg.Player.PlayToleranceDuration(),
		OnDisplay: func(transport.Display) {
			m.offer(frameMsg{})
		},
		OnError: func(i transport.Intent, err error) {
			m.offer(errMsg{intent: i.String(), err: err})
		},
	})
	m.search = nav.NewSearchDispatcher(cfg.Search.DebounceDuration(), func(p nav.Page) {
		m.send(navigateMsg(p))
	})
	m.display = m.ctl.Display()
	return m
}

// offer delivers msg if there is room. A dropped frame is harmless since
// the next one reads the latest display.
func (m Model) offer(msg tea.Msg) {
	select {
	case m.msgs <- msg:
	default:
	}
}

// send delivers msg, waiting for room until the program ends.
func (m Model) send(msg tea.Msg) {
	select {
	case m.msgs <- msg:
	case <-m.done:
	}
}

// listen waits for the next message from a background goroutine.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.msgs:
			return msg
		case <-m.done:
			return nil
		}
	}
}

func (m Model) runSearch(page nav.Page) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		mode := core.SearchLibrary
		if page.Manager {
			mode = core.SearchSongs
		}
		res, err := m.auth.Search(ctx, page.Query, mode)
		return searchResultsMsg{page: page, results: res, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		if err := m.ctl.Refresh(ctx); err != nil {
			return errMsg{intent: "refresh", err: err}
		}
		return nil
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.listen()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case frameMsg:
		m.display = m.ctl.Display()
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		return m, m.listen()

	case navigateMsg:
		m.stack.Navigate(nav.Page(msg))
		return m, tea.Batch(m.entered(), m.listen())

	case historyMsg:
		m.record(tail.Event(msg))
		return m, m.listen()

	case errMsg:
		m.logger.Warn("player call failed", "intent", msg.intent, "err", msg.err)
		m.lastError = msg.err
		m.errorExpiry = time.Now().Add(errorTTL)
		return m, m.listen()

	case searchResultsMsg:
		if m.results.matches(msg.page) {
			m.results.pending = false
			m.results.results = msg.results
			m.results.err = msg.err
		}
		return m, nil
	}

	if m.typing {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// navigate shows page directly, as a key press does.
func (m *Model) navigate(page nav.Page) tea.Cmd {
	m.stack.Navigate(page)
	return m.entered()
}

// entered resets per-page state after the current page changed and starts
// a search when a search page has no results yet.
func (m *Model) entered() tea.Cmd {
	page := m.stack.Current()
	m.list.Reset()

	if page.Kind.IsMain() {
		m.search.SetManager(page.Kind == nav.KindLibraryManager || (page.Kind == nav.KindSearch && page.Manager))
	}
	if page.Kind != nav.KindSearch || m.results.matches(page) {
		return nil
	}
	m.results = searchState{page: page, pending: true}
	return m.runSearch(page)
}

// record adds finished and skipped songs to the history panel.
func (m *Model) record(e tail.Event) {
	if e.Type != tail.EventTrackComplete && e.Type != tail.EventTrackSkip {
		return
	}
	entry := components.HistoryEntry{
		Title:    e.Previous.TrackID,
		PlayedAt: e.Timestamp,
		Skipped:  e.Type == tail.EventTrackSkip,
	}
	if song, ok := m.library.Song(e.Previous.TrackID); ok {
		entry.Title = song.Title
	}
	if a, ok := m.library.ArtistOf(e.Previous.TrackID); ok {
		entry.Artist = a.Name
	}
	m.history.Add(entry)
}

func (m Model) items() []item {
	return pageItems(m.stack.Current(), m.library, m.results, m.display.TrackID)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys (always work)
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	if m.typing {
		return m.handleSearchKeyPress(msg)
	}

	ctx := context.Background()

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "/":
		m.typing = true
		m.searchInput.SetValue("")
		m.search.Input("")
		m.searchInput.Focus()
		return m, textinput.Blink

	case "1":
		return m, m.navigate(nav.Songs())
	case "2":
		return m, m.navigate(nav.Artists())
	case "3":
		return m, m.navigate(nav.Albums())
	case "4":
		return m, m.navigate(nav.LibraryManager())
	case "5":
		return m, m.navigate(nav.Settings())
	case "6":
		return m, m.navigate(nav.About())

	case "esc", "backspace":
		m.stack.Back()
		return m, m.entered()

	case "j", "down":
		m.list.Down(len(m.items()))
	case "k", "up":
		m.list.Up()
	case "enter":
		return m, m.activate(ctx)

	// Playback controls
	case " ":
		m.ctl.TogglePause(ctx)
	case "n":
		m.ctl.Next(ctx)
	case "p":
		m.ctl.Previous(ctx)
	case "left", "h":
		m.ctl.Seek(ctx, max(m.display.Elapsed-seekStep, 0))
	case "right", "l":
		if m.display.HasTrack() {
			m.ctl.Seek(ctx, min(m.display.Elapsed+seekStep, m.display.Duration))
		}
	case "+", "=":
		m.ctl.SetVolume(ctx, m.display.Volume+volumeStep)
	case "-":
		m.ctl.SetVolume(ctx, m.display.Volume-volumeStep)
	case "s":
		m.ctl.ToggleShuffle(ctx)
	case "r":
		m.ctl.ToggleRepeat(ctx)
	case "ctrl+r":
		return m, m.refresh()
	}

	m.display = m.ctl.Display()
	return m, nil
}

// activate plays the selected song or opens the selected album or artist.
func (m *Model) activate(ctx context.Context) tea.Cmd {
	items := m.items()
	i := m.list.Selected(len(items))
	if i < 0 {
		return nil
	}
	it := items[i]
	switch it.kind {
	case itemAlbum:
		return m.navigate(nav.Album(it.id))
	case itemArtist:
		return m.navigate(nav.Artist(it.id))
	default:
		m.ctl.Play(ctx, it.id, scopeFor(m.stack.Current()))
		m.display = m.ctl.Display()
		return nil
	}
}

func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.typing = false
		m.searchInput.Blur()
		m.search.Cancel()
		return m, nil

	case "enter":
		m.typing = false
		m.searchInput.Blur()
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if value := m.searchInput.Value(); value != before {
		m.search.Input(value)
	}
	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	// Left: current page. Right: Now Playing (top), History (bottom)
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	mainHeight := m.height - 3
	topHeight := mainHeight * 50 / 100
	bottomHeight := mainHeight - topHeight

	page := m.renderPage(leftWidth-2, mainHeight-2)
	nowPlaying := m.nowPlaying.Render(m.display, rightWidth-2, topHeight-2, false)
	history := m.history.Render(rightWidth-2, bottomHeight-2, false)

	rightCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, history)
	main := lipgloss.JoinHorizontal(lipgloss.Top, page, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderSearchBar(), m.renderStatusBar())
}

func (m Model) renderPage(width, height int) string {
	page := m.stack.Current()
	title := page.Title()
	if page.Kind == nav.KindArtist || page.Kind == nav.KindAlbum {
		title = m.detailTitle(page)
	}

	switch page.Kind {
	case nav.KindSettings:
		return m.renderText(title, settingsText(m.cfg), width, height)
	case nav.KindAbout:
		return m.renderText(title, aboutText(m.version, m.library), width, height)
	}

	empty := "Nothing here"
	if page.Kind == nav.KindSearch {
		switch {
		case m.results.pending:
			empty = "Searching..."
		case m.results.err != nil:
			empty = "Error: " + m.results.err.Error()
		default:
			empty = "No results found"
		}
	}

	items := m.items()
	rows := make([]components.Row, len(items))
	for i, it := range items {
		rows[i] = it.row
	}
	return m.list.Render(title, rows, empty, width, height, !m.typing)
}

func (m Model) detailTitle(page nav.Page) string {
	if m.library == nil {
		return page.Title()
	}
	if page.Kind == nav.KindArtist {
		if a, ok := m.library.Artists[page.ID]; ok {
			return a.Name
		}
	}
	if a, ok := m.library.Albums[page.ID]; ok {
		return a.Name
	}
	return page.Title()
}

func (m Model) renderText(title, text string, width, height int) string {
	return styles.Panel(true).
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.PanelTitle(title, true),
			"",
			text,
		))
}

func (m Model) renderSearchBar() string {
	if !m.typing && m.searchInput.Value() == "" {
		return ""
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(m.searchInput.View())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  /:search  1-6:pages  esc:back  space:play/pause  n/p:next/prev  ←/→:seek  +/-:volume")

	if m.lastError != nil {
		msg := "Error: " + m.lastError.Error()
		if s := encerrors.GetSuggestion(m.lastError); s != "" {
			msg += " (" + s + ")"
		}
		status = styles.Failure.Render(msg)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "Encore - Keyboard Shortcuts"
	divider := strings.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  /            Search
  Ctrl+R       Refresh

  Pages
  ─────
  1 Songs  2 Artists  3 Albums
  4 Library manager  5 Settings  6 About
  Esc, ⌫       Back
  j/↓, k/↑     Move selection
  Enter        Play song / open album or artist

  Playback
  ────────
  Space        Play/Pause
  n            Next track
  p            Previous track (restarts after 5s)
  ←/h, →/l     Seek 5s
  +/=, -       Volume
  s            Shuffle
  r            Repeat (off, all, one)

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run starts the TUI application and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	lib, err := opts.Authority.Library(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(opts, lib)
	defer m.ctl.Close()
	defer close(m.done)

	if err := m.ctl.Refresh(ctx); err != nil {
		m.logger.Warn("initial refresh failed", "err", err)
	}
	go follow(ctx, m.auth, m.ctl, m.cfg.TUI.RefreshIntervalDuration(), m.logger)

	watcher := tail.NewWatcher(m.auth, lib, m.cfg.Tail.IntervalDuration())
	watcher.SetLogger(m.logger)
	go func() { _ = watcher.Start(ctx) }()
	go func() {
		for e := range watcher.Events() {
			m.send(historyMsg(e))
		}
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// follow keeps ctl in step with the player, resubscribing when a
// subscription drops and polling when the player offers none.
func follow(ctx context.Context, auth core.Authority, ctl *transport.Controller, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Second
	}
	for {
		sub, err := auth.SubscribeCurrentSong(ctx)
		if encerrors.Is(err, encerrors.ErrUnknownProcedure) {
			logger.Info("subscription unavailable, polling", "interval", interval)
			poll(ctx, ctl, interval, logger)
			return
		}
		if err == nil {
			err = ctl.Follow(ctx, sub)
		}
		if ctx.Err() != nil {
			return
		}
		logger.Warn("subscription ended", "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		if err := ctl.Refresh(ctx); err != nil {
			logger.Debug("refresh failed", "err", err)
		}
	}
}

func poll(ctx context.Context, ctl *transport.Controller, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ctl.Refresh(ctx); err != nil {
				logger.Debug("refresh failed", "err", err)
			}
		}
	}
}
