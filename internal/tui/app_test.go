package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/encore/internal/authority"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/nav"
	"github.com/tessro/encore/internal/tail"
)

var testLib = &core.Library{
	Songs: map[string]core.Song{
		"s1": {Title: "Sinnerman", Path: "/music/sinnerman.flac", Album: "al1", Duration: 600 * time.Second},
		"s2": {Title: "Be My Husband", Path: "/music/husband.flac", Album: "al1", Duration: 180 * time.Second},
		"s3": {Title: "So What", Path: "/music/sowhat.flac", Album: "al2", Duration: 560 * time.Second},
	},
	Albums: map[string]core.Album{
		"al1": {Name: "Pastel Blues", Artist: "ar1"},
		"al2": {Name: "Kind of Blue", Artist: "ar2"},
	},
	Artists: map[string]core.Artist{
		"ar1": {Name: "Nina Simone"},
		"ar2": {Name: "Miles Davis"},
	},
}

func newTestModel(t *testing.T) (Model, *authority.Player) {
	t.Helper()
	player := authority.New(testLib)
	m := NewModel(Options{
		Authority: player,
		runner:    func(f func()) { f() },
	}, testLib)
	t.Cleanup(func() {
		m.ctl.Close()
		_ = player.Close()
	})
	return m, player
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestPageKeys(t *testing.T) {
	m, _ := newTestModel(t)

	tests := []struct {
		key  string
		want nav.Kind
	}{
		{"2", nav.KindArtists},
		{"3", nav.KindAlbums},
		{"4", nav.KindLibraryManager},
		{"5", nav.KindSettings},
		{"6", nav.KindAbout},
		{"1", nav.KindSongs},
	}
	for _, tt := range tests {
		m = press(m, tt.key)
		if got := m.stack.Current().Kind; got != tt.want {
			t.Errorf("after %q page = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestOpenArtistAndBack(t *testing.T) {
	m, _ := newTestModel(t)

	// Artists sort by name: Miles Davis, Nina Simone.
	m = press(m, "2", "down", "enter")
	if got := m.stack.Current(); got != nav.Artist("ar1") {
		t.Fatalf("page = %+v, want artist ar1", got)
	}
	if !m.stack.CanGoBack() {
		t.Error("CanGoBack() = false after opening a detail page")
	}

	// The artist page lists its album first.
	m = press(m, "enter")
	if got := m.stack.Current(); got != nav.Album("al1") {
		t.Fatalf("page = %+v, want album al1", got)
	}

	m = press(m, "esc")
	if got := m.stack.Current(); got != nav.Artist("ar1") {
		t.Errorf("after back page = %+v, want artist ar1", got)
	}
	m = press(m, "esc")
	if got := m.stack.Current(); got != nav.Artists() {
		t.Errorf("after back page = %+v, want artists", got)
	}
	m = press(m, "esc")
	if got := m.stack.Current(); got != nav.Default() {
		t.Errorf("back on empty history = %+v, want default page", got)
	}
}

func TestEnterPlaysWithPageScope(t *testing.T) {
	m, player := newTestModel(t)
	ctx := context.Background()

	// Album page for Pastel Blues: Be My Husband, Sinnerman.
	m = press(m, "3", "down", "enter")
	if got := m.stack.Current(); got != nav.Album("al1") {
		t.Fatalf("page = %+v, want album al1", got)
	}
	m = press(m, "down", "enter")

	snap, err := player.CurrentSong(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.TrackID != "s1" {
		t.Errorf("playing %q, want s1", snap.TrackID)
	}
	if m.display.TrackID != "s1" {
		t.Errorf("display track = %q, want s1", m.display.TrackID)
	}
	if got := player.Queue(); len(got) != 1 || got[0] != "s2" {
		t.Errorf("Queue() = %v, want album scope [s2]", got)
	}

	m = press(m, " ")
	if !m.display.Paused {
		t.Error("display not paused after space")
	}
	snap, _ = player.CurrentSong(ctx)
	if !snap.IsPaused() {
		t.Error("player not paused after space")
	}
}

func TestSearchPage(t *testing.T) {
	m, _ := newTestModel(t)

	cmd := m.navigate(nav.Search("blue", false))
	if cmd == nil {
		t.Fatal("navigate(search) returned no command")
	}
	if !m.results.pending {
		t.Error("results not pending before search returns")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)

	items := m.items()
	if len(items) != 2 {
		t.Fatalf("items() = %d, want 2 albums", len(items))
	}
	for _, it := range items {
		if it.kind != itemAlbum {
			t.Errorf("item %q kind = %v, want album", it.id, it.kind)
		}
	}

	// A manager search lists songs only.
	cmd = m.navigate(nav.Search("so", true))
	next, _ = m.Update(cmd())
	m = next.(Model)
	for _, it := range m.items() {
		if it.kind != itemSong {
			t.Errorf("manager search item %q kind = %v, want song", it.id, it.kind)
		}
	}
}

func TestStaleSearchResultsIgnored(t *testing.T) {
	m, _ := newTestModel(t)

	old := m.navigate(nav.Search("nina", false))
	m.navigate(nav.Search("miles", false))
	next, _ := m.Update(old())
	m = next.(Model)

	if !m.results.pending {
		t.Error("stale results replaced the pending search")
	}
}

func TestTypingDispatchesSearch(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, "/")
	if !m.typing {
		t.Fatal("typing = false after /")
	}
	m = press(m, "m", "i")
	if !m.search.Pending() {
		t.Error("search dispatch not pending after typing")
	}
	m = press(m, "esc")
	if m.typing || m.search.Pending() {
		t.Error("esc did not stop typing and cancel the search")
	}
}

func TestHistoryRecordsCompletions(t *testing.T) {
	m, _ := newTestModel(t)
	now := time.Now()

	m.record(tail.Event{Type: tail.EventTrackChange, Current: core.Snapshot{TrackID: "s1"}})
	m.record(tail.Event{Type: tail.EventTrackSkip, Timestamp: now, Previous: core.Snapshot{TrackID: "s3"}})
	m.record(tail.Event{Type: tail.EventTrackComplete, Timestamp: now, Previous: core.Snapshot{TrackID: "s1"}})

	entries := m.history.Entries()
	if len(entries) != 2 {
		t.Fatalf("history = %d entries, want 2", len(entries))
	}
	if entries[0].Title != "Sinnerman" || entries[0].Skipped {
		t.Errorf("entries[0] = %+v, want completed Sinnerman", entries[0])
	}
	if entries[1].Artist != "Miles Davis" || !entries[1].Skipped {
		t.Errorf("entries[1] = %+v, want skipped Miles Davis song", entries[1])
	}
}

func TestViewRenders(t *testing.T) {
	m, _ := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"Songs", "Now Playing", "Nothing playing", "History"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m = press(m, "?")
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help overlay not shown")
	}
}

type stopTimer struct{}

func (stopTimer) Stop() bool { return true }

// nextNavigation returns the first navigateMsg waiting on the model's
// message channel.
func nextNavigation(t *testing.T, m Model) navigateMsg {
	t.Helper()
	for {
		select {
		case msg := <-m.msgs:
			if n, ok := msg.(navigateMsg); ok {
				return n
			}
		default:
			t.Fatal("no navigation dispatched")
			return navigateMsg{}
		}
	}
}

func TestSameSearchAfterLeavingPage(t *testing.T) {
	m, _ := newTestModel(t)
	var fire func()
	m.search.WithAfterFunc(func(_ time.Duration, f func()) nav.Timer {
		fire = f
		return stopTimer{}
	})

	search := func(m Model) Model {
		t.Helper()
		fire = nil
		m = press(m, "/", "b", "l", "u", "e", "enter")
		if fire == nil {
			t.Fatal("search not scheduled")
		}
		fire()
		next, _ := m.Update(nextNavigation(t, m))
		return next.(Model)
	}

	m = search(m)
	if got := m.stack.Current(); got != nav.Search("blue", false) {
		t.Fatalf("page = %+v, want search for blue", got)
	}

	m = press(m, "1")
	m = search(m)
	if got := m.stack.Current(); got != nav.Search("blue", false) {
		t.Errorf("repeated search page = %+v, want search for blue", got)
	}

	// The manager page searches songs only, even for the same text.
	m = press(m, "4")
	m = search(m)
	if got := m.stack.Current(); got != nav.Search("blue", true) {
		t.Errorf("manager search page = %+v, want songs-only search for blue", got)
	}
}
