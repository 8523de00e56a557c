package wizard

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/nav"
)

var testLib = &core.Library{
	Songs: map[string]core.Song{
		"s1": {Title: "Sinnerman", Album: "al1", Duration: time.Minute},
		"s2": {Title: "Be My Husband", Album: "al1", Duration: time.Minute},
	},
	Albums:  map[string]core.Album{"al1": {Name: "Pastel Blues", Artist: "ar1"}},
	Artists: map[string]core.Artist{"ar1": {Name: "Nina Simone"}},
}

func librarySearch(calls *[]nav.Page) SearchFunc {
	return func(_ context.Context, query string, mode core.SearchMode) (core.SearchResults, error) {
		*calls = append(*calls, nav.Search(query, mode == core.SearchSongs))
		return testLib.Search(query, mode), nil
	}
}

type stopTimer struct{}

func (stopTimer) Stop() bool { return true }

func typeText(m SearchModel, text string) SearchModel {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(SearchModel)
	}
	return m
}

func TestResults(t *testing.T) {
	got := Results(testLib, core.SearchResults{
		Artists: []string{"ar1"},
		Albums:  []string{"al1"},
		Songs:   []string{"s1", "gone"},
	})

	want := []Result{
		{Kind: ResultArtist, ID: "ar1", Title: "Nina Simone", Subtitle: "(Artist)"},
		{Kind: ResultAlbum, ID: "al1", Title: "Pastel Blues", Subtitle: "Nina Simone (Album)"},
		{Kind: ResultSong, ID: "s1", Title: "Sinnerman", Subtitle: "Nina Simone"},
		{Kind: ResultSong, ID: "gone", Title: "gone"},
	}
	if len(got) != len(want) {
		t.Fatalf("Results() = %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Results()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSearchModelRunsDebouncedQuery(t *testing.T) {
	var calls []nav.Page
	m := NewSearchModel(librarySearch(&calls), testLib, time.Millisecond)
	defer close(m.done)

	var fire func()
	m.dispatcher.WithAfterFunc(func(_ time.Duration, f func()) nav.Timer {
		fire = f
		return stopTimer{}
	})

	m = typeText(m, "nina")
	fire()

	msg := m.listen()()
	if got, want := msg, queryMsg(nav.Search("nina", false)); got != want {
		t.Fatalf("listen() = %v, want %v", got, want)
	}

	m2, _ := m.Update(msg)
	m = m2.(SearchModel)
	if !m.searching {
		t.Error("searching = false after query")
	}

	next, _ := m.Update(m.doSearch(nav.Page(msg.(queryMsg)))())
	m = next.(SearchModel)
	if len(m.results) != 1 || m.results[0].Kind != ResultArtist {
		t.Fatalf("results = %+v, want the artist", m.results)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(SearchModel)
	if sel := m.Selected(); sel == nil || sel.ID != "ar1" {
		t.Errorf("Selected() = %+v, want ar1", sel)
	}
}

func TestSearchModelIgnoresStaleResults(t *testing.T) {
	var calls []nav.Page
	m := NewSearchModel(librarySearch(&calls), testLib, time.Hour)
	defer close(m.done)

	m = typeText(m, "sin")
	stale := m.doSearch(nav.Search("si", false))()
	next, _ := m.Update(stale)
	m = next.(SearchModel)
	if len(m.results) != 0 {
		t.Errorf("results = %+v, want stale answer dropped", m.results)
	}
}

func TestSearchModelTabSwitchesMode(t *testing.T) {
	var calls []nav.Page
	m := NewSearchModel(librarySearch(&calls), testLib, time.Hour)
	defer close(m.done)

	m = typeText(m, "blues")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(SearchModel)
	if m.mode != core.SearchSongs {
		t.Fatalf("mode = %v, want songs", m.mode)
	}
	if cmd == nil {
		t.Fatal("tab with a query returned no search")
	}
	next, _ = m.Update(cmd())
	m = next.(SearchModel)

	if len(calls) != 1 || calls[0] != nav.Search("blues", true) {
		t.Errorf("calls = %v, want one songs-only search", calls)
	}
	if len(m.results) != 0 {
		t.Errorf("results = %+v, want none: no song title matches", m.results)
	}
}

func TestPlay(t *testing.T) {
	tests := []struct {
		name      string
		result    Result
		wantSong  string
		wantScope core.PlayerScope
		wantOK    bool
	}{
		{"song", Result{Kind: ResultSong, ID: "s1"}, "s1", core.LibraryScope(), true},
		{"album", Result{Kind: ResultAlbum, ID: "al1"}, "s2", core.AlbumScope("al1"), true},
		{"artist", Result{Kind: ResultArtist, ID: "ar1"}, "s2", core.ArtistScope("ar1"), true},
		{"empty album", Result{Kind: ResultAlbum, ID: "nope"}, "", core.PlayerScope{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			song, scope, ok := Play(testLib, tt.result)
			if song != tt.wantSong || scope != tt.wantScope || ok != tt.wantOK {
				t.Errorf("Play() = %q, %+v, %v, want %q, %+v, %v", song, scope, ok, tt.wantSong, tt.wantScope, tt.wantOK)
			}
		})
	}
}

func TestNeedsTrack(t *testing.T) {
	if !NeedsTrack(nil) {
		t.Error("NeedsTrack(nil) = false, want true")
	}
	if NeedsTrack([]string{"s1"}) {
		t.Error("NeedsTrack([s1]) = true, want false")
	}
}
