package core

import (
	"strings"
	"testing"
	"time"
)

var testLib = &Library{
	Songs: map[string]Song{
		"s1": {Title: "Sinnerman", Album: "al1", Duration: 600 * time.Second},
		"s2": {Title: "Be My Husband", Album: "al1", Duration: 180 * time.Second},
		"s3": {Title: "So What", Album: "al2", Duration: 560 * time.Second},
		"s4": {Title: "Blue in Green", Album: "al2", Duration: 337 * time.Second},
	},
	Albums: map[string]Album{
		"al1": {Name: "Pastel Blues", Artist: "ar1"},
		"al2": {Name: "Kind of Blue", Artist: "ar2"},
	},
	Artists: map[string]Artist{
		"ar1": {Name: "Nina Simone"},
		"ar2": {Name: "Miles Davis"},
	},
}

func join(ids []string) string { return strings.Join(ids, ",") }

func TestRepeatMode(t *testing.T) {
	tests := []struct {
		mode RepeatMode
		str  string
		next RepeatMode
	}{
		{RepeatNone, "None", RepeatAll},
		{RepeatAll, "All", RepeatOne},
		{RepeatOne, "One", RepeatNone},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
		if got := tt.mode.Next(); got != tt.next {
			t.Errorf("%v.Next() = %v, want %v", tt.mode, got, tt.next)
		}
		parsed, err := ParseRepeatMode(tt.str)
		if err != nil || parsed != tt.mode {
			t.Errorf("ParseRepeatMode(%q) = %v, %v", tt.str, parsed, err)
		}
	}

	if m, err := ParseRepeatMode("context"); err != nil || m != RepeatAll {
		t.Errorf("ParseRepeatMode(context) = %v, %v, want All", m, err)
	}
	if _, err := ParseRepeatMode("sometimes"); err == nil {
		t.Error("ParseRepeatMode(sometimes) error = nil")
	}
}

func TestSnapshotState(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		snap    Snapshot
		track   bool
		paused  bool
		running bool
	}{
		{"idle", Idle(), false, false, false},
		{"playing", Snapshot{TrackID: "s1", StartedAt: now}, true, false, true},
		{"paused", Snapshot{TrackID: "s1", StartedAt: now, PausedAt: now}, true, true, false},
	}
	for _, tt := range tests {
		if got := tt.snap.HasTrack(); got != tt.track {
			t.Errorf("%s: HasTrack() = %v, want %v", tt.name, got, tt.track)
		}
		if got := tt.snap.IsPaused(); got != tt.paused {
			t.Errorf("%s: IsPaused() = %v, want %v", tt.name, got, tt.paused)
		}
		if got := tt.snap.IsRunning(); got != tt.running {
			t.Errorf("%s: IsRunning() = %v, want %v", tt.name, got, tt.running)
		}
	}
	if Idle().Volume != 1 {
		t.Errorf("Idle().Volume = %v, want 1", Idle().Volume)
	}
}

func TestClampVolume(t *testing.T) {
	for in, want := range map[float64]float64{-0.5: 0, 0: 0, 0.4: 0.4, 1: 1, 1.7: 1} {
		if got := ClampVolume(in); got != want {
			t.Errorf("ClampVolume(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestLibraryOrdering(t *testing.T) {
	tests := []struct {
		name string
		got  []string
		want string
	}{
		{"songs", testLib.SongIDs(), "s4,s3,s2,s1"},
		{"album songs", testLib.AlbumSongIDs("al1"), "s2,s1"},
		{"artist songs", testLib.ArtistSongIDs("ar2"), "s4,s3"},
		{"albums", testLib.AlbumIDs(), "al2,al1"},
		{"artists", testLib.ArtistIDs(), "ar2,ar1"},
	}
	for _, tt := range tests {
		if got := join(tt.got); got != tt.want {
			t.Errorf("%s = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestLibraryLookups(t *testing.T) {
	if a, ok := testLib.ArtistOf("s3"); !ok || a.Name != "Miles Davis" {
		t.Errorf("ArtistOf(s3) = %+v, %v", a, ok)
	}
	if _, ok := testLib.ArtistOf("missing"); ok {
		t.Error("ArtistOf(missing) ok = true")
	}

	var nilLib *Library
	if _, ok := nilLib.Song("s1"); ok {
		t.Error("nil Library Song() ok = true")
	}
	if _, ok := testLib.Song(""); ok {
		t.Error("Song(\"\") ok = true")
	}
}

func TestLibrarySearch(t *testing.T) {
	res := testLib.Search("  BLUE ", SearchLibrary)
	if got := join(res.Albums); got != "al2,al1" {
		t.Errorf("Search albums = %s, want al2,al1", got)
	}
	if got := join(res.Songs); got != "s4" {
		t.Errorf("Search songs = %s, want s4", got)
	}
	if len(res.Artists) != 0 {
		t.Errorf("Search artists = %v, want none", res.Artists)
	}

	songs := testLib.Search("blue", SearchSongs)
	if songs.Albums != nil || songs.Artists != nil {
		t.Errorf("SearchSongs returned albums %v, artists %v", songs.Albums, songs.Artists)
	}
	if got := join(songs.Songs); got != "s4" {
		t.Errorf("SearchSongs songs = %s, want s4", got)
	}
}
