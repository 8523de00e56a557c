package tui

import (
	"strings"
	"testing"

	"github.com/tessro/encore/internal/config"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/nav"
)

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestPageItems(t *testing.T) {
	search := searchState{
		page:    nav.Search("nina", false),
		results: core.SearchResults{Artists: []string{"ar1"}, Songs: []string{"s1"}},
	}

	tests := []struct {
		name string
		page nav.Page
		want []string
	}{
		{"songs", nav.Songs(), []string{"s3", "s2", "s1"}},
		{"artists", nav.Artists(), []string{"ar2", "ar1"}},
		{"albums", nav.Albums(), []string{"al2", "al1"}},
		{"artist", nav.Artist("ar1"), []string{"al1", "s2", "s1"}},
		{"album", nav.Album("al1"), []string{"s2", "s1"}},
		{"manager", nav.LibraryManager(), []string{"s3", "s2", "s1"}},
		{"search", nav.Search("nina", false), []string{"ar1", "s1"}},
		{"other search", nav.Search("miles", false), nil},
		{"settings", nav.Settings(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(pageItems(tt.page, testLib, search, ""))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("pageItems() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageItemsMarksPlaying(t *testing.T) {
	items := pageItems(nav.Album("al1"), testLib, searchState{}, "s1")
	for _, it := range items {
		if it.row.Active != (it.id == "s1") {
			t.Errorf("item %q Active = %v", it.id, it.row.Active)
		}
	}
	if got := items[1].row.Detail; got != "10:00" {
		t.Errorf("album song detail = %q, want duration 10:00", got)
	}

	manager := pageItems(nav.LibraryManager(), testLib, searchState{}, "")
	if got := manager[0].row.Detail; got != "/music/sowhat.flac" {
		t.Errorf("manager detail = %q, want path", got)
	}
}

func TestScopeFor(t *testing.T) {
	tests := []struct {
		page nav.Page
		want core.PlayerScope
	}{
		{nav.Songs(), core.LibraryScope()},
		{nav.Search("x", false), core.LibraryScope()},
		{nav.Album("al1"), core.AlbumScope("al1")},
		{nav.Artist("ar1"), core.ArtistScope("ar1")},
	}
	for _, tt := range tests {
		if got := scopeFor(tt.page); got != tt.want {
			t.Errorf("scopeFor(%+v) = %+v, want %+v", tt.page, got, tt.want)
		}
	}
}

func TestAboutAndSettingsText(t *testing.T) {
	about := aboutText("1.2.3", testLib)
	for _, want := range []string{"Encore 1.2.3", "3 songs", "2 albums", "2 artists", "22:20"} {
		if !strings.Contains(about, want) {
			t.Errorf("aboutText() = %q, missing %q", about, want)
		}
	}

	settings := settingsText(config.Default())
	for _, want := range []string{config.DefaultAddr, "250ms", "5s"} {
		if !strings.Contains(settings, want) {
			t.Errorf("settingsText() missing %q", want)
		}
	}
}
