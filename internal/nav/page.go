// Package nav holds the page history of the browser views.
package nav

// Kind identifies a page.
type Kind string

// Main pages reset history when navigated to.
const (
	KindSongs          Kind = "songs"
	KindArtists        Kind = "artists"
	KindAlbums         Kind = "albums"
	KindSearch         Kind = "search"
	KindSettings       Kind = "settings"
	KindAbout          Kind = "about"
	KindLibraryManager Kind = "library-manager"
)

// Detail pages are pushed onto history.
const (
	KindArtist Kind = "artist"
	KindAlbum  Kind = "album"
)

// IsMain returns true for pages that reset history.
func (k Kind) IsMain() bool {
	switch k {
	case KindSongs, KindArtists, KindAlbums, KindSearch, KindSettings, KindAbout, KindLibraryManager:
		return true
	}
	return false
}

// Page is a navigation destination. Only the fields of its kind are set.
// Pages are built with the constructors below, never by hand.
type Page struct {
	Kind Kind
	// ID is the artist or album id of a detail page.
	ID string
	// Query and Manager belong to search pages.
	Query   string
	Manager bool
}

// Songs, Artists, Albums, Settings, About and LibraryManager build main
// pages; Artist and Album build detail pages.
func Songs() Page { return Page{Kind: KindSongs} }
func Artists() Page { return Page{Kind: KindArtists} }
func Albums() Page { return Page{Kind: KindAlbums} }
func Settings() Page { return Page{Kind: KindSettings} }
func About() Page { return Page{Kind: KindAbout} }
func LibraryManager() Page { return Page{Kind: KindLibraryManager} }
func Artist(id string) Page { return Page{Kind: KindArtist, ID: id} }
func Album(id string) Page { return Page{Kind: KindAlbum, ID: id} }

// Search is a search results page. Manager marks searches started from the
// library manager, which list songs only.
func Search(query string, manager bool) Page {
	return Page{Kind: KindSearch, Query: query, Manager: manager}
}

// Default is where Back lands when history is empty.
func Default() Page { return Songs() }

// Title returns a short label for the page.
func (p Page) Title() string {
	switch p.Kind {
	case KindSongs:
		return "Songs"
	case KindArtists:
		return "Artists"
	case KindAlbums:
		return "Albums"
	case KindSearch:
		return "Search: " + p.Query
	case KindSettings:
		return "Settings"
	case KindAbout:
		return "About"
	case KindLibraryManager:
		return "Library Manager"
	case KindArtist:
		return "Artist"
	case KindAlbum:
		return "Album"
	}
	return string(p.Kind)
}
