package core

import "context"

// ScopeKind identifies what a PlayerScope draws its queue from.
type ScopeKind int

const (
	ScopeLibrary ScopeKind = iota
	ScopeAlbum
	ScopeArtist
)

// PlayerScope is the context the player builds its automatic queue from
// when a song is started.
type PlayerScope struct {
	Kind ScopeKind
	ID   string
}

// LibraryScope plays through the whole library.
func LibraryScope() PlayerScope { return PlayerScope{Kind: ScopeLibrary} }

// AlbumScope plays through one album.
func AlbumScope(id string) PlayerScope { return PlayerScope{Kind: ScopeAlbum, ID: id} }

// ArtistScope plays through one artist.
func ArtistScope(id string) PlayerScope { return PlayerScope{Kind: ScopeArtist, ID: id} }

// Subscription is a long-lived push channel of authoritative snapshots.
type Subscription interface {
	// Snapshots is closed when the subscription ends.
	Snapshots() <-chan Snapshot
	// Err returns the reason the subscription ended, if any.
	Err() error
	Close() error
}

// Authority is the remote player that owns the real playback clock.
type Authority interface {
	// Queries
	CurrentSong(ctx context.Context) (Snapshot, error)
	Library(ctx context.Context) (*Library, error)
	Search(ctx context.Context, query string, mode SearchMode) (SearchResults, error)

	// Mutations
	PlaySong(ctx context.Context, songID string, scope PlayerScope) (Snapshot, error)
	SetPaused(ctx context.Context, paused bool) error
	Seek(ctx context.Context, positionMs int64) error
	NextSong(ctx context.Context) (Snapshot, error)
	PreviousSong(ctx context.Context) (Snapshot, error)
	SetVolume(ctx context.Context, volume float64) (float64, error)
	ToggleShuffle(ctx context.Context) (bool, error)
	ToggleRepeat(ctx context.Context) (RepeatMode, error)

	// Subscriptions
	SubscribeCurrentSong(ctx context.Context) (Subscription, error)
}
