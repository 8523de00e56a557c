// Package rpc carries the player's query, mutation and subscription
// procedures over HTTP and websockets.
package rpc

import (
	"encoding/json"
	"fmt"

	encerrors "github.com/tessro/encore/internal/errors"
)

// Key names a procedure.
type Key string

// Queries.
const (
	KeyCurrentSong Key = "player.getCurrentSongData"
	KeyLibrary     Key = "library.get"
	KeySearch      Key = "library.search"
)

// Mutations.
const (
	KeyPlaySong      Key = "player.playSong"
	KeySetPaused     Key = "player.setPause"
	KeySeek          Key = "player.seek"
	KeyNextSong      Key = "player.nextSong"
	KeyPreviousSong  Key = "player.previousSong"
	KeySetVolume     Key = "player.setVolume"
	KeyToggleShuffle Key = "player.toggleShuffle"
	KeyToggleRepeat  Key = "player.toggleRepeatMode"
)

// Subscriptions.
const (
	KeySubscribeCurrentSong Key = "player.currentSong"
)

// Kind separates reads from state changes.
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

func (k Kind) String() string {
	if k == KindMutation {
		return "mutation"
	}
	return "query"
}

// Request is a procedure call. The set of implementations is closed: every
// request type lives in this file and is listed in decodeRequest.
type Request interface {
	Key() Key
	Kind() Kind
	isRequest()
}

type query struct{}

func (query) Kind() Kind { return KindQuery }
func (query) isRequest() {}

type mutation struct{}

func (mutation) Kind() Kind { return KindMutation }
func (mutation) isRequest() {}

// CurrentSongRequest reads the current snapshot. Answered with Snapshot.
type CurrentSongRequest struct{ query }

func (CurrentSongRequest) Key() Key { return KeyCurrentSong }

// LibraryRequest reads the catalog. Answered with Library.
type LibraryRequest struct{ query }

func (LibraryRequest) Key() Key { return KeyLibrary }

// SearchRequest searches the catalog. Answered with SearchResults.
type SearchRequest struct {
	query
	Query string     `json:"query"`
	Mode  SearchMode `json:"mode"`
}

func (SearchRequest) Key() Key { return KeySearch }

// PlaySongRequest starts a song. Answered with Snapshot.
type PlaySongRequest struct {
	mutation
	SongID string `json:"song_id"`
	Scope  Scope  `json:"scope"`
}

func (PlaySongRequest) Key() Key { return KeyPlaySong }

// SetPausedRequest pauses or resumes. Answered with null.
type SetPausedRequest struct {
	mutation
	Paused bool `json:"paused"`
}

func (SetPausedRequest) Key() Key { return KeySetPaused }

// SeekRequest moves the current song. Answered with null.
type SeekRequest struct {
	mutation
	PositionMs int64 `json:"position_ms"`
}

func (SeekRequest) Key() Key { return KeySeek }

// NextSongRequest skips forward. Answered with Snapshot.
type NextSongRequest struct{ mutation }

func (NextSongRequest) Key() Key { return KeyNextSong }

// PreviousSongRequest skips back. Answered with Snapshot.
type PreviousSongRequest struct{ mutation }

func (PreviousSongRequest) Key() Key { return KeyPreviousSong }

// SetVolumeRequest sets the volume. Answered with the applied volume.
type SetVolumeRequest struct {
	mutation
	Volume float64 `json:"volume"`
}

func (SetVolumeRequest) Key() Key { return KeySetVolume }

// ToggleShuffleRequest flips shuffle. Answered with the new flag.
type ToggleShuffleRequest struct{ mutation }

func (ToggleShuffleRequest) Key() Key { return KeyToggleShuffle }

// ToggleRepeatRequest cycles repeat. Answered with the new mode.
type ToggleRepeatRequest struct{ mutation }

func (ToggleRepeatRequest) Key() Key { return KeyToggleRepeat }

// envelope is the body of a query or mutation call.
type envelope struct {
	Key   Key             `json:"key"`
	Input json.RawMessage `json:"input,omitempty"`
}

// response is the body of a reply.
type response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

// Error codes carried in wireError.
const (
	CodeRejected         = "rejected"
	CodeNotFound         = "not_found"
	CodeNothingPlaying   = "nothing_playing"
	CodeUnknownProcedure = "unknown_procedure"
	CodeBadRequest       = "bad_request"
	CodeInternal         = "internal"
)

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decodeRequest builds the request named by key. Adding a procedure means
// adding a case here and one in the server's dispatch switch.
func decodeRequest(kind Kind, key Key, input json.RawMessage) (Request, error) {
	var req Request
	switch key {
	case KeyCurrentSong:
		req = &CurrentSongRequest{}
	case KeyLibrary:
		req = &LibraryRequest{}
	case KeySearch:
		req = &SearchRequest{}
	case KeyPlaySong:
		req = &PlaySongRequest{}
	case KeySetPaused:
		req = &SetPausedRequest{}
	case KeySeek:
		req = &SeekRequest{}
	case KeyNextSong:
		req = &NextSongRequest{}
	case KeyPreviousSong:
		req = &PreviousSongRequest{}
	case KeySetVolume:
		req = &SetVolumeRequest{}
	case KeyToggleShuffle:
		req = &ToggleShuffleRequest{}
	case KeyToggleRepeat:
		req = &ToggleRepeatRequest{}
	default:
		return nil, fmt.Errorf("%w: %s", encerrors.ErrUnknownProcedure, key)
	}

	if req.Kind() != kind {
		return nil, fmt.Errorf("%w: %s is a %s", encerrors.ErrUnknownProcedure, key, req.Kind())
	}
	if len(input) > 0 && string(input) != "null" {
		if err := json.Unmarshal(input, req); err != nil {
			return nil, fmt.Errorf("invalid input for %s: %w", key, err)
		}
	}
	return req, nil
}
