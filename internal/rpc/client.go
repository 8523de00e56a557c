package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
)

const (
	// Retry configuration for queries. Mutations are sent once.
	maxRetries    = 3
	baseRetryWait = 200 * time.Millisecond
)

var _ core.Authority = (*Client)(nil)

// Client talks to a player over HTTP. It implements core.Authority.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     Dialer
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithClientLogger sets the logger for request tracing.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithDialer replaces the websocket dialer used for subscriptions.
func WithDialer(d Dialer) ClientOption {
	return func(c *Client) { c.dialer = d }
}

// NewClient creates a client for the player at addr. A bare host:port gets
// an http:// prefix.
func NewClient(addr string, opts ...ClientOption) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	c := &Client{
		baseURL:    strings.TrimRight(addr, "/"),
		httpClient: &http.Client{},
		dialer:     defaultDialer(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req and decodes the reply into result, which may be nil.
func (c *Client) Do(ctx context.Context, req Request, result any) error {
	input, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal %s input: %w", req.Key(), err)
	}
	body, err := json.Marshal(envelope{Key: req.Key(), Input: input})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/rpc/" + req.Kind().String()
	attempts := 1
	if req.Kind() == KindQuery {
		attempts += maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := baseRetryWait * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying", "key", req.Key(), "attempt", attempt, "wait", wait, "err", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		retry, err := c.send(ctx, url, req.Key(), body, result)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%s failed after %d retries: %w", req.Key(), maxRetries, lastErr)
}

// send performs one round trip. retry reports whether the failure was
// transient.
func (c *Client) send(ctx context.Context, url string, key Key, body []byte, result any) (retry bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("rpc call", "key", key)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("%w: %v", encerrors.ErrBackendUnavailable, err)
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return true, fmt.Errorf("%w: failed to read response: %v", encerrors.ErrBackendUnavailable, err)
	}

	var reply response
	if err := json.Unmarshal(respBody, &reply); err != nil {
		if resp.StatusCode >= 500 {
			return true, fmt.Errorf("%w: status %d", encerrors.ErrBackendUnavailable, resp.StatusCode)
		}
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	if reply.Error != nil {
		return resp.StatusCode >= 500, reply.Error.err()
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode >= 500, fmt.Errorf("%s: status %d", key, resp.StatusCode)
	}

	if result != nil && len(reply.Result) > 0 {
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return false, fmt.Errorf("failed to parse %s result: %w", key, err)
		}
	}
	return false, nil
}

// err maps a wire error back onto the sentinel it was built from.
func (e *wireError) err() error {
	var sentinel error
	switch e.Code {
	case CodeRejected:
		sentinel = encerrors.ErrRejected
	case CodeNotFound:
		sentinel = encerrors.ErrTrackNotFound
	case CodeNothingPlaying:
		sentinel = encerrors.ErrNothingPlaying
	case CodeUnknownProcedure:
		sentinel = encerrors.ErrUnknownProcedure
	case CodeInternal:
		sentinel = encerrors.ErrBackendUnavailable
	default:
		return errors.New(e.Message)
	}
	msg := strings.TrimPrefix(e.Message, sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// CurrentSong reads the player's snapshot.
func (c *Client) CurrentSong(ctx context.Context) (core.Snapshot, error) {
	var s Snapshot
	if err := c.Do(ctx, CurrentSongRequest{}, &s); err != nil {
		return core.Snapshot{}, err
	}
	return convertSnapshot(s), nil
}

// Library reads the catalog.
func (c *Client) Library(ctx context.Context) (*core.Library, error) {
	var l Library
	if err := c.Do(ctx, LibraryRequest{}, &l); err != nil {
		return nil, err
	}
	return convertLibrary(l), nil
}

// Search searches the catalog.
func (c *Client) Search(ctx context.Context, query string, mode core.SearchMode) (core.SearchResults, error) {
	var r SearchResults
	if err := c.Do(ctx, SearchRequest{Query: query, Mode: SearchMode(mode)}, &r); err != nil {
		return core.SearchResults{}, err
	}
	return core.SearchResults{Artists: r.Artists, Albums: r.Albums, Songs: r.Songs}, nil
}

// PlaySong starts songID with an automatic queue built from scope.
func (c *Client) PlaySong(ctx context.Context, songID string, scope core.PlayerScope) (core.Snapshot, error) {
	var s Snapshot
	if err := c.Do(ctx, PlaySongRequest{SongID: songID, Scope: Scope(scope)}, &s); err != nil {
		return core.Snapshot{}, err
	}
	return convertSnapshot(s), nil
}

// SetPaused pauses or resumes playback.
func (c *Client) SetPaused(ctx context.Context, paused bool) error {
	return c.Do(ctx, SetPausedRequest{Paused: paused}, nil)
}

// Seek moves the current song to positionMs.
func (c *Client) Seek(ctx context.Context, positionMs int64) error {
	return c.Do(ctx, SeekRequest{PositionMs: positionMs}, nil)
}

// NextSong skips forward.
func (c *Client) NextSong(ctx context.Context) (core.Snapshot, error) {
	var s Snapshot
	if err := c.Do(ctx, NextSongRequest{}, &s); err != nil {
		return core.Snapshot{}, err
	}
	return convertSnapshot(s), nil
}

// PreviousSong skips back.
func (c *Client) PreviousSong(ctx context.Context) (core.Snapshot, error) {
	var s Snapshot
	if err := c.Do(ctx, PreviousSongRequest{}, &s); err != nil {
		return core.Snapshot{}, err
	}
	return convertSnapshot(s), nil
}

// SetVolume sets the volume and returns the value the player applied.
func (c *Client) SetVolume(ctx context.Context, volume float64) (float64, error) {
	var v float64
	if err := c.Do(ctx, SetVolumeRequest{Volume: volume}, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// ToggleShuffle flips shuffle and returns the new flag.
func (c *Client) ToggleShuffle(ctx context.Context) (bool, error) {
	var on bool
	if err := c.Do(ctx, ToggleShuffleRequest{}, &on); err != nil {
		return false, err
	}
	return on, nil
}

// ToggleRepeat cycles the repeat mode and returns the new one.
func (c *Client) ToggleRepeat(ctx context.Context) (core.RepeatMode, error) {
	var mode core.RepeatMode
	if err := c.Do(ctx, ToggleRepeatRequest{}, &mode); err != nil {
		return core.RepeatNone, err
	}
	return mode, nil
}
