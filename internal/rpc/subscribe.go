package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
)

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, url string, header http.Header) (*websocket.Conn, *http.Response, error)
}

func defaultDialer() Dialer { return websocket.DefaultDialer }

// SubscribeCurrentSong opens the player.currentSong stream. The first
// snapshot arrives as soon as the player accepts the connection.
func (c *Client) SubscribeCurrentSong(ctx context.Context) (core.Subscription, error) {
	url := c.subscribeURL(KeySubscribeCurrentSong)
	c.logger.Debug("subscribing", "url", url)

	conn, resp, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", encerrors.ErrUnknownProcedure, KeySubscribeCurrentSong)
		}
		return nil, fmt.Errorf("%w: %v", encerrors.ErrBackendUnavailable, err)
	}

	sub := &subscription{
		conn:      conn,
		snapshots: make(chan core.Snapshot),
		done:      make(chan struct{}),
	}
	go sub.read()
	return sub, nil
}

func (c *Client) subscribeURL(key Key) string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/rpc/subscribe/" + string(key)
}

// subscription reads snapshots off a websocket until it closes.
type subscription struct {
	conn      *websocket.Conn
	snapshots chan core.Snapshot
	done      chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
	once   sync.Once
}

func (s *subscription) Snapshots() <-chan core.Snapshot { return s.snapshots }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the stream. Snapshots is closed once the reader exits.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *subscription) read() {
	defer close(s.snapshots)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.fail(err)
			return
		}

		var reply response
		if err := json.Unmarshal(data, &reply); err != nil {
			s.fail(fmt.Errorf("invalid snapshot frame: %w", err))
			return
		}
		if reply.Error != nil {
			s.fail(reply.Error.err())
			return
		}
		var snap Snapshot
		if err := json.Unmarshal(reply.Result, &snap); err != nil {
			s.fail(fmt.Errorf("invalid snapshot frame: %w", err))
			return
		}

		select {
		case s.snapshots <- convertSnapshot(snap):
		case <-s.done:
			return
		}
	}
}

// fail records err unless the stream was closed locally.
func (s *subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.err = fmt.Errorf("%w: stream closed by player", encerrors.ErrBackendUnavailable)
		return
	}
	s.err = fmt.Errorf("%w: %v", encerrors.ErrBackendUnavailable, err)
}
