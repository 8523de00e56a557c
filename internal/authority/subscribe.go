package authority

import (
	"context"

	"github.com/google/uuid"

	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
)

// SubscribeCurrentSong returns a stream that starts with the current
// snapshot and then carries every change. A slow reader only sees the
// latest snapshot. The stream ends when ctx is done or Close is called.
func (p *Player) SubscribeCurrentSong(ctx context.Context) (core.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, encerrors.ErrBackendUnavailable
	}

	sub := &subscriber{
		id:     uuid.New(),
		player: p,
		ch:     make(chan core.Snapshot, 1),
		stop:   make(chan struct{}),
	}
	sub.ch <- p.snap
	p.subs[sub.id] = sub
	p.logger.Debug("subscriber added", "id", sub.id, "subscribers", len(p.subs))

	if done := ctx.Done(); done != nil {
		go func() {
			select {
			case <-done:
				_ = sub.Close()
			case <-sub.stop:
			}
		}()
	}
	return sub, nil
}

// Subscribers returns the number of open subscriptions.
func (p *Player) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

type subscriber struct {
	id     uuid.UUID
	player *Player
	ch     chan core.Snapshot

	stop chan struct{}
	err  error
}

func (s *subscriber) Snapshots() <-chan core.Snapshot { return s.ch }

func (s *subscriber) Err() error {
	s.player.mu.Lock()
	defer s.player.mu.Unlock()
	return s.err
}

// Close removes the subscriber and closes its channel.
func (s *subscriber) Close() error {
	p := s.player
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.subs[s.id]; ok {
		delete(p.subs, s.id)
		p.logger.Debug("subscriber removed", "id", s.id, "subscribers", len(p.subs))
	}
	s.end(nil)
	return nil
}

// offer replaces any unread snapshot with snap. Caller holds player.mu.
func (s *subscriber) offer(snap core.Snapshot) {
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

// end closes the channel once. Caller holds player.mu.
func (s *subscriber) end(err error) {
	select {
	case <-s.stop:
		return
	default:
	}
	s.err = err
	close(s.stop)
	close(s.ch)
}
