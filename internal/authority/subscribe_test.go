package authority

import (
	"context"
	"testing"
	"time"

	"github.com/tessro/encore/internal/core"
)

func receive(t *testing.T, sub core.Subscription) core.Snapshot {
	t.Helper()
	select {
	case s, ok := <-sub.Snapshots():
		if !ok {
			t.Fatal("subscription closed")
		}
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return core.Snapshot{}
}

func TestSubscribeSendsCurrentThenChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.p.SubscribeCurrentSong(ctx)
	if err != nil {
		t.Fatalf("SubscribeCurrentSong() error = %v", err)
	}
	defer func() { _ = sub.Close() }()

	if s := receive(t, sub); s.HasTrack() {
		t.Errorf("first snapshot TrackID = %q, want none", s.TrackID)
	}

	if _, err := f.p.PlaySong(ctx, "s1", core.LibraryScope()); err != nil {
		t.Fatal(err)
	}
	if s := receive(t, sub); s.TrackID != "s1" {
		t.Errorf("TrackID = %q, want s1", s.TrackID)
	}
}

func TestSubscribeKeepsLatest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.p.SubscribeCurrentSong(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sub.Close() }()

	for _, v := range []float64{0.1, 0.2, 0.3} {
		if _, err := f.p.SetVolume(ctx, v); err != nil {
			t.Fatal(err)
		}
	}
	if s := receive(t, sub); s.Volume != 0.3 {
		t.Errorf("Volume = %v, want 0.3", s.Volume)
	}
}

func TestSubscribeSkipsUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.p.SubscribeCurrentSong(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sub.Close() }()
	receive(t, sub)

	if _, err := f.p.SetVolume(ctx, 1); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-sub.Snapshots():
		t.Errorf("unexpected snapshot %+v", s)
	default:
	}
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := f.p.SubscribeCurrentSong(ctx)
	if err != nil {
		t.Fatal(err)
	}
	receive(t, sub)
	if got := f.p.Subscribers(); got != 1 {
		t.Errorf("Subscribers() = %d, want 1", got)
	}

	cancel()
	select {
	case _, ok := <-sub.Snapshots():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	if got := f.p.Subscribers(); got != 0 {
		t.Errorf("Subscribers() = %d, want 0", got)
	}
	if err := sub.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	f := newFixture(t)
	sub, err := f.p.SubscribeCurrentSong(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	receive(t, sub)

	if err := f.p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-sub.Snapshots(); ok {
		t.Error("expected closed channel")
	}
	if _, err := f.p.SubscribeCurrentSong(context.Background()); err == nil {
		t.Error("SubscribeCurrentSong() after Close error = nil, want error")
	}
}
