package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"KryptoMarket/internal/domain/models"
)

func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", d)
}

func TestOfferReplacesStaleValue(t *testing.T) {
	ch := make(chan models.ViewUpdate, 1)
	offer(ch, models.ViewUpdate{Error: "old"})
	offer(ch, models.ViewUpdate{Error: "new"})

	if got := <-ch; got.Error != "new" {
		t.Fatalf("got %q, want the newer update", got.Error)
	}
	select {
	case u := <-ch:
		t.Fatalf("unexpected extra update %+v", u)
	default:
	}
}

func TestViewPublishesFirstRefreshImmediately(t *testing.T) {
	var calls int32
	v := NewView(ViewKey{Pair: "BTCUSDT", Interval: "15m"}, time.Hour, func(ctx context.Context) (*models.Analysis, error) {
		atomic.AddInt32(&calls, 1)
		return &models.Analysis{Pair: "BTCUSDT"}, nil
	}, nil)

	updates, cancel := v.Updates()
	defer cancel()

	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer v.Stop()

	select {
	case u := <-updates:
		if u.Analysis == nil || u.Analysis.Pair != "BTCUSDT" {
			t.Fatalf("unexpected update %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no update")
	}
	if latest, ok := v.Latest(); !ok || latest.Analysis == nil {
		t.Fatalf("latest not recorded")
	}

	// a late subscriber is primed with the latest result
	late, cancelLate := v.Updates()
	defer cancelLate()
	select {
	case <-late:
	default:
		t.Fatalf("late subscriber not primed")
	}
}

func TestViewKeepsLastGoodAnalysisOnError(t *testing.T) {
	var calls int32
	v := NewView(ViewKey{Pair: "BTCUSDT"}, time.Hour, func(ctx context.Context) (*models.Analysis, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return &models.Analysis{Pair: "BTCUSDT"}, nil
		}
		return nil, errors.New("exchange down")
	}, nil)

	v.run(context.Background())
	v.run(context.Background())

	u, ok := v.Latest()
	if !ok || u.Error != "exchange down" || u.Analysis == nil {
		t.Fatalf("unexpected latest %+v", u)
	}
}

func TestViewStopClosesSubscribers(t *testing.T) {
	v := NewView(ViewKey{Pair: "BTCUSDT"}, time.Hour, func(ctx context.Context) (*models.Analysis, error) {
		return &models.Analysis{}, nil
	}, nil)
	updates, cancel := v.Updates()
	_ = v.Start(context.Background())
	v.Stop()
	cancel() // after Stop, must not panic

	for range updates {
	}
}

func newManager(t *testing.T, f *fakeMarket) *ViewManager {
	t.Helper()
	m := NewViewManager(newAnalysis(f, nil), time.Hour, nil, nil)
	t.Cleanup(m.StopAll)
	return m
}

func TestViewManagerSharesAndReleases(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("BTCUSDT", accelerating(50)...)
	m := newManager(t, f)

	k1, err := m.Key("btc", "15", 0)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	k2, _ := m.Key("BTCUSDT", "15m", 100)
	if k1 != k2 {
		t.Fatalf("keys differ: %+v %+v", k1, k2)
	}

	v1, err := m.Acquire(k1)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	v2, _ := m.Acquire(k2)
	if v1 != v2 || m.Active() != 1 {
		t.Fatalf("views not shared, active=%d", m.Active())
	}

	waitFor(t, 2*time.Second, func() bool {
		_, ok := m.Snapshot(k1)
		return ok
	})

	m.Release(v1)
	if m.Active() != 1 {
		t.Fatalf("view stopped while still watched")
	}
	m.Release(v2)
	if m.Active() != 0 {
		t.Fatalf("view not stopped after last release")
	}
	if _, ok := m.Snapshot(k1); ok {
		t.Fatalf("snapshot of a stopped view")
	}

	// extra releases are harmless
	m.Release(v2)
}

func TestViewManagerStopAll(t *testing.T) {
	f := newFakeMarket()
	f.setCandles("BTCUSDT", accelerating(50)...)
	f.setCandles("ETHUSDT", accelerating(50)...)
	m := newManager(t, f)

	k1, _ := m.Key("BTC", "15", 0)
	k2, _ := m.Key("ETH", "15", 0)
	_, _ = m.Acquire(k1)
	_, _ = m.Acquire(k2)
	if m.Active() != 2 {
		t.Fatalf("active = %d", m.Active())
	}

	m.StopAll()
	if m.Active() != 0 {
		t.Fatalf("views left after StopAll")
	}
	if _, err := m.Acquire(k1); err == nil {
		t.Fatalf("acquire after StopAll should fail")
	}
}
