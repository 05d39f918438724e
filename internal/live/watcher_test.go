package live

import (
	"context"
	"sync"
	"testing"
	"time"
	"trade_dash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePositions struct {
	mu        sync.Mutex
	positions []models.Position
	listErr   error
	closeErr  error
	closes    int
	block     chan struct{}
	entered   chan struct{}
}

func (f *fakePositions) ListPositions(ctx context.Context, account string) ([]models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Position, len(f.positions))
	copy(out, f.positions)
	return out, nil
}

func (f *fakePositions) ClosePosition(ctx context.Context, id string) error {
	f.mu.Lock()
	f.closes++
	block := f.block
	entered := f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeErr
}

func openPosition(id, symbol string) models.Position {
	return models.Position{ID: id, Symbol: symbol, Side: models.SideLong, Qty: 1, Entry: 100, Status: "OPEN"}
}

func newTestWatcher(backend *fakePositions, fetcher *fakeFetcher) *Watcher {
	feed := NewPriceFeed(fetcher, "acc")
	return NewWatcher(backend, feed, newRecordingNotifier(), WatcherConfig{
		Account:        "acc",
		PriceEvery:     5 * time.Second,
		PositionsEvery: 30 * time.Second,
	})
}

func TestWatcherPricePollFollowsPositionSet(t *testing.T) {
	backend := &fakePositions{positions: []models.Position{
		openPosition("p1", "BTC-USDT"),
		{ID: "p2", Symbol: "ETH-USDT", Side: models.SideShort, Qty: 2, Entry: 100, Status: "CLOSED"},
	}}
	f := newFakeFetcher()
	f.prices["BTC-USDT"] = 42000
	w := newTestWatcher(backend, f)
	defer w.Stop()

	w.Start(context.Background())

	assert.Equal(t, []string{"BTC-USDT"}, w.Symbols(), "закрытые позиции не опрашиваем")
	assert.True(t, w.pricePoll.Running())

	// позиции закрылись — интервал гасится
	backend.mu.Lock()
	backend.positions = nil
	backend.mu.Unlock()
	require.NoError(t, w.RefreshPositions(context.Background()))
	assert.False(t, w.pricePoll.Running())
}

func TestWatcherImmediateQuoteOnStart(t *testing.T) {
	backend := &fakePositions{positions: []models.Position{openPosition("p1", "BTC-USDT")}}
	f := newFakeFetcher()
	f.prices["BTC-USDT"] = 42000
	w := newTestWatcher(backend, f)
	defer w.Stop()

	w.Start(context.Background())

	// первые котировки приходят сразу, а не через 5 секунд
	q, ok := w.feed.Quote("BTC-USDT")
	require.True(t, ok)
	assert.Equal(t, 42000.0, q.Price)
}

func TestWatcherValuations(t *testing.T) {
	backend := &fakePositions{positions: []models.Position{openPosition("p1", "BTC-USDT")}}
	f := newFakeFetcher()
	f.prices["BTC-USDT"] = 110
	w := newTestWatcher(backend, f)
	defer w.Stop()

	w.Start(context.Background())

	vals := w.Valuations()
	require.Contains(t, vals, "p1")
	assert.InDelta(t, 10.0, vals["p1"].Pnl, 1e-9)
}

func TestClosePositionDuplicateDropped(t *testing.T) {
	backend := &fakePositions{
		positions: []models.Position{openPosition("p1", "BTC-USDT")},
		block:     make(chan struct{}),
		entered:   make(chan struct{}, 1),
	}
	w := newTestWatcher(backend, newFakeFetcher())
	defer w.Stop()
	w.Start(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.ClosePosition(context.Background(), "p1") }()

	<-backend.entered
	err := w.ClosePosition(context.Background(), "p1")
	require.ErrorIs(t, err, ErrActionPending)

	close(backend.block)
	require.NoError(t, <-done)

	backend.mu.Lock()
	closes := backend.closes
	backend.mu.Unlock()
	assert.Equal(t, 1, closes)
}
