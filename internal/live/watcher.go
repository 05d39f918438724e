package live

import (
	"context"
	"sync"
	"time"
	"trade_dash/internal/models"
	"trade_dash/internal/notify"
	"trade_dash/pkg/logger"
	"trade_dash/pkg/sched"
)

type PositionLister interface {
	ListPositions(ctx context.Context, account string) ([]models.Position, error)
}

type PositionCloser interface {
	ClosePosition(ctx context.Context, id string) error
}

type PositionBackend interface {
	PositionLister
	PositionCloser
}

type WatcherConfig struct {
	Account        string
	PriceEvery     time.Duration // опрос цен, пока есть открытые позиции
	PositionsEvery time.Duration // обновление самого списка
}

// Watcher держит кеш открытых позиций и управляет ценовым поллером:
// тот крутится только пока множество символов непустое.
type Watcher struct {
	backend PositionBackend
	feed    *PriceFeed
	n       notify.Notifier
	cfg     WatcherConfig

	mu        sync.Mutex
	positions []models.Position
	closing   map[string]struct{}
	closed    bool

	pricePoll *sched.Job
	listPoll  *sched.Job

	runCtx context.Context
	cancel context.CancelFunc
}

func NewWatcher(backend PositionBackend, feed *PriceFeed, n notify.Notifier, cfg WatcherConfig) *Watcher {
	if cfg.PriceEvery <= 0 {
		cfg.PriceEvery = 5 * time.Second
	}
	if cfg.PositionsEvery <= 0 {
		cfg.PositionsEvery = 30 * time.Second
	}
	w := &Watcher{
		backend: backend,
		feed:    feed,
		n:       n,
		cfg:     cfg,
		closing: make(map[string]struct{}),
	}
	w.pricePoll = sched.New("price-poll", cfg.PriceEvery, w.priceTick)
	w.listPoll = sched.New("positions-poll", cfg.PositionsEvery, w.listTick)
	return w
}

func (w *Watcher) Start(ctx context.Context) {
	w.runCtx, w.cancel = context.WithCancel(ctx)

	// сразу при старте, дальше по расписанию
	if err := w.RefreshPositions(w.runCtx); err != nil {
		logger.Warn("initial positions refresh: %v", err)
	}
	w.listPoll.Start()
}

// RefreshPositions перечитывает открытые позиции и по результату
// включает либо гасит ценовой поллер.
func (w *Watcher) RefreshPositions(ctx context.Context) error {
	positions, err := w.backend.ListPositions(ctx, w.cfg.Account)
	if err != nil {
		return err
	}

	next := make([]models.Position, 0, len(positions))
	for _, p := range positions {
		if !p.Open() || p.Qty <= 0 {
			continue
		}
		next = append(next, p)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.positions = next
	w.mu.Unlock()

	if len(next) == 0 {
		w.pricePoll.Stop()
		return nil
	}
	if !w.pricePoll.Running() {
		w.pricePoll.Start()
		w.priceTick() // первые котировки не ждут интервала
	}
	return nil
}

func (w *Watcher) priceTick() {
	parent := w.runCtx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, w.cfg.PriceEvery*2)
	defer cancel()
	w.feed.RefreshPrices(ctx, w.Symbols())
}

func (w *Watcher) listTick() {
	ctx, cancel := context.WithTimeout(w.runCtx, w.cfg.PositionsEvery)
	defer cancel()
	if err := w.RefreshPositions(ctx); err != nil {
		logger.Warn("positions refresh: %v", err)
	}
}

func (w *Watcher) Positions() []models.Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Position, len(w.positions))
	copy(out, w.positions)
	return out
}

// Symbols — множество символов открытых позиций, без дублей.
func (w *Watcher) Symbols() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	seen := make(map[string]struct{}, len(w.positions))
	out := make([]string, 0, len(w.positions))
	for _, p := range w.positions {
		if _, ok := seen[p.Symbol]; ok {
			continue
		}
		seen[p.Symbol] = struct{}{}
		out = append(out, p.Symbol)
	}
	return out
}

// Valuations — производные оценки на текущем кеше котировок.
func (w *Watcher) Valuations() map[string]models.Valuation {
	quotes := w.feed.Quotes()
	out := make(map[string]models.Valuation)
	for _, p := range w.Positions() {
		out[p.ID] = Valuate(p, quotes)
	}
	return out
}

// ClosePosition — закрытие по рынку с тем же замком от дублей, что и у
// действий над job. После успеха — принудительное обновление цен и списка.
func (w *Watcher) ClosePosition(ctx context.Context, id string) error {
	w.mu.Lock()
	if _, ok := w.closing[id]; ok {
		w.mu.Unlock()
		return ErrActionPending
	}
	w.closing[id] = struct{}{}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.closing, id)
		w.mu.Unlock()
	}()

	if err := w.backend.ClosePosition(ctx, id); err != nil {
		w.n.Notifyf(notify.KindError, "close position %s failed: %s", id, reason(err))
		return err
	}

	w.n.Notifyf(notify.KindSuccess, "position %s closed", id)
	if err := w.RefreshPositions(ctx); err != nil {
		logger.Warn("positions refresh after close: %v", err)
	}
	w.feed.RefreshPrices(ctx, w.Symbols())
	return nil
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	w.pricePoll.Stop()
	w.listPoll.Stop()
	w.feed.Close()
}
