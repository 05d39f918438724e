package live

import (
	"context"
	"sync"
	"time"
	"trade_dash/internal/models"
	"trade_dash/pkg/logger"
	"trade_dash/pkg/metrics"
)

type QuoteFetcher interface {
	GetPrice(ctx context.Context, account, symbol string) (float64, error)
}

// PriceFeed владеет кешем котировок. Ошибка по одному символу не трогает
// остальные: старая котировка просто остаётся на месте.
type PriceFeed struct {
	fetcher QuoteFetcher
	account string

	mu       sync.Mutex
	quotes   map[string]models.PriceQuote
	inflight map[string]chan struct{}
	closed   bool
}

func NewPriceFeed(fetcher QuoteFetcher, account string) *PriceFeed {
	return &PriceFeed{
		fetcher:  fetcher,
		account:  account,
		quotes:   make(map[string]models.PriceQuote),
		inflight: make(map[string]chan struct{}),
	}
}

func (p *PriceFeed) Quote(symbol string) (models.PriceQuote, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.quotes[symbol]
	return q, ok
}

// Quotes — копия кеша для оценки на рендере.
func (p *PriceFeed) Quotes() map[string]models.PriceQuote {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]models.PriceQuote, len(p.quotes))
	for k, v := range p.quotes {
		out[k] = v
	}
	return out
}

// RefreshPrices тянет котировки по всем символам параллельно и ждёт
// завершения. Наружу ошибки не отдаём — фид живёт до следующего тика.
func (p *PriceFeed) RefreshPrices(ctx context.Context, symbols []string) {
	var wg sync.WaitGroup
	for _, s := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			p.refreshOne(ctx, symbol)
		}(s)
	}
	wg.Wait()
}

// refreshOne: по символу одновременно не больше одного запроса; опоздавшие
// ждут уже летящий и видят его результат.
func (p *PriceFeed) refreshOne(ctx context.Context, symbol string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if done, ok := p.inflight[symbol]; ok {
		p.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	done := make(chan struct{})
	p.inflight[symbol] = done
	p.mu.Unlock()

	px, err := p.fetcher.GetPrice(ctx, p.account, symbol)
	now := time.Now()

	p.mu.Lock()
	delete(p.inflight, symbol)
	if err == nil && !p.closed {
		// последний завершившийся фетч побеждает
		p.quotes[symbol] = models.PriceQuote{Symbol: symbol, Price: px, ObservedAt: now}
	}
	p.mu.Unlock()
	close(done)

	if err != nil {
		metrics.PriceFetchErrors.Inc()
		logger.Warn("price fetch %s: %v", symbol, err)
		return
	}
	metrics.PriceFetches.Inc()
}

// Close делает опоздавшие ответы no-op.
func (p *PriceFeed) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
