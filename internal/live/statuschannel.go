package live

import (
	"context"
	"sync"
	"time"
	"trade_dash/internal/models"
	"trade_dash/pkg/logger"
	"trade_dash/pkg/metrics"
	"trade_dash/pkg/sched"
)

type JobLister interface {
	ListJobs(ctx context.Context) ([]models.TrackedEntity, error)
}

// PushConn — живое push-соединение. Messages закрывается, когда соединение
// умерло окончательно (внутренние реконнекты — дело реализации).
type PushConn interface {
	Messages() <-chan models.TrackedEntity
	Close() error
}

// PushSource — фабрика соединений; в тестах подменяется дублёром.
type PushSource interface {
	Connect(ctx context.Context) (PushConn, error)
}

// Recorder — журнал переходов статусов, best-effort.
type Recorder interface {
	Record(ctx context.Context, entityID string, from, to models.EntityStatus, source string)
}

// Probe — отметки для health-эндпоинта.
type Probe interface {
	SetPushConnected(v bool)
	MarkMerge()
}

type StatusChannelConfig struct {
	PollEvery time.Duration
	// 0 — режим выбирается один раз; >0 — из поллинга периодически
	// пробуем вернуться на push.
	RetryPush time.Duration
}

// StatusChannel держит единственную упорядоченную коллекцию job/bot:
// push как основной канал, поллинг как запасной. Порядок — новые впереди.
type StatusChannel struct {
	backend JobLister
	push    PushSource
	journal Recorder // может быть nil
	probe   Probe    // может быть nil
	cfg     StatusChannelConfig

	mu       sync.Mutex
	entities []models.TrackedEntity
	index    map[string]int
	subs     map[int]func(models.TrackedEntity)
	nextSub  int
	closed   bool

	poll  *sched.Job
	retry *sched.Job

	connMu sync.Mutex
	conn   PushConn

	runCtx context.Context
	cancel context.CancelFunc
}

func NewStatusChannel(backend JobLister, push PushSource, cfg StatusChannelConfig) *StatusChannel {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 5 * time.Second
	}
	c := &StatusChannel{
		backend: backend,
		push:    push,
		cfg:     cfg,
		index:   make(map[string]int),
		subs:    make(map[int]func(models.TrackedEntity)),
	}
	c.poll = sched.New("status-poll", cfg.PollEvery, c.pollTick)
	if cfg.RetryPush > 0 {
		c.retry = sched.New("push-retry", cfg.RetryPush, c.retryPush)
	}
	return c
}

func (c *StatusChannel) WithJournal(j Recorder) *StatusChannel { c.journal = j; return c }
func (c *StatusChannel) WithProbe(p Probe) *StatusChannel      { c.probe = p; return c }

// Start выбирает канал доставки: сначала пробуем push, не вышло — поллинг.
func (c *StatusChannel) Start(ctx context.Context) {
	c.runCtx, c.cancel = context.WithCancel(ctx)

	conn, err := c.push.Connect(c.runCtx)
	if err != nil {
		logger.Warn("push connect failed, falling back to polling: %v", err)
		c.fallbackToPoll()
		return
	}
	c.attach(conn)
}

func (c *StatusChannel) attach(conn PushConn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if c.probe != nil {
		c.probe.SetPushConnected(true)
	}
	metrics.PushConnected.Set(1)

	go func() {
		for e := range conn.Messages() {
			c.Apply(e, "push")
		}
		if c.probe != nil {
			c.probe.SetPushConnected(false)
		}
		metrics.PushConnected.Set(0)

		c.mu.Lock()
		dead := c.closed || c.runCtx.Err() != nil
		c.mu.Unlock()
		if dead {
			return
		}
		logger.Warn("push channel closed, falling back to polling")
		c.fallbackToPoll()
	}()
}

func (c *StatusChannel) fallbackToPoll() {
	c.pollOnce(c.runCtx)
	c.poll.Start()
	if c.retry != nil {
		c.retry.Start()
	}
}

func (c *StatusChannel) retryPush() {
	ctx, cancel := context.WithTimeout(c.runCtx, 5*time.Second)
	defer cancel()

	conn, err := c.push.Connect(ctx)
	if err != nil {
		return
	}
	c.poll.Stop()
	if c.retry != nil {
		c.retry.Stop()
	}
	logger.Info("push channel reconnected, polling stopped")
	c.attach(conn)
}

func (c *StatusChannel) pollTick() {
	ctx, cancel := context.WithTimeout(c.runCtx, c.cfg.PollEvery)
	defer cancel()
	c.pollOnce(ctx)
}

// pollOnce: полный список + диф. Ошибки не всплывают в UI — предыдущая
// коллекция остаётся как была.
func (c *StatusChannel) pollOnce(ctx context.Context) {
	metrics.PollTicks.Inc()

	jobs, err := c.backend.ListJobs(ctx)
	if err != nil {
		logger.Warn("status poll: %v", err)
		return
	}

	for _, e := range jobs {
		c.mu.Lock()
		idx, known := c.index[e.ID]
		same := known && c.entities[idx] == e
		c.mu.Unlock()
		if same {
			continue
		}
		c.Apply(e, "poll")
	}
}

// Apply — единые merge-семантики для обоих источников: известный id
// заменяется на месте, новый встаёт в начало. Идемпотентно.
func (c *StatusChannel) Apply(e models.TrackedEntity, source string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	var prev models.EntityStatus
	if idx, ok := c.index[e.ID]; ok {
		prev = c.entities[idx].Status
		c.entities[idx] = e
	} else {
		c.entities = append([]models.TrackedEntity{e}, c.entities...)
		for id, i := range c.index {
			c.index[id] = i + 1
		}
		c.index[e.ID] = 0
	}

	fns := make([]func(models.TrackedEntity), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	metrics.StatusMerges.WithLabelValues(source).Inc()
	if c.probe != nil {
		c.probe.MarkMerge()
	}
	if c.journal != nil && prev != e.Status {
		c.journal.Record(context.Background(), e.ID, prev, e.Status, source)
	}

	for _, fn := range fns {
		fn(e)
	}
}

// Subscribe возвращает функцию отписки.
func (c *StatusChannel) Subscribe(onUpdate func(models.TrackedEntity)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = onUpdate
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *StatusChannel) Snapshot() []models.TrackedEntity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.TrackedEntity, len(c.entities))
	copy(out, c.entities)
	return out
}

func (c *StatusChannel) Get(id string) (models.TrackedEntity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[id]
	if !ok {
		return models.TrackedEntity{}, false
	}
	return c.entities[idx], true
}

// Refresh — внеочередной опрос, например после создания новой сущности.
func (c *StatusChannel) Refresh(ctx context.Context) {
	c.pollOnce(ctx)
}

// Remove — локальное удаление; только после подтверждённого бэкендом delete.
func (c *StatusChannel) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[id]
	if !ok {
		return
	}
	c.entities = append(c.entities[:idx], c.entities[idx+1:]...)
	delete(c.index, id)
	for eid, i := range c.index {
		if i > idx {
			c.index[eid] = i - 1
		}
	}
}

// Close гасит push и поллер; осиротевших таймеров не остаётся.
func (c *StatusChannel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.poll.Stop()
	if c.retry != nil {
		c.retry.Stop()
	}

	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
}
