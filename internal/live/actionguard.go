package live

import (
	"context"
	"errors"
	"sync"
	"trade_dash/internal/models"
	"trade_dash/internal/notify"
	"trade_dash/pkg/metrics"
)

type ActionPoster interface {
	JobAction(ctx context.Context, id string, action models.Action, req models.ActionRequest) (models.ActionResult, error)
}

// ErrActionPending — по этой сущности уже летит действие; дубль молча
// отбрасывается, в сеть не ходим.
var ErrActionPending = errors.New("action already in flight for this entity")

// ActionGuard — замок на сущность на время мутирующего действия.
// Локальное состояние не трогаем: после успеха принудительный Refresh
// покажет авторитетный ответ бэкенда.
type ActionGuard struct {
	backend ActionPoster
	channel *StatusChannel
	n       notify.Notifier

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewActionGuard(backend ActionPoster, channel *StatusChannel, n notify.Notifier) *ActionGuard {
	return &ActionGuard{
		backend: backend,
		channel: channel,
		n:       n,
		pending: make(map[string]struct{}),
	}
}

// Pending — для дизейбла кнопок, пока ответа нет.
func (g *ActionGuard) Pending(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[id]
	return ok
}

func (g *ActionGuard) Dispatch(
	ctx context.Context,
	id string,
	action models.Action,
	req models.ActionRequest,
) (models.ActionResult, error) {
	g.mu.Lock()
	if _, ok := g.pending[id]; ok {
		g.mu.Unlock()
		metrics.Actions.WithLabelValues(string(action), "duplicate").Inc()
		return models.ActionResult{}, ErrActionPending
	}
	g.pending[id] = struct{}{}
	g.mu.Unlock()

	// замок снимается на любом пути выхода
	defer func() {
		g.mu.Lock()
		delete(g.pending, id)
		g.mu.Unlock()
	}()

	res, err := g.backend.JobAction(ctx, id, action, req)
	if err != nil {
		metrics.Actions.WithLabelValues(string(action), "error").Inc()
		g.n.Notifyf(notify.KindError, "%s %s failed: %s", action, id, reason(err))
		return models.ActionResult{}, err
	}

	metrics.Actions.WithLabelValues(string(action), "ok").Inc()
	msg := res.Message
	if msg == "" {
		msg = string(action) + " accepted"
	}
	g.n.Notify(notify.KindSuccess, msg)

	if action == models.ActionDelete {
		g.channel.Remove(id)
	}
	g.channel.Refresh(ctx)

	return res, nil
}

// reason достаёт человекочитаемую причину отказа, если бэкенд её дал.
func reason(err error) string {
	var apiErr interface{ APIDetail() string }
	if errors.As(err, &apiErr) && apiErr.APIDetail() != "" {
		return apiErr.APIDetail()
	}
	return "request failed, try again"
}
