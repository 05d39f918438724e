package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"trade_dash/internal/live"
	"trade_dash/internal/models"
	"trade_dash/internal/modules/config"
	"trade_dash/internal/tokenstore"
	"trade_dash/pkg/logger"

	"github.com/gorilla/websocket"
)

// сколько реконнектов подряд терпим, прежде чем отдать канал поллингу
const maxRedials = 5

// Client — push-канал статусов job/bot поверх WebSocket.
type Client struct {
	dialer *websocket.Dialer
	url    string
	tokens tokenstore.Store

	// в тестах ужимаются до миллисекунд
	pingEvery  time.Duration
	redialWait time.Duration
	maxRedials int
}

func NewClient(cfg *config.Config, tokens tokenstore.Store) *Client {
	return &Client{
		dialer:     &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		url:        cfg.Backend.WSURL,
		tokens:     tokens,
		pingEvery:  20 * time.Second,
		redialWait: time.Second,
		maxRedials: maxRedials,
	}
}

// Connect делает один синхронный dial: не вышло — StatusChannel уходит в
// поллинг. Дальше соединение чинит себя само.
func (c *Client) Connect(ctx context.Context) (live.PushConn, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	pctx, cancel := context.WithCancel(ctx)
	pc := &pushConn{
		out:    make(chan models.TrackedEntity, 64),
		cancel: cancel,
	}
	go c.run(pctx, conn, pc.out)
	return pc, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := c.dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, err
	}

	sub := map[string]any{
		"op":    "subscribe",
		"topic": "jobs.status",
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Client) run(ctx context.Context, conn *websocket.Conn, out chan<- models.TrackedEntity) {
	defer close(out)

	redials := 0
	for {
		stopPing := make(chan struct{})
		go c.keepalive(ctx, conn, stopPing)

		err := c.readLoop(ctx, conn, out)
		close(stopPing)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}
		logger.Warn("push read loop ended: %v", err)

		// реконнект с той же подпиской
		for {
			time.Sleep(c.redialWait)
			if ctx.Err() != nil {
				return
			}
			conn, err = c.dial(ctx)
			if err == nil {
				redials = 0
				break
			}
			redials++
			logger.Warn("push redial %d/%d: %v", redials, c.maxRedials, err)
			if redials >= c.maxRedials {
				return
			}
		}
	}
}

// keepalive шлёт ping — иначе прокси рвут тихое соединение. Соединение
// берёт параметром: внешний цикл переприсваивает свою переменную при
// редайале, делить её с горутиной нельзя.
func (c *Client) keepalive(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	t := time.NewTicker(c.pingEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-t.C:
			_ = conn.WriteJSON(map[string]string{"op": "ping"})
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- models.TrackedEntity) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg struct {
			Op    string               `json:"op"`
			Topic string               `json:"topic"`
			Data  models.TrackedEntity `json:"data"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("push decode: %v", err)
			continue
		}
		if msg.Op == "pong" || msg.Data.ID == "" {
			continue
		}

		select {
		case out <- msg.Data:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type pushConn struct {
	out    chan models.TrackedEntity
	cancel context.CancelFunc
}

func (p *pushConn) Messages() <-chan models.TrackedEntity { return p.out }

func (p *pushConn) Close() error {
	p.cancel()
	return nil
}
