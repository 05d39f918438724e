package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"trade_dash/internal/models"
	"trade_dash/internal/tokenstore"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return &Client{
		dialer:     &websocket.Dialer{HandshakeTimeout: time.Second},
		url:        url,
		tokens:     tokenstore.Static("tok"),
		pingEvery:  50 * time.Millisecond,
		redialWait: 20 * time.Millisecond,
		maxRedials: 3,
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// первый кадр от клиента всегда подписка
func readSubscribe(conn *websocket.Conn) (map[string]any, error) {
	var sub map[string]any
	err := conn.ReadJSON(&sub)
	return sub, err
}

// держим соединение открытым, заодно съедая keepalive-пинги
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func statusFrame(id string, status models.EntityStatus) map[string]any {
	return map[string]any{
		"op":    "update",
		"topic": "jobs.status",
		"data":  models.TrackedEntity{ID: id, Kind: "job", Status: status},
	}
}

func TestConnectSubscribesAndDelivers(t *testing.T) {
	up := websocket.Upgrader{}
	authCh := make(chan string, 1)
	subCh := make(chan map[string]any, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCh <- r.Header.Get("Authorization")
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sub, err := readSubscribe(conn)
		if err != nil {
			return
		}
		subCh <- sub
		_ = conn.WriteJSON(statusFrame("j1", models.StatusRunning))
		drain(conn)
	}))
	defer srv.Close()

	pc, err := newTestClient(wsURL(srv)).Connect(context.Background())
	require.NoError(t, err)
	defer pc.Close()

	assert.Equal(t, "Bearer tok", <-authCh)
	sub := <-subCh
	assert.Equal(t, "subscribe", sub["op"])
	assert.Equal(t, "jobs.status", sub["topic"])

	select {
	case e := <-pc.Messages():
		assert.Equal(t, "j1", e.ID)
		assert.Equal(t, models.StatusRunning, e.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("push-сообщение не дошло")
	}
}

func TestConnectFailureIsSynchronous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // адрес есть, слушателя нет

	_, err := newTestClient(wsURL(srv)).Connect(context.Background())
	assert.Error(t, err, "неудачный dial должен быть виден сразу, без горутин")
}

func TestConnectWithoutToken(t *testing.T) {
	c := newTestClient("ws://127.0.0.1:1")
	c.tokens = tokenstore.Static("")

	_, err := c.Connect(context.Background())
	assert.ErrorIs(t, err, tokenstore.ErrNoToken)
}

func TestSkipsPongAndEmptyFrames(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if _, err := readSubscribe(conn); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]string{"op": "pong"})
		_ = conn.WriteJSON(map[string]any{"op": "update", "topic": "jobs.status"}) // без data
		_ = conn.WriteJSON(statusFrame("j1", models.StatusCompleted))
		drain(conn)
	}))
	defer srv.Close()

	pc, err := newTestClient(wsURL(srv)).Connect(context.Background())
	require.NoError(t, err)
	defer pc.Close()

	select {
	case e := <-pc.Messages():
		assert.Equal(t, "j1", e.ID, "служебные кадры не должны долетать до канала")
	case <-time.After(2 * time.Second):
		t.Fatal("сообщение не дошло")
	}
}

func TestReconnectResubscribes(t *testing.T) {
	up := websocket.Upgrader{}
	var conns int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if _, err := readSubscribe(conn); err != nil {
			return
		}
		if atomic.AddInt32(&conns, 1) == 1 {
			_ = conn.Close() // сервер рвёт первое соединение
			return
		}
		_ = conn.WriteJSON(statusFrame("j2", models.StatusPaused))
		drain(conn)
	}))
	defer srv.Close()

	pc, err := newTestClient(wsURL(srv)).Connect(context.Background())
	require.NoError(t, err)
	defer pc.Close()

	// сообщение приходит уже по второму соединению, с той же подпиской
	select {
	case e := <-pc.Messages():
		assert.Equal(t, "j2", e.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("после обрыва клиент не передайлился")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&conns), int32(2))
}

func TestGivesUpAfterRedialLimit(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if _, err := readSubscribe(conn); err != nil {
			return
		}
		drain(conn)
	}))

	pc, err := newTestClient(wsURL(srv)).Connect(context.Background())
	require.NoError(t, err)
	defer pc.Close()

	// сервер умирает насовсем: все редайалы упрутся в отказ
	srv.CloseClientConnections()
	srv.Close()

	select {
	case _, ok := <-pc.Messages():
		assert.False(t, ok, "после исчерпания редайалов канал закрывается")
	case <-time.After(3 * time.Second):
		t.Fatal("канал не закрылся, клиент редайлится вечно")
	}
}

func TestKeepalivePing(t *testing.T) {
	up := websocket.Upgrader{}
	pinged := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if _, err := readSubscribe(conn); err != nil {
			return
		}
		var msg map[string]string
		if err := conn.ReadJSON(&msg); err == nil && msg["op"] == "ping" {
			close(pinged)
		}
		drain(conn)
	}))
	defer srv.Close()

	pc, err := newTestClient(wsURL(srv)).Connect(context.Background())
	require.NoError(t, err)
	defer pc.Close()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("keepalive-пинг не пришёл")
	}
}
