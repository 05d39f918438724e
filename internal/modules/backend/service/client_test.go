package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"trade_dash/internal/models"
	"trade_dash/internal/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientRaw(srv.URL, tokenstore.Static("test-token"))
}

func TestGetPriceFieldFallbacks(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"price", `{"price": 42000.5}`},
		{"last", `{"last": 42000.5}`},
		{"close", `{"close": 42000.5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/price/acc/BTC-USDT", r.URL.Path)
				fmt.Fprint(w, tc.body)
			})

			px, err := c.GetPrice(context.Background(), "acc", "BTC-USDT")
			require.NoError(t, err)
			assert.Equal(t, 42000.5, px)
		})
	}
}

func TestGetPriceUnusable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"note": "no price here"}`)
	})

	_, err := c.GetPrice(context.Background(), "acc", "BTC-USDT")
	assert.Error(t, err)
}

func TestRequestHeaders(t *testing.T) {
	var auth, reqID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		fmt.Fprint(w, `{"jobs": []}`)
	})

	_, err := c.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", auth)
	assert.NotEmpty(t, reqID)
}

func TestAbsentTokenFailsDistinctly(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClientRaw(srv.URL, tokenstore.Static(""))
	_, err := c.ListJobs(context.Background())

	require.ErrorIs(t, err, tokenstore.ErrNoToken)
	assert.False(t, called, "без токена запрос не уходит")
}

func TestJobActionRejectionDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"detail": "job is not running"}`)
	})

	_, err := c.JobAction(context.Background(), "j1", models.ActionPause, models.ActionRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "job is not running", apiErr.Detail)
}

func TestJobActionRoutes(t *testing.T) {
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		fmt.Fprint(w, `{"message": "ok", "new_job_id": "j9"}`)
	})

	cases := []struct {
		action models.Action
		method string
		path   string
	}{
		{models.ActionPause, http.MethodPost, "/jobs/j1/pause"},
		{models.ActionResume, http.MethodPost, "/jobs/j1/resume"},
		{models.ActionCancel, http.MethodPost, "/jobs/j1/cancel"},
		{models.ActionRetrain, http.MethodPost, "/jobs/j1/retrain"},
		{models.ActionDelete, http.MethodDelete, "/jobs/j1"},
	}
	for _, tc := range cases {
		res, err := c.JobAction(context.Background(), "j1", tc.action, models.ActionRequest{})
		require.NoError(t, err)
		assert.Equal(t, tc.method, method, string(tc.action))
		assert.Equal(t, tc.path, path, string(tc.action))
		assert.Equal(t, "j9", res.NewJobID)
	}
}

func TestListPositionsDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions/acc", r.URL.Path)
		fmt.Fprint(w, `{"positions": [
			{"id": "p1", "symbol": "BTC-USDT", "side": "long", "quantity": 0.5,
			 "entry_price": 40000, "status": "OPEN", "pnl": 10, "pnl_percent": 0.05}
		]}`)
	})

	positions, err := c.ListPositions(context.Background(), "acc")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, models.SideLong, positions[0].Side)
	assert.True(t, positions[0].Open())
}

func TestGetBalanceDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"balances": {"USDT": {"free": 950.5, "used": 49.5, "total": 1000}}}`)
	})

	balances, err := c.GetBalance(context.Background(), "acc")
	require.NoError(t, err)
	assert.Equal(t, 950.5, balances["USDT"].Free)
}
