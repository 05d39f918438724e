package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"trade_dash/internal/modules/config"
	"trade_dash/internal/tokenstore"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client — HTTP-клиент дашборд-бэкенда. Токеном не владеет, только читает.
type Client struct {
	http    *http.Client
	base    string
	tokens  tokenstore.Store
	limiter *rate.Limiter
}

func NewClient(cfg *config.Config, tokens tokenstore.Store) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    cfg.Backend.BaseURL,
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(cfg.Backend.RPS), cfg.Backend.Burst),
	}
}

// NewClientRaw — без конфига, для тестов против httptest.
func NewClientRaw(base string, tokens tokenstore.Store) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

// APIError — бэкенд ответил не-2xx; Detail из тела, если он там был.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend %d", e.Status)
}

// APIDetail — причина отказа для показа пользователю.
func (e *APIError) APIDetail() string { return e.Detail }

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var rdr io.Reader
	if body != nil {
		payload, mErr := sonic.Marshal(body)
		if mErr != nil {
			return nil, fmt.Errorf("marshal body: %w", mErr)
		}
		rdr = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		var e struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(data, &e)
		return nil, &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}

	return data, nil
}
