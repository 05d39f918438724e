package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"trade_dash/internal/models"
)

func (c *Client) GetBalance(ctx context.Context, account string) (map[string]models.Balance, error) {
	data, err := c.do(ctx, http.MethodGet, "/balance/"+url.PathEscape(account), nil)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}

	var payload struct {
		Balances map[string]models.Balance `json:"balances"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("GetBalance decode: %w", err)
	}
	if payload.Balances == nil {
		payload.Balances = map[string]models.Balance{}
	}
	return payload.Balances, nil
}
