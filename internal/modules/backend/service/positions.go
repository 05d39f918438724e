package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"trade_dash/internal/models"
)

func (c *Client) ListPositions(ctx context.Context, account string) ([]models.Position, error) {
	data, err := c.do(ctx, http.MethodGet, "/positions/"+url.PathEscape(account), nil)
	if err != nil {
		return nil, fmt.Errorf("ListPositions: %w", err)
	}

	var payload struct {
		Positions []models.Position `json:"positions"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("ListPositions decode: %w", err)
	}
	return payload.Positions, nil
}

// ClosePosition закрывает позицию по рынку.
func (c *Client) ClosePosition(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/positions/"+url.PathEscape(id)+"/close", nil)
	if err != nil {
		return fmt.Errorf("ClosePosition %s: %w", id, err)
	}
	return nil
}
