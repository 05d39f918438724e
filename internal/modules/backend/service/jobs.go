package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"trade_dash/internal/models"
)

func (c *Client) ListJobs(ctx context.Context) ([]models.TrackedEntity, error) {
	data, err := c.do(ctx, http.MethodGet, "/jobs", nil)
	if err != nil {
		return nil, fmt.Errorf("ListJobs: %w", err)
	}

	var payload struct {
		Jobs []models.TrackedEntity `json:"jobs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("ListJobs decode: %w", err)
	}
	return payload.Jobs, nil
}
