package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"trade_dash/internal/models"

	"github.com/opentracing/opentracing-go"
)

// JobAction — мутирующее действие над job/bot. Легальность перехода
// статусов решает бэкенд, мы отражаем то, что он вернул.
func (c *Client) JobAction(
	ctx context.Context,
	id string,
	action models.Action,
	req models.ActionRequest,
) (models.ActionResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "backend.job_action")
	span.SetTag("job_id", id)
	span.SetTag("action", string(action))
	defer span.Finish()

	var (
		method = http.MethodPost
		path   = "/jobs/" + url.PathEscape(id) + "/" + string(action)
		body   any
	)
	switch action {
	case models.ActionDelete:
		method = http.MethodDelete
		path = "/jobs/" + url.PathEscape(id)
	case models.ActionResume:
		if req.Checkpoint != "" {
			body = req
		}
	}

	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("JobAction %s %s: %w", action, id, err)
	}

	var res models.ActionResult
	if len(data) > 0 {
		if err := json.Unmarshal(data, &res); err != nil {
			return models.ActionResult{}, fmt.Errorf("JobAction decode: %w", err)
		}
	}
	return res, nil
}
