package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/opentracing/opentracing-go"
)

// GetPrice — текущая котировка символа. Бэкенд исторически отдаёт цену
// то в price, то в last, то в close — принимаем все три.
func (c *Client) GetPrice(ctx context.Context, account, symbol string) (float64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "backend.price")
	span.SetTag("symbol", symbol)
	defer span.Finish()

	path := "/price/" + url.PathEscape(account) + "/" + url.PathEscape(symbol)
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, fmt.Errorf("GetPrice %s: %w", symbol, err)
	}

	var payload struct {
		Price float64 `json:"price"`
		Last  float64 `json:"last"`
		Close float64 `json:"close"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("GetPrice decode: %w", err)
	}

	px := payload.Price
	if px == 0 {
		px = payload.Last
	}
	if px == 0 {
		px = payload.Close
	}
	if px <= 0 {
		return 0, fmt.Errorf("GetPrice %s: no usable price in %q", symbol, string(data))
	}
	return px, nil
}
