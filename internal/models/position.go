package models

import "time"

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

type Position struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Qty        float64   `json:"quantity"`
	Entry      float64   `json:"entry_price"`
	Status     string    `json:"status"`      // OPEN/CLOSED
	Pnl        float64   `json:"pnl"`         // серверный снапшот
	PnlPercent float64   `json:"pnl_percent"` // серверный снапшот
	Updated    time.Time `json:"updated_at"`
}

func (p Position) Open() bool { return p.Status == "OPEN" }

// PriceQuote — последняя наблюдаемая цена по символу. Живёт только в кеше.
type PriceQuote struct {
	Symbol     string
	Price      float64
	ObservedAt time.Time
}

// Valuation — производная оценка, не хранится, считается на каждый рендер.
type Valuation struct {
	Pnl        float64
	PnlPercent float64
}
