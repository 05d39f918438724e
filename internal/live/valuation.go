package live

import (
	"trade_dash/internal/helper"
	"trade_dash/internal/models"
)

// Valuate — чистая функция оценки нереализованного PnL.
// Без живой котировки возвращаем серверный снапшот как есть.
func Valuate(p models.Position, quotes map[string]models.PriceQuote) models.Valuation {
	q, ok := quotes[p.Symbol]
	if !ok {
		return models.Valuation{Pnl: p.Pnl, PnlPercent: p.PnlPercent}
	}

	var pnl float64
	switch p.Side {
	case models.SideShort:
		pnl = (p.Entry - q.Price) * p.Qty
	default:
		pnl = (q.Price - p.Entry) * p.Qty
	}

	return models.Valuation{
		Pnl:        pnl,
		PnlPercent: helper.PnlPercent(pnl, p.Entry, p.Qty),
	}
}
