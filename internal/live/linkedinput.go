package live

import (
	"context"
	"sync"
	"trade_dash/internal/helper"
	"trade_dash/internal/models"
)

// Mode — какое из двух представлений сейчас авторитетное.
type Mode int

const (
	ModeNone Mode = iota
	ModeAmount
	ModePercent
)

type BalanceFetcher interface {
	GetBalance(ctx context.Context, account string) (map[string]models.Balance, error)
}

// LinkedInput держит связанную пару полей amount/percent от одного
// количества. Пересчёт пишет только в противоположное поле — поле,
// которое правит пользователь, никогда не перезаписывается.
type LinkedInput struct {
	mu      sync.Mutex
	amount  string
	percent string
	free    float64
	hasRef  bool
	mode    Mode
}

func NewLinkedInput() *LinkedInput {
	return &LinkedInput{}
}

// EditAmount — правка поля amount. lastEdited фиксируется до пересчёта.
func (l *LinkedInput) EditAmount(raw string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mode = ModeAmount

	v, ok := helper.ParseAmount(raw)
	if !ok {
		// пустое поле чистит и второе, из пустоты ничего не считаем
		l.amount, l.percent = "", ""
		l.mode = ModeNone
		return
	}

	l.amount = raw
	l.percent = l.derivePercent(v)
}

func (l *LinkedInput) EditPercent(raw string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mode = ModePercent

	v, ok := helper.ParseAmount(raw)
	if !ok {
		l.amount, l.percent = "", ""
		l.mode = ModeNone
		return
	}

	l.percent = raw
	l.amount = l.deriveAmount(v)
}

// SetReference — баланс перечитали. Авторитетное поле не трогаем,
// противоположное пересчитываем от новой базы.
func (l *LinkedInput) SetReference(free float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.free = free
	l.hasRef = true

	switch l.mode {
	case ModePercent:
		if v, ok := helper.ParseAmount(l.percent); ok {
			l.amount = l.deriveAmount(v)
		}
	case ModeAmount:
		if v, ok := helper.ParseAmount(l.amount); ok {
			l.percent = l.derivePercent(v)
		}
	}
}

// PullReference тянет баланс и применяет его как новую базу.
func (l *LinkedInput) PullReference(ctx context.Context, f BalanceFetcher, account, ccy string) error {
	balances, err := f.GetBalance(ctx, account)
	if err != nil {
		return err
	}
	l.SetReference(balances[ccy].Free)
	return nil
}

func (l *LinkedInput) Values() (amount, percent string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.amount, l.percent
}

func (l *LinkedInput) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// derivePercent: percent = amount / free * 100; при free == 0 поле пустое.
func (l *LinkedInput) derivePercent(amount float64) string {
	if !l.hasRef || l.free == 0 {
		return ""
	}
	return helper.FormatAmount(amount / l.free * 100)
}

// deriveAmount: amount = free * percent / 100.
func (l *LinkedInput) deriveAmount(percent float64) string {
	if !l.hasRef {
		return ""
	}
	return helper.FormatAmount(l.free * percent / 100)
}
