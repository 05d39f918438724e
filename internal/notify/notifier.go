package notify

import (
	"fmt"
	"trade_dash/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notifier — то, что показываем пользователю. Компоненты зависят от
// интерфейса, а не от глобальной шины.
type Notifier interface {
	Notify(kind Kind, msg string)
	Notifyf(kind Kind, format string, args ...any)
}

// Telegram — пассивный нотифайер: шлёт уведомления в один чат.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

func (t *Telegram) Notify(kind Kind, msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, decorate(kind, msg)))
}

func (t *Telegram) Notifyf(kind Kind, format string, args ...any) {
	t.Notify(kind, fmt.Sprintf(format, args...))
}

func decorate(kind Kind, msg string) string {
	switch kind {
	case KindSuccess:
		return "✅ " + msg
	case KindError:
		return "❗️ " + msg
	default:
		return "ℹ️ " + msg
	}
}

// Log — заглушка, всё пишет в лог. Для локального запуска без телеграма.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (l *Log) Notify(kind Kind, msg string) {
	if kind == KindError {
		logger.Error("notify: %s", msg)
		return
	}
	logger.Info("notify[%s]: %s", kind, msg)
}

func (l *Log) Notifyf(kind Kind, format string, args ...any) {
	l.Notify(kind, fmt.Sprintf(format, args...))
}
