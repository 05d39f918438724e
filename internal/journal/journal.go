package journal

import (
	"context"
	"trade_dash/internal/models"
	"trade_dash/pkg/db"
	"trade_dash/pkg/logger"

	"github.com/google/uuid"
)

// Journal — аудит переходов статусов job/bot. Best-effort: ошибка записи
// логируется и не трогает синхронизацию.
type Journal struct {
	tx db.TxManager
}

func New(tx db.TxManager) *Journal {
	return &Journal{tx: tx}
}

func (j *Journal) Migrate(ctx context.Context) error {
	return j.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, `
			CREATE TABLE IF NOT EXISTS status_journal (
				id          uuid PRIMARY KEY,
				entity_id   text NOT NULL,
				from_status text NOT NULL,
				to_status   text NOT NULL,
				source      text NOT NULL,
				observed_at timestamptz NOT NULL DEFAULT now()
			)`)
		return err
	})
}

func (j *Journal) Record(ctx context.Context, entityID string, from, to models.EntityStatus, source string) {
	err := j.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx,
			`INSERT INTO status_journal (id, entity_id, from_status, to_status, source)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), entityID, string(from), string(to), source,
		)
		return err
	})
	if err != nil {
		logger.Warn("journal record %s %s->%s: %v", entityID, from, to, err)
	}
}
