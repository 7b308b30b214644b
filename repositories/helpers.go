package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLExecutor абстрагирует *sql.DB и *sql.Tx, чтобы репозитории могли
// работать внутри внешней транзакции.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// notifyChange публикует событие изменения коллекции через pg_notify.
// Ошибка уведомления не должна ронять саму мутацию — вызывающие
// игнорируют её осознанно (подписчики пересчитают вид при следующем чтении).
func notifyChange(ctx context.Context, exec SQLExecutor, collection, contestID, op string) error {
	payload, err := json.Marshal(ChangeEvent{
		Collection: collection,
		ContestID:  contestID,
		Op:         op,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	_, err = exec.ExecContext(ctx, `SELECT pg_notify($1, $2)`, changeChannel, string(payload))
	if err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}
