package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ConversationRepo implements ContextRepo.
type ConversationRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var _ ContextRepo = (*ConversationRepo)(nil)

// Load implements ContextRepo.
func (r *ConversationRepo) Load(ctx context.Context, userID string) (json.RawMessage, bool, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT context FROM conversations WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load context %s: %w", userID, err)
	}
	return json.RawMessage(data), true, nil
}

// Commit implements ContextRepo. A cancelled ctx aborts the transaction, so
// an interrupted turn leaves the previous context in place.
func (r *ConversationRepo) Commit(ctx context.Context, userID string, data json.RawMessage, turn *TurnEventData) error {
	if !json.Valid(data) {
		return fmt.Errorf("commit context %s: invalid JSON", userID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO conversations (user_id, context, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET context = excluded.context, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save context %s: %w", userID, err)
	}

	if turn != nil {
		if err := insertTurn(ctx, tx, r.seq, *turn); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Reset implements ContextRepo.
func (r *ConversationRepo) Reset(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("reset context %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
