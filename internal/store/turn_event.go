package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	queryRower
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AppendTurn implements EventRepo.
func (r *EventLog) AppendTurn(ctx context.Context, data TurnEventData) error {
	return insertTurn(ctx, r.db, r.seq, data)
}

// QueryTurns returns the turn events of one user, oldest first. An empty
// userID matches every user.
func (r *EventLog) QueryTurns(ctx context.Context, userID string, opts QueryOpts) ([]TurnEventRecord, error) {
	where, args := opts.filter()
	if userID != "" {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	}
	q := `SELECT id, sequence, timestamp, user_id, turn_id, status, pattern, score,
		branch, route, has_update, terms FROM turn_events` + whereClause(where) + " ORDER BY sequence"
	if opts.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query turn events: %w", err)
	}
	defer rows.Close()

	var out []TurnEventRecord
	for rows.Next() {
		var (
			rec   TurnEventRecord
			ts    int64
			terms string
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &rec.UserID, &rec.TurnID, &rec.Status,
			&rec.Pattern, &rec.Score, &rec.Branch, &rec.Route, &rec.HasUpdate, &terms); err != nil {
			return nil, err
		}
		rec.Timestamp = time.UnixMilli(ts)
		if err := json.Unmarshal([]byte(terms), &rec.Terms); err != nil {
			return nil, fmt.Errorf("decode turn %d terms: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func insertTurn(ctx context.Context, db dbtx, seq *sequenceCounter, data TurnEventData) error {
	seqNum, err := seq.next(ctx, db)
	if err != nil {
		return err
	}
	terms := data.Terms
	if terms == nil {
		terms = []string{}
	}
	encoded, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("encode turn terms: %w", err)
	}

	_, err = db.ExecContext(ctx, `INSERT INTO turn_events
		(sequence, timestamp, user_id, turn_id, status, pattern, score, branch, route, has_update, terms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixMilli(), data.UserID, data.TurnID, data.Status, data.Pattern,
		data.Score, data.Branch, data.Route, data.HasUpdate, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("save turn event: %w", err)
	}
	return nil
}
