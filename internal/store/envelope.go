package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/deojon/studio/types"
)

// EnvelopeRepository is the durable, append-only log of sync envelopes.
type EnvelopeRepository struct {
	db *sql.DB
}

func NewEnvelopeRepository(db *sql.DB) *EnvelopeRepository {
	return &EnvelopeRepository{db: db}
}

// Append stores msg. Re-appending an envelope id is a no-op, so
// at-least-once publishers can retry freely.
func (r *EnvelopeRepository) Append(ctx context.Context, msg types.SyncMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	const query = `
		INSERT INTO sync_messages (id, category, action, target_id, user_id, ts, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	_, err = r.db.ExecContext(
		ctx,
		query,
		msg.ID,
		string(msg.Category),
		string(msg.Action),
		msg.TargetID,
		msg.Meta.UserID,
		msg.Meta.Timestamp,
		body,
	)
	return err
}

// Since returns the envelopes of category with a timestamp strictly
// greater than after, oldest first.
func (r *EnvelopeRepository) Since(ctx context.Context, category types.SyncCategory, after int64) ([]types.SyncMessage, error) {
	const query = `
		SELECT body
		FROM sync_messages
		WHERE category = $1 AND ts > $2
		ORDER BY ts, id`
	rows, err := r.db.QueryContext(ctx, query, string(category), after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []types.SyncMessage
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var msg types.SyncMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// Get returns a single envelope by id.
func (r *EnvelopeRepository) Get(ctx context.Context, id string) (types.SyncMessage, error) {
	const query = `SELECT body FROM sync_messages WHERE id = $1`
	var body []byte
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return types.SyncMessage{}, ErrNotFound
		}
		return types.SyncMessage{}, err
	}
	var msg types.SyncMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return types.SyncMessage{}, fmt.Errorf("decode envelope: %w", err)
	}
	return msg, nil
}

// PruneBefore deletes envelopes older than ts and reports how many were removed.
func (r *EnvelopeRepository) PruneBefore(ctx context.Context, ts int64) (int64, error) {
	const query = `DELETE FROM sync_messages WHERE ts < $1`
	result, err := r.db.ExecContext(ctx, query, ts)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
