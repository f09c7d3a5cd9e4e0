package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity is one timeline row on a lead.
type Activity struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	ActorID   *uuid.UUID
	Action    string
	Meta      map[string]any
	CreatedAt time.Time
}

// Timeline action names.
const (
	ActivityStageChanged  = "stage_changed"
	ActivityNoteAdded     = "note_added"
	ActivityDocsRequested = "docs_requested"
)

// AddActivity appends a timeline row. Failures here are logged by the
// caller and never block the chat response.
func (r *Repository) AddActivity(ctx context.Context, leadID uuid.UUID, actorID *uuid.UUID, action string, meta map[string]any) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, actor_id, action, meta)
		VALUES ($1, $2, $3, $4::jsonb)
	`, leadID, actorID, action, payload)
	return err
}

// ListActivity returns the newest timeline rows for a lead.
func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, actor_id, action, COALESCE(meta::text, '{}'), created_at
		FROM lead_activity
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		var rawMeta string
		if err := rows.Scan(&a.ID, &a.LeadID, &a.ActorID, &a.Action, &rawMeta, &a.CreatedAt); err != nil {
			return nil, err
		}
		// Meta is display-only; a malformed row keeps an empty map.
		_ = json.Unmarshal([]byte(rawMeta), &a.Meta)
		items = append(items, a)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
