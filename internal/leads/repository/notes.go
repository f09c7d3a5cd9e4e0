package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LeadNote is one human annotation on a lead, distinct from the
// machine context in the lead's notes bag.
type LeadNote struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	AuthorID   uuid.UUID
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

func (r *Repository) CreateLeadNote(ctx context.Context, leadID, authorID uuid.UUID, body string) (LeadNote, error) {
	var note LeadNote
	query := `
		WITH inserted AS (
			INSERT INTO lead_notes (lead_id, author_id, body)
			VALUES ($1, $2, $3)
			RETURNING id, lead_id, author_id, body, created_at
		)
		SELECT inserted.id, inserted.lead_id, inserted.author_id, tm.name, inserted.body, inserted.created_at
		FROM inserted
		JOIN team_members tm ON tm.id = inserted.author_id
	`

	err := r.pool.QueryRow(ctx, query, leadID, authorID, body).Scan(
		&note.ID,
		&note.LeadID,
		&note.AuthorID,
		&note.AuthorName,
		&note.Body,
		&note.CreatedAt,
	)
	return note, err
}

func (r *Repository) ListLeadNotes(ctx context.Context, leadID uuid.UUID) ([]LeadNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ln.id, ln.lead_id, ln.author_id, tm.name, ln.body, ln.created_at
		FROM lead_notes ln
		JOIN team_members tm ON tm.id = ln.author_id
		WHERE ln.lead_id = $1
		ORDER BY ln.created_at DESC
		LIMIT 20
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]LeadNote, 0)
	for rows.Next() {
		var note LeadNote
		if err := rows.Scan(
			&note.ID,
			&note.LeadID,
			&note.AuthorID,
			&note.AuthorName,
			&note.Body,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return notes, nil
}
