// Package repository provides data access for leads: the sales
// prospects the chat surfaces act on.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

// Lead is a sales prospect. Status is a raw string that may still be a
// legacy alias; the funnel package normalizes it before any ordinal
// logic. Notes is an opaque JSON bag holding both human annotations
// and machine continuation context for the lead's own asynchronous
// flows; it must always be treated as possibly not valid JSON.
type Lead struct {
	ID         uuid.UUID
	Name       string
	Phone      string
	Status     string
	Score      int
	AssignedTo *uuid.UUID
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MatchName and MatchPhone make Lead a disambiguation entry.

func (l Lead) MatchName() string  { return l.Name }
func (l Lead) MatchPhone() string { return l.Phone }

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, name, phone, status, score, assigned_to, COALESCE(notes::text, '{}'), created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.Name, &l.Phone, &l.Status, &l.Score, &l.AssignedTo, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1
	`, id))
}

func (r *Repository) collect(rows pgx.Rows) ([]Lead, error) {
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Status, &l.Score, &l.AssignedTo, &l.Notes, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

// Search returns leads whose name contains the query or whose phone
// ends with the query's digits. Role scoping happens in the caller via
// ResolveOwnership, not here; this keeps the three-source ownership
// precedence in one tested place.
func (r *Repository) Search(ctx context.Context, query string) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE name ILIKE '%' || $1 || '%'
		   OR regexp_replace(phone, '\D', '', 'g') LIKE '%' || regexp_replace($1, '\D', '', 'g')
		ORDER BY created_at DESC
		LIMIT 25
	`, query)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListByOwner returns leads a member owns through any of the three
// ownership sources: direct assignment, the secondary owner marker in
// the notes bag, or a nested continuation-context reference.
func (r *Repository) ListByOwner(ctx context.Context, memberID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE assigned_to = $1
		   OR notes->>'owner_id' = $1::text
		   OR notes#>>'{context,actor_id}' = $1::text
		ORDER BY score DESC, created_at DESC
	`, memberID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListAll returns every lead, for admin-scoped lookups.
func (r *Repository) ListAll(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		ORDER BY score DESC, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// UpdateStatus writes the new status and its derived score in one
// statement so the two can never disagree.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, score int) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads
		SET status = $2, score = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns+`
	`, id, status, score))
}
