// Package repository provides data access for team members: the
// vendors, credit advisors and admins who operate the CRM over chat.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("team member not found")

// Member is one internal team member. Rows are owned by external
// HR/admin flows; the chat core reads them and only ever writes the
// notes bag.
type Member struct {
	ID        uuid.UUID
	Name      string
	Role      string
	Phone     string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `id, name, role, phone, COALESCE(notes::text, '{}'), created_at, updated_at`

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Phone, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return m, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Member, error) {
	return scanMember(r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM team_members
		WHERE id = $1
	`, id))
}

// GetByPhone looks a member up by E.164 phone, the identity the
// WhatsApp transport gives us.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (Member, error) {
	return scanMember(r.pool.QueryRow(ctx, `
		SELECT `+memberColumns+`
		FROM team_members
		WHERE phone = $1
	`, phone))
}

// GetMemberNotes returns the raw notes JSON bag. The bag must always
// be treated as possibly not valid JSON by callers.
func (r *Repository) GetMemberNotes(ctx context.Context, memberID uuid.UUID) (string, error) {
	var notes string
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(notes::text, '{}')
		FROM team_members
		WHERE id = $1
	`, memberID).Scan(&notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return notes, err
}

func (r *Repository) SetMemberNotes(ctx context.Context, memberID uuid.UUID, notes string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE team_members
		SET notes = $2::jsonb, updated_at = now()
		WHERE id = $1
	`, memberID, notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWithPendingActions returns the IDs of members whose notes bag
// currently holds a pending action. Used by the expiry sweep.
func (r *Repository) ListWithPendingActions(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM team_members
		WHERE notes ? 'pending_actions'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

// List returns all team members, newest first.
func (r *Repository) List(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM team_members
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Phone, &m.Notes, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return members, nil
}
