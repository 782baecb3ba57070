package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ProfileRepository implements secondary.ProfileRepository with Postgres.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new Postgres profile repository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert creates the profile or updates its email and display name.
func (r *ProfileRepository) Upsert(ctx context.Context, p *secondary.ProfileRecord) error {
	now := p.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, email, display_name, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at`,
		p.ID, p.Email, nullString(p.DisplayName), now.UTC(),
	)
	if err != nil {
		return errs.Transient("failed to upsert profile", err)
	}
	return nil
}

// GetByID retrieves a profile by user ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*secondary.ProfileRecord, error) {
	var displayName sql.NullString

	record := &secondary.ProfileRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, created_at, updated_at FROM profiles WHERE id = $1", id,
	).Scan(&record.ID, &record.Email, &displayName, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.KindNotFound, "profile %s not found", id)
	}
	if err != nil {
		return nil, errs.Transient("failed to get profile", err)
	}
	record.DisplayName = displayName.String
	return record, nil
}

// Ensure ProfileRepository implements the interface
var _ secondary.ProfileRepository = (*ProfileRepository)(nil)
