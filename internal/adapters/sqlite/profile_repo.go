package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/rabotim/internal/errs"
	"github.com/example/rabotim/internal/ports/secondary"
)

// ProfileRepository implements secondary.ProfileRepository with SQLite.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new SQLite profile repository.
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
		INSERT INTO profiles (id, email, display_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, display_name = excluded.display_name, updated_at = excluded.updated_at`,
		p.ID, p.Email, nullString(p.DisplayName), now.UTC(), now.UTC(),
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
		"SELECT id, email, display_name, created_at, updated_at FROM profiles WHERE id = ?", id,
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
