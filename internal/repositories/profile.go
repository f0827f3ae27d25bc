package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

// ProfileRepository implements [models.ProfileRepository] for SQL databases.
type ProfileRepository struct {
	store
}

// NewProfileRepository creates a new [ProfileRepository] with the given database connection
func NewProfileRepository(db *sql.DB, driver string) *ProfileRepository {
	return &ProfileRepository{store: newStore(db, driver)}
}

// WithClock replaces the timestamp source. Used by tests.
func (r *ProfileRepository) WithClock(now func() time.Time) *ProfileRepository {
	r.now = now
	return r
}

// Get retrieves a profile by uid
func (r *ProfileRepository) Get(ctx context.Context, uid string) (*models.Profile, error) {
	query := r.q(`
		SELECT uid, email, name, display_name, photo_url, created_at, updated_at
		FROM profiles
		WHERE uid = ?
	`)

	var p models.Profile
	err := r.db.QueryRowContext(ctx, query, uid).Scan(
		&p.UID, &p.Email, &p.Name, &p.DisplayName, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrRecordNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

// Ensure inserts the profile if no row exists for its uid, otherwise updates only updated_at.
//
// The insert uses ON CONFLICT DO NOTHING so concurrent callers for the same uid create one row.
func (r *ProfileRepository) Ensure(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := r.now()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := r.q(`
		INSERT INTO profiles (uid, email, name, display_name, photo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uid) DO NOTHING
	`)
	result, err := tx.ExecContext(ctx, insert, p.UID, p.Email, p.Name, p.DisplayName, p.PhotoURL, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	created, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if created == 0 {
		touch := r.q("UPDATE profiles SET updated_at = ? WHERE uid = ?")
		if _, err := tx.ExecContext(ctx, touch, now, p.UID); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit profile: %w", err)
	}

	return r.Get(ctx, p.UID)
}

var _ models.ProfileRepository = (*ProfileRepository)(nil)
