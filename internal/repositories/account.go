package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

// AccountRepository implements [models.AccountRepository] for SQL databases.
type AccountRepository struct {
	store
}

// NewAccountRepository creates a new [AccountRepository] with the given database connection
func NewAccountRepository(db *sql.DB, driver string) *AccountRepository {
	return &AccountRepository{store: newStore(db, driver)}
}

const accountColumns = "id, email, password_hash, display_name, photo_url, provider, subject, created_at"

// Create inserts a new account. A taken email fails with [shared.ErrDuplicateItem].
func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = shared.GenerateID()
	}
	if a.Provider == "" {
		a.Provider = "password"
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now()
	}
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var subject any = a.Subject
	if a.Subject == "" {
		subject = nil
	}

	query := r.q(`INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.DisplayName, a.PhotoURL, a.Provider, subject, a.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: account %s", shared.ErrDuplicateItem, a.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// Get retrieves an account by id
func (r *AccountRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, r.q(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`), id))
}

// GetByEmail retrieves an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, r.q(`SELECT `+accountColumns+` FROM accounts WHERE email = ?`), email))
}

// GetBySubject retrieves a federated account by provider and upstream subject
func (r *AccountRepository) GetBySubject(ctx context.Context, provider, subject string) (*models.Account, error) {
	query := r.q(`SELECT ` + accountColumns + ` FROM accounts WHERE provider = ? AND subject = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, query, provider, subject))
}

// scanOne scans a single [sql.Row] into a [models.Account]
func (r *AccountRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		a       models.Account
		subject sql.NullString
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.PhotoURL, &a.Provider, &subject, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Subject = subject.String
	return &a, nil
}

var _ models.AccountRepository = (*AccountRepository)(nil)
