package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

// ListRepository implements [models.ListRepository] for SQL databases.
type ListRepository struct {
	store
}

// NewListRepository creates a new [ListRepository] with the given database connection
func NewListRepository(db *sql.DB, driver string) *ListRepository {
	return &ListRepository{store: newStore(db, driver)}
}

// ListByUser returns the user's watch list in the order items were added
func (r *ListRepository) ListByUser(ctx context.Context, userID string) ([]*models.ListItem, error) {
	query := r.q(`
		SELECT user_id, imdb_id, title, year, type, poster, added_at
		FROM mylist
		WHERE user_id = ?
		ORDER BY added_at ASC, imdb_id ASC
	`)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list: %w", err)
	}
	defer rows.Close()

	items := []*models.ListItem{}
	for rows.Next() {
		var item models.ListItem
		if err := rows.Scan(&item.UserID, &item.ImdbID, &item.Title, &item.Year, &item.Type, &item.Poster, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// Put inserts item under its composite key. AddedAt is set when zero.
func (r *ListRepository) Put(ctx context.Context, item *models.ListItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = r.now()
	}
	if item.Type == "" {
		item.Type = "movie"
	}

	query := r.q(`
		INSERT INTO mylist (id, user_id, imdb_id, title, year, type, poster, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		item.Key(), item.UserID, item.ImdbID, item.Title, item.Year, item.Type, item.Poster, item.AddedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateItem, item.Key())
	}
	if err != nil {
		return fmt.Errorf("failed to insert list item: %w", err)
	}
	return nil
}

// Delete removes the entry for (userID, imdbID). Deleting a missing entry is not an error.
func (r *ListRepository) Delete(ctx context.Context, userID, imdbID string) error {
	query := r.q("DELETE FROM mylist WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, query, models.ListItemKey(userID, imdbID)); err != nil {
		return fmt.Errorf("failed to delete list item: %w", err)
	}
	return nil
}

var _ models.ListRepository = (*ListRepository)(nil)
