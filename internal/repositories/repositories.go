// package repositories provides persistence layer implementations for all model types.
package repositories

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/desertthunder/freemovies/internal/shared"
)

// store carries what every SQL repository needs.
type store struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

func newStore(db *sql.DB, driver string) store {
	if driver == "" {
		driver = shared.DriverSQLite
	}
	return store{db: db, driver: driver, now: func() time.Time { return time.Now().UTC() }}
}

// q rebinds placeholders for the configured driver.
func (s store) q(query string) string {
	return shared.Rebind(s.driver, query)
}

// isUniqueViolation reports whether err is a unique or primary key constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
