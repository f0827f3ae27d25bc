package shared

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite    = "sqlite3"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
)

// NewDatabase opens a connection with the given driver ("sqlite3" or "postgres").
//
// For sqlite3 the dsn is a file path and may be ":memory:" for an in-memory database.
func NewDatabase(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: unsupported sql driver %q", ErrInvalidConfig, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == DriverSQLite && dsn == ":memory:" {
		// each connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// OpenDatabase opens the SQL database described by the config.
func OpenDatabase(cfg DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite && dsn == "" {
		dsn = cfg.Path
	}

	db, err := NewDatabase(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

// Rebind rewrites "?" placeholders to "$n" for postgres. Other drivers get the query unchanged.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inString := false
	for _, r := range query {
		switch {
		case r == '\'':
			inString = !inString
			b.WriteRune(r)
		case r == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
