package shared

import (
	"errors"
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		query  string
		want   string
	}{
		{"sqlite unchanged", DriverSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", DriverPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres skips literals", DriverPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"no placeholders", DriverPostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rebind(tt.driver, tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewDatabase(t *testing.T) {
	t.Run("sqlite memory", func(t *testing.T) {
		db, err := NewDatabase(DriverSQLite, ":memory:")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			t.Errorf("ping failed: %v", err)
		}
	})

	t.Run("unsupported driver", func(t *testing.T) {
		_, err := NewDatabase(DriverFirestore, "")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("OpenDatabase uses path for sqlite", func(t *testing.T) {
		db, err := OpenDatabase(DatabaseConfig{Driver: DriverSQLite, Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()
	})
}
