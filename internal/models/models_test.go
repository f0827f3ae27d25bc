package models

import "testing"

func TestDeriveName(t *testing.T) {
	tests := []struct {
		name, explicit, display, email, want string
	}{
		{"explicit wins", "Ada", "Ada L", "ada@example.com", "Ada"},
		{"display fallback", "", "Ada L", "ada@example.com", "Ada L"},
		{"email local part", "", "", "ada@example.com", "ada"},
		{"whitespace ignored", "  ", " ", "grace@example.com", "grace"},
		{"empty", "", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveName(tt.explicit, tt.display, tt.email); got != tt.want {
				t.Errorf("DeriveName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListItem(t *testing.T) {
	t.Run("Key", func(t *testing.T) {
		item := &ListItem{UserID: "u1", ImdbID: "tt0372784"}
		if item.Key() != "u1_tt0372784" {
			t.Errorf("unexpected key %s", item.Key())
		}
	})

	t.Run("NewListItem defaults type", func(t *testing.T) {
		item := NewListItem("u1", MovieSummary{ImdbID: "tt1", Title: "Batman"})
		if item.Type != "movie" {
			t.Errorf("expected type movie, got %s", item.Type)
		}

		item = NewListItem("u1", MovieSummary{ImdbID: "tt2", Type: "series"})
		if item.Type != "series" {
			t.Errorf("expected type series, got %s", item.Type)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (&ListItem{UserID: "u1"}).Validate(); err == nil {
			t.Error("expected error for missing imdb id")
		}
		if err := (&ListItem{ImdbID: "tt1"}).Validate(); err == nil {
			t.Error("expected error for missing user id")
		}
		if err := (&ListItem{UserID: "u1", ImdbID: "tt1"}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestProfileValidate(t *testing.T) {
	if err := (&Profile{}).Validate(); err == nil {
		t.Error("expected error for missing uid")
	}
}
