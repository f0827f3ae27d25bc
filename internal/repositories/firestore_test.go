package repositories

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

// setupFirestore connects to the emulator named by FIRESTORE_EMULATOR_HOST or skips.
func setupFirestore(t *testing.T) *firestore.Client {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	client, err := NewFirestoreClient(context.Background(), shared.FirestoreConfig{ProjectID: "freemovies-test"})
	if err != nil {
		t.Fatalf("failed to create firestore client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewFirestoreClientRequiresProject(t *testing.T) {
	_, err := NewFirestoreClient(context.Background(), shared.FirestoreConfig{})
	if !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFirestoreProfileRepository(t *testing.T) {
	client := setupFirestore(t)
	ctx := context.Background()
	repo := NewFirestoreProfileRepository(client)
	uid := "profile-" + shared.GenerateID()

	first, err := repo.Ensure(ctx, &models.Profile{UID: uid, Email: "ada@example.com", Name: "Ada"})
	if err != nil {
		t.Fatalf("failed to ensure profile: %v", err)
	}

	second, err := repo.Ensure(ctx, &models.Profile{UID: uid, Name: "Other"})
	if err != nil {
		t.Fatalf("failed to ensure existing profile: %v", err)
	}

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("createdAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Errorf("updatedAt went backwards: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
	if second.Name != "Ada" {
		t.Errorf("name should not be overwritten, got %s", second.Name)
	}
}

func TestFirestoreListRepository(t *testing.T) {
	client := setupFirestore(t)
	ctx := context.Background()
	repo := NewFirestoreListRepository(client)
	user := "user-" + shared.GenerateID()

	first := &models.ListItem{UserID: user, ImdbID: "tt1", Title: "Batman"}
	if err := repo.Put(ctx, first); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if first.AddedAt.IsZero() {
		t.Error("expected Put to fill AddedAt")
	}
	if err := repo.Put(ctx, &models.ListItem{UserID: user, ImdbID: "tt1"}); !errors.Is(err, shared.ErrDuplicateItem) {
		t.Errorf("expected ErrDuplicateItem, got %v", err)
	}

	items, err := repo.ListByUser(ctx, user)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Batman" || items[0].Type != "movie" {
		t.Errorf("unexpected items %+v", items)
	}

	if err := repo.Delete(ctx, user, "tt1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	items, _ = repo.ListByUser(ctx, user)
	if len(items) != 0 {
		t.Errorf("expected empty list after delete, got %d", len(items))
	}
}

func TestSortListItems(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []*models.ListItem{
		{ImdbID: "tt9", AddedAt: base.Add(2 * time.Minute)},
		{ImdbID: "tt5", AddedAt: base},
		{ImdbID: "tt1", AddedAt: base.Add(time.Minute)},
		{ImdbID: "tt2", AddedAt: base},
	}
	sortListItems(items)

	want := []string{"tt2", "tt5", "tt1", "tt9"}
	for i, id := range want {
		if items[i].ImdbID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, items[i].ImdbID)
		}
	}
}
