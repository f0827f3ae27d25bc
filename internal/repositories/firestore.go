package repositories

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/desertthunder/freemovies/internal/models"
	"github.com/desertthunder/freemovies/internal/shared"
)

const (
	usersCollection  = "users"
	mylistCollection = "mylist"
)

// NewFirestoreClient opens a Firestore client for the configured project.
//
// When FIRESTORE_EMULATOR_HOST is set the client library connects to the emulator.
func NewFirestoreClient(ctx context.Context, cfg shared.FirestoreConfig) (*firestore.Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: firestore project id is required", shared.ErrInvalidConfig)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

// FirestoreProfileRepository implements [models.ProfileRepository] on the "users" collection.
type FirestoreProfileRepository struct {
	client *firestore.Client
}

func NewFirestoreProfileRepository(client *firestore.Client) *FirestoreProfileRepository {
	return &FirestoreProfileRepository{client: client}
}

func (r *FirestoreProfileRepository) Get(ctx context.Context, uid string) (*models.Profile, error) {
	snap, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrRecordNotFound, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var p models.Profile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.UID = snap.Ref.ID
	return &p, nil
}

// Ensure creates the profile document inside a transaction when absent, otherwise merges a new updatedAt.
// Both timestamps are assigned by the server.
func (r *FirestoreProfileRepository) Ensure(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	ref := r.client.Collection(usersCollection).Doc(p.UID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
			return tx.Create(ref, map[string]any{
				"uid":         p.UID,
				"email":       p.Email,
				"name":        p.Name,
				"displayName": p.DisplayName,
				"photoURL":    p.PhotoURL,
				"createdAt":   firestore.ServerTimestamp,
				"updatedAt":   firestore.ServerTimestamp,
			})
		case err != nil:
			return err
		default:
			return tx.Set(ref, map[string]any{"updatedAt": firestore.ServerTimestamp}, firestore.MergeAll)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	return r.Get(ctx, p.UID)
}

// FirestoreListRepository implements [models.ListRepository] on the "mylist" collection.
type FirestoreListRepository struct {
	client *firestore.Client
}

func NewFirestoreListRepository(client *firestore.Client) *FirestoreListRepository {
	return &FirestoreListRepository{client: client}
}

func (r *FirestoreListRepository) ListByUser(ctx context.Context, userID string) ([]*models.ListItem, error) {
	iter := r.client.Collection(mylistCollection).Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	items := []*models.ListItem{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query list: %w", err)
		}

		var item models.ListItem
		if err := snap.DataTo(&item); err != nil {
			return nil, fmt.Errorf("failed to decode list item %s: %w", snap.Ref.ID, err)
		}
		items = append(items, &item)
	}
	sortListItems(items)
	return items, nil
}

// sortListItems orders items the way the SQL repository does: oldest first, then by imdbID.
// Sorting here avoids a composite (userId, addedAt) index.
func sortListItems(items []*models.ListItem) {
	slices.SortStableFunc(items, func(a, b *models.ListItem) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ImdbID, b.ImdbID)
	})
}

// Put creates the item document. An existing document fails with [shared.ErrDuplicateItem].
func (r *FirestoreListRepository) Put(ctx context.Context, item *models.ListItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if item.Type == "" {
		item.Type = "movie"
	}

	ref := r.client.Collection(mylistCollection).Doc(item.Key())
	res, err := ref.Create(ctx, map[string]any{
		"userId":  item.UserID,
		"imdbID":  item.ImdbID,
		"title":   item.Title,
		"year":    item.Year,
		"type":    item.Type,
		"poster":  item.Poster,
		"addedAt": firestore.ServerTimestamp,
	})
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %s", shared.ErrDuplicateItem, item.Key())
	}
	if err != nil {
		return fmt.Errorf("failed to create list item: %w", err)
	}
	// addedAt is the commit timestamp, which is the write's update time
	item.AddedAt = res.UpdateTime
	return nil
}

func (r *FirestoreListRepository) Delete(ctx context.Context, userID, imdbID string) error {
	if _, err := r.client.Collection(mylistCollection).Doc(models.ListItemKey(userID, imdbID)).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete list item: %w", err)
	}
	return nil
}

var (
	_ models.ProfileRepository = (*FirestoreProfileRepository)(nil)
	_ models.ListRepository    = (*FirestoreListRepository)(nil)
)
