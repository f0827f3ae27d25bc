// package models defines the data model for the movie discovery application
package models

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	Key() string     // Key returns the unique document key for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// ProfileRepository persists [Profile] records keyed by identity id.
type ProfileRepository interface {
	// Get returns the profile for uid or an error wrapping [shared.ErrRecordNotFound].
	Get(ctx context.Context, uid string) (*Profile, error)
	// Ensure creates the profile when absent, otherwise touches its UpdatedAt.
	// It returns the stored record.
	Ensure(ctx context.Context, p *Profile) (*Profile, error)
}

// ListRepository persists [ListItem] records.
type ListRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*ListItem, error)
	// Put inserts item and fails with [shared.ErrDuplicateItem] when the key already exists.
	Put(ctx context.Context, item *ListItem) error
	Delete(ctx context.Context, userID, imdbID string) error
}

// Session is the signed-in user as seen by the rest of the application.
//
// Authenticated is true exactly when UserID is non-empty.
type Session struct {
	UserID        string `json:"userId,omitempty"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	PhotoURL      string `json:"photoURL,omitempty"`
	Name          string `json:"name,omitempty"`
	Authenticated bool   `json:"isAuthenticated"`
	Loading       bool   `json:"loading"`
}

// AnonymousSession returns the signed-out session with the given loading flag.
func AnonymousSession(loading bool) Session {
	return Session{Loading: loading}
}

// Profile is the per-user document stored alongside the identity.
type Profile struct {
	UID         string    `json:"uid" firestore:"uid"`
	Email       string    `json:"email" firestore:"email"`
	Name        string    `json:"name" firestore:"name"`
	DisplayName string    `json:"displayName" firestore:"displayName"`
	PhotoURL    string    `json:"photoURL" firestore:"photoURL"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

func (p *Profile) Key() string { return p.UID }

func (p *Profile) Validate() error {
	if p.UID == "" {
		return fmt.Errorf("profile uid is required")
	}
	return nil
}

// DeriveName picks the profile name: the explicit name, then the display name, then the local part of the email.
func DeriveName(name, displayName, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if n := strings.TrimSpace(displayName); n != "" {
		return n
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}

// ListItem is one entry of a user's watch list.
type ListItem struct {
	UserID  string    `json:"userId" firestore:"userId"`
	ImdbID  string    `json:"imdbID" firestore:"imdbID"`
	Title   string    `json:"title" firestore:"title"`
	Year    string    `json:"year" firestore:"year"`
	Type    string    `json:"type" firestore:"type"`
	Poster  string    `json:"poster" firestore:"poster"`
	AddedAt time.Time `json:"addedAt" firestore:"addedAt"`
}

// ListItemKey builds the composite document key for a watch list entry.
func ListItemKey(userID, imdbID string) string {
	return userID + "_" + imdbID
}

func (i *ListItem) Key() string { return ListItemKey(i.UserID, i.ImdbID) }

func (i *ListItem) Validate() error {
	if i.UserID == "" {
		return fmt.Errorf("list item user id is required")
	}
	if i.ImdbID == "" {
		return fmt.Errorf("list item imdb id is required")
	}
	return nil
}

// NewListItem builds a watch list entry for userID from a catalog hit. Type defaults to "movie".
func NewListItem(userID string, m MovieSummary) *ListItem {
	kind := m.Type
	if kind == "" {
		kind = "movie"
	}
	return &ListItem{
		UserID: userID,
		ImdbID: m.ImdbID,
		Title:  m.Title,
		Year:   m.Year,
		Type:   kind,
		Poster: m.Poster,
	}
}

// MovieSummary is a single search hit from the movie database.
type MovieSummary struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// Rating is one third-party rating attached to a [MovieDetail].
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// MovieDetail is the full record for one title.
type MovieDetail struct {
	MovieSummary
	Rated      string   `json:"Rated"`
	Released   string   `json:"Released"`
	Runtime    string   `json:"Runtime"`
	Genre      string   `json:"Genre"`
	Director   string   `json:"Director"`
	Writer     string   `json:"Writer"`
	Actors     string   `json:"Actors"`
	Plot       string   `json:"Plot"`
	Language   string   `json:"Language"`
	Country    string   `json:"Country"`
	Awards     string   `json:"Awards"`
	Ratings    []Rating `json:"Ratings"`
	Metascore  string   `json:"Metascore"`
	ImdbRating string   `json:"imdbRating"`
	ImdbVotes  string   `json:"imdbVotes"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Query        string         `json:"query"`
	Page         int            `json:"page"`
	Items        []MovieSummary `json:"items"`
	TotalResults int            `json:"totalResults"`
}

// Account is a credential record held by the local identity provider.
//
// Federated accounts have an empty PasswordHash and carry the upstream subject.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	PhotoURL     string
	Provider     string
	Subject      string
	CreatedAt    time.Time
}

func (a *Account) Key() string { return a.ID }

func (a *Account) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("account id is required")
	}
	if a.Email == "" {
		return fmt.Errorf("account email is required")
	}
	return nil
}

// AccountRepository persists [Account] records.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetBySubject(ctx context.Context, provider, subject string) (*Account, error)
}
