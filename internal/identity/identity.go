package identity

import (
	"context"
	"errors"
	"fmt"
)

// Identity is the provider's view of a signed-in user.
type Identity struct {
	ID          string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Provider is the remote authentication service.
type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	// SignInFederated runs the browser based Google flow.
	SignInFederated(ctx context.Context) (*Identity, error)
	SignOut(ctx context.Context) error
	// Subscribe returns a stream of identity changes, starting with the current identity.
	Subscribe(ctx context.Context) (*Subscription, error)
}

const (
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodePopupClosed       = "auth/popup-closed-by-user"
	CodePopupCancelled    = "auth/cancelled-popup-request"
	CodeNotAllowed        = "auth/operation-not-allowed"
	CodeInternal          = "auth/internal-error"
)

// Error is a provider failure carrying an "auth/..." code.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Code returns the provider code carried by err, or "" when err is not an *[Error].
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
