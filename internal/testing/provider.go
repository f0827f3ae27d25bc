package testing

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/freemovies/internal/identity"
	"github.com/desertthunder/freemovies/internal/shared"
)

type fakeAccount struct {
	id       string
	password string
	name     string
}

// FakeProvider is an in-memory [identity.Provider] that counts calls.
//
// Set the *Err fields to make the matching call fail.
type FakeProvider struct {
	hub *identity.Hub

	mu       sync.Mutex
	accounts map[string]fakeAccount

	Federated    *identity.Identity
	SignUpErr    error
	SignInErr    error
	FederatedErr error
	SignOutErr   error
	SubscribeErr error

	SubscribeCalls atomic.Int32
	SignUpCalls    atomic.Int32
	SignInCalls    atomic.Int32
	SignOutCalls   atomic.Int32
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{hub: identity.NewHub(), accounts: make(map[string]fakeAccount)}
}

// Calls returns the total number of provider calls, excluding Subscribe.
func (f *FakeProvider) Calls() int {
	return int(f.SignUpCalls.Load() + f.SignInCalls.Load() + f.SignOutCalls.Load())
}

// Subscriptions returns the number of live subscriptions.
func (f *FakeProvider) Subscriptions() int {
	return f.hub.Len()
}

// Emit publishes id as if the remote service changed it.
func (f *FakeProvider) Emit(id *identity.Identity) {
	f.hub.Publish(id)
}

func (f *FakeProvider) SignUp(ctx context.Context, email, password, displayName string) (*identity.Identity, error) {
	f.SignUpCalls.Add(1)
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}

	f.mu.Lock()
	if _, taken := f.accounts[email]; taken {
		f.mu.Unlock()
		return nil, &identity.Error{Code: identity.CodeEmailInUse}
	}
	acct := fakeAccount{id: shared.GenerateID(), password: password, name: displayName}
	f.accounts[email] = acct
	f.mu.Unlock()

	id := &identity.Identity{ID: acct.id, Email: email, DisplayName: displayName}
	f.hub.Publish(id)
	return id, nil
}

func (f *FakeProvider) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	f.SignInCalls.Add(1)
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}

	f.mu.Lock()
	acct, found := f.accounts[email]
	f.mu.Unlock()
	if !found {
		return nil, &identity.Error{Code: identity.CodeUserNotFound}
	}
	if acct.password != password {
		return nil, &identity.Error{Code: identity.CodeWrongPassword}
	}

	id := &identity.Identity{ID: acct.id, Email: email, DisplayName: acct.name}
	f.hub.Publish(id)
	return id, nil
}

func (f *FakeProvider) SignInFederated(ctx context.Context) (*identity.Identity, error) {
	if f.FederatedErr != nil {
		return nil, f.FederatedErr
	}
	if f.Federated == nil {
		return nil, &identity.Error{Code: identity.CodeNotAllowed}
	}
	f.hub.Publish(f.Federated)
	c := *f.Federated
	return &c, nil
}

func (f *FakeProvider) SignOut(ctx context.Context) error {
	f.SignOutCalls.Add(1)
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.hub.Publish(nil)
	return nil
}

func (f *FakeProvider) Subscribe(ctx context.Context) (*identity.Subscription, error) {
	f.SubscribeCalls.Add(1)
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	return f.hub.Subscribe(), nil
}

var _ identity.Provider = (*FakeProvider)(nil)
