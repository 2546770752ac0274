package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Credentials are the login form values
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration are the signup form values
type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// AuthResult is the auth collaborator's success response
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Authenticator is the external auth collaborator
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Signup(ctx context.Context, reg Registration) (*AuthResult, error)
}

// ErrPasswordMismatch is returned by Signup before any request is issued
var ErrPasswordMismatch = errors.New("passwords do not match")

// IdentityStore owns the session identity and its persisted form.
// It is created once and passed to every component that needs the identity.
type IdentityStore struct {
	store KVStore
	auth  Authenticator
}

// NewIdentityStore creates an IdentityStore over the given persistence port
func NewIdentityStore(store KVStore, auth Authenticator) *IdentityStore {
	return &IdentityStore{store: store, auth: auth}
}

// Login authenticates and persists the resulting identity
func (s *IdentityStore) Login(ctx context.Context, creds Credentials) (Identity, error) {
	if s.auth == nil {
		return Identity{}, errors.New("no auth collaborator configured")
	}
	res, err := s.auth.Login(ctx, creds)
	if err != nil {
		return Identity{}, err
	}
	return s.establish(ctx, res)
}

// Signup registers a new account and persists the resulting identity
func (s *IdentityStore) Signup(ctx context.Context, reg Registration) (Identity, error) {
	if reg.Password != reg.ConfirmPassword {
		return Identity{}, ErrPasswordMismatch
	}
	if s.auth == nil {
		return Identity{}, errors.New("no auth collaborator configured")
	}
	res, err := s.auth.Signup(ctx, reg)
	if err != nil {
		return Identity{}, err
	}
	return s.establish(ctx, res)
}

func (s *IdentityStore) establish(ctx context.Context, res *AuthResult) (Identity, error) {
	if res == nil || strings.TrimSpace(res.User.ClientID) == "" {
		return Identity{}, &DataAbsentError{Entity: "user"}
	}
	id := Identity{ClientID: res.User.ClientID, Token: res.Token, User: &res.User}
	if err := s.Save(ctx, id); err != nil {
		return Identity{}, err
	}
	LogDebug("Session established for client %s", id.ClientID)
	return id, nil
}

// Save persists an identity
func (s *IdentityStore) Save(ctx context.Context, id Identity) error {
	if err := s.store.Put(ctx, KeyClientID, []byte(id.ClientID)); err != nil {
		return fmt.Errorf("failed to save client id: %w", err)
	}
	if err := s.store.Put(ctx, KeyToken, []byte(id.Token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if id.User != nil {
		if err := PutJSON(ctx, s.store, KeyCurrentUser, id.User); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
	}
	return nil
}

// Current returns the persisted identity or ErrIdentityMissing
func (s *IdentityStore) Current(ctx context.Context) (Identity, error) {
	clientID, err := s.store.Get(ctx, KeyClientID)
	if errors.Is(err, ErrNotFound) || (err == nil && strings.TrimSpace(string(clientID)) == "") {
		return Identity{}, &IdentityMissingError{Op: "identity"}
	}
	if err != nil {
		return Identity{}, err
	}

	id := Identity{ClientID: string(clientID)}
	if token, err := s.store.Get(ctx, KeyToken); err == nil {
		id.Token = string(token)
	}
	var user User
	if err := GetJSON(ctx, s.store, KeyCurrentUser, &user); err == nil {
		id.User = &user
	} else if !errors.Is(err, ErrNotFound) {
		LogWarn("Ignoring unreadable stored user: %v", err)
	}
	return id, nil
}

// ClientID returns the current client id, or "" when logged out
func (s *IdentityStore) ClientID(ctx context.Context) string {
	id, err := s.Current(ctx)
	if err != nil {
		return ""
	}
	return id.ClientID
}

// UpdateUser replaces the stored user snapshot
func (s *IdentityStore) UpdateUser(ctx context.Context, user User) error {
	return PutJSON(ctx, s.store, KeyCurrentUser, user)
}

// Logout clears every persisted identity key
func (s *IdentityStore) Logout(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyCurrentUser, KeyClientID, KeyToken} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
