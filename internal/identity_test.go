package internal

import (
	"context"
	"errors"
	"testing"
)

type fakeAuth struct {
	result *AuthResult
	err    error
	calls  int
	creds  Credentials
	reg    Registration
}

func (f *fakeAuth) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	f.calls++
	f.creds = creds
	return f.result, f.err
}

func (f *fakeAuth) Signup(ctx context.Context, reg Registration) (*AuthResult, error) {
	f.calls++
	f.reg = reg
	return f.result, f.err
}

func TestIdentityStore_LoginPersists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	auth := &fakeAuth{result: &AuthResult{User: User{ClientID: "C1", Name: "Asha Rao"}, Token: "tok-1"}}
	ids := NewIdentityStore(store, auth)

	id, err := ids.Login(ctx, Credentials{Email: "a@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if id.ClientID != "C1" || id.Token != "tok-1" {
		t.Errorf("Login() = %+v", id)
	}

	// a fresh store over the same persistence sees the identity
	again, err := NewIdentityStore(store, nil).Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if again.ClientID != "C1" || again.Token != "tok-1" || again.User == nil || again.User.Name != "Asha Rao" {
		t.Errorf("Current() = %+v", again)
	}
}

func TestIdentityStore_LoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		auth    *fakeAuth
		wantIs  error
		wantErr bool
	}{
		{
			name:   "protocol failure",
			auth:   &fakeAuth{err: &ProtocolError{Op: "login", Status: 401, Message: "Invalid credentials"}},
			wantIs: ErrProtocol,
		},
		{
			name:   "missing client id",
			auth:   &fakeAuth{result: &AuthResult{Token: "tok"}},
			wantIs: ErrDataAbsent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			ids := NewIdentityStore(store, tt.auth)

			_, err := ids.Login(context.Background(), Credentials{})
			if !errors.Is(err, tt.wantIs) {
				t.Errorf("Login() error = %v, want %v", err, tt.wantIs)
			}
			if len(store.Keys()) != 0 {
				t.Errorf("failed login persisted keys: %v", store.Keys())
			}
		})
	}
}

func TestIdentityStore_SignupPasswordMismatch(t *testing.T) {
	auth := &fakeAuth{}
	ids := NewIdentityStore(NewMemoryStore(), auth)

	_, err := ids.Signup(context.Background(), Registration{Password: "a", ConfirmPassword: "b"})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Signup() error = %v, want ErrPasswordMismatch", err)
	}
	if auth.calls != 0 {
		t.Error("Signup() must not call the collaborator when passwords differ")
	}
}

func TestIdentityStore_Signup(t *testing.T) {
	auth := &fakeAuth{result: &AuthResult{User: User{ClientID: "C7"}, Token: "t"}}
	ids := NewIdentityStore(NewMemoryStore(), auth)

	reg := Registration{Name: "N", Email: "e", Phone: "p", Password: "pw", ConfirmPassword: "pw"}
	id, err := ids.Signup(context.Background(), reg)
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if id.ClientID != "C7" || auth.reg.Name != "N" {
		t.Errorf("Signup() = %+v, reg = %+v", id, auth.reg)
	}
}

func TestIdentityStore_CurrentMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ids := NewIdentityStore(store, nil)

	if _, err := ids.Current(ctx); !errors.Is(err, ErrIdentityMissing) {
		t.Errorf("Current() error = %v, want ErrIdentityMissing", err)
	}
	if got := ids.ClientID(ctx); got != "" {
		t.Errorf("ClientID() = %q, want empty", got)
	}

	_ = store.Put(ctx, KeyClientID, []byte("  "))
	if _, err := ids.Current(ctx); !errors.Is(err, ErrIdentityMissing) {
		t.Errorf("Current() with blank id error = %v, want ErrIdentityMissing", err)
	}
}

func TestIdentityStore_UnreadableUserIgnored(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Put(ctx, KeyClientID, []byte("C1"))
	_ = store.Put(ctx, KeyCurrentUser, []byte("{oops"))

	id, err := NewIdentityStore(store, nil).Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if id.User != nil {
		t.Errorf("User = %+v, want nil", id.User)
	}
}

func TestIdentityStore_UpdateUserAndLogout(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ids := NewIdentityStore(store, nil)
	if err := ids.Save(ctx, Identity{ClientID: "C1", Token: "t", User: &User{ClientID: "C1", Name: "Old"}}); err != nil {
		t.Fatal(err)
	}
	_ = store.Put(ctx, KeyChatHistory, []byte("[]"))

	if err := ids.UpdateUser(ctx, User{ClientID: "C1", Name: "New"}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	id, _ := ids.Current(ctx)
	if id.User.Name != "New" {
		t.Errorf("User.Name = %q, want New", id.User.Name)
	}

	if err := ids.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	for _, key := range []string{KeyClientID, KeyToken, KeyCurrentUser} {
		if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s still present after logout", key)
		}
	}
	if _, err := store.Get(ctx, KeyChatHistory); err != nil {
		t.Error("logout must not clear the conversation")
	}
}
