package internal

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/timebot/timebot-cli/testutil"
)

// openBackends returns one store per supported backend
func openBackends(t *testing.T) map[string]KVStore {
	t.Helper()
	dir := testutil.CreateTempDir(t)

	stores := map[string]KVStore{"memory": NewMemoryStore()}

	sqliteStore, err := OpenStore("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenStore(sqlite) error = %v", err)
	}
	stores["sqlite"] = sqliteStore

	boltStore, err := OpenStore("bolt", filepath.Join(dir, "state.bolt"))
	if err != nil {
		t.Fatalf("OpenStore(bolt) error = %v", err)
	}
	stores["bolt"] = boltStore

	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestKVStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Get(ctx, KeyClientID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
			}

			if err := store.Put(ctx, KeyClientID, []byte("C1")); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			got, err := store.Get(ctx, KeyClientID)
			if err != nil || string(got) != "C1" {
				t.Errorf("Get() = %q, %v; want C1", got, err)
			}

			if err := store.Put(ctx, KeyClientID, []byte("C2")); err != nil {
				t.Fatalf("Put(overwrite) error = %v", err)
			}
			got, _ = store.Get(ctx, KeyClientID)
			if string(got) != "C2" {
				t.Errorf("Get() after overwrite = %q, want C2", got)
			}

			// returned slices must not alias stored state
			got[0] = 'X'
			again, _ := store.Get(ctx, KeyClientID)
			if string(again) != "C2" {
				t.Errorf("stored value mutated through returned slice: %q", again)
			}

			if err := store.Delete(ctx, KeyClientID); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := store.Get(ctx, KeyClientID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
			}
			if err := store.Delete(ctx, KeyClientID); err != nil {
				t.Errorf("Delete(missing) error = %v, want nil", err)
			}
		})
	}
}

func TestGetPutJSON(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	user := User{ClientID: "C1", Name: "Asha Rao"}
	if err := PutJSON(ctx, store, KeyCurrentUser, user); err != nil {
		t.Fatalf("PutJSON() error = %v", err)
	}
	var got User
	if err := GetJSON(ctx, store, KeyCurrentUser, &got); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got != user {
		t.Errorf("GetJSON() = %+v, want %+v", got, user)
	}

	_ = store.Put(ctx, KeyCurrentUser, []byte("{broken"))
	err := GetJSON(ctx, store, KeyCurrentUser, &got)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("GetJSON(broken) error = %v, want *ParseError", err)
	}

	if err := GetJSON(ctx, store, "absent", &got); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJSON(absent) error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Keys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Put(ctx, KeyToken, []byte("t"))
	_ = store.Put(ctx, KeyClientID, []byte("c"))

	keys := store.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != KeyClientID || keys[1] != KeyToken {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestOpenStore_Unsupported(t *testing.T) {
	if _, err := OpenStore("redis", ""); err == nil {
		t.Error("OpenStore(redis) expected error")
	}
}
