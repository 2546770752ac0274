package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/timebot/timebot-cli/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates missing directories",
			setup: func(t *testing.T) string {
				return filepath.Join(testutil.CreateTempDir(t), "nested", "dir", "state.db")
			},
		},
		{
			name: "reopens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(testutil.CreateTempDir(t), "state.db")
				db, err := OpenDatabase(path)
				if err != nil {
					t.Fatalf("setup OpenDatabase() error = %v", err)
				}
				db.Close()
				return path
			},
		},
		{
			name: "parent is a file",
			setup: func(t *testing.T) string {
				dir := testutil.CreateTempDir(t)
				blocker := filepath.Join(dir, "blocker")
				if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
					t.Fatal(err)
				}
				return filepath.Join(blocker, "state.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			db, err := OpenDatabase(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer db.Close()

			var name string
			if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name); err != nil {
				t.Errorf("kv table missing: %v", err)
			}
		})
	}
}

func TestSQLiteStore_ReadsSeededState(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(testutil.CreateTestDB(t))
	defer store.Close()

	ids := NewIdentityStore(store, nil)
	id, err := ids.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if id.ClientID != "C1" || id.Token != "tok-123" {
		t.Errorf("Current() = %+v", id)
	}
	if id.User == nil || id.User.Name != "Asha Rao" {
		t.Errorf("Current().User = %+v", id.User)
	}

	var conv Conversation
	if err := GetJSON(ctx, store, KeyChatHistory, &conv); err != nil {
		t.Fatalf("GetJSON(chatHistory) error = %v", err)
	}
	if conv.ID != "conv-1" || len(conv.Messages) != 2 {
		t.Errorf("conversation = %+v", conv)
	}
}

func TestSQLiteStore_Keys(t *testing.T) {
	ctx := context.Background()
	db := testutil.CreateInMemoryDB(t)
	testutil.InsertValue(t, db, "chatHistory", "[]")
	testutil.InsertValue(t, db, "clientId", "C1")
	testutil.InsertValue(t, db, "currentUser", "{}")
	store := NewSQLiteStore(db)
	defer store.Close()

	keys, err := store.Keys(ctx, "c%")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"chatHistory", "clientId", "currentUser"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	keys, _ = store.Keys(ctx, "token%")
	if len(keys) != 0 {
		t.Errorf("Keys(token%%) = %v, want none", keys)
	}
}

func TestSQLiteStore_ClosedDatabase(t *testing.T) {
	store := NewSQLiteStore(testutil.CreateInMemoryDB(t))
	store.Close()

	_, err := store.Get(context.Background(), KeyClientID)
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("Get() on closed db error = %v, want *StorageError", err)
	}
}
