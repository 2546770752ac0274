package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database with the kv table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create kv table: %v", err)
	}

	return db
}

// CreateTestDB creates a test database holding a logged-in client and a short chat
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	rows := []struct {
		key   string
		value string
	}{
		{key: "clientId", value: "C1"},
		{key: "token", value: "tok-123"},
		{key: "currentUser", value: `{"clientId":"C1","name":"Asha Rao","email":"asha@example.com"}`},
		{
			key: "chatHistory",
			value: `{"id":"conv-1","messages":[` +
				`{"sender":"bot","text":"Hello!","timestamp":"2025-10-01T09:30:00Z"},` +
				`{"sender":"user","text":"Book me in","timestamp":"2025-10-01T09:31:00Z"}]}`,
		},
	}

	stmt, err := db.Prepare("INSERT INTO kv (key, value) VALUES (?, ?)")
	if err != nil {
		db.Close()
		t.Fatalf("Failed to prepare insert statement: %v", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row.key, []byte(row.value)); err != nil {
			db.Close()
			t.Fatalf("Failed to insert %s: %v", row.key, err)
		}
	}

	return db
}

// InsertValue inserts or replaces a raw value in the kv table
func InsertValue(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", key, []byte(value)); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}
