package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/timebot/timebot-cli/testutil"
)

func newTestCache(t *testing.T, now time.Time) *SnapshotCache {
	t.Helper()
	c := NewSnapshotCache(filepath.Join(testutil.CreateTempDir(t), "cache"))
	c.now = func() time.Time { return now }
	return c
}

func TestSnapshotCache_Paths(t *testing.T) {
	cacheDir := testutil.CreateTempDir(t)
	c := NewSnapshotCache(cacheDir)

	if got := c.GetIndexPath(); got != filepath.Join(cacheDir, "appointments.yaml") {
		t.Errorf("GetIndexPath() = %q", got)
	}
	key := SnapshotKey("C1", "P1")
	if got := c.GetSnapshotPath(key); got != filepath.Join(cacheDir, "appointments_"+key+".json") {
		t.Errorf("GetSnapshotPath() = %q", got)
	}
	if c.GetCacheDir() != cacheDir {
		t.Errorf("GetCacheDir() = %q", c.GetCacheDir())
	}
}

func TestSnapshotKey(t *testing.T) {
	if SnapshotKey("C1", "") == SnapshotKey("C1", "P1") {
		t.Error("provider ref must change the key")
	}
	if SnapshotKey("C1P", "1") == SnapshotKey("C1", "P1") {
		t.Error("key must not depend on concatenation only")
	}
	if got := SnapshotKey("C1", "P1"); len(got) != 16 || got != SnapshotKey("C1", "P1") {
		t.Errorf("SnapshotKey() = %q, want stable 16 hex chars", got)
	}
}

func TestSnapshotCache_SaveAndLoad(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(t, now)

	snap := &Snapshot{
		ClientID:     "C1",
		ProviderRef:  "P1",
		FetchedAt:    now.Add(-5 * time.Minute),
		Appointments: []Appointment{CreateTestAppointment("a1", StatusUpcoming)},
	}
	if err := c.Save(snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tests := []struct {
		name        string
		clientID    string
		providerRef string
		ttl         time.Duration
		wantSnap    bool
		wantFresh   bool
	}{
		{"fresh", "C1", "P1", 10 * time.Minute, true, true},
		{"expired", "C1", "P1", time.Minute, true, false},
		{"no ttl", "C1", "P1", 0, true, true},
		{"other provider", "C1", "P2", time.Hour, false, false},
		{"other client", "C2", "P1", time.Hour, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fresh, err := c.Load(tt.clientID, tt.providerRef, tt.ttl)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if (got != nil) != tt.wantSnap || fresh != tt.wantFresh {
				t.Fatalf("Load() = (%v, %v), want snapshot %v fresh %v", got != nil, fresh, tt.wantSnap, tt.wantFresh)
			}
			if got != nil && (len(got.Appointments) != 1 || got.Appointments[0].AppointmentID != "a1") {
				t.Errorf("Load() appointments = %+v", got.Appointments)
			}
		})
	}
}

func TestSnapshotCache_Index(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	c := newTestCache(t, now)

	for _, ref := range []string{"", "P1", "P1"} {
		snap := &Snapshot{ClientID: "C1", ProviderRef: ref, FetchedAt: now}
		if err := c.Save(snap); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	index, err := c.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	if len(index.Entries) != 2 {
		t.Errorf("index entries = %d, want 2 (saving the same query replaces its entry)", len(index.Entries))
	}
	if index.Metadata.CacheVersion != snapshotCacheVersion {
		t.Errorf("CacheVersion = %q", index.Metadata.CacheVersion)
	}
	if !index.Metadata.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", index.Metadata.UpdatedAt, now)
	}
}

func TestSnapshotCache_CorruptSnapshot(t *testing.T) {
	c := newTestCache(t, time.Now())
	if err := c.EnsureCacheDir(); err != nil {
		t.Fatal(err)
	}
	path := c.GetSnapshotPath(SnapshotKey("C1", ""))
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := c.Load("C1", "", 0); err == nil {
		t.Error("Load() of corrupt snapshot should fail")
	}
}

func TestSnapshotCache_ClearCache(t *testing.T) {
	now := time.Now()
	c := newTestCache(t, now)
	if err := c.Save(&Snapshot{ClientID: "C1", FetchedAt: now}); err != nil {
		t.Fatal(err)
	}

	if err := c.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if _, err := os.Stat(c.GetIndexPath()); !os.IsNotExist(err) {
		t.Error("index still present after ClearCache()")
	}
	if snap, _, _ := c.Load("C1", "", 0); snap != nil {
		t.Error("snapshot still present after ClearCache()")
	}

	// clearing an empty cache is fine
	if err := c.ClearCache(); err != nil {
		t.Errorf("ClearCache() on empty cache error = %v", err)
	}
}
