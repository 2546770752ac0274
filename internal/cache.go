package internal

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const snapshotCacheVersion = "1.0"

// SnapshotCache keeps the last fetched appointment set per query on disk
type SnapshotCache struct {
	cacheDir string
	now      func() time.Time
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	CacheVersion string    `json:"cache_version" yaml:"cache_version"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// SnapshotIndexEntry represents one cached query in the index
type SnapshotIndexEntry struct {
	Key         string    `yaml:"key"`
	ClientID    string    `yaml:"client_id"`
	ProviderRef string    `yaml:"provider_ref,omitempty"`
	FetchedAt   time.Time `yaml:"fetched_at"`
	Count       int       `yaml:"count"`
}

// SnapshotIndex represents the YAML index of all cached queries
type SnapshotIndex struct {
	Entries  []SnapshotIndexEntry `yaml:"entries"`
	Metadata CacheMetadata        `yaml:"metadata"`
}

// Snapshot is one cached appointment set
type Snapshot struct {
	ClientID     string        `json:"client_id"`
	ProviderRef  string        `json:"provider_ref,omitempty"`
	FetchedAt    time.Time     `json:"fetched_at"`
	Appointments []Appointment `json:"appointments"`
}

// NewSnapshotCache creates a new snapshot cache rooted at cacheDir
func NewSnapshotCache(cacheDir string) *SnapshotCache {
	return &SnapshotCache{cacheDir: cacheDir, now: time.Now}
}

// SnapshotKey derives the cache key for a query
func SnapshotKey(clientID, providerRef string) string {
	sum := sha1.Sum([]byte(clientID + "\x00" + providerRef))
	return hex.EncodeToString(sum[:8])
}

// EnsureCacheDir ensures the cache directory exists
func (c *SnapshotCache) EnsureCacheDir() error {
	return os.MkdirAll(c.cacheDir, 0755)
}

// GetIndexPath returns the path to the snapshot index YAML file
func (c *SnapshotCache) GetIndexPath() string {
	return filepath.Join(c.cacheDir, "appointments.yaml")
}

// GetSnapshotPath returns the path to a snapshot file
func (c *SnapshotCache) GetSnapshotPath(key string) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("appointments_%s.json", key))
}

// GetCacheDir returns the cache directory path
func (c *SnapshotCache) GetCacheDir() string {
	return c.cacheDir
}

// LoadIndex loads the snapshot index
func (c *SnapshotCache) LoadIndex() (*SnapshotIndex, error) {
	data, err := os.ReadFile(c.GetIndexPath())
	if err != nil {
		return nil, err
	}

	var index SnapshotIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

// SaveIndex saves the snapshot index
func (c *SnapshotCache) SaveIndex(index *SnapshotIndex) error {
	if err := c.EnsureCacheDir(); err != nil {
		return err
	}
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(c.GetIndexPath(), data, 0644)
}

// Save stores a snapshot and updates the index
func (c *SnapshotCache) Save(snap *Snapshot) error {
	if err := c.EnsureCacheDir(); err != nil {
		return err
	}
	key := SnapshotKey(snap.ClientID, snap.ProviderRef)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(c.GetSnapshotPath(key), data, 0644); err != nil {
		return err
	}

	now := c.now()
	index, err := c.LoadIndex()
	if err != nil || index == nil {
		index = &SnapshotIndex{
			Entries:  make([]SnapshotIndexEntry, 0, 1),
			Metadata: CacheMetadata{CacheVersion: snapshotCacheVersion, CreatedAt: now},
		}
	}
	index.Metadata.UpdatedAt = now

	entry := SnapshotIndexEntry{
		Key:         key,
		ClientID:    snap.ClientID,
		ProviderRef: snap.ProviderRef,
		FetchedAt:   snap.FetchedAt,
		Count:       len(snap.Appointments),
	}
	found := false
	for i := range index.Entries {
		if index.Entries[i].Key == key {
			index.Entries[i] = entry
			found = true
			break
		}
	}
	if !found {
		index.Entries = append(index.Entries, entry)
	}
	return c.SaveIndex(index)
}

// Load returns the snapshot for a query if it is younger than ttl.
// A ttl of zero disables the age check.
func (c *SnapshotCache) Load(clientID, providerRef string, ttl time.Duration) (*Snapshot, bool, error) {
	data, err := os.ReadFile(c.GetSnapshotPath(SnapshotKey(clientID, providerRef)))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.ClientID != clientID || snap.ProviderRef != providerRef {
		return nil, false, nil
	}
	if ttl > 0 && c.now().Sub(snap.FetchedAt) > ttl {
		return &snap, false, nil
	}
	return &snap, true, nil
}

// ClearCache removes every snapshot and the index
func (c *SnapshotCache) ClearCache() error {
	index, err := c.LoadIndex()
	if err == nil {
		for _, entry := range index.Entries {
			_ = os.Remove(c.GetSnapshotPath(entry.Key))
		}
	}
	if err := os.Remove(c.GetIndexPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
