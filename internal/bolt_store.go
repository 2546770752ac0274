package internal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("client_state")

// BoltStore is a KVStore backed by a bbolt file
type BoltStore struct {
	db   *bolt.DB
	path string
}

// OpenBoltStore opens (creating if needed) a bbolt database at path
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return &BoltStore{db: db, path: path}, nil
}

// Get implements KVStore
func (b *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// bbolt values are only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	if err == ErrNotFound {
		return nil, err
	}
	if err != nil {
		return nil, &StorageError{Path: b.path, Op: "get", Err: err}
	}
	return out, nil
}

// Put implements KVStore
func (b *BoltStore) Put(_ context.Context, key string, value []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), value)
	})
	if err != nil {
		return &StorageError{Path: b.path, Op: "put", Err: err}
	}
	return nil
}

// Delete implements KVStore
func (b *BoltStore) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
	if err != nil {
		return &StorageError{Path: b.path, Op: "delete", Err: err}
	}
	return nil
}

// Close implements KVStore
func (b *BoltStore) Close() error {
	return b.db.Close()
}
