// Package bolt implements the player's durable state on a BoltDB file:
// the paired device identifier and the last accepted content snapshot.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
)

// FileName is the database file created inside the state directory
const FileName = "painel.db"

// Bucket names
var (
	bucketIdentity  = []byte("identity")
	bucketSnapshots = []byte("snapshots")
)

var keyDevice = []byte("device")

// Store implements identity.Store and snapshot.Cache using BoltDB
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the state database in dir
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(dir, FileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketIdentity, bucketSnapshots} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock
func (s *Store) Close() error {
	return s.db.Close()
}

// Load implements identity.Store
func (s *Store) Load(ctx context.Context) (identity.DeviceID, error) {
	var id identity.DeviceID
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketIdentity).Get(keyDevice)
		if len(v) == 0 {
			return perrors.ErrNotPaired
		}
		id = identity.DeviceID(v)
		return nil
	})
	return id, err
}

// Save implements identity.Store
func (s *Store) Save(ctx context.Context, id identity.DeviceID) error {
	if id == "" {
		return perrors.Validation("bolt.Save", "empty device id")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIdentity).Put(keyDevice, []byte(id))
	})
}

// Delete implements identity.Store. Cached snapshots of the device are
// dropped with it.
func (s *Store) Delete(ctx context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketIdentity).Delete(keyDevice); err != nil {
			return err
		}
		if err := tx.DeleteBucket(bucketSnapshots); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketSnapshots)
		return err
	})
}

// SaveSnapshot implements snapshot.Cache
func (s *Store) SaveSnapshot(ctx context.Context, id identity.DeviceID, snap *v1alpha1.ContentSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSnapshots).Put([]byte(id), data)
	})
}

// LoadSnapshot implements snapshot.Cache
func (s *Store) LoadSnapshot(ctx context.Context, id identity.DeviceID) (*v1alpha1.ContentSnapshot, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSnapshots).Get([]byte(id))
		if v == nil {
			return perrors.ErrNotFound
		}
		// v is only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var snap v1alpha1.ContentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	return &snap, nil
}
