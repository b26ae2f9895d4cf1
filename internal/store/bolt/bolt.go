// Package bolt provides a BoltDB-backed document store.
//
// BoltDB keeps all data in a single file, which matches the deployment
// profile of this backend: one shop, one process, no external database
// required. It is the default persistence backend.
package bolt

import (
	"context"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "documents"

type Store struct {
	db *bolt.DB
}

// New opens (or creates) the database file at path and ensures the documents
// bucket exists. CreateBucketIfNotExists is safe to run on every startup.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	var blob []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v == nil {
			return nil
		}
		blob = make([]byte, len(v))
		copy(blob, v)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return blob, blob != nil, nil
}

func (s *Store) Save(_ context.Context, key string, blob []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), blob)
	})
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}
