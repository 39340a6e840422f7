package bolt

import (
	"errors"

	"go.etcd.io/bbolt"
)

// Clear drops the bucket of collection.
func (s *Store) Clear(collection string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket(s.root).DeleteBucket([]byte(collection))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}
