package tournament

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/perprug/royale/internal/pkg/common"
	bolt "go.etcd.io/bbolt"
)

var ErrBucketNotFound = errors.New("tournament bucket doesn't exist")

// Store is the single-slot persistence contract. Load returns nil when no
// tournament has ever been saved; Save must be all-or-nothing, so a failed
// write never leaves a half-updated record behind.
type Store interface {
	Load() (*Tournament, error)
	Save(t *Tournament) error
}

const currentKey = "current"

// BoltStore keeps the current tournament as a JSON document under a fixed
// key. Each Save overwrites the previous round, matching the single-slot
// history contract.
type BoltStore struct {
	DB *bolt.DB
}

func NewBoltStore(db *bolt.DB) *BoltStore {
	return &BoltStore{DB: db}
}

func (s *BoltStore) Load() (*Tournament, error) {
	var result *Tournament

	err := s.DB.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(common.TournamentBucket))
		if bucket == nil {
			return ErrBucketNotFound
		}

		raw := bucket.Get([]byte(currentKey))
		if raw == nil {
			return nil
		}

		var t Tournament

		err := json.Unmarshal(raw, &t)
		if err != nil {
			return fmt.Errorf("failed to unmarshal tournament: %w", err)
		}

		result = &t

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}

	return result, nil
}

func (s *BoltStore) Save(t *Tournament) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal tournament: %w", err)
	}

	err = s.DB.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(common.TournamentBucket))
		if bucket == nil {
			return ErrBucketNotFound
		}

		err := bucket.Put([]byte(currentKey), raw)
		if err != nil {
			return fmt.Errorf("failed to put tournament: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save tournament: %w", err)
	}

	return nil
}
