// Package store provides bbolt-backed local persistence for users and the
// last-known recommendation list.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"kinetic/internal/domain"
)

var (
	bucketUsers           = []byte("users")
	bucketRecommendations = []byte("recommendations")
	keyCurrent            = []byte("current")
)

type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketUsers); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketRecommendations); err != nil {
			return err
		}
		return nil
	})
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListUsers returns all registered users sorted by creation time. An empty
// store yields an empty slice, never nil.
func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).ForEach(func(_, value []byte) error {
			var user domain.User
			if err := json.Unmarshal(value, &user); err != nil {
				return fmt.Errorf("decode user record: %w", err)
			}
			users = append(users, user)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Name < users[j].Name
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// PutUser inserts or replaces a user, generating an id and creation time
// when missing.
func (s *Store) PutUser(_ context.Context, user domain.User) (domain.User, error) {
	if strings.TrimSpace(user.Name) == "" {
		return domain.User{}, errors.New("user name is required")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	value, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("encode user record: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUsers).Put([]byte(user.ID), value)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SaveRecommendations replaces the cached recommendation list.
func (s *Store) SaveRecommendations(_ context.Context, recs []domain.Recommendation) error {
	value, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecommendations).Put(keyCurrent, value)
	})
}

// LoadRecommendations returns the cached list, or nil when none was saved.
func (s *Store) LoadRecommendations(_ context.Context) ([]domain.Recommendation, error) {
	var recs []domain.Recommendation
	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(bucketRecommendations).Get(keyCurrent)
		if value == nil {
			return nil
		}
		return json.Unmarshal(value, &recs)
	})
	if err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return recs, nil
}
