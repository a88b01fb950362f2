// ModSentry - Behavioral Moderation and Trust Engine for Chat Platforms
// Copyright 2026 ModSentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modsentry/modsentry

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/modsentry/modsentry/internal/logging"
)

// profileKeyPrefix namespaces profile keys inside the Badger keyspace.
const profileKeyPrefix = "profile:"

// BadgerStore is the durable profile store. Profiles are stored as JSON
// under "profile:<guild>/<user>" keys; writes are last-writer-wins which is
// safe because mutation is serialized per user upstream.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) the profile database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty for the hot path

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	logging.Info().Str("path", path).Msg("profile store opened")
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already-open Badger database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get loads a profile by key.
func (s *BadgerStore) Get(ctx context.Context, userID, guildID string) (*SecurityProfile, error) {
	var p SecurityProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profileKeyPrefix + Key(userID, guildID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save upserts a profile.
func (s *BadgerStore) Save(ctx context.Context, p *SecurityProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile %s: %w", p.Key(), err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profileKeyPrefix+p.Key()), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes a profile.
func (s *BadgerStore) Delete(ctx context.Context, userID, guildID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(profileKeyPrefix + Key(userID, guildID)))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ForEach visits every stored profile.
func (s *BadgerStore) ForEach(ctx context.Context, fn func(*SecurityProfile) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profileKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p SecurityProfile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			})
			if err != nil {
				// A corrupt record is skipped, not fatal to the sweep.
				logging.Warn().Err(err).Msg("skipping undecodable profile record")
				continue
			}
			if err := fn(&p); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of stored profiles.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(profileKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
