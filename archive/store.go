/*
	Photark
	Copyright (c) 2026 The Photark Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // register the sqlite3 driver
	"go.uber.org/zap"
)

//go:embed schema.sql
var createDB string

// Store is a durable byte-key/byte-value table backed by a single
// SQLite file. One process holds one exclusive handle per store, and
// all operations are serialized by a store-scoped lock, so a single
// Store may be shared freely by concurrent workers.
//
// Get, Put, and Delete never return errors: I/O and serialization
// faults are logged with their detail and collapsed into sentinel
// results (absent / failed), so callers cannot distinguish "not found"
// from "error". The only fault that escapes this layer is a failure to
// open the store in the first place.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// OpenStore opens (creating if necessary) the store at the given file
// path and provisions its schema. This is the one unrecoverable
// failure point of the persistence layer; everything after a
// successful open degrades per-operation instead of erroring.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("making store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening store database: %w", err)
	}

	if err := provisionStore(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:  db,
		log: Log.Named("store").With(zap.String("path", path)),
	}, nil
}

func provisionStore(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createDB); err != nil {
		return fmt.Errorf("setting up store database: %w", err)
	}

	// assign this store a persistent UUID, and store a version so
	// readers can know how to work with this file
	storeID := uuid.New()
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO store (key, value) VALUES (?, ?), (?, ?)`,
		"id", storeID.String(),
		"version", "1",
	)
	if err != nil {
		return fmt.Errorf("persisting store UUID and version: %w", err)
	}

	return nil
}

// Get returns the value stored under key, or (nil, false) if the key
// is absent or the read failed.
func (s *Store) Get(key []byte) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key=? LIMIT 1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Error("loading value",
			zap.Binary("key", key),
			zap.String("operation", "get"),
			zap.Error(err))
		return nil, false
	}
	return value, true
}

// Put stores value under key and reports whether the write took
// effect. With overwrite false, Put is a conditional insert: it fails
// without mutating anything if the key already exists, which is the
// tie-break for concurrent first sightings of a fingerprint.
func (s *Store) Put(key, value []byte, overwrite bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`
	if overwrite {
		query = `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value=excluded.value`
	}

	res, err := s.db.Exec(query, key, value)
	if err != nil {
		s.log.Error("saving value",
			zap.Binary("key", key),
			zap.String("operation", "put"),
			zap.Bool("overwrite", overwrite),
			zap.Error(err))
		return false
	}

	affected, err := res.RowsAffected()
	if err != nil {
		s.log.Error("counting affected rows",
			zap.Binary("key", key),
			zap.String("operation", "put"),
			zap.Error(err))
		return false
	}

	return affected > 0
}

// Delete removes key from the store. It is a no-op if the key is
// absent.
func (s *Store) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM kv WHERE key=?`, key); err != nil {
		s.log.Error("deleting value",
			zap.Binary("key", key),
			zap.String("operation", "delete"),
			zap.Error(err))
	}
}

// Close releases the store's database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
