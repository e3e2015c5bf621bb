package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidJSON is returned when a value handed to Set is not a JSON document.
var ErrInvalidJSON = errors.New("value is not valid JSON")

// Get returns the raw JSON stored under key. The boolean is false when the
// key has never been written or was removed.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get blob %q: %w", key, err)
	}
	return []byte(value), true, nil
}

// Set replaces the value stored under key. A single upsert statement keeps the
// write atomic per key.
func (s *Store) Set(key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("set blob %q: %w", key, ErrInvalidJSON)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), now,
	)
	if err != nil {
		return fmt.Errorf("set blob %q: %w", key, err)
	}
	return nil
}

// SetMany writes every entry in one transaction, so either all keys of a
// logical mutation are stored or none are.
func (s *Store) SetMany(values map[string][]byte) error {
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if !json.Valid(v) {
			return fmt.Errorf("set blob %q: %w", k, ErrInvalidJSON)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, k := range keys {
		_, err := tx.Exec(
			`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, string(values[k]), now,
		)
		if err != nil {
			return fmt.Errorf("set blob %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit blobs: %w", err)
	}
	return nil
}

func (s *Store) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM blobs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("remove blob %q: %w", key, err)
	}
	return nil
}

// Keys lists every stored key in lexical order.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM blobs ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// UpdatedAt reports when key was last written.
func (s *Store) UpdatedAt(key string) (time.Time, error) {
	var ts string
	err := s.db.QueryRow(`SELECT updated_at FROM blobs WHERE key = ?`, key).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("get blob %q: %w", key, err)
	}
	t, _ := time.Parse(time.RFC3339, ts)
	return t, nil
}
