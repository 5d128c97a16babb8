package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no value is stored under the key
var ErrNotFound = errors.New("key not found")

// Get returns the value stored under key
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Set stores value under key, replacing any previous value
func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now())
	return err
}

// Remove deletes the value stored under key. Removing a missing key is a no-op.
func (db *DB) Remove(ctx context.Context, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys returns all stored keys in lexical order
func (db *DB) Keys(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
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

// Update reads the value under key, passes it to fn and stores the result,
// all inside one transaction. found is false when the key is absent.
// An error from fn aborts the update and is returned unchanged.
//
// fn runs while the only connection is held by the transaction, so it
// must not call back into db.
func (db *DB) Update(ctx context.Context, key string, fn func(current []byte, found bool) ([]byte, error)) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		var current string
		found := true
		err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			found = false
		} else if err != nil {
			return err
		}

		next, err := fn([]byte(current), found)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, string(next), time.Now())
		return err
	})
}
