package rules

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresKeyStore implements KeyStore backed by PostgreSQL
type PostgresKeyStore struct {
	db *sql.DB
}

// NewPostgresKeyStore creates a new PostgreSQL-backed KeyStore
func NewPostgresKeyStore(db *sql.DB) *PostgresKeyStore {
	return &PostgresKeyStore{db: db}
}

// Add inserts a new key into the database
func (s *PostgresKeyStore) Add(key *StoredKey) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM keys WHERE id = $1)
	`, key.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check key existence: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrKeyExists, key.ID)
	}

	now := time.Now().UTC()
	key.CreatedAt = now
	key.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO keys (id, name, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, key.ID, key.Name, key.Source, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert key: %w", err)
	}

	return nil
}

// Get retrieves a key by ID
func (s *PostgresKeyStore) Get(id string) (*StoredKey, error) {
	var key StoredKey
	err := s.db.QueryRow(`
		SELECT id, name, source, created_at, updated_at
		FROM keys
		WHERE id = $1
	`, id).Scan(
		&key.ID,
		&key.Name,
		&key.Source,
		&key.CreatedAt,
		&key.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	return &key, nil
}

// List returns all keys, oldest first
func (s *PostgresKeyStore) List() ([]*StoredKey, error) {
	rows, err := s.db.Query(`
		SELECT id, name, source, created_at, updated_at
		FROM keys
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []*StoredKey
	for rows.Next() {
		var k StoredKey
		if err := rows.Scan(&k.ID, &k.Name, &k.Source, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, &k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}

	return keys, nil
}

// Update modifies an existing key's name and source
func (s *PostgresKeyStore) Update(key *StoredKey) error {
	key.UpdatedAt = time.Now().UTC()

	var createdAt time.Time
	err := s.db.QueryRow(`
		UPDATE keys
		SET name = $1, source = $2, updated_at = $3
		WHERE id = $4
		RETURNING created_at
	`, key.Name, key.Source, key.UpdatedAt, key.ID).Scan(&createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update key: %w", err)
	}

	key.CreatedAt = createdAt
	return nil
}

// Delete removes a key from the database
func (s *PostgresKeyStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM keys
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}

	return nil
}
