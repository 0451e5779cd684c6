// Package sessionstore persists the last known authenticated identity.
//
// The record lives in two metadata rows: the authentication flag and the
// JSON-encoded user. Every write or clear touches both rows inside one
// transaction, so readers never observe half of a record.
package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/geotrack/tracker-client/internal/client/models"
	"github.com/geotrack/tracker-client/internal/client/repositories/metadata"
	"github.com/geotrack/tracker-client/internal/dbx"
)

const (
	keyAuthenticated = "is_authenticated"
	keyUser          = "user_data"

	flagTrue = "true"
)

// Store is the durable session record.
type Store interface {
	// Write persists user and sets the authentication flag.
	Write(ctx context.Context, user models.User) error
	// Read returns the flag and the stored user. Both are zero when the
	// record was never written or has been cleared.
	Read(ctx context.Context) (bool, *models.User, error)
	// Clear removes the record. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the session record in the client's metadata table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Write(ctx context.Context, user models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyUser, data); err != nil {
			return err
		}
		return repo.Set(ctx, keyAuthenticated, []byte(flagTrue))
	})
	if err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context) (bool, *models.User, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	flag, err := repo.Get(ctx, keyAuthenticated)
	if err != nil {
		return false, nil, fmt.Errorf("read session record: %w", err)
	}
	data, err := repo.Get(ctx, keyUser)
	if err != nil {
		return false, nil, fmt.Errorf("read session record: %w", err)
	}

	authenticated := string(flag) == flagTrue
	if data == nil {
		return authenticated, nil, nil
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return false, nil, fmt.Errorf("decode stored user: %w", err)
	}
	return authenticated, &user, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, keyUser); err != nil {
			return err
		}
		return repo.Delete(ctx, keyAuthenticated)
	})
	if err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}
