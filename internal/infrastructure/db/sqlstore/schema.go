package sqlstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		name            VARCHAR NOT NULL,
		email           VARCHAR NOT NULL,
		hashed_password VARCHAR NOT NULL,
		enabled         BOOLEAN NOT NULL DEFAULT TRUE,
		deleted         BOOLEAN NOT NULL DEFAULT FALSE,
		change_pwd      BOOLEAN NOT NULL DEFAULT FALSE,
		role_id         INTEGER REFERENCES roles (id),
		last_login      TIMESTAMP,
		pwd_updated_on  TIMESTAMP,
		created_by      INTEGER REFERENCES users (id),
		created_on      TIMESTAMP NOT NULL,
		modified_by     INTEGER REFERENCES users (id),
		modified_on     TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)`,
	`CREATE INDEX IF NOT EXISTS users_role_id_idx ON users (role_id)`,
	`CREATE TABLE IF NOT EXISTS bootstrap (
		id         INTEGER PRIMARY KEY CHECK (id = 1),
		user_id    INTEGER NOT NULL REFERENCES users (id),
		claimed_on TIMESTAMP NOT NULL
	)`,
}

// Migrate creates the schema. It is safe to run on every start.
func Migrate(ctx context.Context, db bun.IDB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
