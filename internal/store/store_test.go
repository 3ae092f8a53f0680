package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	d, err := sql.Open("sqlite", "file::memory:?cache=shared&mode=rwc&_journal_mode=WAL")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	// Create tables manually for test
	_, err = d.Exec(`
		CREATE TABLE items (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			name             TEXT NOT NULL,
			clay_type        TEXT NOT NULL,
			glaze            TEXT NOT NULL DEFAULT '',
			location         TEXT NOT NULL,
			note             TEXT NOT NULL DEFAULT '',
			current_status   TEXT NOT NULL DEFAULT 'greenware',
			created_datetime TIMESTAMP NOT NULL,
			measurements     TEXT
		);

		CREATE TABLE photos (
			id          TEXT PRIMARY KEY,
			item_id     TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			storage_key TEXT NOT NULL,
			stage       TEXT NOT NULL,
			image_note  TEXT NOT NULL DEFAULT '',
			file_name   TEXT NOT NULL DEFAULT '',
			mime_type   TEXT NOT NULL,
			is_primary  INTEGER NOT NULL DEFAULT 0,
			uploaded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE users (
			id              TEXT PRIMARY KEY,
			username        TEXT NOT NULL UNIQUE,
			email           TEXT NOT NULL DEFAULT '',
			full_name       TEXT NOT NULL DEFAULT '',
			hashed_password TEXT NOT NULL,
			disabled        INTEGER NOT NULL DEFAULT 0,
			created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	require.NoError(t, err)

	return d
}
