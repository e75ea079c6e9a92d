package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	format    TEXT NOT NULL,
	payload   TEXT NOT NULL,
	loaded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_datasets_loaded_at ON datasets(loaded_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveDataset(ctx context.Context, ds *SavedDataset) error {
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	if ds.LoadedAt.IsZero() {
		ds.LoadedAt = time.Now().UTC()
	}

	payloadJSON, err := json.Marshal(datasetPayload{
		Profiles: ds.Profiles,
		Mapping:  ds.Mapping,
		Records:  ds.Records,
	})
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal dataset payload")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, format, payload, loaded_at) VALUES (?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.Format, string(payloadJSON), ds.LoadedAt,
	)
	return eris.Wrapf(err, "sqlite: insert dataset %s", ds.ID)
}

func (s *SQLiteStore) LastDataset(ctx context.Context) (*SavedDataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, format, payload, loaded_at FROM datasets
		 ORDER BY loaded_at DESC LIMIT 1`,
	)

	var ds SavedDataset
	var payloadJSON string
	err := row.Scan(&ds.ID, &ds.Name, &ds.Format, &payloadJSON, &ds.LoadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get last dataset")
	}

	var payload datasetPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal dataset payload")
	}
	ds.Profiles = payload.Profiles
	ds.Mapping = payload.Mapping
	ds.Records = payload.Records
	return &ds, nil
}
