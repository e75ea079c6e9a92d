package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses, as an interface so
// tests can substitute a mock.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_dataset": `INSERT INTO datasets (id, name, format, payload, loaded_at) VALUES ($1, $2, $3, $4, $5)`,
	"last_dataset":   `SELECT id, name, format, payload, loaded_at FROM datasets ORDER BY loaded_at DESC LIMIT 1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id        TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name      TEXT NOT NULL,
	format    TEXT NOT NULL,
	payload   JSONB NOT NULL,
	loaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_datasets_loaded_at ON datasets(loaded_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveDataset(ctx context.Context, ds *SavedDataset) error {
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
		return eris.Wrap(err, "postgres: marshal dataset payload")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO datasets (id, name, format, payload, loaded_at) VALUES ($1, $2, $3, $4, $5)`,
		ds.ID, ds.Name, ds.Format, payloadJSON, ds.LoadedAt,
	)
	return eris.Wrapf(err, "postgres: insert dataset %s", ds.ID)
}

func (s *PostgresStore) LastDataset(ctx context.Context) (*SavedDataset, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, format, payload, loaded_at FROM datasets ORDER BY loaded_at DESC LIMIT 1`,
	)

	var ds SavedDataset
	var payloadJSON []byte
	err := row.Scan(&ds.ID, &ds.Name, &ds.Format, &payloadJSON, &ds.LoadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get last dataset")
	}

	var payload datasetPayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal dataset payload")
	}
	ds.Profiles = payload.Profiles
	ds.Mapping = payload.Mapping
	ds.Records = payload.Records
	return &ds, nil
}
