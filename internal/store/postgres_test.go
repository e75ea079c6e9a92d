package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveDataset(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO datasets`).
		WithArgs(pgxmock.AnyArg(), "vendors.csv", "csv", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ds := sampleDataset("vendors.csv", time.Time{})
	err := s.SaveDataset(context.Background(), ds)
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID, "save assigns an ID")
	assert.False(t, ds.LoadedAt.IsZero(), "save stamps LoadedAt")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastDataset(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	loadedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"profiles":null,"mapping":{"name":"vendor"},"records":[{"id":0,"name":"Acme","numeric":null,"categorical":null,"hasPurchaseOrder":false,"raw":null}]}`)

	mock.ExpectQuery(`SELECT id, name, format, payload, loaded_at FROM datasets`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "format", "payload", "loaded_at"}).
			AddRow("ds-1", "vendors.csv", "csv", payload, loadedAt))

	got, err := s.LastDataset(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ds-1", got.ID)
	assert.Equal(t, "vendors.csv", got.Name)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Acme", got.Records[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastDataset_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, name, format, payload, loaded_at FROM datasets`).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.LastDataset(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS datasets`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
