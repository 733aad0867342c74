package repository

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mis-educa-api/pkg/docstore"
)

var storeNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newStoreMock(t *testing.T) (*docstore.Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	store := docstore.New(sqlx.NewDb(db, "sqlmock"), docstore.WithClock(func() time.Time { return storeNow }))
	return store, mock, func() { db.Close() }
}

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"collection", "id", "data", "created_at", "updated_at"})
}
