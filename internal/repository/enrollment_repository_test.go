package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
)

func TestEnrollmentRepositoryListByActivity(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(store)

	rowCreated := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := documentRows().
		AddRow(CollectionEnrollments, "m1", []byte(`{"nome":" Ana Souza ","bairro":"Macaoca","dataNascimento":"15/06/2012",
			"responsavel":{"nome":"Rita","telefone":"88 9999-0000"},"oficinas":["Violão"," Canto "],"criadoEm":"2023-01-10T12:00:00Z"}`), rowCreated, rowCreated).
		AddRow(CollectionEnrollments, "m2", []byte(`{"nome":"Bia","responsavel":"Carlos","oficinas":["Violão"]}`), rowCreated, rowCreated)
	mock.ExpectQuery(regexp.QuoteMeta("data @> $2::jsonb")).
		WithArgs(CollectionEnrollments, `{"oficinas":["Violão"]}`).
		WillReturnRows(rows)

	enrollments, err := repo.ListByActivity(context.Background(), "Violão")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)

	ana := enrollments[0]
	assert.Equal(t, "Ana Souza", ana.Name)
	assert.Equal(t, []string{"Violão", "Canto"}, ana.Activities)
	require.NotNil(t, ana.BirthDate)
	assert.Equal(t, time.Date(2012, 6, 15, 0, 0, 0, 0, time.UTC), *ana.BirthDate)
	assert.Equal(t, "Rita", ana.GuardianName)
	assert.Equal(t, time.Date(2023, 1, 10, 12, 0, 0, 0, time.UTC), ana.CreatedAt)

	bia := enrollments[1]
	assert.Equal(t, "Carlos", bia.GuardianName)
	assert.Nil(t, bia.BirthDate)
	assert.Equal(t, rowCreated, bia.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateAssignsID(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(store)
	repo.now = func() time.Time { return storeNow }

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (collection, id) DO NOTHING")).
		WithArgs(CollectionEnrollments, sqlmock.AnyArg(), sqlmock.AnyArg(), storeNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{Name: "Ana", Activities: []string{"Violão"}}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.Len(t, enrollment.ID, 36)
	assert.Equal(t, storeNow, enrollment.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindByIDNotFound(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(store)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE collection = $1 AND id = $2")).
		WithArgs(CollectionEnrollments, "missing").
		WillReturnRows(documentRows())

	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, docstore.ErrNotFound)
}
