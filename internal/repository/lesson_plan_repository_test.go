package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonPlanRepositoryListByActivity(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(store)

	rows := documentRows().
		AddRow(CollectionLessonPlans, "p1", []byte(`{"titulo":"Escalas","oficina":"Violão","nomeProfessor":"Maria","data":"2024-03-04",
			"objetivos":"o","desenvolvimento":"d","avaliacao":"a","criadoEm":{"seconds":1709550000}}`), storeNow, storeNow)
	mock.ExpectQuery(regexp.QuoteMeta("data @> $2::jsonb")).
		WithArgs(CollectionLessonPlans, `{"oficina":"Violão"}`).
		WillReturnRows(rows)

	plans, err := repo.List(context.Background(), "Violão")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "Maria", plans[0].Teacher)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), plans[0].Date)
	assert.Nil(t, plans[0].District)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonPlanRepositoryListAll(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewLessonPlanRepository(store)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE collection = $1 ORDER BY id")).
		WithArgs(CollectionLessonPlans).
		WillReturnRows(documentRows())

	plans, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, plans)
}
