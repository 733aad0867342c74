package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mis-educa-api/internal/models"
)

var (
	districts       = []string{"Macaoca", "Cajazeiras", "União", "Cacimba Nova", "Paus Branco", "Sede"}
	keyedActivities = []string{"Percussão/Fanfarra"}
)

func decodeAttendance(t *testing.T, raw string) attendanceDocument {
	t.Helper()
	var doc attendanceDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestAttendanceNormalizeLegacyDisplayDate(t *testing.T) {
	repo := NewAttendanceRepository(nil, keyedActivities, districts)
	doc := decodeAttendance(t, `{"data":"01/03/2024","oficina":"Violão","distrito":null,"professor":"MARIA",
		"alunos":[{"id":"m1","nome":"ANA","status":"presente"},{"id":"m2","nome":"JOÃO","status":"Falta"}],
		"salvoEm":{"seconds":1709290800,"nanoseconds":0}}`)

	record, ok := repo.normalize("2024-03-01_Violão", doc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, "Violão", record.Activity)
	assert.Nil(t, record.District)
	assert.False(t, record.Legacy)
	assert.Equal(t, time.Unix(1709290800, 0).UTC(), record.SavedAt)
	require.Len(t, record.Students, 2)
	assert.Equal(t, models.AttendanceStatusPresent, record.Students[0].Status)
	assert.Equal(t, models.AttendanceStatusAbsent, record.Students[1].Status)
}

func TestAttendanceNormalizeDerivesFieldsFromKey(t *testing.T) {
	repo := NewAttendanceRepository(nil, keyedActivities, districts)
	doc := decodeAttendance(t, `{"presencas":{"ANA":true,"BIA":false}}`)

	record, ok := repo.normalize("2024-03-05_Percussão_Fanfarra_Cacimba Nova", doc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, "Percussão/Fanfarra", record.Activity)
	require.NotNil(t, record.District)
	assert.Equal(t, "Cacimba Nova", *record.District)
	assert.True(t, record.Legacy)
	assert.Equal(t, []models.AttendanceEntry{
		{Name: "ANA", Status: models.AttendanceStatusPresent},
		{Name: "BIA", Status: models.AttendanceStatusAbsent},
	}, record.Students)
}

func TestAttendanceNormalizeKeepsUnknownSanitizedActivity(t *testing.T) {
	repo := NewAttendanceRepository(nil, keyedActivities, districts)
	record, ok := repo.normalize("2024-03-05_Teatro_Dança", decodeAttendance(t, `{"alunos":[]}`))
	require.True(t, ok)
	assert.Equal(t, "Teatro_Dança", record.Activity)
	assert.Nil(t, record.District)
}

func TestAttendanceNormalizeTimestampDateAndSingleStatus(t *testing.T) {
	repo := NewAttendanceRepository(nil, keyedActivities, districts)
	// 2024-03-08T03:00:00Z, midnight in Brasília.
	doc := decodeAttendance(t, `{"data":{"_seconds":1709866800,"_nanoseconds":0},"oficina":"Canto","alunoNome":"ANA","status":"PRESENTE"}`)

	record, ok := repo.normalize("legacy-id", doc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, []models.AttendanceEntry{{Name: "ANA", Status: models.AttendanceStatusPresent}}, record.Students)
}

func TestAttendanceNormalizeRejectsUndatedRecords(t *testing.T) {
	repo := NewAttendanceRepository(nil, keyedActivities, districts)
	_, ok := repo.normalize("sem-data", decodeAttendance(t, `{"data":"Data inválida","oficina":"Canto"}`))
	assert.False(t, ok)
}

func TestAttendanceDocumentCanonicalShape(t *testing.T) {
	district := "Macaoca"
	record := &models.AttendanceRecord{
		ID:       "2024-03-01_Percussão_Fanfarra_Macaoca",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Activity: "Percussão/Fanfarra",
		District: &district,
		Teacher:  "MARIA",
		Students: []models.AttendanceEntry{{StudentID: "m1", Name: "ANA", Status: models.AttendanceStatusPresent}},
		SavedAt:  time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC),
	}
	raw, err := json.Marshal(toAttendanceDocument(record))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":"2024-03-01","oficina":"Percussão/Fanfarra","distrito":"Macaoca","professor":"MARIA",
		"alunos":[{"id":"m1","nome":"ANA","status":"presente"}],"salvoEm":"2024-03-01T15:04:05Z"}`, string(raw))
}

func TestAttendanceRepositoryCreateConflict(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(store, keyedActivities, districts)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs(CollectionAttendance, "2024-03-01_Violão", sqlmock.AnyArg(), storeNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.AttendanceRecord{
		ID:       "2024-03-01_Violão",
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Activity: "Violão",
	})
	require.ErrorIs(t, err, ErrAttendanceExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListSkipsUnusableDocuments(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(store, keyedActivities, districts)

	rows := documentRows().
		AddRow(CollectionAttendance, "2024-03-01_Violão", []byte(`{"data":"2024-03-01","oficina":"Violão","alunos":[]}`), storeNow, storeNow).
		AddRow(CollectionAttendance, "lixo", []byte(`{"oficina":"Violão"}`), storeNow, storeNow).
		AddRow(CollectionAttendance, "quebrado", []byte(`{"alunos":"x"}`), storeNow, storeNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE collection = $1 ORDER BY id")).
		WithArgs(CollectionAttendance).
		WillReturnRows(rows)

	records, skipped, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2024-03-01_Violão", records[0].ID)
	assert.Equal(t, 2, skipped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListResolvesGroupedActivityFromKey(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(store, keyedActivities, districts)

	rows := documentRows().
		AddRow(CollectionAttendance, "2024-03-05_Percussão_Fanfarra_Macaoca", []byte(`{"presencas":{"ANA":true}}`), storeNow, storeNow).
		AddRow(CollectionAttendance, "2024-03-05_Percussão_Fanfarra_Sede", []byte(`{"presencas":{"BIA":false}}`), storeNow, storeNow)
	mock.ExpectQuery(regexp.QuoteMeta("FROM documents WHERE collection = $1 ORDER BY id")).
		WithArgs(CollectionAttendance).
		WillReturnRows(rows)

	records, skipped, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 2)
	for i, district := range []string{"Macaoca", "Sede"} {
		assert.Equal(t, "Percussão/Fanfarra", records[i].Activity)
		require.NotNil(t, records[i].District)
		assert.Equal(t, district, *records[i].District)
		assert.Equal(t, models.AttendanceKey(records[i].Date, records[i].Activity, records[i].District), records[i].ID)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryPutReplacesDocument(t *testing.T) {
	store, mock, cleanup := newStoreMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(store, keyedActivities, districts)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs(CollectionAttendance, "2024-03-05_Violão", sqlmock.AnyArg(), storeNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), &models.AttendanceRecord{
		ID:       "2024-03-05_Violão",
		Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Activity: "Violão",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
