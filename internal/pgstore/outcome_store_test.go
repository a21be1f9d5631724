package pgstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"dictbatch/internal/dict"
)

func TestRecordInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "word_outcomes")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	outcome := dict.Outcome{
		Word:        "clear",
		Entry:       &dict.Entry{Headword: "clear"},
		Attempts:    1,
		Duration:    120 * time.Millisecond,
		SnapshotURI: "file:///tmp/pages/run-1/abc.html",
		FetchedAt:   now,
	}

	mock.ExpectExec("INSERT INTO word_outcomes").
		WithArgs("run-1", "clear", true, 1, int64(120), outcome.SnapshotURI, "", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Record(context.Background(), "run-1", outcome))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFailedLookup(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "word_outcomes")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	outcome := dict.Outcome{
		Word:      "zzzz",
		Err:       dict.ErrNotFound,
		Attempts:  1,
		Duration:  time.Second,
		FetchedAt: now,
	}

	mock.ExpectExec("INSERT INTO word_outcomes").
		WithArgs("run-1", "zzzz", false, 1, int64(1000), "", dict.ErrNotFound.Error(), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Record(context.Background(), "run-1", outcome))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRejectsMissingWord(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "")
	require.NoError(t, err)

	err = store.Record(context.Background(), "run-1", dict.Outcome{})
	require.Error(t, err)
}

func TestFetchedReturnsExistingSuccess(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "word_outcomes")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("clear").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	found, err := store.Fetched(context.Background(), "clear")
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchedPropagatesQueryError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "word_outcomes")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("clear").
		WillReturnError(errors.New("connection reset"))

	_, err = store.Fetched(context.Background(), "clear")
	require.Error(t, err)
}

func TestNewWithPoolValidatesTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "bad-table;drop")
	require.Error(t, err)

	_, err = NewWithPool(nil, "word_outcomes")
	require.Error(t, err)
}
