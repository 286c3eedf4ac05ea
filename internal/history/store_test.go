package history

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/resultset"
	"github.com/leapstack-labs/parq/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_MigratesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	version, err := s.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestStore_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.UnixMilli(1_700_000_000_000)
	entries := []Entry{
		{Mode: "query", Method: http.MethodGet, Target: "http://x/sparql", Payload: "SELECT 1", SubmittedAt: base, Duration: 120 * time.Millisecond, State: StateSuccess, Rows: 3},
		{Mode: "update", Method: http.MethodPost, Target: "http://x/update", Payload: "INSERT DATA { }", SubmittedAt: base.Add(time.Second), State: StateFailure, Reason: "endpoint returned 400 Bad Request"},
		{Mode: "query", Method: http.MethodGet, Target: "http://x/sparql", Graph: "urn:graph:A", Payload: "SELECT 2", SubmittedAt: base.Add(2 * time.Second), State: StateStale},
	}
	for _, e := range entries {
		rec, err := s.Record(ctx, e)
		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
	}

	all, err := s.Recent(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "SELECT 2", all[0].Payload, "newest first")
	assert.Equal(t, "urn:graph:A", all[0].Graph)
	assert.Equal(t, "SELECT 1", all[2].Payload)
	assert.Equal(t, 120*time.Millisecond, all[2].Duration)
	assert.Equal(t, 3, all[2].Rows)
	assert.True(t, base.Equal(all[2].SubmittedAt))

	queries, err := s.Recent(ctx, Filter{Mode: "query", Limit: 1})
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "SELECT 2", queries[0].Payload)

	failed, err := s.Recent(ctx, Filter{State: StateFailure})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "endpoint returned 400 Bad Request", failed[0].Reason)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Record(ctx, Entry{ID: "aaaa-1", Mode: "query", Method: http.MethodGet, Payload: "A", State: StateSuccess})
	require.NoError(t, err)
	_, err = s.Record(ctx, Entry{ID: "aaab-2", Mode: "query", Method: http.MethodGet, Payload: "B", State: StateSuccess})
	require.NoError(t, err)

	e, err := s.Get(ctx, "aaab")
	require.NoError(t, err)
	assert.Equal(t, "B", e.Payload)

	e, err = s.Get(ctx, "aaaa-1")
	require.NoError(t, err)
	assert.Equal(t, "A", e.Payload)

	_, err = s.Get(ctx, "aaa")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = s.Get(ctx, "zzz")
	assert.ErrorContains(t, err, "no submission")

	_, err = s.Get(ctx, "%")
	assert.ErrorContains(t, err, "no submission", "LIKE wildcards are escaped")
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := s.Record(ctx, Entry{Mode: "query", Method: http.MethodGet, Payload: "SELECT", State: StateSuccess})
		require.NoError(t, err)
	}

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := s.Recent(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_Errors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(mock sqlmock.Sqlmock)
		run    func(s *Store) error
		errMsg string
		cause  error
	}{
		{
			name: "record fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO submissions").WillReturnError(assert.AnError)
			},
			run: func(s *Store) error {
				_, err := s.Record(context.Background(), Entry{Mode: "query"})
				return err
			},
			errMsg: "failed to record submission",
			cause:  assert.AnError,
		},
		{
			name: "list fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM submissions").WillReturnError(assert.AnError)
			},
			run: func(s *Store) error {
				_, err := s.Recent(context.Background(), Filter{})
				return err
			},
			errMsg: "failed to list submissions",
			cause:  assert.AnError,
		},
		{
			name: "scan fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM submissions").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("only-one-column"))
			},
			run: func(s *Store) error {
				_, err := s.Recent(context.Background(), Filter{})
				return err
			},
			errMsg: "failed to scan submission",
		},
		{
			name: "clear fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DELETE FROM submissions").WillReturnError(assert.AnError)
			},
			run: func(s *Store) error {
				_, err := s.Clear(context.Background())
				return err
			},
			errMsg: "failed to clear history",
			cause:  assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setup(mock)
			err = tt.run(NewWithDB(db))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_RecentFilterArgs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	cols := []string{"id", "mode", "method", "target", "graph", "payload", "submitted_at", "duration_ms", "state", "reason", "row_count"}
	mock.ExpectQuery(`SELECT (.+) FROM submissions WHERE mode = \? AND state = \? ORDER BY (.+) LIMIT \?`).
		WithArgs("update", StateSuccess, 5).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("id-1", "update", "POST", "http://x/update", "", "INSERT DATA { }", int64(1000), int64(42), StateSuccess, "", 0))

	entries, err := NewWithDB(db).Recent(context.Background(), Filter{Mode: "update", State: StateSuccess, Limit: 5})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 42*time.Millisecond, entries[0].Duration)
	assert.Equal(t, time.UnixMilli(1000), entries[0].SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rec := s.Recorder("query", testutil.NewTestLogger(t))

	rs := resultset.New([]string{"s"}, []resultset.Binding{{"s": {Value: "urn:a", Kind: resultset.KindURI}}})
	started := time.UnixMilli(1_700_000_000_000)
	req := endpoint.Request{Target: "http://x/sparql", Method: http.MethodGet, Payload: "SELECT ?s"}

	rec.Record(request.Completion{
		Ticket: request.Ticket{Seq: 1, Request: req, Started: started},
		Reply:  endpoint.Reply{Results: rs},
	}, true)
	rec.Record(request.Completion{
		Ticket:   request.Ticket{Seq: 2, Request: req, Started: started.Add(time.Second)},
		Reply:    endpoint.Reply{Results: rs},
		Duration: 5 * time.Millisecond,
	}, false)
	rec.Record(request.Completion{
		Ticket: request.Ticket{Seq: 3, Request: req, Started: started.Add(2 * time.Second)},
		Err:    &endpoint.NetworkError{Op: "GET", Err: errors.New("refused")},
	}, false)

	all, err := s.Recent(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, StateFailure, all[0].State)
	assert.Equal(t, "cannot reach endpoint: refused", all[0].Reason)
	assert.Equal(t, StateSuccess, all[1].State)
	assert.Equal(t, 1, all[1].Rows)
	assert.Equal(t, StateStale, all[2].State)
	for _, e := range all {
		assert.Equal(t, "query", e.Mode)
		assert.Equal(t, "SELECT ?s", e.Payload)
	}
}

func TestRecorder_WriteFailureIsLogged(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.ExpectExec("INSERT INTO submissions").WillReturnError(assert.AnError)

	rec := NewWithDB(db).Recorder("update", testutil.NewTestLogger(t))
	assert.NotPanics(t, func() {
		rec.Record(request.Completion{Ticket: request.Ticket{Request: endpoint.Request{Method: http.MethodPost}}}, false)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
