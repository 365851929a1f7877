package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raphael-assistant/internal/common/database"
)

func setupMockDB(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(database.NewPostgresFromDB(db)), mock
}

func TestPostgresStore_Append(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_documents (id, user_id, collection, data, created_at) VALUES ($1, $2, $3, $4, $5)`)).
		WithArgs(sqlmock.AnyArg(), "user-1", "memories", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := store.Append(context.Background(), "user-1", "memories", Record{
		Data: map[string]interface{}{"text": "likes tea"},
	})

	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendFailure(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec("INSERT INTO user_documents").WillReturnError(errors.New("connection reset"))

	_, err := store.Append(context.Background(), "user-1", "memories", Record{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWriteFailed))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestBuildDocumentQuery(t *testing.T) {
	tests := []struct {
		name      string
		opts      QueryOptions
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name:      "no options",
			opts:      QueryOptions{},
			wantQuery: "SELECT id, data, created_at FROM user_documents WHERE user_id = $1 AND collection = $2",
			wantArgs:  []interface{}{"user-1", "homework_tasks"},
		},
		{
			name:      "recent pending",
			opts:      Recent(5, Filter{Field: "status", Value: "pending"}),
			wantQuery: "SELECT id, data, created_at FROM user_documents WHERE user_id = $1 AND collection = $2 AND data->>$3 = $4 ORDER BY created_at DESC LIMIT $5",
			wantArgs:  []interface{}{"user-1", "homework_tasks", "status", "pending", 5},
		},
		{
			name:      "order by data field",
			opts:      QueryOptions{OrderBy: "subject"},
			wantQuery: "SELECT id, data, created_at FROM user_documents WHERE user_id = $1 AND collection = $2 ORDER BY data->>$3 ASC",
			wantArgs:  []interface{}{"user-1", "homework_tasks", "subject"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildDocumentQuery("user-1", "homework_tasks", tt.opts)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPostgresStore_Query(t *testing.T) {
	store, mock := setupMockDB(t)
	created := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "data", "created_at"}).
		AddRow("doc-2", []byte(`{"text":"likes jazz","category":"preferences"}`), created.Add(time.Hour)).
		AddRow("doc-1", []byte(`{"text":"likes tea","category":"preferences"}`), created)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, data, created_at FROM user_documents WHERE user_id = $1 AND collection = $2 ORDER BY created_at DESC LIMIT $3")).
		WithArgs("user-1", "memories", 10).
		WillReturnRows(rows)

	records, err := store.Query(context.Background(), "user-1", "memories", Recent(10))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "doc-2", records[0].ID)
	assert.Equal(t, "likes jazz", records[0].Data["text"])
	assert.True(t, created.Equal(records[1].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_QueryCorruptDocument(t *testing.T) {
	store, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "data", "created_at"}).
		AddRow("doc-1", []byte(`{not json`), time.Now())
	mock.ExpectQuery("SELECT id, data, created_at FROM user_documents").WillReturnRows(rows)

	_, err := store.Query(context.Background(), "user-1", "memories", QueryOptions{})

	assert.True(t, errors.Is(err, ErrQueryFailed))
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT id, data, created_at FROM user_documents WHERE user_id").
		WithArgs("user-1", "memories", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "user-1", "memories", "missing")

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_documents WHERE user_id = $1 AND collection = $2 AND id = $3")).
		WithArgs("user-1", "memories", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_documents").
		WithArgs("user-1", "memories", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "user-1", "memories", "doc-1"))
	assert.True(t, errors.Is(store.Delete(context.Background(), "user-1", "memories", "doc-1"), ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
