package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"raphael-assistant/internal/common/database"
)

// PostgresStore keeps records as JSONB rows in user_documents.
type PostgresStore struct {
	client *database.PostgresClient
	now    func() time.Time
}

func NewPostgresStore(client *database.PostgresClient) *PostgresStore {
	return &PostgresStore{client: client, now: time.Now}
}

type documentRow struct {
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}

func (r documentRow) record() (Record, error) {
	data := map[string]interface{}{}
	if err := json.Unmarshal(r.Data, &data); err != nil {
		return Record{}, fmt.Errorf("decode document %s: %w", r.ID, err)
	}
	return Record{ID: r.ID, Data: data, CreatedAt: r.CreatedAt}, nil
}

func (s *PostgresStore) Append(ctx context.Context, userID, collection string, record Record) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	data, err := json.Marshal(record.Data)
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", ErrWriteFailed, err)
	}

	_, err = s.client.DB.ExecContext(ctx,
		`INSERT INTO user_documents (id, user_id, collection, data, created_at) VALUES ($1, $2, $3, $4, $5)`,
		record.ID, userID, collection, data, record.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return record.ID, nil
}

func (s *PostgresStore) Query(ctx context.Context, userID, collection string, opts QueryOptions) ([]Record, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	query, args := buildDocumentQuery(userID, collection, opts)

	var rows []documentRow
	if err := s.client.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		r, err := row.record()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func buildDocumentQuery(userID, collection string, opts QueryOptions) (string, []interface{}) {
	whereClauses := []string{"user_id = $1", "collection = $2"}
	args := []interface{}{userID, collection}
	argIndex := 3

	for _, f := range opts.Filters {
		whereClauses = append(whereClauses, fmt.Sprintf("data->>$%d = $%d", argIndex, argIndex+1))
		args = append(args, f.Field, fmt.Sprint(f.Value))
		argIndex += 2
	}

	query := "SELECT id, data, created_at FROM user_documents WHERE " + strings.Join(whereClauses, " AND ")

	if opts.OrderBy != "" {
		direction := "ASC"
		if opts.Descending {
			direction = "DESC"
		}
		if opts.OrderBy == OrderCreatedAt {
			query += " ORDER BY created_at " + direction
		} else {
			query += fmt.Sprintf(" ORDER BY data->>$%d %s", argIndex, direction)
			args = append(args, opts.OrderBy)
			argIndex++
		}
	}

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, opts.Limit)
	}
	return query, args
}

func (s *PostgresStore) Get(ctx context.Context, userID, collection, id string) (Record, error) {
	var row documentRow
	err := s.client.DB.GetContext(ctx, &row,
		`SELECT id, data, created_at FROM user_documents WHERE user_id = $1 AND collection = $2 AND id = $3`,
		userID, collection, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return row.record()
}

func (s *PostgresStore) Delete(ctx context.Context, userID, collection, id string) error {
	res, err := s.client.DB.ExecContext(ctx,
		`DELETE FROM user_documents WHERE user_id = $1 AND collection = $2 AND id = $3`,
		userID, collection, id,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}
