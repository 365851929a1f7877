package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"raphael-assistant/internal/common/database"
)

// maxSearchSize bounds unlimited queries.
const maxSearchSize = 1000

// ElasticsearchStore keeps one index per collection; documents carry their
// owner in user_id.
type ElasticsearchStore struct {
	client *database.ElasticsearchClient
	now    func() time.Time
}

func NewElasticsearchStore(client *database.ElasticsearchClient) *ElasticsearchStore {
	return &ElasticsearchStore{client: client, now: time.Now}
}

type esDocument struct {
	UserID    string                 `json:"user_id"`
	CreatedAt time.Time              `json:"created_at"`
	Data      map[string]interface{} `json:"data"`
}

type esHit struct {
	ID     string     `json:"_id"`
	Source esDocument `json:"_source"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []esHit `json:"hits"`
	} `json:"hits"`
}

type esGetResponse struct {
	ID     string     `json:"_id"`
	Found  bool       `json:"found"`
	Source esDocument `json:"_source"`
}

func (s *ElasticsearchStore) Append(ctx context.Context, userID, collection string, record Record) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	body, err := json.Marshal(esDocument{UserID: userID, CreatedAt: record.CreatedAt, Data: record.Data})
	if err != nil {
		return "", fmt.Errorf("%w: encode: %v", ErrWriteFailed, err)
	}

	es := s.client.Client
	res, err := es.Index(
		s.client.Index(collection),
		bytes.NewReader(body),
		es.Index.WithDocumentID(record.ID),
		es.Index.WithRefresh("wait_for"),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", fmt.Errorf("%w: index: %s", ErrWriteFailed, res.Status())
	}
	return record.ID, nil
}

func (s *ElasticsearchStore) Query(ctx context.Context, userID, collection string, opts QueryOptions) ([]Record, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildSearchQuery(userID, opts)); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrQueryFailed, err)
	}

	es := s.client.Client
	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(s.client.Index(collection)),
		es.Search.WithBody(&buf),
		es.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search: %s", ErrQueryFailed, res.Status())
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrQueryFailed, err)
	}

	records := make([]Record, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, Record{ID: hit.ID, Data: hit.Source.Data, CreatedAt: hit.Source.CreatedAt})
	}
	return records, nil
}

func buildSearchQuery(userID string, opts QueryOptions) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"user_id.keyword": userID}},
	}
	for _, f := range opts.Filters {
		field := "data." + f.Field
		if _, ok := f.Value.(string); ok {
			field += ".keyword"
		}
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{field: f.Value}})
	}

	size := opts.Limit
	if size == 0 {
		size = maxSearchSize
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
		"size": size,
	}

	if opts.OrderBy != "" {
		order := "asc"
		if opts.Descending {
			order = "desc"
		}
		field := "created_at"
		if opts.OrderBy != OrderCreatedAt {
			field = "data." + opts.OrderBy + ".keyword"
		}
		query["sort"] = []interface{}{
			map[string]interface{}{field: map[string]interface{}{"order": order, "unmapped_type": "keyword"}},
		}
	}
	return query
}

func (s *ElasticsearchStore) Get(ctx context.Context, userID, collection, id string) (Record, error) {
	es := s.client.Client
	res, err := es.Get(s.client.Index(collection), id, es.Get.WithContext(ctx))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return Record{}, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if res.IsError() {
		return Record{}, fmt.Errorf("%w: get: %s", ErrQueryFailed, res.Status())
	}

	var doc esGetResponse
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return Record{}, fmt.Errorf("%w: decode: %v", ErrQueryFailed, err)
	}
	if !doc.Found || doc.Source.UserID != userID {
		return Record{}, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return Record{ID: doc.ID, Data: doc.Source.Data, CreatedAt: doc.Source.CreatedAt}, nil
}

func (s *ElasticsearchStore) Delete(ctx context.Context, userID, collection, id string) error {
	if _, err := s.Get(ctx, userID, collection, id); err != nil {
		return err
	}

	es := s.client.Client
	res, err := es.Delete(
		s.client.Index(collection),
		id,
		es.Delete.WithRefresh("wait_for"),
		es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.IsError() {
		return fmt.Errorf("%w: delete: %s", ErrWriteFailed, res.Status())
	}
	return nil
}
