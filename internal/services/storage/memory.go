package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. It backs test mode and the CLI.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]Record
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string][]Record),
		now:  time.Now,
	}
}

func memoryKey(userID, collection string) string {
	return userID + "/" + collection
}

func (s *MemoryStore) Append(_ context.Context, userID, collection string, record Record) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now().UTC()
	}
	record.Data = copyData(record.Data)

	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey(userID, collection)
	s.docs[key] = append(s.docs[key], record)
	return record.ID, nil
}

func (s *MemoryStore) Query(_ context.Context, userID, collection string, opts QueryOptions) ([]Record, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := make([]Record, len(s.docs[memoryKey(userID, collection)]))
	copy(records, s.docs[memoryKey(userID, collection)])
	s.mu.RUnlock()

	return apply(records, opts), nil
}

func (s *MemoryStore) Get(_ context.Context, userID, collection, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.docs[memoryKey(userID, collection)] {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
}

func (s *MemoryStore) Delete(_ context.Context, userID, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryKey(userID, collection)
	for i, r := range s.docs[key] {
		if r.ID == id {
			s.docs[key] = append(s.docs[key][:i], s.docs[key][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
