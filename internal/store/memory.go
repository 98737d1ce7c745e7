package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of DocumentStore.
type MemoryStore struct {
	collections map[string]map[string]Fields
	mu          sync.RWMutex
	now         func() time.Time
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Fields),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Find returns the matching documents of a collection.
func (s *MemoryStore) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.collections[q.Collection]))
	for id, fields := range s.collections[q.Collection] {
		docs = append(docs, Document{ID: id, Fields: copyFields(fields)})
	}
	return applyQuery(docs, q), nil
}

// Add stores a new document under a generated ID.
func (s *MemoryStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]Fields)
		s.collections[collection] = col
	}
	id := newDocumentID()
	col[id] = resolveServerTimestamps(fields, s.now())
	return id, nil
}

// Update merges fields into an existing document.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range resolveServerTimestamps(fields, s.now()) {
		doc[k] = v
	}
	return nil
}

// Put writes a document verbatim, replacing any previous content. Seeding and
// tests use it to place documents the client itself would never write.
func (s *MemoryStore) Put(collection, id string, fields Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]Fields)
		s.collections[collection] = col
	}
	col[id] = copyFields(fields)
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

// newDocumentID mimics the 20 character alphanumeric IDs of the managed store.
func newDocumentID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:20]
}
