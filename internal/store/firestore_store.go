package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds connection details for the managed store. When the
// FIRESTORE_EMULATOR_HOST variable is set the client talks to the emulator.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreStore is the DocumentStore of the production deployment, shared with
// the desktop application.
type FirestoreStore struct {
	Client *firestore.Client
}

// NewFirestoreStore opens one client for the whole process.
func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("firestore: project id is empty")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{Client: client}, nil
}

// Find runs the query server side.
func (s *FirestoreStore) Find(ctx context.Context, q Query) ([]Document, error) {
	query := s.Client.Collection(q.Collection).Query
	for _, f := range q.Where {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		query = query.OrderBy(q.OrderBy, firestore.Asc)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{ID: snap.Ref.ID, Fields: Fields(snap.Data())})
	}
	return docs, nil
}

// Add inserts a document and lets the store pick its ID.
func (s *FirestoreStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	ref, _, err := s.Client.Collection(collection).Add(ctx, toFirestore(fields))
	if err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}
	return ref.ID, nil
}

// Update patches top-level fields of an existing document.
func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range toFirestore(fields) {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}

	_, err := s.Client.Collection(collection).Doc(id).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
	}
	return nil
}

// Close closes the client.
func (s *FirestoreStore) Close() error {
	return s.Client.Close()
}

func toFirestore(fields Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if v == ServerTimestamp {
			out[k] = firestore.ServerTimestamp
			continue
		}
		out[k] = v
	}
	return out
}
