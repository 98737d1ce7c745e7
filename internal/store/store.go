// Package store is the narrow data-access boundary to the remote catalog store: a
// set of named collections holding schemaless documents keyed by opaque string IDs.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a patch targets a document that does not exist.
var ErrNotFound = errors.New("document not found")

// Fields is the untyped content of a document.
type Fields map[string]interface{}

// Document is one stored record with its store-assigned ID.
type Document struct {
	ID     string
	Fields Fields
}

// Filter is an equality condition on a single field.
type Filter struct {
	Field string
	Value interface{}
}

// Query reads a whole collection, optionally filtered by equality and ordered
// ascending by one field. Documents lacking the filter or order field never match.
type Query struct {
	Collection string
	Where      []Filter
	OrderBy    string
}

// DocumentStore is implemented by every catalog store driver.
type DocumentStore interface {
	// Find runs a filtered, ordered full-collection read.
	Find(ctx context.Context, q Query) ([]Document, error)
	// Add inserts a document and returns the ID the store assigned to it.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	// Update patches the listed fields of an existing document.
	Update(ctx context.Context, collection, id string, fields Fields) error
	Close() error
}

type serverTimestamp struct{}

// ServerTimestamp is a field value placeholder the store replaces with its own
// clock at write time.
var ServerTimestamp = serverTimestamp{}
