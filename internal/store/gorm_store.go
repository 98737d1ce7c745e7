package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// documentRow keeps one document per row with its fields in a JSON column.
type documentRow struct {
	Collection string            `gorm:"primaryKey;type:varchar(100)"`
	ID         string            `gorm:"primaryKey;type:varchar(36)"`
	Fields     datatypes.JSONMap `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "catalog_documents"
}

// GORMStore is a GORM implementation of DocumentStore, for running the service
// against a local SQL database instead of the managed store.
//
// Fields round-trip through JSON, so numbers come back as json.Number and
// timestamps as RFC3339 strings.
type GORMStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGORMStore creates a new instance of GORMStore and migrates its table.
func NewGORMStore(db *gorm.DB) (*GORMStore, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate document table: %w", err)
	}
	return &GORMStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Find loads the collection and applies the query in memory.
func (s *GORMStore) Find(ctx context.Context, q Query) ([]Document, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).Where("collection = ?", q.Collection).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", q.Collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, Document{ID: row.ID, Fields: Fields(row.Fields)})
	}
	return applyQuery(docs, q), nil
}

// Add inserts a document under a generated ID.
func (s *GORMStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	row := documentRow{
		Collection: collection,
		ID:         newDocumentID(),
		Fields:     datatypes.JSONMap(resolveServerTimestamps(fields, s.now())),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}
	return row.ID, nil
}

// Update merges fields into the stored document inside a transaction.
func (s *GORMStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		if err := tx.First(&row, "collection = ? AND id = ?", collection, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
			}
			return fmt.Errorf("failed to load document %s/%s: %w", collection, id, err)
		}

		if row.Fields == nil {
			row.Fields = datatypes.JSONMap{}
		}
		for k, v := range resolveServerTimestamps(fields, s.now()) {
			row.Fields[k] = v
		}
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to update document %s/%s: %w", collection, id, err)
		}
		return nil
	})
}

// Close releases the underlying connection pool.
func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
