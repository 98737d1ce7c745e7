package store_test

import (
	"context"
	"testing"
	"time"

	"inventario/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_FindFiltersAndOrders(t *testing.T) {
	s := store.NewMemoryStore()
	s.Put("productos", "a", store.Fields{"nombre_producto": "Teclado", "activo": true})
	s.Put("productos", "b", store.Fields{"nombre_producto": "Monitor", "activo": true})
	s.Put("productos", "c", store.Fields{"nombre_producto": "Antiguo", "activo": false})
	s.Put("productos", "d", store.Fields{"nombre_producto": "Sin estado"})
	s.Put("productos", "e", store.Fields{"activo": true})

	docs, err := s.Find(context.Background(), store.Query{
		Collection: "productos",
		Where:      []store.Filter{{Field: "activo", Value: true}},
		OrderBy:    "nombre_producto",
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}

func TestMemoryStore_NumericEqualityIgnoresRepresentation(t *testing.T) {
	s := store.NewMemoryStore()
	s.Put("productos", "a", store.Fields{"id_categoria": int64(7)})
	s.Put("productos", "b", store.Fields{"id_categoria": 7.0})
	s.Put("productos", "c", store.Fields{"id_categoria": 8})

	docs, err := s.Find(context.Background(), store.Query{
		Collection: "productos",
		Where:      []store.Filter{{Field: "id_categoria", Value: 7}},
	})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestMemoryStore_AddResolvesServerTimestampAndUpdateMerges(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	id, err := s.Add(ctx, "categorias", store.Fields{
		"nombre_categoria": "Bebidas",
		"fecha_creacion":   store.ServerTimestamp,
	})
	require.NoError(t, err)
	assert.Len(t, id, 20)

	require.NoError(t, s.Update(ctx, "categorias", id, store.Fields{"id_categoria": 42}))

	docs, err := s.Find(ctx, store.Query{Collection: "categorias"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Bebidas", docs[0].Fields["nombre_categoria"])
	assert.Equal(t, 42, docs[0].Fields["id_categoria"])
	ts, ok := docs[0].Fields["fecha_creacion"].(time.Time)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestMemoryStore_UpdateMissingDocument(t *testing.T) {
	s := store.NewMemoryStore()
	err := s.Update(context.Background(), "productos", "missing", store.Fields{"activo": false})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := store.NewMemoryStore()
	s.Put("productos", "a", store.Fields{"nombre_producto": "Teclado"})

	docs, err := s.Find(context.Background(), store.Query{Collection: "productos"})
	require.NoError(t, err)
	docs[0].Fields["nombre_producto"] = "changed"

	docs, err = s.Find(context.Background(), store.Query{Collection: "productos"})
	require.NoError(t, err)
	assert.Equal(t, "Teclado", docs[0].Fields["nombre_producto"])
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := store.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Find(ctx, store.Query{Collection: "productos"})
	assert.ErrorIs(t, err, context.Canceled)
}
