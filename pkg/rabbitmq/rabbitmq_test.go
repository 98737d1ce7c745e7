package rabbitmq_test

import (
	"encoding/json"
	"testing"
	"time"

	"inventario/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCatalogEvent(t *testing.T) {
	stock := 2
	in := rabbitmq.CatalogEvent{
		Type:       rabbitmq.ProductLowStock,
		Collection: "productos",
		DocID:      "abc",
		Name:       "Teclado",
		Stock:      &stock,
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := rabbitmq.DecodeCatalogEvent(body)
	require.NoError(t, err)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.DocID, out.DocID)
	require.NotNil(t, out.Stock)
	assert.Equal(t, 2, *out.Stock)
	assert.True(t, in.OccurredAt.Equal(out.OccurredAt))
}

func TestDecodeCatalogEvent_Rejects(t *testing.T) {
	_, err := rabbitmq.DecodeCatalogEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = rabbitmq.DecodeCatalogEvent([]byte(`{"doc_id":"abc"}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing type")
}
