package form_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inventario/internal/form"
	"inventario/internal/images"
	"inventario/internal/models"
	"inventario/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductWriter is a mock implementation of form.ProductWriter
type MockProductWriter struct {
	mock.Mock
}

func (m *MockProductWriter) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductWriter) CreateProduct(ctx context.Context, product models.Product) (string, error) {
	args := m.Called(ctx, product)
	return args.String(0), args.Error(1)
}

func (m *MockProductWriter) UpdateProduct(ctx context.Context, docID string, product models.Product) error {
	args := m.Called(ctx, docID, product)
	return args.Error(0)
}

// MockImageStore is a mock implementation of images.Store
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, upload images.Upload) (string, error) {
	args := m.Called(ctx, upload)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Close() error {
	return m.Called().Error(0)
}

func withImage(ref string) interface{} {
	return mock.MatchedBy(func(p models.Product) bool { return p.ImageRef == ref })
}

func TestSave_CreatesWhenNoDocID(t *testing.T) {
	writer := new(MockProductWriter)
	ctrl := form.NewController(writer, nil, nil)

	f := validForm()
	f.ImageURL = "  https://example.com/a.png  "
	writer.On("CreateProduct", mock.Anything, withImage("https://example.com/a.png")).Return("new-doc", nil).Once()

	docID, err := ctrl.Save(context.Background(), "", f, nil)
	assert.NoError(t, err)
	assert.Equal(t, "new-doc", docID)
	writer.AssertExpectations(t)
}

func TestSave_UpdatesExisting(t *testing.T) {
	writer := new(MockProductWriter)
	ctrl := form.NewController(writer, nil, nil)

	writer.On("UpdateProduct", mock.Anything, "doc-1", withImage("")).Return(nil).Once()

	docID, err := ctrl.Save(context.Background(), "doc-1", validForm(), nil)
	assert.NoError(t, err)
	assert.Equal(t, "doc-1", docID)
	writer.AssertExpectations(t)
}

func TestSave_UploadWinsOverURL(t *testing.T) {
	writer := new(MockProductWriter)
	imgs := new(MockImageStore)
	ctrl := form.NewController(writer, imgs, nil)

	f := validForm()
	f.ImageURL = "https://example.com/old.png"
	upload := &images.Upload{Filename: "new.jpg", Body: strings.NewReader("jpeg")}

	imgs.On("Save", mock.Anything, *upload).Return("file:///data/producto_1.jpg", nil).Once()
	writer.On("UpdateProduct", mock.Anything, "doc-1", withImage("file:///data/producto_1.jpg")).Return(nil).Once()

	_, err := ctrl.Save(context.Background(), "doc-1", f, upload)
	assert.NoError(t, err)
	imgs.AssertExpectations(t)
	writer.AssertExpectations(t)
}

func TestSave_ImageFailureAborts(t *testing.T) {
	writer := new(MockProductWriter)
	imgs := new(MockImageStore)
	ctrl := form.NewController(writer, imgs, nil)

	imgs.On("Save", mock.Anything, mock.Anything).Return("", errors.New("disk full")).Once()

	_, err := ctrl.Save(context.Background(), "", validForm(), &images.Upload{Filename: "a.jpg", Body: strings.NewReader("x")})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	writer.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestSave_UploadWithoutStore(t *testing.T) {
	writer := new(MockProductWriter)
	ctrl := form.NewController(writer, nil, nil)

	_, err := ctrl.Save(context.Background(), "", validForm(), &images.Upload{Filename: "a.jpg", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, form.ErrNoImageStore)
}

func TestSave_InvalidFormTouchesNothing(t *testing.T) {
	writer := new(MockProductWriter)
	imgs := new(MockImageStore)
	ctrl := form.NewController(writer, imgs, nil)

	f := validForm()
	f.UnitPrice = "0"
	_, err := ctrl.Save(context.Background(), "", f, &images.Upload{Filename: "a.jpg", Body: strings.NewReader("x")})

	var fe *form.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, form.FieldUnitPrice, fe.Field)
	imgs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	writer.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestLoad_Prefills(t *testing.T) {
	writer := new(MockProductWriter)
	ctrl := form.NewController(writer, nil, nil)

	writer.On("ListActiveProducts", mock.Anything).Return([]models.Product{
		{DocID: "a", Name: "Otro"},
		{DocID: "b", Name: "Teclado", UnitPrice: 10, CurrentStock: 5, MinStock: 2, CategoryID: 1, SupplierID: 3, ImageRef: "https://example.com/t.png"},
		{DocID: "c", Name: "Local", UnitPrice: 2.5, ImageRef: "file:///data/producto_9.jpg"},
	}, nil)

	got, err := ctrl.Load(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.DocID)
	assert.Equal(t, "Teclado", got.Form.Name)
	assert.Equal(t, "10", got.Form.UnitPrice)
	assert.Equal(t, "5", got.Form.CurrentStock)
	assert.Equal(t, "2", got.Form.MinStock)
	assert.Equal(t, 1, got.Form.CategoryID)
	assert.Equal(t, 3, got.Form.SupplierID)
	assert.Equal(t, "https://example.com/t.png", got.Form.ImageURL)
	assert.NoError(t, got.Form.Validate())

	local, err := ctrl.Load(context.Background(), "c")
	require.NoError(t, err)
	assert.Empty(t, local.Form.ImageURL)
	assert.Equal(t, "file:///data/producto_9.jpg", local.ImageRef)
	assert.Equal(t, "2.5", local.Form.UnitPrice)

	_, err = ctrl.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
