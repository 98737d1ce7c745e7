package images_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inventario/internal/images"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveCopiesBytes(t *testing.T) {
	dir := t.TempDir()
	s, err := images.NewLocalStore(dir)
	require.NoError(t, err)

	data := []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}
	ref, err := s.Save(context.Background(), images.Upload{Filename: "foto.PNG", Body: bytes.NewReader(data)})
	require.NoError(t, err)

	assert.True(t, images.IsLocal(ref))
	path := images.LocalPath(ref)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "producto_"))
	assert.Equal(t, ".png", filepath.Ext(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocalStore_DefaultExtension(t *testing.T) {
	s, err := images.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ref, err := s.Save(context.Background(), images.Upload{Filename: "camera", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, ".jpg", filepath.Ext(ref))
}

func TestLocalStore_UniqueNames(t *testing.T) {
	s, err := images.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	a, err := s.Save(context.Background(), images.Upload{Filename: "a.jpg", Body: strings.NewReader("a")})
	require.NoError(t, err)
	b, err := s.Save(context.Background(), images.Upload{Filename: "a.jpg", Body: strings.NewReader("b")})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLocalStore_Resolve(t *testing.T) {
	dir := t.TempDir()
	s, err := images.NewLocalStore(dir)
	require.NoError(t, err)

	inside := filepath.Join(dir, "producto_1.jpg")
	path, ok := s.Resolve(images.LocalRef(inside))
	assert.True(t, ok)
	assert.Equal(t, inside, path)

	_, ok = s.Resolve(images.LocalRef(filepath.Join(dir, "..", "etc", "passwd")))
	assert.False(t, ok)
	_, ok = s.Resolve("https://example.com/a.jpg")
	assert.False(t, ok)
}

func TestRefHelpers(t *testing.T) {
	assert.True(t, images.IsLocal("file:///data/img.jpg"))
	assert.False(t, images.IsLocal("https://example.com/img.jpg"))
	assert.False(t, images.IsLocal(""))
	assert.Equal(t, "/data/img.jpg", images.LocalPath("file:///data/img.jpg"))
	assert.Equal(t, "file:///data/img.jpg", images.LocalRef("/data/img.jpg"))
}

func TestOpen_RejectsUnknownKind(t *testing.T) {
	_, err := images.Open(context.Background(), images.Config{Kind: "ftp"})
	assert.Error(t, err)

	s, err := images.Open(context.Background(), images.Config{Kind: images.KindLocal, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &images.LocalStore{}, s)
}
