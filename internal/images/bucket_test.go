package images

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	bytes.Buffer
	ctx        context.Context
	closeErr   error
	closed     bool
	ctxAtClose error
}

func (w *recordingWriter) Close() error {
	w.closed = true
	if w.ctx != nil {
		w.ctxAtClose = w.ctx.Err()
	}
	return w.closeErr
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestBucketStore_Save(t *testing.T) {
	w := &recordingWriter{}
	var object, contentType string
	s := newBucketStore("tienda-inventario", "", func(_ context.Context, o, ct string) io.WriteCloser {
		object, contentType = o, ct
		return w
	})

	url, err := s.Save(context.Background(), Upload{Filename: "foto.png", ContentType: "image/png", Body: strings.NewReader("pixels")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(object, "productos/producto_"))
	assert.True(t, strings.HasSuffix(object, ".png"))
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, "pixels", w.String())
	assert.True(t, w.closed)
	assert.Equal(t, "https://storage.googleapis.com/tienda-inventario/"+object, url)
	assert.False(t, IsLocal(url))
}

func TestBucketStore_CustomBaseURL(t *testing.T) {
	s := newBucketStore("b", "http://localhost:4443/", func(context.Context, string, string) io.WriteCloser {
		return &recordingWriter{}
	})
	url, err := s.Save(context.Background(), Upload{Filename: "x.jpg", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:4443/b/productos/"))
}

func TestBucketStore_CloseFailureFailsUpload(t *testing.T) {
	w := &recordingWriter{closeErr: errors.New("403 forbidden")}
	s := newBucketStore("b", "", func(context.Context, string, string) io.WriteCloser { return w })

	url, err := s.Save(context.Background(), Upload{Filename: "x.jpg", Body: strings.NewReader("x")})
	assert.Error(t, err)
	assert.Empty(t, url)
	assert.Contains(t, err.Error(), "403 forbidden")
}

func TestBucketStore_ReadFailureAbandonsUpload(t *testing.T) {
	w := &recordingWriter{}
	s := newBucketStore("b", "", func(ctx context.Context, _, _ string) io.WriteCloser {
		w.ctx = ctx
		return w
	})

	url, err := s.Save(context.Background(), Upload{Filename: "x.jpg", Body: failingReader{}})
	require.Error(t, err)
	assert.Empty(t, url)
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, w.closed)
	assert.ErrorIs(t, w.ctxAtClose, context.Canceled)
}

func TestBucketStore_SuccessfulUploadClosesWithLiveContext(t *testing.T) {
	w := &recordingWriter{}
	s := newBucketStore("b", "", func(ctx context.Context, _, _ string) io.WriteCloser {
		w.ctx = ctx
		return w
	})

	_, err := s.Save(context.Background(), Upload{Filename: "x.jpg", Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.NoError(t, w.ctxAtClose)
}
