// Package images persists product pictures attached from the operator's device
// and defines the format of the references stored with a product.
package images

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalScheme prefixes references to files kept by a LocalStore. Any other
// non-empty reference is a remote URL.
const LocalScheme = "file://"

const (
	KindLocal  = "local"
	KindBucket = "bucket"
)

// Upload is an image attached to a product form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Store persists an upload and returns the reference to save on the product.
type Store interface {
	Save(ctx context.Context, upload Upload) (string, error)
	Close() error
}

// Config selects and configures the single active image store.
type Config struct {
	Kind            string
	Dir             string
	Bucket          string
	PublicBaseURL   string
	CredentialsFile string
}

// Open creates the store named by cfg.Kind.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Kind {
	case "", KindLocal:
		return NewLocalStore(cfg.Dir)
	case KindBucket:
		return NewBucketStore(ctx, BucketConfig{
			Bucket:          cfg.Bucket,
			PublicBaseURL:   cfg.PublicBaseURL,
			CredentialsFile: cfg.CredentialsFile,
		})
	}
	return nil, fmt.Errorf("unknown image store %q", cfg.Kind)
}

// IsLocal reports whether ref points at a locally kept file.
func IsLocal(ref string) bool {
	return strings.HasPrefix(ref, LocalScheme)
}

// LocalPath strips the local scheme from ref.
func LocalPath(ref string) string {
	return strings.TrimPrefix(ref, LocalScheme)
}

// LocalRef builds the reference of a local file.
func LocalRef(path string) string {
	return LocalScheme + path
}

// objectName keeps the extension of the uploaded file and defaults to .jpg.
func objectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	return "producto_" + uuid.New().String() + ext
}
