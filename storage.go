package paperbank

import (
	"context"
	"io"
)

// FileStorage stores the raw bytes of uploaded papers under opaque
// keys. The rest of the system never inspects how or where the bytes
// live; it only holds on to the key.
type FileStorage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
