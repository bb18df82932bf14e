package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/bobinette/paperbank/errors"
)

// Local stores files on the local filesystem, under a single root
// directory. Keys are flat: they never contain path separators.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.New("could not create storage directory", errors.WithCause(err))
	}

	return &Local{root: root}, nil
}

func (s *Local) path(key string) string {
	// Keys are generated internally, this guards against a corrupted
	// record pointing outside the storage root.
	return filepath.Join(s.root, filepath.Base(key))
}

func (s *Local) Save(ctx context.Context, key string, r io.Reader, size int64) error {
	f, err := os.Create(s.path(key))
	if err != nil {
		return errors.New("could not create file", errors.WithCause(err))
	}

	_, err = io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(s.path(key))
		return errors.New("could not write file", errors.WithCause(err))
	}

	return f.Close()
}

func (s *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, errors.New("no file for key "+key, errors.NotFound())
	} else if err != nil {
		return nil, errors.New("could not open file", errors.WithCause(err))
	}

	return f, nil
}

func (s *Local) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.New("could not delete file", errors.WithCause(err))
	}

	return nil
}

func (s *Local) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, errors.New("could not stat file", errors.WithCause(err))
	}

	return true, nil
}
