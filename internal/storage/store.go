package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoBucket is returned when the S3 store has no bucket to write to
var ErrNoBucket = errors.New("UPLOAD_BUCKET env var not set")

// ObjectStore keeps uploaded images
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
}

// New opens the store named by storeType: "s3" or "sqlite"
func New(ctx context.Context, storeType, bucket, region, path string) (ObjectStore, error) {
	switch storeType {
	case "s3":
		store, err := NewS3Store(ctx, region, bucket)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storeType)
	}
}

// UnavailableStore fails every write with the error that kept the real
// store from opening
type UnavailableStore struct {
	Err error
}

func NewUnavailableStore(err error) *UnavailableStore {
	return &UnavailableStore{Err: err}
}

func (s *UnavailableStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	return fmt.Errorf("storage unavailable: %w", s.Err)
}
