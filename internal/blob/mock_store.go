package blob

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of the blob operations services depend on.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Upload(ctx context.Context, bucket string, object string, body io.Reader) (int64, error) {
	args := m.Called(ctx, bucket, object, body)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Remove(ctx context.Context, bucket string, object string) error {
	args := m.Called(ctx, bucket, object)
	return args.Error(0)
}

func (m *MockStore) SignedURL(ctx context.Context, bucket string, object string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, bucket, object, ttl)
	return args.String(0), args.Error(1)
}
