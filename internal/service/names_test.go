package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestNameResolver_CachesLookups(t *testing.T) {
	users := new(mockUsers)
	users.On("NamesByIDs", mock.Anything, []string{"u1", "u2"}).Return(map[string]string{"u1": "Alice"}, nil).Once()
	users.On("NamesByIDs", mock.Anything, []string{"u2"}).Return(map[string]string{}, nil).Once()

	resolver := NewNameResolver(users, 8, time.Minute)

	names := resolver.Names(context.Background(), []string{"u1", "u2"})
	assert.Equal(t, "Alice", names.Resolve("u1"))
	assert.Equal(t, "u2", names.Resolve("u2"))

	names = resolver.Names(context.Background(), []string{"u1", "u2"})
	assert.Equal(t, "Alice", names.Resolve("u1"))
	users.AssertExpectations(t)
}

func TestNameResolver_LookupFailureFallsBack(t *testing.T) {
	users := new(mockUsers)
	users.On("NamesByIDs", mock.Anything, []string{"u1"}).Return(map[string]string(nil), errors.New("down"))

	names := NewNameResolver(users, 8, time.Minute).Names(context.Background(), []string{"u1"})
	assert.Equal(t, "u1", names.Resolve("u1"))
}

func TestNameResolver_Forget(t *testing.T) {
	users := new(mockUsers)
	users.On("NamesByIDs", mock.Anything, []string{"u1"}).Return(map[string]string{"u1": "Old"}, nil).Once()
	users.On("NamesByIDs", mock.Anything, []string{"u1"}).Return(map[string]string{"u1": "New"}, nil).Once()

	resolver := NewNameResolver(users, 8, time.Minute)
	assert.Equal(t, "Old", resolver.Names(context.Background(), []string{"u1"}).Resolve("u1"))
	resolver.Forget("u1")
	assert.Equal(t, "New", resolver.Names(context.Background(), []string{"u1"}).Resolve("u1"))
}
