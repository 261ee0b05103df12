//go:build !integration

package postgres

import (
	"context"
	"time"

	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/repository"
	red "learning-portal/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerSubjectRepo mocks the database repository that the decorator wraps.
type mockInnerSubjectRepo struct {
	FindSubjectFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Subject, error)
	EnsureUserFunc  func(ctx context.Context, tx repository.Tx, id, email string) error
}

func (m *mockInnerSubjectRepo) FindSubject(ctx context.Context, tx repository.Tx, id string) (*model.Subject, error) {
	return m.FindSubjectFunc(ctx, tx, id)
}
func (m *mockInnerSubjectRepo) EnsureUser(ctx context.Context, tx repository.Tx, id, email string) error {
	return m.EnsureUserFunc(ctx, tx, id, email)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
