package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/compdraw/backend/pkg/xredis"
)

// MockRedisClient is an in-memory xredis.Client honoring TTL expiry. Tests
// needing failure injection can override the individual funcs.
type MockRedisClient struct {
	ExistFunc  func(ctx context.Context, key string) (bool, error)
	DelFunc    func(ctx context.Context, key ...string) error
	SetFunc    func(ctx context.Context, key, value string) error
	SetTTLFunc func(ctx context.Context, key, value string, ttl time.Duration) error
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetObjFunc func(ctx context.Context, key string, obj any, ttl time.Duration) error
	GetObjFunc func(ctx context.Context, key string, v any) error

	mutex   sync.Mutex
	values  map[string]string
	expires map[string]time.Time
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

func (m *MockRedisClient) lookup(key string) (string, bool) {
	if expiry, ok := m.expires[key]; ok && time.Now().After(expiry) {
		delete(m.values, key)
		delete(m.expires, key)
		return "", false
	}

	value, ok := m.values[key]
	return value, ok
}

func (m *MockRedisClient) Exist(ctx context.Context, key string) (bool, error) {
	if m.ExistFunc != nil {
		return m.ExistFunc(ctx, key)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	_, ok := m.lookup(key)
	return ok, nil
}

func (m *MockRedisClient) Del(ctx context.Context, key ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, key...)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, k := range key {
		delete(m.values, k)
		delete(m.expires, k)
	}

	return nil
}

func (m *MockRedisClient) Set(ctx context.Context, key, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.values[key] = value
	delete(m.expires, key)
	return nil
}

func (m *MockRedisClient) SetTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetTTLFunc != nil {
		return m.SetTTLFunc(ctx, key, value, ttl)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.values[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}

	return nil
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	value, ok := m.lookup(key)
	if !ok {
		return "", xredis.ErrNotFound
	}

	return value, nil
}

func (m *MockRedisClient) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	if m.SetObjFunc != nil {
		return m.SetObjFunc(ctx, key, obj, ttl)
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.values[key] = string(b)
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}

	return nil
}

func (m *MockRedisClient) GetObj(ctx context.Context, key string, v any) error {
	if m.GetObjFunc != nil {
		return m.GetObjFunc(ctx, key, v)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	value, ok := m.lookup(key)
	if !ok {
		return xredis.ErrNotFound
	}

	return json.Unmarshal([]byte(value), v)
}
