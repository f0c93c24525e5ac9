package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"store-admin/internal/config"
	"store-admin/internal/storage"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errStoreDown = errors.New("store down")

// memDocs is an in-memory DocumentStore that can be told to fail.
type memDocs struct {
	mu       sync.Mutex
	docs     map[string][]byte
	saves    int
	failLoad bool
	failSave bool
}

func newMemDocs() *memDocs {
	return &memDocs{docs: map[string][]byte{}}
}

func (m *memDocs) LoadDocument(_ context.Context, name string, v any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLoad {
		return false, errStoreDown
	}
	raw, ok := m.docs[name]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (m *memDocs) SaveDocument(_ context.Context, name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errStoreDown
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.docs[name] = raw
	m.saves++
	return nil
}

func (m *memDocs) setFailSave(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = fail
}

func (m *memDocs) raw(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[name]
}

// memKV is an in-memory KV that ignores ttl and can be told to fail.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
	fail bool
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errStoreDown
	}
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errStoreDown
	}
	delete(m.data, key)
	return nil
}

func (m *memKV) Close() error { return nil }

func (m *memKV) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.BcryptCost = bcrypt.MinCost
	return cfg
}

type testEnv struct {
	*Services
	docs *memDocs
	kv   *memKV
}

// setupServices builds services over in-memory stores with the default
// accounts loaded.
func setupServices(t *testing.T) *testEnv {
	t.Helper()
	docs, kv := newMemDocs(), newMemKV()
	s := Build(testConfig(), docs, kv, discardLogger())
	require.NoError(t, s.Directory.Reload(context.Background()))
	t.Cleanup(func() { s.Close() })
	return &testEnv{Services: s, docs: docs, kv: kv}
}

// login signs in and returns the session key.
func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	session, ok, err := e.Auth.Login(context.Background(), "", username, password)
	require.NoError(t, err)
	require.True(t, ok, "login %s", username)
	return session.ID
}

func (e *testEnv) superadmin(t *testing.T) string {
	return e.login(t, "cuth-tech", "Silence@1")
}
