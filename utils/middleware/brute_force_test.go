package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAttempts struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Duration
}

func newMemoryAttempts() *memoryAttempts {
	return &memoryAttempts{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Duration),
	}
}

func (m *memoryAttempts) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.expires[key]
	return ok, nil
}

func (m *memoryAttempts) TTL(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expires[key], nil
}

func (m *memoryAttempts) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memoryAttempts) Expire(_ context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[key] = expiration
	return nil
}

func (m *memoryAttempts) Set(_ context.Context, key string, _ interface{}, expiration time.Duration) error {
	return m.Expire(context.Background(), key, expiration)
}

func (m *memoryAttempts) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.counts, key)
		delete(m.expires, key)
	}
	return nil
}

func loginApp(guard *BruteForceProtection, succeed *bool) *fiber.App {
	app := fiber.New()
	app.Post("/login", guard.CheckAndRecordAttempt(), func(c *fiber.Ctx) error {
		if *succeed {
			_ = guard.RecordSuccessfulAttempt(c, c.IP())
			return c.SendStatus(fiber.StatusOK)
		}
		_ = guard.RecordFailedAttempt(c, c.IP())
		return c.SendStatus(fiber.StatusUnauthorized)
	})
	return app
}

func post(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil), -1)
	require.NoError(t, err)
	return resp
}

func TestBruteForceLocksAfterFiveFailures(t *testing.T) {
	store := newMemoryAttempts()
	succeed := false
	app := loginApp(NewBruteForceProtection(store), &succeed)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusUnauthorized, post(t, app).StatusCode)
	}

	resp := post(t, app)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "120", resp.Header.Get("Retry-After"))
}

func TestBruteForceSuccessClearsAttempts(t *testing.T) {
	store := newMemoryAttempts()
	succeed := false
	guard := NewBruteForceProtection(store)
	app := loginApp(guard, &succeed)

	for i := 0; i < 4; i++ {
		post(t, app)
	}
	succeed = true
	assert.Equal(t, http.StatusOK, post(t, app).StatusCode)
	assert.Empty(t, store.counts)
}

func TestNilBruteForceProtectionPassesThrough(t *testing.T) {
	var guard *BruteForceProtection
	succeed := false
	app := loginApp(guard, &succeed)

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusUnauthorized, post(t, app).StatusCode)
	}
}
