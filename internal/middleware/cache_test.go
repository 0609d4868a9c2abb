package middleware

import (
	"net/http"
	"net/http/httptest"
	"path"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/store-rating/internal/config"
	"github.com/iliyamo/store-rating/internal/utils"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"total_users":3}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.JSONEq(t, `{"total_users":3}`, string(body))

	_, _, _, ok = decodePayload(bs[:5])
	assert.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	assert.False(t, ok)
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflow)
	_, _ = cw.Write([]byte("defg"))
	assert.True(t, cw.overflow)
	assert.Equal(t, "abcdefg", rec.Body.String())
}

func TestCacheKeyScopedByCaller(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	iss := utils.NewTokenIssuer("secret", 0)

	keyFor := func(id uint64) string {
		tok, err := iss.Issue(id, "a@x.com", "admin")
		require.NoError(t, err)
		claims, err := iss.Verify(tok.Token)
		require.NoError(t, err)
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), httptest.NewRecorder())
		c.SetPath("/admin/dashboard")
		c.Set(claimsKey, claims)
		return cacheKey(cfg, c)
	}
	assert.Equal(t, keyFor(1), keyFor(1))
	assert.NotEqual(t, keyFor(1), keyFor(2))
	assert.Contains(t, keyFor(1), "cache:")
}

func TestResponseCacheWithoutRedisPassesThrough(t *testing.T) {
	e := echo.New()
	calls := 0
	e.GET("/admin/dashboard", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, map[string]int{"n": calls})
	}, ResponseCache(config.CacheConfig{Enabled: true}, nil, nil))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestCachedKeysMatchInvalidationPattern(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/admin/dashboard?x=1", nil), httptest.NewRecorder())
	c.SetPath("/admin/dashboard")

	ok, err := path.Match(cfg.Prefix+":*", cacheKey(cfg, c))
	require.NoError(t, err)
	assert.True(t, ok)
}

// Only successful writes clear the cache.  An unreachable Redis makes each
// attempt visible as a warning without affecting the response.
func TestInvalidateCacheOnSuccessfulWrites(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	core, logs := observer.New(zapcore.WarnLevel)

	e := echo.New()
	e.Use(InvalidateCache(config.CacheConfig{Enabled: true, Prefix: "cache"}, rdb, zap.New(core)))
	e.GET("/admin/dashboard", okHandler)
	e.POST("/ratings", func(c echo.Context) error { return c.JSON(http.StatusCreated, map[string]string{"message": "ok"}) })
	e.PUT("/admin/users/:id", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "no") })

	cases := []struct {
		method, path string
		status       int
		warned       int
	}{
		{http.MethodGet, "/admin/dashboard", http.StatusOK, 0},
		{http.MethodPut, "/admin/users/2", http.StatusBadRequest, 0},
		{http.MethodPost, "/ratings", http.StatusCreated, 1},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, rec.Code, tc.path)
		assert.Equal(t, tc.warned, logs.FilterMessage("cache: invalidate failed").Len(), tc.path)
	}
}

func TestInvalidateCacheWithoutRedisPassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(InvalidateCache(config.CacheConfig{Enabled: true}, nil, nil))
	e.POST("/ratings", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ratings", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
