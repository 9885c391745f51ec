package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "go.uber.org/zap/zaptest/observer"

    "github.com/iliyamo/eventcat/internal/config"
)

func newContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(method, target, nil)
    rec := httptest.NewRecorder()
    return e.NewContext(req, rec), rec
}

func TestResponseCacheWithoutRedisPassesThrough(t *testing.T) {
    rc := NewResponseCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, nil)

    calls := 0
    h := rc.Middleware()(func(c echo.Context) error {
        calls++
        return c.String(http.StatusOK, "ok")
    })
    for i := 0; i < 2; i++ {
        c, rec := newContext(http.MethodGet, "/event/1")
        if err := h(c); err != nil {
            t.Fatalf("handler: %v", err)
        }
        if rec.Header().Get("X-Cache") != "" {
            t.Fatal("pass-through must not tag responses")
        }
    }
    if calls != 2 {
        t.Fatalf("calls = %d", calls)
    }
    if err := rc.Invalidate(context.Background()); err != nil {
        t.Fatalf("invalidate without redis: %v", err)
    }
    rc.Notify(context.Background(), "event.updated", nil)
}

func TestCacheKeyDistinguishesPaths(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "eventcat:cache", KeyStrategy: "path_query"}
    c1, _ := newContext(http.MethodGet, "/event/1")
    c2, _ := newContext(http.MethodGet, "/event/2")
    c3, _ := newContext(http.MethodGet, "/event/1")

    k1, k2, k3 := cacheKeyFrom(cfg, c1), cacheKeyFrom(cfg, c2), cacheKeyFrom(cfg, c3)
    if k1 == k2 {
        t.Fatal("different paths share a key")
    }
    if k1 != k3 {
        t.Fatal("same request produced different keys")
    }
    if !strings.HasPrefix(k1, "eventcat:cache:") {
        t.Fatalf("key %q lacks prefix", k1)
    }
}

func TestPayloadDecodeRejectsShortInput(t *testing.T) {
    if _, _, _, ok := decodePayload([]byte{0, 0, 0}); ok {
        t.Fatal("short payload accepted")
    }
    bs, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`[]`))
    if err != nil {
        t.Fatalf("encode: %v", err)
    }
    status, hdr, body, ok := decodePayload(bs)
    if !ok || status != http.StatusOK || hdr.Get("Content-Type") != "application/json" || string(body) != "[]" {
        t.Fatalf("decoded %d %v %q %v", status, hdr, body, ok)
    }
}

func TestCaptureWriterLimit(t *testing.T) {
    rec := httptest.NewRecorder()
    cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
    _, _ = cw.Write([]byte("abc"))
    if cw.truncated() {
        t.Fatal("under limit reported as truncated")
    }
    _, _ = cw.Write([]byte("def"))
    if !cw.truncated() || cw.buf.String() != "abcd" || rec.Body.String() != "abcdef" {
        t.Fatalf("buf=%q client=%q", cw.buf.String(), rec.Body.String())
    }
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
    mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil)
    h := mw(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
    for i := 0; i < 3; i++ {
        c, rec := newContext(http.MethodPost, "/search")
        if err := h(c); err != nil || rec.Code != http.StatusNoContent {
            t.Fatalf("request %d: %v %d", i, err, rec.Code)
        }
    }
}

func TestBuildRateKey(t *testing.T) {
    c, _ := newContext(http.MethodPost, "/search")
    c.Request().RemoteAddr = "10.0.0.7:5555"
    c.SetPath("/search")

    tests := []struct {
        strategy string
        want     string
    }{
        {strategy: "ip", want: "rl:ip:10.0.0.7"},
        {strategy: "route", want: "rl:route:POST /search"},
        {strategy: "", want: "rl:ip:10.0.0.7:route:POST /search"},
    }
    for _, tt := range tests {
        got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}, c)
        if got != tt.want {
            t.Fatalf("strategy %q: key = %q, want %q", tt.strategy, got, tt.want)
        }
    }
}

func TestRequestLogger(t *testing.T) {
    core, logs := observer.New(zapcore.InfoLevel)
    log := zap.New(core)

    e := echo.New()
    e.Use(RequestLogger(log))
    e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
    e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

    for _, path := range []string{"/ok", "/boom"} {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
    }

    entries := logs.All()
    if len(entries) != 2 {
        t.Fatalf("expected 2 log lines, got %d", len(entries))
    }
    if entries[0].Level != zapcore.InfoLevel || entries[0].ContextMap()["status"] != int64(200) {
        t.Fatalf("first entry = %+v", entries[0])
    }
    if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["status"] != int64(500) {
        t.Fatalf("second entry = %+v", entries[1])
    }
}
