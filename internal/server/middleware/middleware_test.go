package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetRequestID(r.Context())))
})

func TestRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	RequestID(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	RequestID(ok).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", rec.Body.String())
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict?x=1", nil))
	out := buf.String()
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"path":"/predict"`)
	assert.Contains(t, out, `"request_id":"`)
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tests := []struct {
		name    string
		limiter *fakeLimiter
		want    int
	}{
		{"allowed", &fakeLimiter{allow: true}, http.StatusOK},
		{"limited", &fakeLimiter{allow: false}, http.StatusTooManyRequests},
		{"fails open", &fakeLimiter{err: errors.New("redis down")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/predict", nil)
			req.RemoteAddr = "203.0.113.9:5555"
			rec := httptest.NewRecorder()
			RateLimit(tt.limiter, 10, 2*time.Second, logger)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			require.Len(t, tt.limiter.keys, 1)
			assert.Equal(t, "api:203.0.113.9", tt.limiter.keys[0])
			if tt.want == http.StatusTooManyRequests {
				assert.Equal(t, "2", rec.Header().Get("Retry-After"))
				assert.JSONEq(t, `{"detail":"rate limit exceeded"}`, rec.Body.String())
			}
		})
	}
}
