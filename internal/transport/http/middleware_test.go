package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obichijioke/eventapp/internal/domain"
	"github.com/obichijioke/eventapp/internal/logging"
)

func TestRequestLogger_LogsStatusAndPath(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := logging.New(buf, "debug", "text")

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodGet, "/holds", nil)
	req = req.WithContext(logging.WithCorrelationID(req.Context(), "abcd1234"))
	rec := httptest.NewRecorder()

	RequestLogger(handler, logger).ServeHTTP(rec, req)

	out := buf.String()
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/holds")
	assert.Contains(t, out, "status=201")
	assert.Contains(t, out, "correlation_id=abcd1234")
}

func TestRequestLogger_DefaultsTo200(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	RequestLogger(handler, logger).ServeHTTP(rec, req)

	assert.Contains(t, buf.String(), "status=200")
}

func TestCorrelation(t *testing.T) {
	t.Parallel()

	var seen string
	handler := Correlation(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = logging.CorrelationID(r.Context())
	}))

	t.Run("honours caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, "req-42")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
	})

	t.Run("generates id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Len(t, seen, 8)
		assert.Equal(t, seen, rec.Header().Get(requestIDHeader))
	})
}

type stubAuthenticator struct {
	actors map[string]domain.Actor
	err    error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (domain.Actor, error) {
	if s.err != nil {
		return domain.Actor{}, s.err
	}
	a, ok := s.actors[token]
	if !ok {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	return a, nil
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	auth := stubAuthenticator{actors: map[string]domain.Actor{"good": testActor}}
	var got domain.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = actorFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		status int
		actor  domain.Actor
	}{
		{name: "anonymous", status: http.StatusNoContent},
		{name: "valid token", header: "Bearer good", status: http.StatusNoContent, actor: testActor},
		{name: "scheme is case insensitive", header: "bearer good", status: http.StatusNoContent, actor: testActor},
		{name: "invalid token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "other scheme ignored", header: "Basic Zm9vOmJhcg==", status: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = domain.Actor{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticate(next, auth).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.actor, got)
		})
	}
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	auth := stubAuthenticator{err: errors.New("db down")}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()

	Authenticate(http.NotFoundHandler(), auth).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireActor(t *testing.T) {
	t.Parallel()

	handler := RequireActor(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, codeUnauthenticated, decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req = req.WithContext(withActor(req.Context(), testActor))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestRateLimiter_Middleware(t *testing.T) {
	t.Parallel()

	l := NewRateLimiter(0.001, 1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, codeRateLimited, decodeError(t, rec).Code)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	tests := []struct {
		name    string
		remote  string
		xff     []string
		trusted []netip.Prefix
		want    string
	}{
		{name: "peer address", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded header ignored without proxies", remote: "192.0.2.1:1234", xff: []string{"203.0.113.9"}, want: "192.0.2.1"},
		{name: "forwarded header ignored from untrusted peer", remote: "192.0.2.1:1234", xff: []string{"203.0.113.9"}, trusted: proxies, want: "192.0.2.1"},
		{name: "trusted proxy", remote: "10.0.0.5:443", xff: []string{"203.0.113.9"}, trusted: proxies, want: "203.0.113.9"},
		{name: "client-supplied prefix is skipped", remote: "10.0.0.5:443", xff: []string{"198.51.100.1, 203.0.113.9"}, trusted: proxies, want: "203.0.113.9"},
		{name: "proxy chain", remote: "10.0.0.5:443", xff: []string{"203.0.113.9", "10.1.1.1"}, trusted: proxies, want: "203.0.113.9"},
		{name: "junk hop", remote: "10.0.0.5:443", xff: []string{"not-an-ip"}, trusted: proxies, want: "10.0.0.5"},
		{name: "no header from proxy", remote: "10.0.0.5:443", trusted: proxies, want: "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trusted))
		})
	}
}

func TestRateLimiter_SpoofedForwardedFor(t *testing.T) {
	t.Parallel()

	l := NewRateLimiter(0.001, 1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.0.2.7:5555"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.2"), "a fresh header does not buy a fresh bucket")
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.3"))

	behindProxy := NewRateLimiter(0.001, 1, netip.MustParsePrefix("192.0.2.7/32"))
	assert.True(t, behindProxy.Allow(clientIP(forwarded("192.0.2.7:5555", "203.0.113.1"), behindProxy.trusted)))
	assert.True(t, behindProxy.Allow(clientIP(forwarded("192.0.2.7:5555", "203.0.113.2"), behindProxy.trusted)), "clients behind the proxy get their own buckets")
	assert.False(t, behindProxy.Allow(clientIP(forwarded("192.0.2.7:5555", "203.0.113.1"), behindProxy.trusted)))
}

func forwarded(remote, xff string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	req.Header.Set("X-Forwarded-For", xff)
	return req
}
