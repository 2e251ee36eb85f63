package middleware_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
	"github.com/ammerola/stockledger/internal/pkg/logger"
	"github.com/ammerola/stockledger/test/helpers"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		header   string
		incoming string
		validate func(t *testing.T, resp *http.Response)
	}{
		{
			name: "generates_new_request_id",
			validate: func(t *testing.T, resp *http.Response) {
				id := resp.Header.Get("X-Request-ID")
				assert.Len(t, id, 36)
				assert.Equal(t, id, seen)
			},
		},
		{
			name:     "uses_existing_request_id",
			incoming: "existing-id-123",
			validate: func(t *testing.T, resp *http.Response) {
				assert.Equal(t, "existing-id-123", resp.Header.Get("X-Request-ID"))
				assert.Equal(t, "existing-id-123", seen)
			},
		},
		{
			name:     "replaces_oversized_request_id",
			incoming: string(bytes.Repeat([]byte("a"), 200)),
			validate: func(t *testing.T, resp *http.Response) {
				assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
			},
		},
		{
			name:     "custom_header",
			header:   "X-Correlation-ID",
			incoming: "corr-1",
			validate: func(t *testing.T, resp *http.Response) {
				assert.Equal(t, "corr-1", resp.Header.Get("X-Correlation-ID"))
				assert.Empty(t, resp.Header.Get("X-Request-ID"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			name := tt.header
			if name == "" {
				name = "X-Request-ID"
			}
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.incoming != "" {
				req.Header.Set(name, tt.incoming)
			}
			w := httptest.NewRecorder()

			middleware.RequestID(tt.header)(handler).ServeHTTP(w, req)

			tt.validate(t, w.Result())
		})
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel string
	}{
		{name: "success_logs_info", status: http.StatusOK, expectedLevel: "INFO"},
		{name: "client_error_logs_warn", status: http.StatusBadRequest, expectedLevel: "WARN"},
		{name: "server_error_logs_error", status: http.StatusInternalServerError, expectedLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := slog.New(logger.NewContextHandler(
				slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
				[]logger.ContextKey{logger.ContextKeyRequestID, logger.ContextKeyMethod, logger.ContextKeyPath},
			))

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/variants/1/sell", nil)
			req = req.WithContext(logger.WithRequestID(req.Context(), "req-123"))
			w := httptest.NewRecorder()

			middleware.Logger(l, 0)(handler).ServeHTTP(w, req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.expectedLevel, entry["level"])
			assert.Equal(t, "request_completed", entry["msg"])
			assert.Equal(t, "req-123", entry["request_id"])
			assert.Equal(t, http.MethodPost, entry["method"])
			assert.Equal(t, "/api/v1/variants/1/sell", entry["path"])

			resp := entry["response"].(map[string]any)
			assert.EqualValues(t, tt.status, resp["status"])
			assert.EqualValues(t, 4, resp["bytes"])
		})
	}
}

func TestRecovery(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(logger.WithRequestID(req.Context(), "req-9"))
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		middleware.Recovery(helpers.TestLogger())(handler).ServeHTTP(w, req)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.Status)
	assert.Equal(t, handlers.CodeInternal, body.Error)
	assert.Equal(t, "internal server error", body.Message)
	assert.Equal(t, "/test", body.Path)
	assert.Equal(t, "req-9", body.Details["request_id"])
	assert.False(t, body.Timestamp.IsZero())
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(3, time.Minute)
	wrapped := rl.Middleware(okHandler("ok"))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send("10.0.0.1"), "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"), "other clients keep their own bucket")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusTooManyRequests, body.Status)
	assert.Equal(t, handlers.CodeRateLimit, body.Error)
	assert.Equal(t, "/api/v1/items", body.Path)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	rl := middleware.NewRateLimiter(1, time.Minute)
	wrapped := rl.Middleware(okHandler("ok"))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("1.1.1.1, 10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("1.1.1.1, 10.0.0.2"))
	assert.Equal(t, http.StatusOK, send("2.2.2.2"))
}

func TestRateLimiter_SweepStops(t *testing.T) {
	rl := middleware.NewRateLimiter(1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		rl.Sweep(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sweep did not return after cancel")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowed        []string
		origin         string
		method         string
		preflight      bool
		expectedStatus int
		expectedOrigin string
	}{
		{
			name:           "allowed_origin",
			allowed:        []string{"https://shop.example"},
			origin:         "https://shop.example",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://shop.example",
		},
		{
			name:           "disallowed_origin",
			allowed:        []string{"https://shop.example"},
			origin:         "https://evil.example",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wildcard_echoes_origin",
			allowed:        []string{"*"},
			origin:         "https://any.example",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://any.example",
		},
		{
			name:           "preflight_short_circuits",
			allowed:        []string{"*"},
			origin:         "https://any.example",
			method:         http.MethodOptions,
			preflight:      true,
			expectedStatus: http.StatusNoContent,
			expectedOrigin: "https://any.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()

			middleware.CORS(tt.allowed)(okHandler("ok")).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	middleware.SecureHeaders(okHandler("ok")).ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "plain http gets no HSTS")
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	middleware.Timeout(time.Second)(handler).ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)

	ok = false
	middleware.Timeout(0)(handler).ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, ok, "zero timeout leaves the context alone")
}

func TestCompression(t *testing.T) {
	body := string(bytes.Repeat([]byte("movement,"), 100))

	t.Run("gzip_when_accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		w := httptest.NewRecorder()

		middleware.Compression(okHandler(body)).ServeHTTP(w, req)

		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
		zr, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		got, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.Equal(t, body, string(got))
	})

	t.Run("plain_otherwise", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		middleware.Compression(okHandler(body)).ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Content-Encoding"))
		assert.Equal(t, body, w.Body.String())
	})
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := middleware.Chain(okHandler("ok"), mark("first"), mark("second"), mark("third"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}
