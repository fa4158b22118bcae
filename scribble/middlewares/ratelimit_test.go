package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"scribble/scribble/services/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(t *testing.T, handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRateLimitRefusesBeyondLimit(t *testing.T) {
	window := time.Minute
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: 3, Window: window})
	handler := RateLimit(limiter)(okHandler())

	for i := 0; i < 3; i++ {
		if rr := hit(t, handler, "10.0.0.1:1234"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}

	rr := hit(t, handler, "10.0.0.1:1234")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	retry, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After %q is not an integer", rr.Header().Get("Retry-After"))
	}
	if retry < 1 || retry > int(window/time.Second) {
		t.Errorf("Retry-After %d out of range (0, %d]", retry, int(window/time.Second))
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: 1, Window: time.Minute})
	handler := RateLimit(limiter)(okHandler())

	hit(t, handler, "10.0.0.1:1234")
	if rr := hit(t, handler, "10.0.0.1:1234"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for the exhausted client, got %d", rr.Code)
	}
	if rr := hit(t, handler, "10.0.0.2:1234"); rr.Code != http.StatusOK {
		t.Errorf("a different client must not be affected, got %d", rr.Code)
	}
}

func TestRateLimitKeysByHostNotPort(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: 1, Window: time.Minute})
	handler := RateLimit(limiter)(okHandler())

	hit(t, handler, "10.0.0.1:1111")
	if rr := hit(t, handler, "10.0.0.1:2222"); rr.Code != http.StatusTooManyRequests {
		t.Errorf("same host on a new port must share the budget, got %d", rr.Code)
	}
}
