package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func rateLimitedHandler(config RateLimitConfig) http.Handler {
	return RateLimitByIP(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// TestRateLimitByIP_AllowsUnderLimit verifies requests under the limit pass through
func TestRateLimitByIP_AllowsUnderLimit(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerMinute: 5})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "192.168.10.1:8080"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("request %d failed with status %d, expected 200", i+1, recorder.Code)
		}
	}
}

// TestRateLimitByIP_Returns429OverLimit verifies the limit is enforced with a JSON 429
func TestRateLimitByIP_Returns429OverLimit(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerMinute: 3})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "192.168.10.2:8080"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("request %d failed with status %d, expected 200", i+1, recorder.Code)
		}
	}

	// 4th request should be rate limited
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "192.168.10.2:8080"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, recorder.Code)
	}

	contentType := recorder.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	body := recorder.Body.String()
	if body != `{"error":"rate_limit_exceeded","message":"Too many requests"}` {
		t.Errorf("unexpected response body: %s", body)
	}
}

// TestRateLimitByIP_IsolatesClientBuckets verifies separate limits per client IP
func TestRateLimitByIP_IsolatesClientBuckets(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerMinute: 2})

	// First client exhausts its bucket
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "10.1.0.1:5000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusOK {
			t.Fatalf("client A request %d failed with status %d", i+1, recorder.Code)
		}
	}

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "10.1.0.1:5000"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected client A to be rate limited, got %d", recorder.Code)
	}

	// Second client still has a fresh bucket
	req = httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "10.1.0.2:5000"
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Errorf("expected client B to have an independent limit, got status %d", recorder.Code)
	}
}

// TestRateLimitByIP_HonorsRealIPHeader verifies limits key on X-Real-IP when present
func TestRateLimitByIP_HonorsRealIPHeader(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerMinute: 2})

	// Same RemoteAddr, distinct X-Real-IP values: each header IP gets its own bucket
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "127.0.0.1:9000"
		req.Header.Set("X-Real-Ip", fmt.Sprintf("203.0.113.%d", i+1))
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Errorf("request %d with distinct X-Real-Ip failed with status %d", i+1, recorder.Code)
		}
	}
}

// TestDefaultAuthRateLimit verifies the default auth endpoint budget
func TestDefaultAuthRateLimit(t *testing.T) {
	config := DefaultAuthRateLimit()
	if config.RequestsPerMinute != 5 {
		t.Errorf("expected 5 requests per minute, got %d", config.RequestsPerMinute)
	}
}
