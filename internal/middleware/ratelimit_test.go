package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/vitiapi/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newLimitedRouter mounts two table routes behind one limiter and counts the
// requests that reach a handler.
func newLimitedRouter(t *testing.T, ratePerSec, burst int) (*gin.Engine, *int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rl := middleware.NewRateLimiter(ctx, ratePerSec, burst)
	served := new(int)

	r := gin.New()
	r.Use(rl.Handler())
	ok := func(c *gin.Context) {
		*served++
		c.Status(http.StatusOK)
	}
	r.GET("/api/v1/products", ok)
	r.GET("/api/v1/exportations", ok)
	return r, served
}

func getFrom(r *gin.Engine, path, remote string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.RemoteAddr = remote
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BudgetSharedAcrossTables(t *testing.T) {
	r, served := newLimitedRouter(t, 1, 2)

	if w := getFrom(r, "/api/v1/products", "1.2.3.4:1234"); w.Code != http.StatusOK {
		t.Fatalf("products: got %d", w.Code)
	}
	if w := getFrom(r, "/api/v1/exportations", "1.2.3.4:5678"); w.Code != http.StatusOK {
		t.Fatalf("exportations: got %d", w.Code)
	}

	w := getFrom(r, "/api/v1/products", "1.2.3.4:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429, got %d", w.Code)
	}
	if *served != 2 {
		t.Errorf("handler reached %d times, want 2", *served)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if body.Error.Code != "rate_limited" {
		t.Errorf("code = %q, want rate_limited", body.Error.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
}

// At 2/s the next token is 500ms away; Retry-After rounds up to whole seconds.
func TestRateLimiter_RetryAfterRoundsUpFractionalWait(t *testing.T) {
	r, _ := newLimitedRouter(t, 2, 1)

	getFrom(r, "/api/v1/products", "9.9.9.9:1")
	w := getFrom(r, "/api/v1/products", "9.9.9.9:1")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
}

func TestRateLimiter_ClientsHaveSeparateBuckets(t *testing.T) {
	r, _ := newLimitedRouter(t, 1, 1)

	getFrom(r, "/api/v1/products", "1.1.1.1:1000")
	if w := getFrom(r, "/api/v1/products", "1.1.1.1:1000"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("same client: expected 429, got %d", w.Code)
	}
	if w := getFrom(r, "/api/v1/products", "2.2.2.2:1000"); w.Code != http.StatusOK {
		t.Fatalf("other client should not be limited, got %d", w.Code)
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	// High rate so even tiny elapsed time refills tokens.
	r, served := newLimitedRouter(t, 1_000_000, 2)

	for range 3 {
		getFrom(r, "/api/v1/exportations", "5.5.5.5:1000")
	}
	if *served != 3 {
		t.Fatalf("expected tokens to refill, served %d of 3", *served)
	}
}
