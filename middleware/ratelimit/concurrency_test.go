package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"governance-gateway/middleware/ratelimit/infra"
)

func TestConcurrencyMiddleware_RejectsWhenPoolIsFull(t *testing.T) {
	pool := infra.NewChanPool(1)
	entered := make(chan struct{})
	release := make(chan struct{})

	h := ConcurrencyMiddleware(ConcurrencyOptions{
		Pool:           pool,
		AcquireTimeout: 25 * time.Millisecond,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	}()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting first request to start")
	}
	if pool.InUse() != 1 {
		t.Fatalf("expected 1 slot in use, got %d", pool.InUse())
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	if second.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected second request 503, got %d", second.Code)
	}
	if got := errorMessage(t, second); got != messageOverloaded {
		t.Fatalf("unexpected error message %q", got)
	}

	close(release)
	<-done
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", first.Code)
	}
	if pool.InUse() != 0 {
		t.Fatalf("expected slot to be released, got %d in use", pool.InUse())
	}
}

func TestConcurrencyMiddleware_DisabledPassesThrough(t *testing.T) {
	calls := 0
	h := ConcurrencyMiddleware(ConcurrencyOptions{})(okHandler(&calls))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example/", nil))
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}
