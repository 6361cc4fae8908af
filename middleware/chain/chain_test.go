package chain

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"governance-gateway/middleware/ratelimit"
	"governance-gateway/middleware/requestlog"
)

func governed(t *testing.T, order Order, buf *bytes.Buffer) http.Handler {
	t.Helper()

	cfg := ratelimit.DefaultPolicyConfig()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg.Clock = func() time.Time { return now }
	lim, err := ratelimit.NewLimiter(cfg)
	require.NoError(t, err)

	logger := requestlog.Middleware(requestlog.Options{Sink: requestlog.NewSink(buf), TrustXForwardedFor: true})
	limiter := ratelimit.Middleware(ratelimit.Options{Policy: lim, TrustXForwardedFor: true})

	return Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), Build(order, logger, limiter))
}

func countLines(buf *bytes.Buffer) int {
	s := strings.TrimRight(buf.String(), "\n")
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}

func TestChain_Orderings(t *testing.T) {
	tests := []struct {
		order     Order
		wantLines int
	}{
		// anônimo: limite 1 => 1 permitida + 2 negadas
		{order: LogThenLimit, wantLines: 3},
		{order: LimitThenLog, wantLines: 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			var buf bytes.Buffer
			h := governed(t, tt.order, &buf)

			codes := make([]int, 0, 3)
			for i := 0; i < 3; i++ {
				r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
				r.Header.Set("X-Forwarded-For", "1.2.3.4")
				w := httptest.NewRecorder()
				h.ServeHTTP(w, r)
				codes = append(codes, w.Code)
			}

			assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
			assert.Equal(t, tt.wantLines, countLines(&buf))
			assert.Contains(t, buf.String(), "IP: 1.2.3.4, User: Anonymous")
		})
	}
}

func TestBuild_SkipsNilStages(t *testing.T) {
	mw := func(next http.Handler) http.Handler { return next }
	assert.Len(t, Build(LogThenLimit, nil, mw), 1)
	assert.Len(t, Build(LimitThenLog, nil, nil), 0)

	h := http.NotFoundHandler()
	assert.NotNil(t, Wrap(h, nil))
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, LogThenLimit, o)

	o, err = ParseOrder("Limit-Then-Log")
	require.NoError(t, err)
	assert.Equal(t, LimitThenLog, o)

	_, err = ParseOrder("sideways")
	assert.Error(t, err)
}
