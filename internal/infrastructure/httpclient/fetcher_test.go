package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testOptions() Options {
	return Options{
		Name:           "test",
		Timeout:        2 * time.Second,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	}
}

func TestFetchJSON_Success(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[1,2],"next_page_params":{"block_number":12345678901234567890}}`))
	})
	f := NewFetcher(testOptions(), zap.NewNop())

	var out map[string]interface{}
	err := f.FetchJSON(context.Background(), srv.URL+"/tokens", &out)

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	params := out["next_page_params"].(map[string]interface{})
	assert.Equal(t, json.Number("12345678901234567890"), params["block_number"])
}

func TestFetchJSON_DecodeError(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	f := NewFetcher(testOptions(), zap.NewNop())

	var out map[string]interface{}
	err := f.FetchJSON(context.Background(), srv.URL, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not found"}`))
	})
	opts := testOptions()
	opts.MaxRetries = 3
	f := NewFetcher(opts, zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL+"/smart-contracts/0x1")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.False(t, httpErr.Retryable())
	assert.Contains(t, httpErr.Error(), "Not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_ServerErrorRetriedThenSurfaced(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	opts := testOptions()
	opts.MaxRetries = 2
	f := NewFetcher(opts, zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_RecoversAfterTransientError(t *testing.T) {
	var n atomic.Int32
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	opts := testOptions()
	opts.MaxRetries = 1
	f := NewFetcher(opts, zap.NewNop())

	body, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(2), n.Load())
}

func TestFetch_NoRetriesByDefault(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	f := NewFetcher(testOptions(), zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_BreakerOpensOnServerErrors(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	opts := testOptions()
	opts.BreakerFailures = 2
	opts.BreakerCooldown = time.Minute
	f := NewFetcher(opts, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)
	}
	_, err := f.Fetch(context.Background(), srv.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), calls.Load(), "open breaker short-circuits the request")
}

func TestFetch_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	opts := testOptions()
	opts.BreakerFailures = 1
	opts.BreakerCooldown = time.Minute
	f := NewFetcher(opts, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_CanceledContext(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	f := NewFetcher(testOptions(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, srv.URL)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}

func TestHTTPError_TruncatesBody(t *testing.T) {
	err := &HTTPError{StatusCode: 500, URL: "http://x", Body: []byte(strings.Repeat("a", 1000))}

	assert.Less(t, len(err.Error()), 400)
	assert.True(t, err.Retryable())
}

func TestCountsAsFailure(t *testing.T) {
	assert.False(t, countsAsFailure(nil))
	assert.True(t, countsAsFailure(errors.New("connection refused")))
	assert.True(t, countsAsFailure(&TransportError{URL: "http://x", Err: errors.New("reset")}))
	assert.True(t, countsAsFailure(&HTTPError{StatusCode: 503}))
	assert.True(t, countsAsFailure(&HTTPError{StatusCode: 429}))
	assert.False(t, countsAsFailure(&HTTPError{StatusCode: 404}))
	assert.False(t, countsAsFailure(fmt.Errorf("request to http://x: %w", context.DeadlineExceeded)))
	assert.False(t, countsAsFailure(context.Canceled))
}

func TestFetch_HidesAPIKey(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	})
	f := NewFetcher(testOptions(), zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL+"/tokens?apikey=SECRET-KEY-123&items_count=50")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
	assert.Contains(t, err.Error(), "apikey=REDACTED")
	assert.Contains(t, err.Error(), "items_count=50")
}

func TestFetch_TransportErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL + "/tokens?apikey=SECRET-KEY-123"
	srv.Close()
	f := NewFetcher(testOptions(), zap.NewNop())

	_, err := f.Fetch(context.Background(), target)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, transportErr.Retryable())
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestFetch_CallerDeadlineDoesNotTripBreaker(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-time.After(200 * time.Millisecond):
			case <-r.Context().Done():
			}
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	opts := testOptions()
	opts.BreakerFailures = 2
	opts.BreakerCooldown = time.Minute
	f := NewFetcher(opts, zap.NewNop())

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		_, err := f.Fetch(ctx, srv.URL+"/slow")
		cancel()
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	body, err := f.Fetch(context.Background(), srv.URL+"/ok")

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestFetch_OwnTimeoutTripsBreaker(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
		}
	})
	opts := testOptions()
	opts.Timeout = 30 * time.Millisecond
	opts.BreakerFailures = 2
	opts.BreakerCooldown = time.Minute
	f := NewFetcher(opts, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
	}
	before := calls.Load()
	_, err := f.Fetch(context.Background(), srv.URL)

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, calls.Load(), "open breaker short-circuits the request")
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://x/api/v2/tokens", "https://x/api/v2/tokens"},
		{"https://x/t?items_count=50", "https://x/t?items_count=50"},
		{"https://x/t?apikey=s3cret&items_count=50", "https://x/t?apikey=REDACTED&items_count=50"},
		{"https://x/t?API_KEY=s3cret", "https://x/t?API_KEY=REDACTED"},
		{"://bad?apikey=s3cret", "://bad"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactURL(tt.in), tt.in)
	}
}
