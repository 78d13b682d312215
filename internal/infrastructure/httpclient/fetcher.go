// Package httpclient is the JSON GET primitive shared by the upstream clients.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tokenstats/internal/pkg/metrics"
	"tokenstats/internal/pkg/retry"

	jsoniter "github.com/json-iterator/go"
	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// jsonAPI decodes numbers as json.Number so cursor values round-trip verbatim.
var jsonAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

const (
	defaultTimeout          = 15 * time.Second
	defaultMaxResponseBytes = 32 * 1024 * 1024
)

// Options configures a Fetcher. Zero values pick conservative defaults; a zero
// RateLimit disables limiting and a zero BreakerFailures disables the breaker.
type Options struct {
	Name             string
	Timeout          time.Duration
	RateLimit        float64
	Burst            int
	MaxRetries       int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	BreakerFailures  uint32
	BreakerCooldown  time.Duration
	MaxResponseBytes int
	UserAgent        string
}

// Fetcher issues JSON GET requests to one upstream.
type Fetcher struct {
	client  *fasthttp.Client
	opts    Options
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewFetcher creates a Fetcher for the upstream named in opts.
func NewFetcher(opts Options, logger *zap.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = defaultMaxResponseBytes
	}
	if opts.Name == "" {
		opts.Name = "upstream"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Fetcher{
		client: &fasthttp.Client{
			Name:                opts.UserAgent,
			MaxResponseBodySize: opts.MaxResponseBytes,
			ReadTimeout:         opts.Timeout,
			WriteTimeout:        opts.Timeout,
		},
		opts:   opts,
		logger: logger.Named(opts.Name),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	if opts.BreakerFailures > 0 {
		f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        opts.Name,
			MaxRequests: 1,
			Timeout:     opts.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= opts.BreakerFailures
			},
			IsSuccessful: func(err error) bool {
				return !countsAsFailure(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				f.logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
	return f
}

// FetchJSON GETs url and decodes the JSON body into out. Non-2xx responses
// fail with *HTTPError.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, out interface{}) error {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := jsonAPI.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", RedactURL(url), err)
	}
	return nil
}

// Fetch GETs url and returns the raw body. Secret query values in url never
// appear in returned errors or logs.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	safeURL := RedactURL(url)
	var body []byte
	err := retry.Do(ctx, retry.Options{
		MaxRetries: f.opts.MaxRetries,
		BaseDelay:  f.opts.RetryBaseDelay,
		MaxDelay:   f.opts.RetryMaxDelay,
	}, func() error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter wait for %s: %w", safeURL, err)
			}
		}
		if f.breaker == nil {
			b, err := f.do(ctx, url, safeURL)
			body = b
			return err
		}
		res, err := f.breaker.Execute(func() (interface{}, error) {
			return f.do(ctx, url, safeURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return fmt.Errorf("%s unavailable: %w", f.opts.Name, err)
			}
			return err
		}
		body = res.([]byte)
		return nil
	})
	return body, err
}

func (f *Fetcher) do(ctx context.Context, url, safeURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(f.opts.Timeout)
	callerDeadline := false
	if ctxDeadline, ok := ctx.Deadline(); ok && !ctxDeadline.After(deadline) {
		deadline = ctxDeadline
		callerDeadline = true
	}

	started := time.Now()
	f.logger.Debug("Requesting upstream", zap.String("url", safeURL))
	if err := f.client.DoDeadline(req, resp, deadline); err != nil {
		metrics.ObserveUpstream(f.opts.Name, 0, started)
		if ctxErr := ctx.Err(); ctxErr != nil {
			f.logger.Debug("Upstream request abandoned by caller", zap.String("url", safeURL), zap.Error(ctxErr))
			return nil, fmt.Errorf("request to %s: %w", safeURL, ctxErr)
		}
		if callerDeadline && errors.Is(err, fasthttp.ErrTimeout) {
			f.logger.Debug("Upstream request hit caller deadline", zap.String("url", safeURL))
			return nil, fmt.Errorf("request to %s: %w", safeURL, context.DeadlineExceeded)
		}
		f.logger.Warn("Upstream request failed", zap.String("url", safeURL), zap.Error(err))
		return nil, &TransportError{URL: safeURL, Err: err}
	}

	status := resp.StatusCode()
	metrics.ObserveUpstream(f.opts.Name, status, started)
	body := append([]byte(nil), resp.Body()...)

	if status < 200 || status >= 300 {
		f.logger.Warn("Upstream returned non-2xx status",
			zap.String("url", safeURL),
			zap.Int("statusCode", status),
			zap.Int("bodyBytes", len(body)))
		return nil, &HTTPError{
			StatusCode: status,
			URL:        safeURL,
			Body:       body,
			RetryAfter: retry.ParseRetryAfter(string(resp.Header.Peek(fasthttp.HeaderRetryAfter))),
		}
	}

	f.logger.Debug("Upstream responded",
		zap.String("url", safeURL),
		zap.Int("statusCode", status),
		zap.Duration("elapsed", time.Since(started)))
	return body, nil
}
