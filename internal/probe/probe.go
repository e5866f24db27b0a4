package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/MrSnakeDoc/bookaimark/internal/utils"
)

const (
	// DefaultTimeout bounds a single probe, connection through response headers.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent identifies the checker to probed sites.
	DefaultUserAgent = "Mozilla/5.0 (compatible; BookAIMark/1.0; +https://bookaimark.com)"
	// TimeoutReason is the failure reason reported when the deadline fires.
	TimeoutReason = "Request timeout"

	maxRedirects = 10
)

// Outcome is the raw, uninterpreted result of one probe.
type Outcome struct {
	StatusCode int           // 0 when no response arrived
	Elapsed    time.Duration // request start to response or failure
	Err        error         // nil when a response arrived
	TimedOut   bool
}

// FailureReason returns a human-readable failure, or "" on response.
func (o Outcome) FailureReason() string {
	switch {
	case o.Err == nil:
		return ""
	case o.TimedOut:
		return TimeoutReason
	default:
		return underlying(o.Err).Error()
	}
}

// Prober checks a single URL.
type Prober interface {
	Probe(ctx context.Context, rawURL string) Outcome
}

// HTTPProber issues one HEAD request per call, following redirects, with a
// hard per-call deadline. It never retries.
type HTTPProber struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Options configures an HTTPProber. Zero values pick the defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// New builds an HTTPProber.
func New(opts Options) *HTTPProber {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   opts.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: opts.Timeout,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		}
	}

	return &HTTPProber{
		client: &http.Client{
			// The deadline is carried by the request context.
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
}

// Timeout returns the per-probe deadline.
func (p *HTTPProber) Timeout() time.Duration { return p.timeout }

// Probe performs the HEAD request. A malformed URL fails like any other
// transport error.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return Outcome{Elapsed: time.Since(start), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Outcome{
			Elapsed:  elapsed,
			Err:      err,
			TimedOut: isTimeout(ctx, err),
		}
	}
	defer utils.Close(resp.Body)

	return Outcome{StatusCode: resp.StatusCode, Elapsed: elapsed}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// underlying strips the "Head \"<url>\": " wrapper added by net/http.
func underlying(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}
