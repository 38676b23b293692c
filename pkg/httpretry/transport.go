package httpretry

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/llmrelay", "httpretry")

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBackoffFactor is the initial backoff interval.
	DefaultBackoffFactor = time.Second
	// DefaultMaxInterval caps a single wait, including Retry-After.
	DefaultMaxInterval = 30 * time.Second
	// DefaultTimeout is the timeout of the HTTP client returned by NewClient.
	DefaultTimeout = 60 * time.Second
)

// Policy configures the retry transport.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	// BackoffFactor is the initial interval, doubled on each retry.
	BackoffFactor time.Duration `json:"backoff_factor,omitempty" yaml:"backoff_factor,omitempty"`
	// MaxInterval caps a single wait.
	MaxInterval time.Duration `json:"max_interval,omitempty" yaml:"max_interval,omitempty"`
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    DefaultMaxRetries,
		BackoffFactor: DefaultBackoffFactor,
		MaxInterval:   DefaultMaxInterval,
	}
}

// Transport is http.RoundTripper that retries throttled and transient failures.
type Transport struct {
	// Base is the underlying transport, http.DefaultTransport if nil.
	Base   http.RoundTripper
	Policy Policy

	// newBackOff is replaced in tests
	newBackOff func() backoff.BackOff
}

// NewTransport returns a retrying transport over base.
func NewTransport(base http.RoundTripper, policy Policy) *Transport {
	if policy.BackoffFactor <= 0 {
		policy.BackoffFactor = DefaultBackoffFactor
	}
	if policy.MaxInterval <= 0 {
		policy.MaxInterval = DefaultMaxInterval
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	return &Transport{
		Base:   base,
		Policy: policy,
	}
}

// NewClient returns http.Client with the retrying transport and timeout.
func NewClient(policy Policy, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Transport: NewTransport(nil, policy),
		Timeout:   timeout,
	}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) backOff() backoff.BackOff {
	if t.newBackOff != nil {
		return t.newBackOff()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.Policy.BackoffFactor
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = t.Policy.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	rewindable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	bo := backoff.WithContext(backoff.WithMaxRetries(t.backOff(), uint64(t.Policy.MaxRetries)), ctx)

	attempt := 0
	for {
		r := req
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, errors.Wrap(err, "unable to rewind request body")
			}
			r = req.Clone(ctx)
			r.Body = body
		}

		resp, err := t.base().RoundTrip(r)
		if !shouldRetry(resp, err) || !rewindable {
			return resp, err
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return resp, err
		}
		if ra := retryAfter(resp); ra > wait {
			wait = min(ra, t.Policy.MaxInterval)
		}

		status := 0
		if resp != nil {
			status = resp.StatusCode
			drain(resp)
		}
		attempt++
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "retry",
			"url", req.URL.Redacted(),
			"attempt", attempt,
			"http_status", status,
			"wait", wait.String(),
			"err", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.WithStack(ctx.Err())
		case <-timer.C:
		}
	}
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp != nil && llms.IsRetryableStatus(resp.StatusCode)
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func drain(resp *http.Response) {
	if resp.Body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		_ = resp.Body.Close()
	}
}
