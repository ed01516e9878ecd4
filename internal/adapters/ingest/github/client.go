// Package github reads trending repositories and repository metadata from the GitHub REST API
package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/logger"
)

const (
	defaultBaseURL    = "https://api.github.com"
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 4
	maxBody           = 8 << 20
)

// Options configures a Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Tokens are used round robin, none means the anonymous quota
	Tokens []string
	// MaxRetries bounds retries of rate limited and transient failures
	MaxRetries int
	// RPS shapes outgoing requests, 0 disables the limiter
	RPS   float64
	Burst int
}

// Client is a small GitHub REST client with token rotation and retries
type Client struct {
	http  *http.Client
	opts  Options
	next  atomic.Uint32
	lim   *rate.Limiter
	log   logger.Logger
	now   func() time.Time
	timer backoff.Timer
}

// NewClient applies defaults to o
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.UserAgent == "" {
		o.UserAgent = "stackscout"
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	c := &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("github"),
		now:  time.Now,
	}
	if o.RPS > 0 {
		c.lim = rate.NewLimiter(rate.Limit(o.RPS), max(1, o.Burst))
	}
	return c
}

func (c *Client) token() string {
	if len(c.opts.Tokens) == 0 {
		return ""
	}
	n := c.next.Add(1) - 1
	return c.opts.Tokens[int(n)%len(c.opts.Tokens)]
}

// hinted lets a rate limited response dictate the next delay
type hinted struct {
	backoff.BackOff
	wait time.Duration
}

func (h *hinted) NextBackOff() time.Duration {
	d := h.BackOff.NextBackOff()
	if d != backoff.Stop && h.wait > 0 {
		d, h.wait = h.wait, 0
	}
	return d
}

// getJSON fetches path and decodes the body into v, retrying throttling and 5xx answers
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0
	h := &hinted{BackOff: exp}
	policy := backoff.WithContext(backoff.WithMaxRetries(h, uint64(c.opts.MaxRetries)), ctx)

	var body []byte
	attempt := func() error {
		b, wait, err := c.once(ctx, path)
		body, h.wait = b, wait
		return err
	}
	notify := func(err error, d time.Duration) {
		c.log.Warn().Err(err).Str("path", path).Dur("retry_in", d).Msg("github request retrying")
	}
	if err := backoff.RetryNotifyWithTimer(attempt, policy, notify, c.timer); err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "github decode %s", path)
	}
	return nil
}

// once performs a single request, errors not worth retrying are permanent
func (c *Client) once(ctx context.Context, path string) ([]byte, time.Duration, error) {
	if c.lim != nil {
		if err := c.lim.Wait(ctx); err != nil {
			return nil, 0, backoff.Permanent(err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+path, nil)
	if err != nil {
		return nil, 0, backoff.Permanent(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "github request %s", path))
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, backoff.Permanent(ctx.Err())
		}
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s", path)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, 0, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github read %s", path)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", c.now().Sub(start)).
		Str("rate_remaining", resp.Header.Get("X-RateLimit-Remaining")).
		Msg("github response")

	switch s := resp.StatusCode; {
	case s >= 200 && s < 300:
		return body, 0, nil
	case s == http.StatusNotFound:
		return nil, 0, backoff.Permanent(perr.NotFoundf("github %s not found", path))
	case s == http.StatusTooManyRequests, s == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return nil, rateWait(resp.Header, c.now()), perr.Newf(perr.ErrorCodeTooManyRequests, "github rate limited")
	case s == http.StatusBadGateway, s == http.StatusServiceUnavailable, s == http.StatusGatewayTimeout:
		return nil, 0, perr.Unavailablef("github %s answered %d", path, s)
	default:
		return nil, 0, backoff.Permanent(perr.Newf(perr.ErrorCodeUnavailable, "github %s answered %d: %.200s", path, s, body))
	}
}

// rateWait reads Retry-After, then X-RateLimit-Reset, zero when neither says anything useful
func rateWait(h http.Header, now time.Time) time.Duration {
	if s, err := strconv.Atoi(h.Get("Retry-After")); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	if sec, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if d := time.Unix(sec, 0).Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
