// Package rescuetime fetches minute-interval activity exports from the RescueTime analytic API
package rescuetime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	perr "timejar/internal/platform/errors"
	"timejar/internal/platform/logger"
)

const (
	baseURLDefault   = "https://www.rescuetime.com/anapi/data"
	defaultTimeout   = 60 * time.Second
	defaultUA        = "timejar-export"
	defaultMaxTries  = 5
	defaultRetryBase = 500 * time.Millisecond
	defaultWindow    = 30 // minute intervals are only served for up to a month
	dayLayout        = "2006-01-02"
	bodyLogMax       = 2048
	maxBodyBytes     = 512 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Key is the analytic API key; required
	Key string

	// MaxTries bounds attempts including the first one
	MaxTries  int
	RetryBase time.Duration

	// WindowDays is how far back restrict_begin reaches from today
	WindowDays int
}

// Client issues the export request with exponential backoff on failures
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxTries <= 0 {
		o.MaxTries = defaultMaxTries
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.WindowDays <= 0 {
		o.WindowDays = defaultWindow
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("rescuetime"),
		now:  time.Now,
	}
}

// Query returns the request parameters for an export run on the given day
func (c *Client) Query(today time.Time) url.Values {
	q := url.Values{}
	q.Set("key", c.opts.Key)
	q.Set("format", "json")
	q.Set("perspective", "interval")
	q.Set("interval", "minute")
	q.Set("restrict_begin", today.AddDate(0, 0, -c.opts.WindowDays).Format(dayLayout))
	q.Set("restrict_end", today.Format(dayLayout))
	return q
}

// Fetch downloads the export and returns the raw JSON body.
// Transport errors and non-200 responses are retried; a 200 with a body that is
// not JSON is not
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if c.opts.Key == "" {
		return nil, perr.WithField(perr.InvalidArgf("rescuetime: api key is required"), "key")
	}

	q := c.Query(c.now())
	target := c.opts.BaseURL + "?" + q.Encode()
	redacted := c.redact(q)

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.once(ctx, target, redacted, attempt)
		if err != nil {
			return err
		}
		body = b
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.policy(), ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) policy() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.opts.RetryBase
	eb.MaxElapsedTime = 0
	return backoff.WithMaxRetries(eb, uint64(c.opts.MaxTries-1))
}

func (c *Client) once(ctx context.Context, target, redacted string, attempt int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "rescuetime: new request failed"))
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Str("url", redacted).Msg("rescuetime: transport error")
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "rescuetime: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "rescuetime: read body failed")
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("attempt", attempt).
		Int("bytes", len(b)).
		Dur("latency", c.now().Sub(start)).
		Msg("rescuetime: response")

	if resp.StatusCode != http.StatusOK {
		c.log.Error().
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Str("url", redacted).
			Str("body", truncate(b, bodyLogMax)).
			Msg("rescuetime: bad status code")
		return nil, perr.Newf(perr.ErrorCodeExport, "rescuetime: unexpected status %d", resp.StatusCode)
	}
	if !json.Valid(b) {
		return nil, backoff.Permanent(perr.JSONErrf("rescuetime: response is not JSON (%d bytes)", len(b)))
	}
	return b, nil
}

// redact renders the request URL with the key masked for logs
func (c *Client) redact(q url.Values) string {
	cp := url.Values{}
	for k, v := range q {
		cp[k] = v
	}
	if cp.Get("key") != "" {
		cp.Set("key", "REDACTED")
	}
	return c.opts.BaseURL + "?" + cp.Encode()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
