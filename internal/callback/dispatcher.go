package callback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// ErrNoEndpoint is returned when no callback URL is configured.
var ErrNoEndpoint = errors.New("callback: no endpoint configured")

// Defaults for delivery.
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 2 * time.Second
	DefaultTimeout    = 5 * time.Second
)

// Config controls report delivery.
type Config struct {
	URL        string
	APIKey     string
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Result describes the outcome of one report dispatch.
type Result struct {
	Err        error
	ReportID   string
	Report     models.FinalReport
	Body       []byte
	Attempts   int
	StatusCode int
	Duration   time.Duration
	Delivered  bool
}

// Dispatcher delivers final reports with a bounded number of attempts.
type Dispatcher struct {
	client    *http.Client
	sleep     func(ctx context.Context, d time.Duration) error
	delivered metric.Int64Counter
	failed    metric.Int64Counter
	attempts  metric.Int64Counter
	cfg       Config
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.client = c
		}
	}
}

// WithSleep replaces the inter-attempt wait, mainly for tests.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Dispatcher) {
		if fn != nil {
			d.sleep = fn
		}
	}
}

// New creates a Dispatcher, substituting defaults for unset values.
func New(cfg Config, opts ...Option) *Dispatcher {
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	switch {
	case cfg.RetryDelay == 0:
		cfg.RetryDelay = DefaultRetryDelay
	case cfg.RetryDelay < 0:
		// negative disables the wait between attempts
		cfg.RetryDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	meter := otel.Meter("github.com/Mayank-Dandane/honeypot-api/internal/callback")
	d := &Dispatcher{
		cfg:    cfg,
		client: &http.Client{},
		sleep:  sleepContext,
	}
	d.delivered, _ = meter.Int64Counter("honeypot.reports.delivered",
		metric.WithDescription("Final reports accepted by the callback endpoint"))
	d.failed, _ = meter.Int64Counter("honeypot.reports.failed",
		metric.WithDescription("Final reports dropped after exhausting retries"))
	d.attempts, _ = meter.Int64Counter("honeypot.reports.attempts",
		metric.WithDescription("HTTP attempts made to deliver final reports"))

	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether an endpoint is configured.
func (d *Dispatcher) Enabled() bool {
	return d.cfg.URL != ""
}

// Send builds the report for s and delivers it. It never panics and never retries beyond the
// configured attempts; failures are logged and returned in the Result.
func (d *Dispatcher) Send(ctx context.Context, s models.Session) Result {
	start := time.Now()
	res := Result{
		ReportID: uuid.NewString(),
		Report:   BuildReport(s),
	}
	logger := log.With().Str("sessionId", s.ID).Str("reportId", res.ReportID).Logger()

	body, err := json.Marshal(res.Report)
	if err != nil {
		res.Err = fmt.Errorf("marshal report: %w", err)
		res.Duration = time.Since(start)
		return res
	}
	res.Body = body

	if !d.Enabled() {
		res.Err = ErrNoEndpoint
		res.Duration = time.Since(start)
		logger.Warn().Msg("No callback URL configured, report not delivered")
		return res
	}

	attr := metric.WithAttributes(attribute.String("scam_type", string(res.Report.ScamType)))
	for attempt := 1; attempt <= d.cfg.Attempts; attempt++ {
		res.Attempts = attempt
		d.attempts.Add(ctx, 1, attr)

		status, err := d.post(ctx, body)
		res.StatusCode = status
		if err == nil {
			res.Delivered = true
			res.Err = nil
			res.Duration = time.Since(start)
			d.delivered.Add(ctx, 1, attr)
			logger.Info().
				Int("attempt", attempt).
				Int("status", status).
				Int("intelligence", res.Report.ExtractedIntelligence.Count()).
				Msg("Final report delivered")
			return res
		}
		res.Err = err
		logger.Warn().Err(err).Int("attempt", attempt).Int("maxAttempts", d.cfg.Attempts).Msg("Final report attempt failed")

		if attempt < d.cfg.Attempts {
			if err := d.sleep(ctx, d.cfg.RetryDelay); err != nil {
				res.Err = fmt.Errorf("retry wait: %w", err)
				break
			}
		}
	}

	res.Duration = time.Since(start)
	d.failed.Add(ctx, 1, attr)
	logger.Error().Err(res.Err).Int("attempts", res.Attempts).Msg("Final report dropped")
	return res
}

func (d *Dispatcher) post(ctx context.Context, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.APIKey != "" {
		req.Header.Set("x-api-key", d.cfg.APIKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
