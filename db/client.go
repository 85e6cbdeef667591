package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/wetdirt/wetdirt"
	"github.com/wetdirt/wetdirt/metrics"
	"go.uber.org/zap"
)

// Config controls how a Client executes queries.
type Config struct {
	// Session is the established connection. Required.
	Session *Session

	// Logger receives debug traces and warnings about malformed responses.
	// Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics receives query counters and latencies. Defaults to metrics.Nop.
	Metrics metrics.Client
}

// Client executes query text against a Session and normalizes the response.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	session *Session
	logger  *zap.Logger

	queries  metrics.Counter
	failures metrics.Counter
	latency  metrics.Histogram
}

// ErrNoSession is returned by New when Config.Session is nil.
var ErrNoSession = errors.New("session is required")

// New creates a query client for an established session.
func New(cfg Config) (*Client, error) {
	if cfg.Session == nil {
		return nil, ErrNoSession
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.Nop()
	}

	c := &Client{session: cfg.Session, logger: logger.Named("db")}

	var err error
	if c.queries, err = m.NewCounter("wetdirt_db_queries_total"); err != nil {
		return nil, err
	}
	if c.failures, err = m.NewCounter("wetdirt_db_query_errors_total"); err != nil {
		return nil, err
	}
	if c.latency, err = m.NewHistogram("wetdirt_db_query_seconds"); err != nil {
		return nil, err
	}

	return c, nil
}

// Query runs query and returns the rows of every statement, in order. If any
// statement failed the whole call fails with a *StatementError describing the
// first one.
func (c *Client) Query(ctx context.Context, query string) (Response, error) {
	results, err := c.Statements(ctx, query)
	if err != nil {
		return nil, err
	}

	out, err := Collapse(results)
	if err != nil {
		c.failures.Inc()
		c.logger.Debug("statement failed", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// Statements runs query and returns the normalized outcome of each statement
// without collapsing failures. Errors are returned only when the response as
// a whole could not be read.
func (c *Client) Statements(ctx context.Context, query string) ([]StatementResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}

	c.queries.Inc()
	start := time.Now()
	defer func() { c.latency.Observe(time.Since(start).Seconds()) }()

	resp, err := c.session.post(ctx, query)
	if err != nil {
		c.failures.Inc()
		return nil, err
	}
	defer drain(resp.Body)

	raw, err := c.session.readBody(resp.Body)
	if err != nil {
		c.failures.Inc()
		if !errors.Is(err, ErrResponseTooLarge) {
			return nil, err
		}
		if !success(resp.StatusCode) {
			return nil, badStatus(resp.StatusCode)
		}
		return nil, errors.Join(wetdirt.ErrBadQuery, err)
	}

	body, err := decode(json.NewDecoder(bytes.NewReader(raw)))
	if err != nil {
		c.failures.Inc()
		if !success(resp.StatusCode) {
			return nil, badStatus(resp.StatusCode)
		}
		return nil, errors.Join(wetdirt.ErrBadQuery, wetdirt.NewDiagnostic("malformed response body"), err)
	}

	results, err := normalize(body)
	if err != nil {
		c.failures.Inc()
		// A response we cannot read points at the database, not the caller.
		c.logger.Warn("database returned an unusable response",
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("query executed",
		zap.Int("statements", len(results)),
		zap.Int("query_bytes", len(query)),
		zap.Duration("elapsed", time.Since(start)))

	return results, nil
}
