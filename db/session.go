package db

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wetdirt/wetdirt"
)

// handshakeQuery is sent once by Connect to prove the credentials work.
const handshakeQuery = "INFO FOR DB;"

const (
	// DefaultMaxResponseBytes bounds how much of a response body is read.
	DefaultMaxResponseBytes = 16 << 20

	// drainLimit bounds how much of an unread body is discarded before close.
	drainLimit = 64 << 10
)

var (
	// ErrInvalidURL indicates the endpoint is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid database URL")

	// ErrInvalidQuery indicates an empty query.
	ErrInvalidQuery = errors.New("query is invalid")

	// ErrResponseTooLarge indicates a response body over the session limit.
	ErrResponseTooLarge = errors.New("database response too large")
)

// SessionConfig describes how to reach and authenticate against the database.
type SessionConfig struct {
	// HTTPClient performs the requests. Defaults to http.DefaultClient; use
	// httpclient.NewClient to run inside a Tarmac host.
	HTTPClient *http.Client

	// URL is the query endpoint, e.g. http://localhost:8000/sql.
	URL string

	// Namespace and Database select where statements run.
	Namespace string
	Database  string

	// Credentials is the raw "user:password" pair sent with Basic auth.
	Credentials string

	// MaxResponseBytes caps each response body. Defaults to
	// DefaultMaxResponseBytes.
	MaxResponseBytes int64
}

// Session is an authenticated, immutable configuration for the query
// endpoint. It is safe for concurrent use.
type Session struct {
	client  *http.Client
	url     string
	header  http.Header
	maxBody int64
}

// Connect performs the login handshake and returns a Session on success.
// It is called once at startup and never retried.
func Connect(ctx context.Context, cfg SessionConfig) (*Session, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, cfg.URL)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	header := make(http.Header)
	header.Set("Accept", "application/json")
	header.Set("NS", cfg.Namespace)
	header.Set("DB", cfg.Database)
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cfg.Credentials)))

	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxResponseBytes
	}

	s := &Session{client: client, url: u.String(), header: header, maxBody: maxBody}

	resp, err := s.post(ctx, handshakeQuery)
	if err != nil {
		return nil, err
	}
	defer drain(resp.Body)

	if !success(resp.StatusCode) {
		return nil, badStatus(resp.StatusCode)
	}

	raw, err := s.readBody(resp.Body)
	if errors.Is(err, ErrResponseTooLarge) {
		return nil, errors.Join(wetdirt.ErrDatabaseLogin, err)
	}
	if err != nil {
		return nil, err
	}

	var statements []map[string]any
	if err := json.Unmarshal(raw, &statements); err != nil {
		return nil, errors.Join(wetdirt.ErrDatabaseLogin, wetdirt.NewDiagnostic(string(raw)))
	}
	if len(statements) == 0 {
		return nil, errors.Join(wetdirt.ErrDatabaseLogin, wetdirt.NewDiagnostic("empty handshake response"))
	}
	if !wetdirt.IsOK(statements[0]["status"]) {
		return nil, errors.Join(wetdirt.ErrDatabaseLogin, wetdirt.NewDiagnostic(statements[0]))
	}

	return s, nil
}

// URL returns the endpoint the session talks to.
func (s *Session) URL() string { return s.url }

// post sends body with the session headers. Transport failures map to
// wetdirt.ErrConnection.
func (s *Session) post(ctx context.Context, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(body))
	if err != nil {
		return nil, errors.Join(wetdirt.ErrConnection, err)
	}
	req.Header = s.header.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Join(wetdirt.ErrConnection, err)
	}
	return resp, nil
}

func success(code int) bool { return code >= 200 && code < 300 }

func badStatus(code int) error {
	return errors.Join(wetdirt.ErrBadHTTPStatus, fmt.Errorf("status %d %s", code, http.StatusText(code)))
}

// readBody reads at most the session limit from body.
func (s *Session) readBody(body io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, s.maxBody+1))
	if err != nil {
		return nil, errors.Join(wetdirt.ErrConnection, err)
	}
	if int64(len(raw)) > s.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, s.maxBody)
	}
	return raw, nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, drainLimit))
	_ = body.Close()
}
