package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/wetdirt/wetdirt"
	"github.com/wetdirt/wetdirt/db/mock"
)

// newClient connects to srv and returns a ready Client.
func newClient(t testing.TB, srv *mock.Server) *Client {
	t.Helper()

	session, err := Connect(context.Background(), SessionConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	c, err := New(Config{Session: session})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return c
}

func TestNewRequiresSession(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestQueryHappyPath(t *testing.T) {
	t.Parallel()

	srv := mock.New(mock.Config{Seed: map[string]mock.Record{"alice": {}, "bob": {}}})
	defer srv.Close()
	c := newClient(t, srv)

	got, err := c.Query(context.Background(), "SELECT id FROM user:`alice`; SELECT id FROM user:`carol`; SELECT id FROM user:`bob`")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}

	want := Response{
		{{"id": "user:alice"}},
		{},
		{{"id": "user:bob"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("response mismatch:\nwant %#v\ngot  %#v", want, got)
	}
}

func TestQueryNormalization(t *testing.T) {
	t.Parallel()

	const q = "SELECT * FROM thing"

	tt := []struct {
		name     string
		status   int
		body     string
		want     Response
		wantErr  []error
		wantDiag any
	}{
		{
			name:   "all statements ok",
			status: http.StatusOK,
			body:   `[{"status":"OK","result":[{"id":"a","n":1}]},{"status":"OK","result":[]}]`,
			want:   Response{{{"id": "a", "n": json.Number("1")}}, {}},
		},
		{
			name:     "top level error object",
			status:   http.StatusBadRequest,
			body:     `{"code":400,"details":"Request problems detected","information":"There was a problem with the database"}`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: "There was a problem with the database",
		},
		{
			name:     "top level object without information",
			status:   http.StatusOK,
			body:     `{"something":"else"}`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: "incomprehensible response",
		},
		{
			name:     "top level scalar",
			status:   http.StatusOK,
			body:     `"OK"`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: "incomprehensible response",
		},
		{
			name:     "statement not an object",
			status:   http.StatusOK,
			body:     `[42]`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: "not an object",
		},
		{
			name:     "row not an object",
			status:   http.StatusOK,
			body:     `[{"status":"OK","result":["user:alice"]}]`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: "database improperly configured",
		},
		{
			name:     "status missing",
			status:   http.StatusOK,
			body:     `[{"result":[]}]`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: "no status given",
		},
		{
			name:     "status not ok",
			status:   http.StatusOK,
			body:     `[{"status":"ERR","detail":"Parse error","result":null}]`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: map[string]any{"status": "ERR", "detail": "Parse error"},
		},
		{
			name:     "ok status without result array",
			status:   http.StatusOK,
			body:     `[{"status":"OK","result":{"tables":{}}}]`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: map[string]any{"status": "OK"},
		},
		{
			name:     "record already exists",
			status:   http.StatusOK,
			body:     "[{\"status\":\"ERR\",\"detail\":\"Database record `user:bob` already exists\"}]",
			wantErr:  []error{wetdirt.ErrBadQuery, wetdirt.ErrIDExists},
			wantDiag: map[string]any{"status": "ERR", "detail": "Database record `user:bob` already exists"},
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			body:     `[{"status":`,
			wantErr:  []error{wetdirt.ErrBadQuery},
			wantDiag: "malformed response body",
		},
		{
			name:    "malformed body with bad status",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: []error{wetdirt.ErrBadHTTPStatus},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := mock.New(mock.Config{})
			defer srv.Close()
			srv.OnQuery(q).ReturnBody(tc.status, tc.body)
			c := newClient(t, srv)

			got, err := c.Query(context.Background(), q)
			for _, want := range tc.wantErr {
				if !errors.Is(err, want) {
					t.Fatalf("expected %v, got %v", want, err)
				}
			}
			if len(tc.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Query returned error: %v", err)
				}
				if !reflect.DeepEqual(got, tc.want) {
					t.Fatalf("response mismatch:\nwant %#v\ngot  %#v", tc.want, got)
				}
				return
			}

			if got != nil {
				t.Fatalf("expected no partial results, got %#v", got)
			}
			if errors.Is(err, wetdirt.ErrNoSuchEntity) {
				t.Fatalf("malformed responses must never look like not-found: %v", err)
			}
			if tc.wantDiag != nil {
				var diag *wetdirt.Diagnostic
				if !errors.As(err, &diag) {
					t.Fatalf("expected a diagnostic, got %v", err)
				}
				if !reflect.DeepEqual(diag.Payload, tc.wantDiag) {
					t.Fatalf("diagnostic mismatch: want %#v, got %#v", tc.wantDiag, diag.Payload)
				}
			}
		})
	}
}

func TestQueryFailsOnFirstBadStatement(t *testing.T) {
	t.Parallel()

	const q = "A; B; C; D"
	srv := mock.New(mock.Config{})
	defer srv.Close()
	srv.OnQuery(q).ReturnBody(http.StatusOK, `[
		{"status":"OK","result":[{"id":1}]},
		{"status":"ERR","detail":"second"},
		{"status":"ERR","detail":"third"},
		{"status":"OK","result":[]}
	]`)
	c := newClient(t, srv)

	_, err := c.Query(context.Background(), q)

	var stmtErr *StatementError
	if !errors.As(err, &stmtErr) {
		t.Fatalf("expected *StatementError, got %v", err)
	}
	if stmtErr.Index != 1 {
		t.Fatalf("expected failure at statement 1, got %d", stmtErr.Index)
	}
	if d := stmtErr.Diagnostic.(map[string]any)["detail"]; d != "second" {
		t.Fatalf("expected first failing diagnostic, got %v", d)
	}

	// Statements exposes every outcome without collapsing.
	results, err := c.Statements(context.Background(), q)
	if err != nil {
		t.Fatalf("Statements returned error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 statement results, got %d", len(results))
	}
	if _, ok := results[0].(Success); !ok {
		t.Fatalf("statement 0 should be Success, got %T", results[0])
	}
	if _, ok := results[2].(Failure); !ok {
		t.Fatalf("statement 2 should be Failure, got %T", results[2])
	}
}

func TestQueryRejectsEmptyQuery(t *testing.T) {
	t.Parallel()

	srv := mock.New(mock.Config{})
	defer srv.Close()
	c := newClient(t, srv)

	if _, err := c.Query(context.Background(), "  \n"); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if n := len(srv.Calls()); n != 1 {
		t.Fatalf("empty query must not be sent, saw %d requests", n)
	}
}

func TestQueryConnectionFailure(t *testing.T) {
	t.Parallel()

	srv := mock.New(mock.Config{})
	c := newClient(t, srv)
	srv.Close()

	if _, err := c.Query(context.Background(), "SELECT id FROM user:`alice`"); !errors.Is(err, wetdirt.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestQueryResponseLimit(t *testing.T) {
	t.Parallel()

	big := `[{"status":"OK","result":[{"id":"` + strings.Repeat("a", 4096) + `"}]}]`

	srv := mock.New(mock.Config{Seed: map[string]mock.Record{"alice": {}}})
	defer srv.Close()
	srv.OnQuery("SELECT * FROM user").ReturnBody(http.StatusOK, big)
	srv.OnQuery("SELECT * FROM log").ReturnBody(http.StatusBadGateway, big)

	session, err := Connect(context.Background(), SessionConfig{URL: srv.URL, MaxResponseBytes: 1024})
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	c, err := New(Config{Session: session})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := c.Query(context.Background(), "SELECT id FROM user:`alice`"); err != nil {
		t.Fatalf("small response rejected: %v", err)
	}

	_, err = c.Query(context.Background(), "SELECT * FROM user")
	if !errors.Is(err, ErrResponseTooLarge) || !errors.Is(err, wetdirt.ErrBadQuery) {
		t.Fatalf("expected oversized response to fail as a bad query, got %v", err)
	}

	_, err = c.Query(context.Background(), "SELECT * FROM log")
	if !errors.Is(err, wetdirt.ErrBadHTTPStatus) {
		t.Fatalf("expected ErrBadHTTPStatus for an oversized error page, got %v", err)
	}
}

func TestQueryHonoursContext(t *testing.T) {
	t.Parallel()

	srv := mock.New(mock.Config{})
	defer srv.Close()
	c := newClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Query(ctx, "SELECT id FROM user:`alice`")
	if !errors.Is(err, context.Canceled) || !errors.Is(err, wetdirt.ErrConnection) {
		t.Fatalf("expected cancelled connection error, got %v", err)
	}
}

func TestRowString(t *testing.T) {
	t.Parallel()

	r := Row{"id": "user:alice", "n": json.Number("3")}
	if s, ok := r.String("id"); !ok || s != "user:alice" {
		t.Fatalf("expected id string, got %q %v", s, ok)
	}
	if _, ok := r.String("n"); ok {
		t.Fatalf("number field must not read as string")
	}
	if _, ok := r.String("missing"); ok {
		t.Fatalf("missing field must not read as string")
	}
}

func BenchmarkNormalize(b *testing.B) {
	body := make([]any, 0, 64)
	for range 64 {
		body = append(body, map[string]any{
			"status": "OK",
			"result": []any{map[string]any{"id": "user:alice", "salt": "c2FsdA", "pwd_hash": "aGFzaA"}},
		})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		results, err := normalize(body)
		if err != nil {
			b.Fatalf("normalize: %v", err)
		}
		if _, err := Collapse(results); err != nil {
			b.Fatalf("collapse: %v", err)
		}
	}
}
