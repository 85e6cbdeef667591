/*
Package mock provides a fake SurrealDB-style query endpoint for testing code
that depends on the db package without a real database.

The server keeps an in-memory user table and understands the handful of
statements the directory issues: the INFO FOR DB handshake, CREATE, SELECT and
UPDATE on user records. Anything else yields an ERR statement, the way a real
database reports a parse error.

# Basic Usage

	srv := mock.New(mock.Config{
		Credentials: "root:root",
		Seed:        map[string]mock.Record{"alice": {Salt: "c2FsdA", PwdHash: "aGFzaA"}},
	})
	defer srv.Close()

	session, err := db.Connect(ctx, db.SessionConfig{URL: srv.URL, Credentials: "root:root"})

# Overriding Behavior

Script the raw reply for an exact query text:

	srv.OnQuery("SELECT id FROM user:`alice`").ReturnBody(200, `{"information":"boom"}`)

# Inspecting Calls

	for _, c := range srv.Calls() {
		// c.Query, c.Header
	}
*/
package mock

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
)

// Record is a stored user.
type Record struct {
	Salt    string
	PwdHash string
}

// Config configures the fake server.
type Config struct {
	// Seed pre-populates the user table.
	Seed map[string]Record

	// Credentials, when set, is the only "user:password" pair accepted.
	Credentials string

	// Namespace and Database, when set, must match the NS and DB headers.
	Namespace string
	Database  string
}

// Call records one request received by the server.
type Call struct {
	Query  string
	Header http.Header
}

type reply struct {
	status int
	body   string
}

// ReplyBuilder configures the reply for one query text.
type ReplyBuilder struct {
	s     *Server
	query string
}

// ReturnBody makes the server answer the query with a raw status and body.
func (b *ReplyBuilder) ReturnBody(status int, body string) *Server {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.s.replies[b.query] = reply{status: status, body: body}
	return b.s
}

// Server is an httptest.Server speaking the query protocol.
type Server struct {
	*httptest.Server

	cfg Config

	mu      sync.Mutex
	users   map[string]Record
	replies map[string]reply
	calls   []Call
}

var (
	infoStmt   = regexp.MustCompile("^INFO FOR DB$")
	createStmt = regexp.MustCompile("^CREATE user:`([^`]*)` SET salt = '([^']*)', pwd_hash = '([^']*)' RETURN id$")
	selectID   = regexp.MustCompile("^SELECT id FROM user:`([^`]*)`$")
	selectCred = regexp.MustCompile("^SELECT salt, pwd_hash FROM user:`([^`]*)`$")
	updateStmt = regexp.MustCompile("^UPDATE user:`([^`]*)` SET salt = '([^']*)', pwd_hash = '([^']*)' WHERE pwd_hash != NONE RETURN id$")
)

// New starts a fake server. Close it when done.
func New(cfg Config) *Server {
	s := &Server{
		cfg:     cfg,
		users:   make(map[string]Record, len(cfg.Seed)),
		replies: make(map[string]reply),
	}
	for k, v := range cfg.Seed {
		s.users[k] = v
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// OnQuery configures a scripted reply for an exact query text.
func (s *Server) OnQuery(query string) *ReplyBuilder {
	return &ReplyBuilder{s: s, query: query}
}

// Calls returns a copy of the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// User returns the stored record for name.
func (s *Server) User(name string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[name]
	return r, ok
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	query := string(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Query: query, Header: r.Header.Clone()})

	if rep, ok := s.replies[query]; ok {
		w.WriteHeader(rep.status)
		_, _ = io.WriteString(w, rep.body)
		return
	}

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody(405, "Method not allowed"))
		return
	}
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorBody(401, "There was a problem with authentication"))
		return
	}

	var out []map[string]any
	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.Join(strings.Fields(stmt), " ")
		if stmt == "" {
			continue
		}
		out = append(out, s.exec(stmt))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.Namespace != "" && r.Header.Get("NS") != s.cfg.Namespace {
		return false
	}
	if s.cfg.Database != "" && r.Header.Get("DB") != s.cfg.Database {
		return false
	}
	if s.cfg.Credentials == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	return ok && user+":"+pass == s.cfg.Credentials
}

// exec runs one whitespace-normalized statement. Callers hold s.mu.
func (s *Server) exec(stmt string) map[string]any {
	switch {
	case infoStmt.MatchString(stmt):
		return ok(map[string]any{"tables": map[string]any{"user": "DEFINE TABLE user SCHEMALESS"}})

	case createStmt.MatchString(stmt):
		m := createStmt.FindStringSubmatch(stmt)
		if _, exists := s.users[m[1]]; exists {
			return errStmt(fmt.Sprintf("Database record `user:%s` already exists", m[1]))
		}
		s.users[m[1]] = Record{Salt: m[2], PwdHash: m[3]}
		return ok([]any{map[string]any{"id": "user:" + m[1]}})

	case selectID.MatchString(stmt):
		name := selectID.FindStringSubmatch(stmt)[1]
		if _, exists := s.users[name]; !exists {
			return ok([]any{})
		}
		return ok([]any{map[string]any{"id": "user:" + name}})

	case selectCred.MatchString(stmt):
		name := selectCred.FindStringSubmatch(stmt)[1]
		rec, exists := s.users[name]
		if !exists {
			return ok([]any{})
		}
		return ok([]any{map[string]any{"salt": rec.Salt, "pwd_hash": rec.PwdHash}})

	case updateStmt.MatchString(stmt):
		m := updateStmt.FindStringSubmatch(stmt)
		if _, exists := s.users[m[1]]; !exists {
			return ok([]any{})
		}
		s.users[m[1]] = Record{Salt: m[2], PwdHash: m[3]}
		return ok([]any{map[string]any{"id": "user:" + m[1]}})
	}

	return errStmt("Parse error on line 1 at character 0 when parsing '" + stmt + "'")
}

func ok(result any) map[string]any {
	return map[string]any{"time": "12.3µs", "status": "OK", "result": result}
}

func errStmt(detail string) map[string]any {
	return map[string]any{"time": "5.1µs", "status": "ERR", "detail": detail}
}

func errorBody(code int, info string) map[string]any {
	return map[string]any{"code": code, "details": "Request problems detected", "information": info}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
