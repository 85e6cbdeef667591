package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wetdirt/wetdirt"
)

// Row is one record returned by a statement, keyed by field name.
type Row map[string]any

// String returns field as a string when it is present and a string.
func (r Row) String(field string) (string, bool) {
	v, ok := r[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Response holds the rows of every statement of a query, in statement order.
type Response [][]Row

// StatementResult is the outcome of one statement: either Success or Failure.
type StatementResult interface {
	statementResult()
}

// Success is a statement that returned OK with a list of rows.
type Success struct {
	Rows []Row
}

// Failure is a statement the database rejected or described in a shape we
// cannot read. Diagnostic holds whatever the database said about it.
type Failure struct {
	Diagnostic any
}

func (Success) statementResult() {}
func (Failure) statementResult() {}

// StatementError reports the first failing statement of a query. It matches
// wetdirt.ErrBadQuery, and also wetdirt.ErrIDExists when the database refused
// to create a record that already exists.
type StatementError struct {
	Index      int
	Diagnostic any
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("%s: statement %d: %s", wetdirt.ErrBadQuery, e.Index, wetdirt.NewDiagnostic(e.Diagnostic))
}

func (e *StatementError) Unwrap() []error {
	errs := []error{wetdirt.ErrBadQuery, wetdirt.NewDiagnostic(e.Diagnostic)}
	if recordExists(e.Diagnostic) {
		errs = append(errs, wetdirt.ErrIDExists)
	}
	return errs
}

func recordExists(diagnostic any) bool {
	m, ok := diagnostic.(map[string]any)
	if !ok {
		return false
	}
	detail, _ := m["detail"].(string)
	return strings.Contains(detail, "already exists")
}

// Collapse turns per-statement results into a Response, failing on the first
// Failure. Statements after it are not inspected.
func Collapse(results []StatementResult) (Response, error) {
	out := make(Response, 0, len(results))
	for i, r := range results {
		switch r := r.(type) {
		case Success:
			out = append(out, r.Rows)
		case Failure:
			return nil, &StatementError{Index: i, Diagnostic: r.Diagnostic}
		}
	}
	return out, nil
}

// normalize interprets a decoded response body. An object at the top level
// means the whole request failed before any statement ran.
func normalize(body any) ([]StatementResult, error) {
	switch v := body.(type) {
	case map[string]any:
		if msg, ok := v["information"]; ok {
			return nil, errors.Join(wetdirt.ErrBadQuery, wetdirt.NewDiagnostic(msg))
		}
		return nil, errors.Join(wetdirt.ErrBadQuery, wetdirt.NewDiagnostic("incomprehensible response"))
	case []any:
		out := make([]StatementResult, len(v))
		for i, s := range v {
			out[i] = normalizeStatement(s)
		}
		return out, nil
	default:
		return nil, errors.Join(wetdirt.ErrBadQuery, wetdirt.NewDiagnostic("incomprehensible response"))
	}
}

func normalizeStatement(v any) StatementResult {
	m, ok := v.(map[string]any)
	if !ok {
		return Failure{Diagnostic: "not an object"}
	}

	status, ok := m["status"]
	if !ok {
		return Failure{Diagnostic: "no status given"}
	}

	if result, ok := m["result"].([]any); ok && wetdirt.IsOK(status) {
		rows := make([]Row, len(result))
		for i, r := range result {
			obj, ok := r.(map[string]any)
			if !ok {
				return Failure{Diagnostic: "database improperly configured"}
			}
			rows[i] = obj
		}
		return Success{Rows: rows}
	}

	rest := make(map[string]any, len(m))
	for k, val := range m {
		if k != "result" {
			rest[k] = val
		}
	}
	return Failure{Diagnostic: rest}
}

// decode reads a JSON body keeping numbers as json.Number so record ids and
// counters survive untouched.
func decode(dec *json.Decoder) (any, error) {
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}
