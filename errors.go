package wetdirt

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrHostCall indicates that a waPC host invocation failed.
	ErrHostCall = errors.New("host call failed")

	// ErrHostResponseInvalid signals that the host returned an invalid or unexpected payload.
	ErrHostResponseInvalid = errors.New("host response is invalid or unexpected")

	// ErrHostError means the host completed the call but reported a failure status.
	ErrHostError = errors.New("host returned an error status")
)

var (
	// ErrConnection indicates the database request failed at the transport level.
	ErrConnection = errors.New("external request failed")

	// ErrDatabaseLogin is returned when the database rejects the session handshake.
	ErrDatabaseLogin = errors.New("failed to login to database")

	// ErrBadHTTPStatus is returned for non-2xx responses from the database endpoint.
	ErrBadHTTPStatus = errors.New("bad http status")

	// ErrBadQuery indicates either a badly written request or a badly configured
	// database. Used often, found rarely.
	ErrBadQuery = errors.New("bad query")

	// ErrNoSuchEntity is returned when a well-formed query legitimately matched nothing.
	ErrNoSuchEntity = errors.New("entity not found")

	// ErrMissingData is returned when a success response lacks an expected field.
	ErrMissingData = errors.New("missing data")

	// ErrIDExists is returned when creating a record whose id is already taken.
	ErrIDExists = errors.New("id already exists")

	// ErrHashFailure is returned when password derivation fails.
	ErrHashFailure = errors.New("failed to hash password")

	// ErrBadString is returned for input that could change query structure.
	ErrBadString = errors.New("bad input string, potential query injection attempted")

	// ErrBadCredentials is returned when a password does not match the stored hash.
	ErrBadCredentials = errors.New("credentials do not match")
)

// Diagnostic carries the raw payload the database returned alongside a failure.
// Retrieve it with errors.As.
type Diagnostic struct {
	Payload any
}

// NewDiagnostic wraps payload as an error value suitable for errors.Join.
func NewDiagnostic(payload any) *Diagnostic {
	return &Diagnostic{Payload: payload}
}

func (d *Diagnostic) Error() string {
	switch p := d.Payload.(type) {
	case nil:
		return "no diagnostic"
	case string:
		return p
	case fmt.Stringer:
		return p.String()
	}
	b, err := json.Marshal(d.Payload)
	if err != nil {
		return fmt.Sprintf("%v", d.Payload)
	}
	return string(b)
}

// Message returns the payload when it is a plain string.
func (d *Diagnostic) Message() (string, bool) {
	s, ok := d.Payload.(string)
	return s, ok
}
