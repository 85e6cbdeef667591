package wetdirt

import (
	"errors"
	"testing"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	tt := []struct {
		name      string
		namespace string
		want      string
	}{
		{name: "empty namespace", want: DefaultNamespace},
		{name: "custom namespace", namespace: "custom", want: "custom"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := RuntimeConfig{Namespace: tc.namespace}.WithDefaults()
			if got.Namespace != tc.want {
				t.Errorf("expected namespace %q, got %q", tc.want, got.Namespace)
			}
		})
	}
}

func TestIsOK(t *testing.T) {
	for status, want := range map[any]bool{
		"OK":  true,
		"ok":  false,
		"ERR": false,
		"":    false,
		200:   false,
		nil:   false,
	} {
		if got := IsOK(status); got != want {
			t.Errorf("IsOK(%#v) = %v, want %v", status, got, want)
		}
	}
}

type stringer struct{}

func (stringer) String() string { return "from stringer" }

func TestDiagnostic(t *testing.T) {
	tt := []struct {
		name    string
		payload any
		want    string
		isMsg   bool
	}{
		{name: "string", payload: "There was a problem with the database", want: "There was a problem with the database", isMsg: true},
		{name: "nil", payload: nil, want: "no diagnostic"},
		{name: "stringer", payload: stringer{}, want: "from stringer"},
		{name: "object", payload: map[string]any{"detail": "boom", "status": "ERR"}, want: `{"detail":"boom","status":"ERR"}`},
		{name: "unencodable", payload: func() {}, want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDiagnostic(tc.payload)
			if tc.want != "" && d.Error() != tc.want {
				t.Errorf("expected %q, got %q", tc.want, d.Error())
			}
			if d.Error() == "" {
				t.Errorf("diagnostic rendered empty")
			}
			if _, ok := d.Message(); ok != tc.isMsg {
				t.Errorf("Message ok = %v, want %v", ok, tc.isMsg)
			}
		})
	}
}

func TestDiagnosticThroughJoin(t *testing.T) {
	err := errors.Join(ErrBadQuery, NewDiagnostic("incomprehensible response"))

	if !errors.Is(err, ErrBadQuery) {
		t.Fatalf("expected ErrBadQuery, got %v", err)
	}
	if errors.Is(err, ErrNoSuchEntity) {
		t.Fatalf("bad query must not match not-found")
	}

	var d *Diagnostic
	if !errors.As(err, &d) {
		t.Fatalf("diagnostic not recoverable from %v", err)
	}
	if msg, _ := d.Message(); msg != "incomprehensible response" {
		t.Fatalf("unexpected message %q", msg)
	}
}
