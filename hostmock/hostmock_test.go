package hostmock

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

var errMock = errors.New("mock error")

func echo(_ string, payload []byte) []byte { return payload }

func TestHostMock(t *testing.T) {
	tt := []struct {
		name       string
		cfg        Config
		namespace  string
		capability string
		function   string
		payload    []byte
		want       []byte
		wantErr    error
	}{
		{
			name: "routed call echoes payload",
			cfg: Config{
				ExpectedNamespace:  "tarmac",
				ExpectedCapability: "httpclient",
				ExpectedFunction:   "call",
				Response:           echo,
			},
			namespace: "tarmac", capability: "httpclient", function: "call",
			payload: []byte("INFO FOR DB;"),
			want:    []byte("INFO FOR DB;"),
		},
		{
			name:      "custom failure",
			cfg:       Config{Fail: true, Error: errMock, Response: echo},
			namespace: "tarmac", capability: "logging", function: "Info",
			payload: []byte("x"),
			wantErr: errMock,
		},
		{
			name:      "default failure",
			cfg:       Config{Fail: true},
			namespace: "tarmac", capability: "logging", function: "Info",
			wantErr: ErrOperationFailed,
		},
		{
			name:      "nil response",
			cfg:       Config{ExpectedCapability: "metrics"},
			namespace: "tarmac", capability: "metrics", function: "counter",
		},
		{
			name: "validator rejects payload",
			cfg: Config{
				PayloadValidator: func(p []byte) error {
					if len(p) == 0 {
						return errMock
					}
					return nil
				},
				Response: echo,
			},
			namespace: "tarmac", capability: "metrics", function: "gauge",
			wantErr: errMock,
		},
		{
			name:      "unexpected namespace",
			cfg:       Config{ExpectedNamespace: "expected"},
			namespace: "tarmac", capability: "metrics", function: "gauge",
			wantErr: ErrUnexpectedNamespace,
		},
		{
			name:      "unexpected capability",
			cfg:       Config{ExpectedCapability: "httpclient"},
			namespace: "tarmac", capability: "metrics", function: "gauge",
			wantErr: ErrUnexpectedCapability,
		},
		{
			name:      "unexpected function",
			cfg:       Config{ExpectedFunction: "call"},
			namespace: "tarmac", capability: "httpclient", function: "get",
			wantErr: ErrUnexpectedFunction,
		},
		{
			name: "any function when unset",
			cfg: Config{
				ExpectedCapability: "logging",
				Response:           func(fn string, _ []byte) []byte { return []byte(fn) },
			},
			namespace: "tarmac", capability: "logging", function: "Warn",
			want: []byte("Warn"),
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			mock, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			got, err := mock.HostCall(tc.namespace, tc.capability, tc.function, tc.payload)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: got %v, want %v", err, tc.wantErr)
			}
			if !bytes.Equal(got, tc.want) {
				t.Fatalf("unexpected response: got %q, want %q", got, tc.want)
			}

			calls := mock.Calls()
			if len(calls) != 1 {
				t.Fatalf("expected 1 recorded call, got %d", len(calls))
			}
			if !errors.Is(calls[0].Err, tc.wantErr) || !errors.Is(mock.Err(), tc.wantErr) {
				t.Fatalf("recorded error mismatch: got %v, want %v", calls[0].Err, tc.wantErr)
			}
			if calls[0].Function != tc.function {
				t.Fatalf("recorded function mismatch: got %q, want %q", calls[0].Function, tc.function)
			}
		})
	}
}

func TestHostMockConcurrentCalls(t *testing.T) {
	mock, err := New(Config{Response: echo})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = mock.HostCall("tarmac", "metrics", "counter", []byte("n"))
		}()
	}
	wg.Wait()

	if got := len(mock.Calls()); got != 32 {
		t.Fatalf("expected 32 recorded calls, got %d", got)
	}
	if err := mock.Err(); err != nil {
		t.Fatalf("unexpected recorded error: %v", err)
	}
}

func TestCallsReturnsCopy(t *testing.T) {
	mock, _ := New(Config{})
	payload := []byte("abc")
	_, _ = mock.HostCall("tarmac", "metrics", "counter", payload)
	payload[0] = 'z'

	calls := mock.Calls()
	if string(calls[0].Payload) != "abc" {
		t.Fatalf("payload was not copied: %q", calls[0].Payload)
	}
	calls[0].Function = "mutated"
	if mock.Calls()[0].Function != "counter" {
		t.Fatalf("Calls returned shared slice")
	}
}
