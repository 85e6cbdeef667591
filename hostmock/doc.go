/*
Package hostmock provides a pretend Tarmac host for waPC calls.

Components that talk to the host (the httpclient transport, the logging core,
the metrics client, the function entry) accept a HostCall function. In tests,
hand them Mock.HostCall instead of the real waPC entry point and the mock will
check routing, validate payloads, script responses and record every call.

Quick start

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedNamespace:  "tarmac",
	  ExpectedCapability: "httpclient",
	  ExpectedFunction:   "call",
	  Response: func(fn string, p []byte) []byte {
	    // decode p, return an encoded response
	    return nil
	  },
	})

	rt, _ := httpclient.New(httpclient.Config{HostCall: m.HostCall})

Behavior

  - If Fail is true and Error is set, HostCall returns that error.
  - If Fail is true and Error is nil, HostCall returns ErrOperationFailed.
  - Otherwise the namespace, capability and function are checked when set,
    PayloadValidator runs when provided, and Response supplies the return bytes.
  - Every call is recorded, including its error. Best-effort callers such as
    metrics swallow host errors, so assert on Mock.Err after exercising them.
*/
package hostmock
