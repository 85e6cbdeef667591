/*
Package finger renders WebFinger (RFC 7033) documents for local accounts.

A Finger resolves "acct:name@domain" resources through a Resolver and
projects the result into a JRD whose subject and self link use the configured
domain, never the one in the request. Finger is also an http.Handler for Path.

# Basic Usage

	f, err := finger.New(finger.Config{Resolver: mgr, Domain: "example.com"})
	if err != nil {
		// handle error
	}

	mux.Handle(finger.Path, f)
*/
package finger
