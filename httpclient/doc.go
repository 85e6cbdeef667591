/*
Package httpclient provides an http.RoundTripper that performs requests
through the Tarmac httpclient capability.

Requests are serialized via protobuf and sent to the host using waPC. Because
the result is a plain *http.Client, the database session does not care whether
it runs natively or inside a WebAssembly guest. Errors use sentinel values
combined with the underlying cause and can be checked with errors.Is.
*/
package httpclient
