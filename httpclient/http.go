package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	proto "github.com/tarmac-project/protobuf-go/sdk/http"
	wapc "github.com/wapc/wapc-guest-tinygo"
	"github.com/wetdirt/wetdirt"
)

const (
	capabilityName = "httpclient"
	fnCall         = "call"

	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

var (
	// ErrInvalidURL indicates a malformed or unsupported URL.
	ErrInvalidURL = errors.New("invalid URL provided")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to create request")

	// ErrReadBody wraps failures while reading a request body stream.
	ErrReadBody = errors.New("failed to read request body")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")

	// ErrInvalidMethod indicates an HTTP method the host does not support.
	ErrInvalidMethod = errors.New("invalid HTTP method")

	// ErrNilRequest indicates RoundTrip received a nil request.
	ErrNilRequest = errors.New("request is nil")
)

// Config configures the transport and its host integration.
//
// SDKConfig supplies the namespace used when making waPC host calls; an empty
// Namespace defaults to wetdirt.DefaultNamespace. InsecureSkipVerify controls
// TLS verification on the host side when supported by the runtime. HostCall
// lets tests inject a custom host function; when nil, wapc.HostCall is used.
type Config struct {
	// SDKConfig provides the runtime namespace for host calls.
	SDKConfig wetdirt.RuntimeConfig
	// InsecureSkipVerify disables TLS verification when supported.
	InsecureSkipVerify bool
	// HostCall overrides the waPC host function used for requests.
	HostCall func(string, string, string, []byte) ([]byte, error)
}

// Transport is an http.RoundTripper that performs requests through the Tarmac
// httpclient capability. Plug it into an *http.Client to let the database
// session run inside a WebAssembly guest.
type Transport struct {
	cfg      Config
	hostCall func(string, string, string, []byte) ([]byte, error)
}

// Ensure Transport always satisfies http.RoundTripper at compile time.
var _ http.RoundTripper = (*Transport)(nil)

// New creates a host-backed transport with the provided configuration.
func New(config Config) (*Transport, error) {
	t := &Transport{cfg: config}
	t.cfg.SDKConfig = config.SDKConfig.WithDefaults()

	t.hostCall = wapc.HostCall
	if config.HostCall != nil {
		t.hostCall = config.HostCall
	}

	return t, nil
}

// NewClient returns an *http.Client that sends every request through the host.
func NewClient(config Config) (*http.Client, error) {
	t, err := New(config)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: t}, nil
}

// RoundTrip sends req through the host and converts the host response.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if req.Body != nil {
		defer func() { _ = req.Body.Close() }()
	}

	if req.URL == nil || req.URL.Host == "" {
		return nil, ErrInvalidURL
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if !isValidMethod(method) {
		return nil, ErrInvalidMethod
	}

	// The host call is synchronous, so the context can only be honoured up front.
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, errors.Join(ErrReadBody, err)
		}
	}

	pbReq := &proto.HTTPClient{
		Method:   method,
		Url:      req.URL.String(),
		Insecure: t.cfg.InsecureSkipVerify,
		Body:     body,
		Headers:  make(map[string]*proto.Header, len(req.Header)),
	}
	for key, values := range req.Header {
		pbReq.Headers[key] = &proto.Header{Values: values}
	}

	resp, err := t.doHTTPCall(pbReq)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	return resp, nil
}

// doHTTPCall marshals the protobuf request, performs the host call, and
// unmarshals the host response into an *http.Response.
func (t *Transport) doHTTPCall(req *proto.HTTPClient) (*http.Response, error) {
	b, err := req.MarshalVT()
	if err != nil {
		return nil, errors.Join(ErrMarshalRequest, err)
	}

	raw, err := t.hostCall(t.cfg.SDKConfig.Namespace, capabilityName, fnCall, b)
	if err != nil {
		return nil, errors.Join(wetdirt.ErrHostCall, err)
	}

	var r proto.HTTPClientResponse
	if unmarshalErr := r.UnmarshalVT(raw); unmarshalErr != nil {
		return nil, errors.Join(ErrUnmarshalResponse, unmarshalErr)
	}

	status := r.GetStatus()
	if status == nil {
		return nil, wetdirt.ErrHostResponseInvalid
	}

	switch code := status.GetCode(); code {
	case hostStatusOK, hostStatusPartial:
		// success path continues
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		detail := fmt.Sprintf("host status %d", code)
		if msg := status.GetStatus(); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return nil, errors.Join(wetdirt.ErrHostError, errors.New(detail))
	default:
		return nil, errors.Join(
			wetdirt.ErrHostResponseInvalid,
			fmt.Errorf("unexpected host status code %d", code),
		)
	}

	httpCode := int(r.GetCode())
	body := r.GetBody()

	out := &http.Response{
		Status:        fmt.Sprintf("%d %s", httpCode, http.StatusText(httpCode)),
		StatusCode:    httpCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        make(http.Header, len(r.GetHeaders())),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
	for name, header := range r.GetHeaders() {
		out.Header[name] = header.GetValues()
	}

	return out, nil
}

func isValidMethod(method string) bool {
	switch method {
	case http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodConnect,
		http.MethodOptions,
		http.MethodTrace:
		return true
	default:
		return false
	}
}
