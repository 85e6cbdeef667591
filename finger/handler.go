package finger

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/wetdirt/wetdirt"
	"go.uber.org/zap"
)

// RequestIDHeader carries the id assigned to each WebFinger request.
const RequestIDHeader = "X-Request-Id"

// ServeHTTP answers GET Path?resource=acct:name@domain with the account's JRD.
//
// Unknown accounts get 404. A missing resource or one that could alter a
// query gets 400. Any other failure means the database misbehaved and gets 502.
func (f *Finger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, id)
	w.Header().Set("Access-Control-Allow-Origin", "*")

	logger := f.logger.With(zap.String("request_id", id))

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	resource := r.URL.Query().Get("resource")
	if resource == "" {
		http.Error(w, "missing resource parameter", http.StatusBadRequest)
		return
	}

	jrd, err := f.Lookup(r.Context(), resource)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusBadGateway {
			logger.Error("webfinger lookup failed", zap.String("resource", resource), zap.Error(err))
		} else {
			logger.Debug("webfinger lookup rejected", zap.String("resource", resource), zap.Int("status", status))
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	body, err := json.Marshal(jrd)
	if err != nil {
		logger.Error("failed to encode jrd", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(body)
	}
	logger.Debug("webfinger lookup served", zap.String("subject", jrd.Subject))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wetdirt.ErrNoSuchEntity):
		return http.StatusNotFound
	case errors.Is(err, wetdirt.ErrBadString):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
