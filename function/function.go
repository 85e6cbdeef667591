package function

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	wapc "github.com/wapc/wapc-guest-tinygo"
	"github.com/wetdirt/wetdirt"
	"github.com/wetdirt/wetdirt/finger"
	"go.uber.org/zap"
)

// HandlerName is the waPC function the host invokes.
const HandlerName = "handler"

var (
	// ErrFingerNil is returned when Config.Finger is nil.
	ErrFingerNil = errors.New("finger cannot be nil")

	// ErrEmptyResource is returned when the host sends an empty payload.
	ErrEmptyResource = errors.New("resource payload is empty")
)

// Lookuper renders the JRD of a WebFinger resource. *finger.Finger satisfies it.
type Lookuper interface {
	Lookup(ctx context.Context, resource string) (finger.Resource, error)
}

// Config provides configuration options for the function entry point.
type Config struct {
	// SDKConfig carries the namespace used for host callbacks.
	// If empty, wetdirt.DefaultNamespace is used.
	SDKConfig wetdirt.RuntimeConfig

	// Finger answers lookups. Required.
	Finger Lookuper

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Function is the WebFinger lookup registered as the WebAssembly entry point.
type Function struct {
	runtime wetdirt.RuntimeConfig
	finger  Lookuper
	logger  *zap.Logger
}

// New validates config and registers Handle with waPC.
func New(config Config) (*Function, error) {
	if config.Finger == nil {
		return nil, ErrFingerNil
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fn := &Function{
		runtime: config.SDKConfig.WithDefaults(),
		finger:  config.Finger,
		logger:  logger.Named("function"),
	}

	wapc.RegisterFunction(HandlerName, fn.Handle)

	return fn, nil
}

// Config returns the current runtime configuration snapshot.
func (f *Function) Config() wetdirt.RuntimeConfig { return f.runtime }

// Handle takes an "acct:" resource as the payload and returns its JRD as JSON.
func (f *Function) Handle(payload []byte) ([]byte, error) {
	resource := strings.TrimSpace(string(payload))
	if resource == "" {
		return nil, ErrEmptyResource
	}

	jrd, err := f.finger.Lookup(context.Background(), resource)
	if err != nil {
		if !errors.Is(err, wetdirt.ErrNoSuchEntity) {
			f.logger.Error("lookup failed", zap.String("resource", resource), zap.Error(err))
		}
		return nil, fmt.Errorf("lookup %q: %w", resource, err)
	}

	out, err := json.Marshal(jrd)
	if err != nil {
		return nil, fmt.Errorf("encode jrd: %w", err)
	}
	return out, nil
}
