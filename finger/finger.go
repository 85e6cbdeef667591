package finger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// Path is where WebFinger requests are served.
	Path = "/.well-known/webfinger"

	// ContentType is the media type of a JRD document.
	ContentType = "application/jrd+json"

	// ActivityType is the media type of the actor document a self link points at.
	ActivityType = "application/activity+json"
)

// Resolver maps an "acct:" resource to a local user name.
// *actor.Manager satisfies it.
type Resolver interface {
	LocalActor(ctx context.Context, acct string) (string, error)
}

// Link is one JRD link relation.
type Link struct {
	Rel  string `json:"rel"`
	Type string `json:"type"`
	Href string `json:"href"`
}

// Resource is the JRD document returned for an account.
type Resource struct {
	Subject string `json:"subject"`
	Links   []Link `json:"links"`
}

// Config wires a Finger.
type Config struct {
	// Resolver looks up local users. Required.
	Resolver Resolver

	// Domain is the public host name of this server, e.g. example.com. Required.
	Domain string

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Finger answers WebFinger lookups for local accounts.
type Finger struct {
	resolver Resolver
	domain   string
	logger   *zap.Logger
}

var (
	// ErrNoResolver is returned by New when Config.Resolver is nil.
	ErrNoResolver = errors.New("resolver is required")

	// ErrInvalidDomain is returned by New when Config.Domain is empty or not a bare host.
	ErrInvalidDomain = errors.New("domain is invalid")
)

// New creates a Finger for domain.
func New(cfg Config) (*Finger, error) {
	if cfg.Resolver == nil {
		return nil, ErrNoResolver
	}
	if cfg.Domain == "" || strings.ContainsAny(cfg.Domain, "/@ ") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, cfg.Domain)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Finger{resolver: cfg.Resolver, domain: cfg.Domain, logger: logger.Named("finger")}, nil
}

// Domain returns the domain links are rendered for.
func (f *Finger) Domain() string { return f.domain }

// Lookup resolves resource and renders its JRD. Resolver errors are returned
// unchanged.
func (f *Finger) Lookup(ctx context.Context, resource string) (Resource, error) {
	name, err := f.resolver.LocalActor(ctx, resource)
	if err != nil {
		return Resource{}, err
	}
	return f.Render(name), nil
}

// Render builds the JRD for a local user name.
func (f *Finger) Render(name string) Resource {
	return Resource{
		Subject: fmt.Sprintf("acct:%s@%s", name, f.domain),
		Links: []Link{{
			Rel:  "self",
			Type: ActivityType,
			Href: fmt.Sprintf("https://%s/users/%s", f.domain, name),
		}},
	}
}
