// Command wetdirt-function is the Tarmac WebAssembly build of the WebFinger
// lookup. Settings are fixed at build time:
//
//	tinygo build -target wasi -ldflags "-X main.domain=example.com -X main.dbURL=http://db:8000/sql" ./cmd/wetdirt-function
package main

import (
	"context"
	"sync"

	"github.com/wetdirt/wetdirt"
	"github.com/wetdirt/wetdirt/actor"
	"github.com/wetdirt/wetdirt/db"
	"github.com/wetdirt/wetdirt/finger"
	"github.com/wetdirt/wetdirt/function"
	"github.com/wetdirt/wetdirt/httpclient"
	"github.com/wetdirt/wetdirt/logging"
	"github.com/wetdirt/wetdirt/metrics"
	"go.uber.org/zap"
)

var (
	namespace     = wetdirt.DefaultNamespace
	domain        = "localhost"
	dbURL         = "http://localhost:8000/sql"
	dbNamespace   = "wetdirt"
	dbDatabase    = "wetdirt"
	dbCredentials = "root:root"
	metricPrefix  = ""
)

// directory performs the database handshake on the first lookup. The outcome
// is kept: a failed handshake fails every later lookup without reconnecting.
type directory struct {
	connect func(context.Context) (*actor.Manager, error)

	once sync.Once
	mgr  *actor.Manager
	err  error
}

func (d *directory) LocalActor(ctx context.Context, acct string) (string, error) {
	d.once.Do(func() { d.mgr, d.err = d.connect(ctx) })
	if d.err != nil {
		return "", d.err
	}
	return d.mgr.LocalActor(ctx, acct)
}

// connect reaches the database through the host httpclient capability.
func connect(ctx context.Context, runtime wetdirt.RuntimeConfig, logger *zap.Logger, m metrics.Client) (*actor.Manager, error) {
	client, err := httpclient.NewClient(httpclient.Config{SDKConfig: runtime})
	if err != nil {
		return nil, err
	}

	session, err := db.Connect(ctx, db.SessionConfig{
		HTTPClient:  client,
		URL:         dbURL,
		Namespace:   dbNamespace,
		Database:    dbDatabase,
		Credentials: dbCredentials,
	})
	if err != nil {
		logger.Error("database handshake failed", zap.String("url", dbURL), zap.Error(err))
		return nil, err
	}

	q, err := db.New(db.Config{Session: session, Logger: logger, Metrics: m})
	if err != nil {
		return nil, err
	}

	// Lookups never hash; a single worker keeps guest memory small.
	hasher, err := actor.NewHasher(actor.HasherConfig{Workers: 1, Metrics: m})
	if err != nil {
		return nil, err
	}

	return actor.New(actor.Config{DB: q, Hasher: hasher, Logger: logger})
}

func main() {
	runtime := wetdirt.RuntimeConfig{Namespace: namespace}
	logger := logging.New(logging.Config{SDKConfig: runtime})

	m, err := metrics.New(metrics.Config{SDKConfig: runtime, Prefix: metricPrefix})
	if err != nil {
		logger.Error("metrics unavailable", zap.Error(err))
		return
	}

	f, err := finger.New(finger.Config{
		Resolver: &directory{connect: func(ctx context.Context) (*actor.Manager, error) {
			return connect(ctx, runtime, logger, m)
		}},
		Domain:   domain,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("invalid domain", zap.String("domain", domain), zap.Error(err))
		return
	}

	if _, err := function.New(function.Config{SDKConfig: runtime, Finger: f, Logger: logger}); err != nil {
		logger.Error("failed to register handler", zap.Error(err))
	}
}
