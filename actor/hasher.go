package actor

import (
	"context"
	"crypto/subtle"
	"errors"
	"runtime"
	"time"

	"github.com/wetdirt/wetdirt"
	"github.com/wetdirt/wetdirt/metrics"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// HasherConfig controls password derivation.
type HasherConfig struct {
	// Params are the Argon2id costs. Zero fields take DefaultHashParams.
	Params HashParams

	// Workers bounds how many derivations run at once. Defaults to
	// runtime.NumCPU().
	Workers int

	// Metrics receives derivation latency and in-flight counts. Defaults to
	// metrics.Nop.
	Metrics metrics.Client
}

// Hasher derives Argon2id password hashes on a bounded pool so a burst of
// account operations cannot exhaust memory.
type Hasher struct {
	params HashParams
	sem    *semaphore.Weighted

	latency  metrics.Histogram
	inflight metrics.Gauge
}

// NewHasher creates a Hasher from cfg.
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.Nop()
	}

	h := &Hasher{
		params: cfg.Params.withDefaults(),
		sem:    semaphore.NewWeighted(int64(workers)),
	}

	var err error
	if h.latency, err = m.NewHistogram("wetdirt_password_hash_seconds"); err != nil {
		return nil, err
	}
	if h.inflight, err = m.NewGauge("wetdirt_password_hash_inflight"); err != nil {
		return nil, err
	}
	return h, nil
}

// Params returns the effective Argon2id parameters.
func (h *Hasher) Params() HashParams { return h.params }

// NewCredential draws a fresh salt and derives the hash of password with it.
func (h *Hasher) NewCredential(ctx context.Context, password string) (Credential, error) {
	salt, err := newSalt()
	if err != nil {
		return Credential{}, err
	}

	hash, err := h.derive(ctx, password, salt[:])
	if err != nil {
		return Credential{}, err
	}
	return Credential{Salt: salt, Hash: hash}, nil
}

// Verify re-derives password with the stored salt and compares the result in
// constant time. A mismatch is reported as ErrBadCredentials.
func (h *Hasher) Verify(ctx context.Context, password string, stored Credential) error {
	hash, err := h.derive(ctx, password, stored.Salt[:])
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(hash[:], stored.Hash[:]) != 1 {
		return wetdirt.ErrBadCredentials
	}
	return nil
}

func (h *Hasher) derive(ctx context.Context, password string, salt []byte) ([HashLen]byte, error) {
	var out [HashLen]byte

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return out, errors.Join(wetdirt.ErrHashFailure, err)
	}
	defer h.sem.Release(1)

	h.inflight.Inc()
	defer h.inflight.Dec()

	start := time.Now()
	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, HashLen)
	h.latency.Observe(time.Since(start).Seconds())

	if len(key) != HashLen {
		return out, wetdirt.ErrHashFailure
	}
	copy(out[:], key)
	return out, nil
}
