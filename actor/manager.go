package actor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wetdirt/wetdirt"
	"github.com/wetdirt/wetdirt/db"
	"go.uber.org/zap"
)

// acctScheme prefixes every WebFinger account resource.
const acctScheme = "acct:"

// Querier runs query text and returns the collapsed per-statement rows.
// *db.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, query string) (db.Response, error)
}

// Config wires a Manager.
type Config struct {
	// DB executes queries. Required.
	DB Querier

	// Hasher derives password hashes. Defaults to NewHasher(HasherConfig{}).
	Hasher *Hasher

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Manager creates accounts, resolves local actors and manages passwords.
// It is safe for concurrent use.
type Manager struct {
	db     Querier
	hasher *Hasher
	logger *zap.Logger
}

// ErrNoDatabase is returned by New when Config.DB is nil.
var ErrNoDatabase = errors.New("database client is required")

var _ Querier = (*db.Client)(nil)

// New creates a Manager.
func New(cfg Config) (*Manager, error) {
	if cfg.DB == nil {
		return nil, ErrNoDatabase
	}

	hasher := cfg.Hasher
	if hasher == nil {
		var err error
		if hasher, err = NewHasher(HasherConfig{}); err != nil {
			return nil, err
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{db: cfg.DB, hasher: hasher, logger: logger.Named("actor")}, nil
}

// CreateUser stores a new account with a freshly salted hash of password and
// returns the record id the database assigned.
func (m *Manager) CreateUser(ctx context.Context, name, password string) (string, error) {
	user, err := db.Ident(name)
	if err != nil {
		return "", err
	}
	if err := db.ValidateLiteral(password); err != nil {
		return "", err
	}

	set, err := m.credentialSet(ctx, password)
	if err != nil {
		return "", err
	}

	resp, err := m.db.Query(ctx, "CREATE user:"+user+" SET "+set+" RETURN id")
	if err != nil {
		return "", err
	}

	row, err := firstRow(resp)
	if err != nil {
		return "", err
	}
	id, ok := row.String("id")
	if !ok {
		return "", errors.Join(wetdirt.ErrMissingData, wetdirt.NewDiagnostic("id"))
	}

	m.logger.Info("user created", zap.String("user", name), zap.String("id", id))
	return id, nil
}

// LocalActor resolves an "acct:name@domain" resource to a local user name.
// Resources that are not accounts, or name nobody, yield ErrNoSuchEntity. The
// domain part is not checked.
func (m *Manager) LocalActor(ctx context.Context, acct string) (string, error) {
	rest, ok := strings.CutPrefix(acct, acctScheme)
	if !ok {
		return "", errors.Join(wetdirt.ErrNoSuchEntity, fmt.Errorf("not an account resource: %q", acct))
	}
	name, _, _ := strings.Cut(rest, "@")
	if name == "" {
		return "", errors.Join(wetdirt.ErrNoSuchEntity, fmt.Errorf("no user name in %q", acct))
	}

	user, err := db.Ident(name)
	if err != nil {
		return "", err
	}

	resp, err := m.db.Query(ctx, "SELECT id FROM user:"+user)
	if err != nil {
		return "", err
	}
	if len(resp) == 0 {
		return "", errors.Join(wetdirt.ErrBadQuery, wetdirt.NewDiagnostic("empty response"))
	}
	if len(resp[0]) == 0 {
		m.logger.Debug("no such actor", zap.String("user", name))
		return "", wetdirt.ErrNoSuchEntity
	}
	return name, nil
}

// ChangePassword replaces the salt and hash of an existing user. Unknown users
// yield ErrNoSuchEntity.
func (m *Manager) ChangePassword(ctx context.Context, name, password string) error {
	user, err := db.Ident(name)
	if err != nil {
		return err
	}
	if err := db.ValidateLiteral(password); err != nil {
		return err
	}

	set, err := m.credentialSet(ctx, password)
	if err != nil {
		return err
	}

	resp, err := m.db.Query(ctx, "UPDATE user:"+user+" SET "+set+" WHERE pwd_hash != NONE RETURN id")
	if err != nil {
		return err
	}
	if _, err := firstRow(resp); err != nil {
		if errors.Is(err, wetdirt.ErrMissingData) {
			return wetdirt.ErrNoSuchEntity
		}
		return err
	}

	m.logger.Info("password changed", zap.String("user", name))
	return nil
}

// Authenticate checks password against the stored credential of name.
func (m *Manager) Authenticate(ctx context.Context, name, password string) error {
	user, err := db.Ident(name)
	if err != nil {
		return err
	}

	resp, err := m.db.Query(ctx, "SELECT salt, pwd_hash FROM user:"+user)
	if err != nil {
		return err
	}
	row, err := firstRow(resp)
	if err != nil {
		if errors.Is(err, wetdirt.ErrMissingData) {
			return wetdirt.ErrNoSuchEntity
		}
		return err
	}

	salt, ok := row.String("salt")
	if !ok {
		return errors.Join(wetdirt.ErrMissingData, wetdirt.NewDiagnostic("salt"))
	}
	hash, ok := row.String("pwd_hash")
	if !ok {
		return errors.Join(wetdirt.ErrMissingData, wetdirt.NewDiagnostic("pwd_hash"))
	}
	cred, err := DecodeCredential(salt, hash)
	if err != nil {
		return err
	}

	if err := m.hasher.Verify(ctx, password, cred); err != nil {
		if errors.Is(err, wetdirt.ErrBadCredentials) {
			m.logger.Info("authentication failed", zap.String("user", name))
		}
		return err
	}
	return nil
}

// credentialSet derives a fresh credential for password and renders it as the
// "salt = ..., pwd_hash = ..." assignment list.
func (m *Manager) credentialSet(ctx context.Context, password string) (string, error) {
	cred, err := m.hasher.NewCredential(ctx, password)
	if err != nil {
		return "", err
	}

	salt, err := db.Literal(cred.EncodedSalt())
	if err != nil {
		return "", err
	}
	hash, err := db.Literal(cred.EncodedHash())
	if err != nil {
		return "", err
	}
	return "salt = " + salt + ", pwd_hash = " + hash, nil
}

// firstRow returns the first row of the first statement.
func firstRow(resp db.Response) (db.Row, error) {
	if len(resp) == 0 {
		return nil, errors.Join(wetdirt.ErrBadQuery, wetdirt.NewDiagnostic("empty response"))
	}
	if len(resp[0]) == 0 {
		return nil, errors.Join(wetdirt.ErrMissingData, wetdirt.NewDiagnostic("row"))
	}
	return resp[0][0], nil
}
