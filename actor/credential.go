package actor

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/wetdirt/wetdirt"
)

const (
	// SaltLen is the size of a password salt in bytes.
	SaltLen = 256

	// HashLen is the size of a derived password hash in bytes.
	HashLen = 256

	// EncodedLen is the length of an encoded salt or hash. Both are 256 bytes
	// in unpadded standard base64.
	EncodedLen = 342
)

var encoding = base64.RawStdEncoding

// HashParams are the Argon2id cost parameters.
type HashParams struct {
	// Time is the number of passes over memory.
	Time uint32

	// Memory is the memory cost in KiB.
	Memory uint32

	// Threads is the degree of parallelism inside a single derivation.
	Threads uint8
}

// DefaultHashParams returns the Argon2id parameters used when none are set.
func DefaultHashParams() HashParams {
	return HashParams{Time: 2, Memory: 19 * 1024, Threads: 1}
}

func (p HashParams) withDefaults() HashParams {
	d := DefaultHashParams()
	if p.Time == 0 {
		p.Time = d.Time
	}
	if p.Memory == 0 {
		p.Memory = d.Memory
	}
	if p.Threads == 0 {
		p.Threads = d.Threads
	}
	return p
}

// Credential is a salt and the password hash derived with it.
type Credential struct {
	Salt [SaltLen]byte
	Hash [HashLen]byte
}

// EncodedSalt returns the salt as a query-safe string of EncodedLen characters.
func (c Credential) EncodedSalt() string { return encoding.EncodeToString(c.Salt[:]) }

// EncodedHash returns the hash as a query-safe string of EncodedLen characters.
func (c Credential) EncodedHash() string { return encoding.EncodeToString(c.Hash[:]) }

// DecodeCredential parses a stored salt and hash. Anything that is not exactly
// EncodedLen characters of valid encoding is reported as ErrMissingData.
func DecodeCredential(salt, hash string) (Credential, error) {
	var c Credential
	if err := decodeInto(c.Salt[:], salt); err != nil {
		return Credential{}, errors.Join(wetdirt.ErrMissingData, fmt.Errorf("salt: %w", err))
	}
	if err := decodeInto(c.Hash[:], hash); err != nil {
		return Credential{}, errors.Join(wetdirt.ErrMissingData, fmt.Errorf("pwd_hash: %w", err))
	}
	return c, nil
}

func decodeInto(dst []byte, s string) error {
	if len(s) != EncodedLen {
		return fmt.Errorf("expected %d characters, got %d", EncodedLen, len(s))
	}
	n, err := encoding.Decode(dst, []byte(s))
	if err != nil {
		return err
	}
	if n != len(dst) {
		return fmt.Errorf("decoded %d bytes, want %d", n, len(dst))
	}
	return nil
}

func newSalt() ([SaltLen]byte, error) {
	var salt [SaltLen]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, errors.Join(wetdirt.ErrHashFailure, err)
	}
	return salt, nil
}
