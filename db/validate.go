package db

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/wetdirt/wetdirt"
)

// ValidateIdentifier rejects values that could escape a backtick-delimited
// identifier: backticks, backslashes and whitespace. Empty identifiers are
// rejected too; an empty pair of backticks is not a record id.
func ValidateIdentifier(s string) error {
	if s == "" {
		return errors.Join(wetdirt.ErrBadString, errors.New("empty identifier"))
	}
	if strings.ContainsFunc(s, func(r rune) bool {
		return r == '`' || r == '\\' || unicode.IsSpace(r)
	}) {
		return errors.Join(wetdirt.ErrBadString, fmt.Errorf("identifier %q", s))
	}
	return nil
}

// ValidateLiteral rejects values that could escape a single-quoted string
// literal: single quotes and backslashes.
func ValidateLiteral(s string) error {
	if strings.ContainsAny(s, `'\`) {
		return errors.Join(wetdirt.ErrBadString, fmt.Errorf("literal %q", s))
	}
	return nil
}

// Ident validates s and returns it as a backtick-quoted query fragment.
func Ident(s string) (string, error) {
	if err := ValidateIdentifier(s); err != nil {
		return "", err
	}
	return "`" + s + "`", nil
}

// Literal validates s and returns it as a single-quoted query fragment.
func Literal(s string) (string, error) {
	if err := ValidateLiteral(s); err != nil {
		return "", err
	}
	return "'" + s + "'", nil
}
