package enctype

import (
	"errors"
	"fmt"
	"strings"
)

const (
	unsupportedPrefix = "UNSUPPORTED:"
	deprecatedPrefix  = "DEPRECATED:"
)

var (
	// ErrUnsupported is returned for tokens carrying the UNSUPPORTED: marker
	// that kadmin prints for keys libkrb5 can no longer use.
	ErrUnsupported = errors.New("unsupported enctype/keysalt")

	// ErrUnrecognized is returned for tokens that are no alias of any class.
	ErrUnrecognized = errors.New("enctype not recognized by krb5")

	// ErrUnknownSalt is returned for keysalt tokens naming an unknown salt.
	ErrUnknownSalt = errors.New("salt not recognized by krb5")
)

// Error describes a token that could not be classified. All classification
// errors are fatal to an audit run.
type Error struct {
	Token string
	Err   error
}

func (e *Error) Error() string {
	switch e.Err {
	case ErrUnsupported:
		return "Unsupported enctype/keysalt: " + e.Token
	case ErrUnknownSalt:
		return fmt.Sprintf("Salt %s is not recognized by krb5!", e.Token)
	case ErrUnrecognized:
		if e.Token == "" {
			return "empty enctype list"
		}
		return fmt.Sprintf("enctype %s is not recognized by krb5!", e.Token)
	default:
		return e.Token + ": " + e.Err.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// stripMarker removes a DEPRECATED: prefix and rejects UNSUPPORTED: ones.
func stripMarker(raw string) (string, error) {
	if strings.HasPrefix(raw, unsupportedPrefix) {
		return "", &Error{Token: raw, Err: ErrUnsupported}
	}
	return strings.TrimPrefix(raw, deprecatedPrefix), nil
}

// Canonicalize returns every class whose alias set contains raw.
func Canonicalize(raw string) (Set, error) {
	token, err := stripMarker(raw)
	if err != nil {
		return nil, err
	}
	ids, ok := byAlias[token]
	if !ok {
		return nil, &Error{Token: token, Err: ErrUnrecognized}
	}
	return NewSet(ids...), nil
}

// splitList splits on runs of commas and spaces.
func splitList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// CanonicalizeList canonicalizes every token of a comma/space separated
// list and returns the union.
func CanonicalizeList(raw string) (Set, error) {
	tokens := splitList(raw)
	if len(tokens) == 0 {
		return nil, &Error{Err: ErrUnrecognized}
	}

	out := make(Set)
	for _, token := range tokens {
		ids, err := Canonicalize(token)
		if err != nil {
			return nil, err
		}
		out.Union(ids)
	}
	return out, nil
}

// CanonicalizeKeysaltList parses a list of enctype[:salt] tokens. Tokens
// without a salt use the normal salt.
func CanonicalizeKeysaltList(raw string) (Set, SaltSet, error) {
	tokens := splitList(raw)
	if len(tokens) == 0 {
		return nil, nil, &Error{Err: ErrUnrecognized}
	}

	classes := make(Set)
	saltsSeen := make(SaltSet)
	for _, tok := range tokens {
		token, err := stripMarker(tok)
		if err != nil {
			return nil, nil, err
		}

		salt := SaltNormal
		if et, name, ok := strings.Cut(token, ":"); ok {
			s, known := ParseSalt(name)
			if !known {
				return nil, nil, &Error{Token: name, Err: ErrUnknownSalt}
			}
			token, salt = et, s
		}
		saltsSeen[salt] = struct{}{}

		ids, err := Canonicalize(token)
		if err != nil {
			return nil, nil, err
		}
		classes.Union(ids)
	}
	return classes, saltsSeen, nil
}
