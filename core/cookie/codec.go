package cookie

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// numericPattern matches decimal numbers with optional sign, fraction and exponent,
// allowing surrounding whitespace.
var numericPattern = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?\s*$`)

// IsNumeric reports whether s is a purely numeric string.
// Numeric strings are never JSON-decoded, so "123" stays a string.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(s)
}

// Codec maps a logical cookie value to the wire string stored in the cookie and back.
// The zero value is usable: no encryption, no prefix.
//
// Encoding applies, in order: JSON serialization for non-string values, encryption
// with the key derived from Alias, then the prefix. Decoding reverses the order.
type Codec struct {
	Alias     string
	Encrypted bool
	Prefix    string
	// Encrypter defaults to AESEncrypter.
	Encrypter Encrypter
	// Validator defaults to JSONValidator.
	Validator Validator
}

// Encode converts v into its wire form. The boolean result is false when v is nil,
// meaning the cookie carries no value.
func (c Codec) Encode(v any) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}

	s, ok := v.(string)
	if !ok {
		data, err := json.Marshal(v)
		if err != nil {
			return "", false, fmt.Errorf("%w: %q: %w", ErrEncoding, c.Alias, err)
		}
		s = string(data)
	}

	if c.Encrypted {
		encrypted, err := c.encrypter().Encrypt(DeriveKey(c.Alias), s)
		if err != nil {
			return "", false, fmt.Errorf("%w: %q: %w", ErrEncoding, c.Alias, err)
		}
		s = encrypted
	}

	if c.Prefix != "" {
		s = c.Prefix + s
	}

	return s, true, nil
}

// Decode converts a wire string back into the logical value. Structured values come
// back as map[string]any, []any, float64, bool or nil, following encoding/json.
func (c Codec) Decode(wire string) (any, error) {
	s := c.StripPrefix(wire)

	if c.Encrypted {
		plain, err := c.encrypter().Decrypt(DeriveKey(c.Alias), s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrDecoding, c.Alias, err)
		}
		s = plain
	}

	if !IsNumeric(s) && c.validator().IsJSON(s) {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrDecoding, c.Alias, err)
		}
		return v, nil
	}

	return s, nil
}

// StripPrefix removes the configured prefix from wire. A string that does not
// start with the prefix, including one shorter than it, is returned unchanged.
func (c Codec) StripPrefix(wire string) string {
	if c.Prefix == "" {
		return wire
	}
	return strings.TrimPrefix(wire, c.Prefix)
}

func (c Codec) encrypter() Encrypter {
	if c.Encrypter == nil {
		return AESEncrypter{}
	}
	return c.Encrypter
}

func (c Codec) validator() Validator {
	if c.Validator == nil {
		return JSONValidator{}
	}
	return c.Validator
}
