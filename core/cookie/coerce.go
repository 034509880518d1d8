package cookie

import (
	"fmt"
	"net/http"
	"strings"
)

// ParseBool is the permissive boolean parser used for flag defaults.
// "1", "true", "on" and "yes" (case-insensitive, surrounding spaces ignored)
// are true. Everything else, including unrecognized input, is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// Bool is a boolean that decodes from text with ParseBool, so environment
// values like "yes" or "on" are accepted.
type Bool bool

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Bool) UnmarshalText(text []byte) error {
	*b = Bool(ParseBool(string(text)))
	return nil
}

// ParseSameSite converts a textual same-site policy into http.SameSite.
// An empty string yields the zero value, meaning the attribute is not set.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	case "default":
		return http.SameSiteDefaultMode, nil
	default:
		return 0, fmt.Errorf("%w: unknown same-site policy %q", ErrConfiguration, s)
	}
}

// SameSite decodes a same-site policy from text ("lax", "strict", "none").
type SameSite http.SameSite

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SameSite) UnmarshalText(text []byte) error {
	v, err := ParseSameSite(string(text))
	if err != nil {
		return err
	}
	*s = SameSite(v)
	return nil
}

// optionalBool turns an empty string into nil and anything else into a
// pointer to its ParseBool value.
func optionalBool(s string) *bool {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	b := ParseBool(s)
	return &b
}

func boolPtr(b bool) *bool {
	return &b
}
