package cookie

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync/atomic"
	"time"
)

// fiveYears is the offset used by Clear and NeverExpires.
const fiveYears = 60 * 60 * 24 * 365 * 5

// Params describes a cookie to build. Zero fields fall back to the jar defaults.
type Params struct {
	// Name overrides the alias as the base of the wire name.
	Name string
	// Salt is appended to the wire name. Empty means the jar salt.
	Salt string
	// Value is the logical value: nil, a string or any JSON-serializable value.
	Value any
	// Encrypted enables value encryption with the alias-derived key.
	Encrypted bool
	// Prefix is prepended to the wire value. Empty means the jar prefix.
	Prefix string
	// Lifetime is resolved with Jar.GetAvailability. Nil means the jar lifetime.
	Lifetime any

	Path     string
	Domain   string
	Secure   *bool
	HTTPOnly *bool
	Raw      *bool
	SameSite http.SameSite
}

// Cookie is a named cookie bound to its alias and value codec.
//
// Attributes are immutable: every With method returns a new Cookie. The queue
// flag is the only mutable state and is toggled in place by Queue and Unqueue.
type Cookie struct {
	alias string
	codec Codec
	now   func() time.Time

	name     string
	value    string
	expires  int64
	path     string
	domain   string
	secure   *bool
	httpOnly bool
	raw      bool
	sameSite http.SameSite

	queued atomic.Bool
}

// NewCookie builds a cookie for alias bound to jar. It does not register the cookie;
// use Jar.Make for that.
func NewCookie(alias string, p Params, jar *Jar) (*Cookie, error) {
	if jar == nil {
		return nil, fmt.Errorf("%w: cookie %q must be bound to a jar", ErrConfiguration, alias)
	}

	name := p.Name
	if name == "" {
		name = alias
	}
	salt := p.Salt
	if salt == "" {
		salt, _ = jar.Salt()
	}
	name = strings.ReplaceAll(name+salt, ".", "_")

	prefix := p.Prefix
	if prefix == "" {
		prefix = jar.Prefix()
	}
	if err := validatePrefix(prefix); err != nil {
		return nil, fmt.Errorf("cookie %q: %w", alias, err)
	}

	c := &Cookie{
		alias: alias,
		codec: jar.codec(alias, p.Encrypted, prefix),
		now:   jar.now,
		name:  name,
	}

	value, _, err := c.codec.Encode(p.Value)
	if err != nil {
		return nil, err
	}
	c.value = value

	expires, err := jar.GetAvailability(p.Lifetime)
	if err != nil {
		return nil, fmt.Errorf("cookie %q: %w", alias, err)
	}
	c.expires = expires

	d := jar.GetDefaults(p.Path, p.Domain, p.Secure, p.HTTPOnly, p.Raw, p.SameSite)
	c.path = d.Path
	c.domain = d.Domain
	c.secure = d.Secure
	c.httpOnly = d.HTTPOnly
	c.raw = d.Raw
	c.sameSite = d.SameSite

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validatePrefix rejects prefixes with bytes that are not allowed in a cookie value.
func validatePrefix(prefix string) error {
	if i := invalidValueByte(prefix); i >= 0 {
		return fmt.Errorf("%w: prefix %q contains invalid byte %q", ErrConfiguration, prefix, prefix[i])
	}
	return nil
}

// invalidValueByte returns the index of the first byte of s outside the RFC 6265
// cookie-octet set, or -1.
func invalidValueByte(s string) int {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b <= 0x20 || b >= 0x7f || b == '"' || b == ',' || b == ';' || b == '\\' {
			return i
		}
	}
	return -1
}

// Alias returns the registry identifier of the cookie.
func (c *Cookie) Alias() string { return c.alias }

// Name returns the wire name, including the salt suffix.
func (c *Cookie) Name() string { return c.name }

// Value returns the encoded wire value. Empty means no value.
func (c *Cookie) Value() string { return c.value }

// Expires returns the expiry as a UNIX timestamp; 0 marks a session cookie.
func (c *Cookie) Expires() int64 { return c.expires }

// Path returns the cookie path, "/" when none was configured.
func (c *Cookie) Path() string {
	if c.path == "" {
		return "/"
	}
	return c.path
}

// Domain returns the cookie domain; empty means host-only.
func (c *Cookie) Domain() string { return c.domain }

// HTTPOnly reports whether the cookie is hidden from scripts.
func (c *Cookie) HTTPOnly() bool { return c.httpOnly }

// SameSite returns the SameSite mode; 0 means the attribute is omitted.
func (c *Cookie) SameSite() http.SameSite { return c.sameSite }

// IsSecure reports the secure flag. An unresolved automatic flag reads as false.
func (c *Cookie) IsSecure() bool { return c.secure != nil && *c.secure }

// IsSecureAuto reports whether the secure flag is still to be derived from the request.
func (c *Cookie) IsSecureAuto() bool { return c.secure == nil }

// IsRaw reports whether the value is emitted and read without URL encoding.
func (c *Cookie) IsRaw() bool { return c.raw }

// IsEncrypted reports whether the value is encrypted.
func (c *Cookie) IsEncrypted() bool { return c.codec.Encrypted }

// Prefix returns the value prefix.
func (c *Cookie) Prefix() string { return c.codec.Prefix }

// IsQueued reports whether the cookie is pending emission.
func (c *Cookie) IsQueued() bool { return c.queued.Load() }

// Queue marks the cookie for emission on the next response.
func (c *Cookie) Queue() *Cookie {
	c.queued.Store(true)
	return c
}

// Unqueue removes the pending emission mark.
func (c *Cookie) Unqueue() *Cookie {
	c.queued.Store(false)
	return c
}

// RealValue decodes the cookie's own wire value. It returns nil when the cookie has no value.
func (c *Cookie) RealValue() (any, error) {
	if c.value == "" {
		return nil, nil
	}
	return c.codec.Decode(c.value)
}

// HTTPValue reads the cookie from the request and decodes it.
// It returns nil without error when the request does not carry the cookie.
func (c *Cookie) HTTPValue(r *http.Request) (any, error) {
	if r == nil {
		return nil, nil
	}

	hc, err := r.Cookie(c.name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}
	if hc.Value == "" {
		return nil, nil
	}

	value := hc.Value
	if !c.raw {
		value, err = url.PathUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrDecoding, c.alias, err)
		}
	}

	return c.codec.Decode(value)
}

// CheckRequestValue reports whether the request carries the cookie with the expected
// logical value. A nil expected value compares against the cookie's own value.
// Non-string values are compared after a JSON round trip, so []int{1} matches []any{1.0}.
func (c *Cookie) CheckRequestValue(r *http.Request, expected any) (bool, error) {
	got, err := c.HTTPValue(r)
	if err != nil {
		return false, err
	}
	if got == nil {
		return false, nil
	}

	if expected == nil {
		if expected, err = c.RealValue(); err != nil {
			return false, err
		}
	} else if expected, err = normalize(expected); err != nil {
		return false, err
	}

	return reflect.DeepEqual(expected, got), nil
}

func normalize(v any) (any, error) {
	if _, ok := v.(string); ok {
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	return out, nil
}

// clone copies the cookie, queue state included.
func (c *Cookie) clone() *Cookie {
	cp := &Cookie{
		alias:    c.alias,
		codec:    c.codec,
		now:      c.now,
		name:     c.name,
		value:    c.value,
		expires:  c.expires,
		path:     c.path,
		domain:   c.domain,
		secure:   c.secure,
		httpOnly: c.httpOnly,
		raw:      c.raw,
		sameSite: c.sameSite,
	}
	cp.queued.Store(c.queued.Load())
	return cp
}

// WithRealValue returns a copy holding the encoded form of v.
// Raw cookies fail with ErrEncoding when the encoded value is not a valid cookie value.
func (c *Cookie) WithRealValue(v any) (*Cookie, error) {
	value, _, err := c.codec.Encode(v)
	if err != nil {
		return nil, err
	}
	cp := c.WithValue(value)
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return cp, nil
}

// Validate reports whether the cookie can be emitted without altering its value.
// Raw values are sent as is and must consist of cookie-octets only; a JSON value
// in a raw cookie fails with ErrEncoding.
func (c *Cookie) Validate() error {
	if !c.raw {
		return nil
	}
	if i := invalidValueByte(c.value); i >= 0 {
		return fmt.Errorf("%w: raw value of %q contains invalid byte %q", ErrEncoding, c.alias, c.value[i])
	}
	return nil
}

// WithValue returns a copy with the given wire value, stored as is.
// See Validate for the values a raw cookie can carry.
func (c *Cookie) WithValue(value string) *Cookie {
	cp := c.clone()
	cp.value = value
	return cp
}

// WithExpires returns a copy expiring at the given UNIX timestamp.
func (c *Cookie) WithExpires(unix int64) *Cookie {
	cp := c.clone()
	cp.expires = unix
	return cp
}

// WithPath returns a copy scoped to path.
func (c *Cookie) WithPath(path string) *Cookie {
	cp := c.clone()
	cp.path = path
	return cp
}

// WithDomain returns a copy scoped to domain.
func (c *Cookie) WithDomain(domain string) *Cookie {
	cp := c.clone()
	cp.domain = domain
	return cp
}

// WithSecure returns a copy with an explicit secure flag, replacing the automatic one.
func (c *Cookie) WithSecure(secure bool) *Cookie {
	cp := c.clone()
	cp.secure = boolPtr(secure)
	return cp
}

// WithHTTPOnly returns a copy with the HttpOnly flag set to httpOnly.
func (c *Cookie) WithHTTPOnly(httpOnly bool) *Cookie {
	cp := c.clone()
	cp.httpOnly = httpOnly
	return cp
}

// WithRaw returns a copy whose value is sent without URL encoding when raw is true.
func (c *Cookie) WithRaw(raw bool) *Cookie {
	cp := c.clone()
	cp.raw = raw
	return cp
}

// WithSameSite returns a copy with the given SameSite mode.
func (c *Cookie) WithSameSite(sameSite http.SameSite) *Cookie {
	cp := c.clone()
	cp.sameSite = sameSite
	return cp
}

// Clear returns a copy without value that expired five years ago,
// which tells the browser to delete the cookie.
func (c *Cookie) Clear() *Cookie {
	return c.WithValue("").WithExpires(c.now().Unix() - fiveYears)
}

// NeverExpires returns a copy expiring five years from now.
func (c *Cookie) NeverExpires() *Cookie {
	return c.WithExpires(c.now().Unix() + fiveYears)
}

// ResolveSecure returns a copy whose automatic secure flag is set to secure.
// Cookies with an explicit secure flag are returned unchanged.
func (c *Cookie) ResolveSecure(secure bool) *Cookie {
	if c.secure != nil {
		return c
	}
	return c.WithSecure(secure)
}

// HTTPCookie converts the cookie into the net/http wire primitive.
// The value is URL-encoded unless the cookie is raw; raw values are passed as is,
// so check Validate first.
func (c *Cookie) HTTPCookie() *http.Cookie {
	value := c.value
	if !c.raw {
		value = url.PathEscape(value)
	}

	hc := &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     c.Path(),
		Domain:   c.domain,
		Secure:   c.IsSecure(),
		HttpOnly: c.httpOnly,
		SameSite: c.sameSite,
	}

	if c.expires != 0 {
		hc.Expires = time.Unix(c.expires, 0).UTC()
		maxAge := c.expires - c.now().Unix()
		if maxAge <= 0 {
			hc.MaxAge = -1
		} else {
			hc.MaxAge = int(maxAge)
		}
	}

	return hc
}

// String renders the Set-Cookie header value. It is empty when the name is not
// a valid cookie name or the cookie fails Validate.
func (c *Cookie) String() string {
	if c.Validate() != nil {
		return ""
	}
	return c.HTTPCookie().String()
}
