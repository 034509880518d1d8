package cookie

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/cookiejar/core/logger"
)

// defaultJar holds the first jar constructed in the process.
var defaultJar atomic.Pointer[Jar]

// Default returns the first jar constructed in the process.
// Prefer passing a jar explicitly or through the request context (see middleware.GetJar).
func Default() (*Jar, error) {
	if j := defaultJar.Load(); j != nil {
		return j, nil
	}
	return nil, ErrNotInitialized
}

// Defaults are the attribute values applied to cookies that don't set them.
type Defaults struct {
	Path   string
	Domain string
	// Secure nil means the flag is derived from the request scheme at emission time.
	Secure   *bool
	HTTPOnly bool
	Raw      bool
	SameSite http.SameSite
}

// Jar is a registry of aliased cookies together with the defaults used to build them.
// It is safe for concurrent use.
type Jar struct {
	mu       sync.RWMutex
	cookies  map[string]*Cookie
	order    []string
	defaults Defaults
	lifetime any
	salt     string
	hasSalt  bool
	prefix   string
	maxSize  int

	encrypter Encrypter
	validator Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewJar creates a jar. HttpOnly defaults to true, raw to false and the lifetime
// to 0 (session cookies). The first jar created becomes the process default.
func NewJar(opts ...Option) *Jar {
	j := &Jar{
		cookies:   make(map[string]*Cookie),
		defaults:  Defaults{HTTPOnly: true},
		lifetime:  0,
		maxSize:   MaxCookieSize,
		encrypter: AESEncrypter{},
		validator: JSONValidator{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(j)
	}

	defaultJar.CompareAndSwap(nil, j)

	return j
}

// Make builds a cookie bound to the jar and registers it under alias,
// replacing any cookie previously registered with that alias.
func (j *Jar) Make(alias string, p Params) (*Cookie, error) {
	c, err := NewCookie(alias, p, j)
	if err != nil {
		j.logger.Debug("cookie make failed",
			logger.Component("cookie"),
			logger.Alias(alias),
			logger.Error(err),
		)
		return nil, err
	}

	j.Add(c)

	j.logger.Debug("cookie made",
		logger.Component("cookie"),
		logger.Alias(alias),
		logger.CookieName(c.Name()),
		logger.Bool("encrypted", c.IsEncrypted()),
	)

	return c, nil
}

// Add registers c under its alias. A cookie replacing an existing alias keeps
// the original position in the registry order. A nil cookie is ignored.
func (j *Jar) Add(c *Cookie) *Jar {
	if c == nil {
		j.logger.Warn("nil cookie not added",
			logger.Component("cookie"),
		)
		return j
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.cookies[c.Alias()]; !ok {
		j.order = append(j.order, c.Alias())
	}
	j.cookies[c.Alias()] = c

	return j
}

// Scope returns a jar for a single request. It shares the configuration of j and
// starts with unqueued copies of the cookies registered in j, but keeps its own
// registry and queue: cookies made, added or queued through the scope never reach j
// or any other scope. A scope never becomes the process default.
func (j *Jar) Scope() *Jar {
	j.mu.RLock()
	defer j.mu.RUnlock()

	s := &Jar{
		cookies:   make(map[string]*Cookie, len(j.cookies)),
		order:     slices.Clone(j.order),
		defaults:  j.defaults,
		lifetime:  j.lifetime,
		salt:      j.salt,
		hasSalt:   j.hasSalt,
		prefix:    j.prefix,
		maxSize:   j.maxSize,
		encrypter: j.encrypter,
		validator: j.validator,
		logger:    j.logger,
		now:       j.now,
	}
	for alias, c := range j.cookies {
		cp := c.clone()
		cp.queued.Store(false)
		s.cookies[alias] = cp
	}

	return s
}

// Get returns the cookie registered under alias.
func (j *Jar) Get(alias string) (*Cookie, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	c, ok := j.cookies[alias]
	return c, ok
}

// All returns a snapshot of the registry.
func (j *Jar) All() map[string]*Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return maps.Clone(j.cookies)
}

// FetchQueued returns the queued cookies in registry order and unqueues them.
// A second call returns nothing until cookies are queued again.
func (j *Jar) FetchQueued() []*Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var queued []*Cookie
	for _, alias := range j.order {
		c := j.cookies[alias]
		if c.queued.CompareAndSwap(true, false) {
			queued = append(queued, c)
		}
	}

	if len(queued) > 0 {
		j.logger.Debug("queued cookies fetched",
			logger.Component("cookie"),
			logger.Count("count", len(queued)),
		)
	}

	return queued
}

// GetAvailability resolves a lifetime into an absolute UNIX timestamp.
//
// A nil lifetime uses the jar lifetime. Integers, time.Duration and numeric strings
// are offsets from now; zero yields 0, the session cookie sentinel. Other strings are
// parsed with ParseTime. A Timestamper (time.Time, AbsoluteLifetime) is returned as is.
// Unsupported kinds fail with ErrConfiguration, unparsable text with ErrInvalidArgument.
func (j *Jar) GetAvailability(lifetime any) (int64, error) {
	if lifetime == nil {
		j.mu.RLock()
		lifetime = j.lifetime
		j.mu.RUnlock()
	}
	return resolveAvailability(lifetime, j.now())
}

// GetDefaults merges explicit attribute values with the jar defaults.
// Path, domain and same-site win when non-empty, secure wins when true,
// httpOnly and raw win when non-nil.
func (j *Jar) GetDefaults(path, domain string, secure, httpOnly, raw *bool, sameSite http.SameSite) Defaults {
	j.mu.RLock()
	d := j.defaults
	j.mu.RUnlock()

	if path != "" {
		d.Path = path
	}
	if domain != "" {
		d.Domain = domain
	}
	if secure != nil && *secure {
		d.Secure = boolPtr(true)
	}
	if httpOnly != nil {
		d.HTTPOnly = *httpOnly
	}
	if raw != nil {
		d.Raw = *raw
	}
	if sameSite != 0 {
		d.SameSite = sameSite
	}
	return d
}

// Defaults returns the jar-wide attribute defaults.
func (j *Jar) Defaults() Defaults {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.defaults
}

// SetDefaults replaces the attribute defaults. A nil httpOnly means true,
// a nil raw means false, a nil secure means automatic.
func (j *Jar) SetDefaults(path, domain string, secure, httpOnly, raw *bool, sameSite http.SameSite) *Jar {
	d := Defaults{
		Path:     path,
		Domain:   domain,
		Secure:   secure,
		HTTPOnly: true,
		SameSite: sameSite,
	}
	if httpOnly != nil {
		d.HTTPOnly = *httpOnly
	}
	if raw != nil {
		d.Raw = *raw
	}

	j.mu.Lock()
	j.defaults = d
	j.mu.Unlock()

	return j
}

// Lifetime returns the default lifetime.
func (j *Jar) Lifetime() any {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.lifetime
}

// SetLifetime sets the default lifetime. A value of an unsupported kind
// resets the lifetime to 0 instead of failing.
func (j *Jar) SetLifetime(lifetime any) *Jar {
	if !IsLifetime(lifetime) {
		j.logger.Warn("unsupported cookie lifetime, using session cookies",
			logger.Component("cookie"),
			logger.Type(fmt.Sprintf("%T", lifetime)),
		)
		lifetime = 0
	}

	j.mu.Lock()
	j.lifetime = lifetime
	j.mu.Unlock()

	return j
}

// Salt returns the wire name suffix and whether one is set.
func (j *Jar) Salt() (string, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.salt, j.hasSalt
}

// SetSalt sets the wire name suffix appended to cookie names.
func (j *Jar) SetSalt(salt string) *Jar {
	j.mu.Lock()
	j.salt, j.hasSalt = salt, true
	j.mu.Unlock()

	return j
}

// Prefix returns the default value prefix.
func (j *Jar) Prefix() string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.prefix
}

// SetPrefix sets the default value prefix for cookies that don't set their own.
func (j *Jar) SetPrefix(prefix string) *Jar {
	j.mu.Lock()
	j.prefix = prefix
	j.mu.Unlock()

	return j
}

// MaxSize returns the maximum Set-Cookie header size.
func (j *Jar) MaxSize() int {
	return j.maxSize
}

// Logger returns the jar logger.
func (j *Jar) Logger() *slog.Logger {
	return j.logger
}

func (j *Jar) codec(alias string, encrypted bool, prefix string) Codec {
	return Codec{
		Alias:     alias,
		Encrypted: encrypted,
		Prefix:    prefix,
		Encrypter: j.encrypter,
		Validator: j.validator,
	}
}
