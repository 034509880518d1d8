package cookie

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// MaxCookieSize is the maximum size of a Set-Cookie header (4KB).
const MaxCookieSize = 4096

// Config provides environment-based configuration for the cookie jar.
type Config struct {
	Path   string `env:"COOKIE_PATH" envDefault:"/"`
	Domain string `env:"COOKIE_DOMAIN" envDefault:""`
	// Secure left empty derives the flag from the request scheme.
	Secure   string   `env:"COOKIE_SECURE" envDefault:""`
	HTTPOnly Bool     `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	Raw      Bool     `env:"COOKIE_RAW" envDefault:"false"`
	SameSite SameSite `env:"COOKIE_SAME_SITE" envDefault:"lax"`
	// Lifetime accepts seconds ("3600") or a datetime expression ("+1 week").
	Lifetime string `env:"COOKIE_LIFETIME" envDefault:"0"`
	Salt     string `env:"COOKIE_SALT" envDefault:""`
	Prefix   string `env:"COOKIE_PREFIX" envDefault:""`
	MaxSize  int    `env:"COOKIE_MAX_SIZE" envDefault:"4096"`
	// Cipher selects the value encryption: "aes-gcm" or "xchacha20-poly1305".
	Cipher string `env:"COOKIE_CIPHER" envDefault:"aes-gcm"`
}

// DefaultConfig returns a Config with the defaults used when no environment is set.
func DefaultConfig() Config {
	return Config{
		Path:     "/",
		HTTPOnly: true,
		Raw:      false,
		SameSite: SameSite(http.SameSiteLaxMode),
		Lifetime: "0",
		MaxSize:  MaxCookieSize,
		Cipher:   CipherAESGCM,
	}
}

// NewFromConfig creates a Jar from configuration. Options are applied after the
// configuration so they can override it. Invalid prefixes, ciphers and lifetimes are
// reported here rather than on the first Make.
func NewFromConfig(cfg Config, opts ...Option) (*Jar, error) {
	if err := validatePrefix(cfg.Prefix); err != nil {
		return nil, fmt.Errorf("cookie config: %w", err)
	}
	encrypter, err := NewEncrypter(cfg.Cipher)
	if err != nil {
		return nil, fmt.Errorf("cookie config: %w", err)
	}
	lifetime := strings.TrimSpace(cfg.Lifetime)
	if lifetime != "" {
		if _, err := resolveAvailability(lifetime, time.Now()); err != nil {
			return nil, fmt.Errorf("cookie config: %w", err)
		}
	}

	configOpts := []Option{
		WithPath(cfg.Path),
		WithDomain(cfg.Domain),
		WithHTTPOnly(bool(cfg.HTTPOnly)),
		WithRaw(bool(cfg.Raw)),
		WithSameSite(http.SameSite(cfg.SameSite)),
		WithEncrypter(encrypter),
	}

	if secure := optionalBool(cfg.Secure); secure != nil {
		configOpts = append(configOpts, WithSecure(*secure))
	}
	if lifetime != "" {
		configOpts = append(configOpts, WithLifetime(lifetime))
	}
	if cfg.Salt != "" {
		configOpts = append(configOpts, WithSalt(cfg.Salt))
	}
	if cfg.Prefix != "" {
		configOpts = append(configOpts, WithPrefix(cfg.Prefix))
	}
	if cfg.MaxSize > 0 {
		configOpts = append(configOpts, WithMaxSize(cfg.MaxSize))
	}

	// Append user-provided options to override config
	configOpts = append(configOpts, opts...)

	return NewJar(configOpts...), nil
}
