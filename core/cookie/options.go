package cookie

import (
	"log/slog"
	"net/http"
	"time"
)

// Option is a functional option for configuring a Jar.
type Option func(*Jar)

// WithPath sets the default cookie path.
func WithPath(path string) Option {
	return func(j *Jar) {
		j.defaults.Path = path
	}
}

// WithDomain sets the default cookie domain.
func WithDomain(domain string) Option {
	return func(j *Jar) {
		j.defaults.Domain = domain
	}
}

// WithSecure sets the default secure flag. Without it the flag follows the request scheme.
func WithSecure(secure bool) Option {
	return func(j *Jar) {
		j.defaults.Secure = boolPtr(secure)
	}
}

// WithHTTPOnly sets the default HttpOnly flag.
func WithHTTPOnly(httpOnly bool) Option {
	return func(j *Jar) {
		j.defaults.HTTPOnly = httpOnly
	}
}

// WithRaw disables URL encoding of values by default.
func WithRaw(raw bool) Option {
	return func(j *Jar) {
		j.defaults.Raw = raw
	}
}

// WithSameSite sets the default SameSite policy.
func WithSameSite(sameSite http.SameSite) Option {
	return func(j *Jar) {
		j.defaults.SameSite = sameSite
	}
}

// WithLifetime sets the default lifetime. Unsupported kinds fall back to 0.
func WithLifetime(lifetime any) Option {
	return func(j *Jar) {
		if !IsLifetime(lifetime) {
			lifetime = 0
		}
		j.lifetime = lifetime
	}
}

// WithSalt sets the suffix appended to cookie names.
func WithSalt(salt string) Option {
	return func(j *Jar) {
		j.salt, j.hasSalt = salt, true
	}
}

// WithPrefix sets the default value prefix.
func WithPrefix(prefix string) Option {
	return func(j *Jar) {
		j.prefix = prefix
	}
}

// WithMaxSize sets the maximum Set-Cookie header size.
func WithMaxSize(size int) Option {
	return func(j *Jar) {
		if size > 0 {
			j.maxSize = size
		}
	}
}

// WithEncrypter replaces the AES-GCM encrypter.
func WithEncrypter(e Encrypter) Option {
	return func(j *Jar) {
		if e != nil {
			j.encrypter = e
		}
	}
}

// WithValidator replaces the JSON-likeness validator.
func WithValidator(v Validator) Option {
	return func(j *Jar) {
		if v != nil {
			j.validator = v
		}
	}
}

// WithLogger sets the jar logger (default: discards output).
func WithLogger(l *slog.Logger) Option {
	return func(j *Jar) {
		if l != nil {
			j.logger = l
		}
	}
}

// WithClock overrides the time source used for lifetimes and expiry offsets.
func WithClock(now func() time.Time) Option {
	return func(j *Jar) {
		if now != nil {
			j.now = now
		}
	}
}
