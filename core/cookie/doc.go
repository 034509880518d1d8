// Package cookie provides a registry of aliased HTTP cookies with consistent value
// encoding, optional per-alias encryption and value prefixes, flexible lifetimes and
// deferred emission through a queue.
//
// # Features
//
//   - Value codec: JSON for structured values, AES-GCM or XChaCha20-Poly1305
//     encryption, value prefixes
//   - Per-alias encryption keys derived from the SHA-256 digest of the alias
//   - Lifetimes as seconds, durations, datetime expressions or absolute timestamps
//   - Jar-wide defaults for path, domain, secure, HttpOnly, raw and SameSite
//   - Name salting for multi-tenant deployments
//   - Queue of cookies drained once per response by the QueuedCookies middleware,
//     which gives each request its own Jar.Scope
//   - Environment-based configuration
//   - Safe for concurrent use
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/cookiejar/core/cookie"
//
//	jar := cookie.NewJar(
//		cookie.WithSameSite(http.SameSiteLaxMode),
//		cookie.WithLifetime(3600),
//	)
//
//	cart, err := jar.Make("cart", cookie.Params{
//		Value:     map[string]any{"items": []int{1, 2, 3}},
//		Encrypted: true,
//		Prefix:    "v1_",
//	})
//	if err != nil {
//		return err
//	}
//	cart.Queue()
//
// Queued cookies are emitted by middleware.QueuedCookies, or manually:
//
//	for _, c := range jar.FetchQueued() {
//		w.Header().Add("Set-Cookie", c.String())
//	}
//
// # Reading Values
//
// Values are read back through the same codec:
//
//	v, err := cart.HTTPValue(r) // map[string]any{"items": []any{1.0, 2.0, 3.0}}
//	ok, err := cart.CheckRequestValue(r, nil) // compares with the cookie's own value
//
// Strings that look like JSON are decoded; purely numeric strings are never decoded,
// so "123" stays "123".
//
// # Lifetimes
//
// Jar.GetAvailability converts a lifetime into a UNIX timestamp:
//
//	jar.GetAvailability(0)                               // 0: session cookie
//	jar.GetAvailability(3600)                            // now + 3600
//	jar.GetAvailability(24 * time.Hour)                  // now + 86400
//	jar.GetAvailability("+1 week")                       // parsed relative to now
//	jar.GetAvailability("2030-01-02 15:04:05")           // parsed absolute date
//	jar.GetAvailability(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)) // unchanged
//	jar.GetAvailability(cookie.AbsoluteLifetime(1893456000))         // unchanged
//
// Plain integers are always seconds from now. Wrap raw timestamps with AbsoluteLifetime.
//
// # Copy-on-write
//
// Attribute methods (WithValue, WithExpires, Clear, NeverExpires, ...) return a new
// Cookie and leave the registered one untouched; register the copy with Jar.Add.
// Queue and Unqueue change the cookie in place.
//
// # Configuration
//
// Load Config from the environment and build the jar:
//
//	var cfg cookie.Config
//	config.MustLoad(&cfg)
//	jar, err := cookie.NewFromConfig(cfg, cookie.WithLogger(log))
//
// Environment variables:
//
//	COOKIE_PATH=/
//	COOKIE_DOMAIN=example.com
//	COOKIE_SECURE=        # empty: follow the request scheme
//	COOKIE_HTTP_ONLY=yes  # 1/true/on/yes
//	COOKIE_RAW=no
//	COOKIE_SAME_SITE=lax  # lax/strict/none
//	COOKIE_LIFETIME=+2 weeks
//	COOKIE_SALT=_tenant1
//	COOKIE_PREFIX=v1_
//	COOKIE_MAX_SIZE=4096
//	COOKIE_CIPHER=aes-gcm # aes-gcm/xchacha20-poly1305
//
// # Errors
//
// All failures wrap one of ErrConfiguration, ErrInvalidArgument, ErrEncoding,
// ErrDecoding or ErrNotInitialized:
//
//	if _, err := cart.HTTPValue(r); errors.Is(err, cookie.ErrDecoding) {
//		// tampered or foreign value
//	}
package cookie
