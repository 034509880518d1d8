package middleware

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/cookiejar/core/cookie"
	"github.com/dmitrymomot/cookiejar/core/handler"
	"github.com/dmitrymomot/cookiejar/core/logger"
)

type jarContextKey struct{}

// QueuedCookiesConfig configures the queued cookies middleware.
type QueuedCookiesConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Jar provides the configuration and declared cookies of every request scope (required)
	Jar *cookie.Jar
	// Logger for structured logging (default: slog with io.Discard)
	Logger *slog.Logger
	// MaxSize is the maximum Set-Cookie header size; larger cookies are skipped
	// (default: Jar.MaxSize())
	MaxSize int
}

// QueuedCookies creates middleware that hands every request its own scope of
// the jar (see cookie.Jar.Scope) and emits the cookies queued in that scope as
// Set-Cookie headers right before the response header is written. Concurrent
// requests never see each other's cookies.
//
// Usage:
//
//	jar := cookie.NewJar(cookie.WithSameSite(http.SameSiteLaxMode))
//
//	mux.Handle("/cart", handler.ToHTTP(handler.NewContext, func(ctx *handler.BaseContext) handler.Response {
//		jar, _ := middleware.GetJar(ctx)
//		c, err := jar.Make("cart", cookie.Params{Value: cart, Encrypted: true})
//		if err != nil {
//			return errorResponse(err)
//		}
//		c.Queue()
//		return okResponse()
//	}, nil, middleware.QueuedCookies[*handler.BaseContext](jar)))
//
// Queued cookies are drained only when the header has not been sent yet and the
// response rendered without error; otherwise they are dropped with the scope.
func QueuedCookies[C handler.Context](jar *cookie.Jar) handler.Middleware[C] {
	return QueuedCookiesWithConfig[C](QueuedCookiesConfig{Jar: jar})
}

// QueuedCookiesWithConfig creates the queued cookies middleware with custom configuration.
func QueuedCookiesWithConfig[C handler.Context](cfg QueuedCookiesConfig) handler.Middleware[C] {
	if cfg.Jar == nil {
		panic("queued cookies middleware: jar is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if cfg.MaxSize <= 0 {
		cfg.MaxSize = cfg.Jar.MaxSize()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			jar := cfg.Jar.Scope()
			ctx.SetValue(jarContextKey{}, jar)

			response := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				cw := &cookieWriter{
					ResponseWriter: w,
					emit: func() {
						emitQueuedCookies(cfg, jar, w, r)
					},
				}

				if response != nil {
					if err := response(cw, r); err != nil {
						return err
					}
				}

				cw.emitOnce()
				return nil
			}
		}
	}
}

// GetJar returns the request scope of the jar exposed by the QueuedCookies middleware.
func GetJar(ctx handler.Context) (*cookie.Jar, bool) {
	jar, ok := ctx.Value(jarContextKey{}).(*cookie.Jar)
	return jar, ok
}

func emitQueuedCookies(cfg QueuedCookiesConfig, jar *cookie.Jar, w http.ResponseWriter, r *http.Request) {
	if handler.HeaderWritten(w) {
		cfg.Logger.LogAttrs(r.Context(), slog.LevelWarn, "headers already sent, queued cookies not emitted",
			logger.Component("cookie"),
			logger.Event("queued_cookies_skipped"),
			logger.Path(r.URL.Path),
		)
		return
	}

	queued := jar.FetchQueued()
	if len(queued) == 0 {
		return
	}

	secure := r.TLS != nil
	emitted := make([]string, 0, len(queued))

	for _, c := range queued {
		if err := c.Validate(); err != nil {
			cfg.Logger.LogAttrs(r.Context(), slog.LevelError, "cookie value is not a valid raw value",
				logger.Component("cookie"),
				logger.Alias(c.Alias()),
				logger.CookieName(c.Name()),
				logger.Error(err),
			)
			continue
		}

		header := c.ResolveSecure(secure).String()
		if header == "" {
			cfg.Logger.LogAttrs(r.Context(), slog.LevelError, "cookie could not be rendered",
				logger.Component("cookie"),
				logger.Alias(c.Alias()),
				logger.CookieName(c.Name()),
			)
			continue
		}

		if len(header) > cfg.MaxSize {
			cfg.Logger.LogAttrs(r.Context(), slog.LevelError, "cookie exceeds maximum size",
				logger.Component("cookie"),
				logger.Alias(c.Alias()),
				logger.Error(cookie.ErrCookieTooLarge{Name: c.Name(), Size: len(header), Max: cfg.MaxSize}),
			)
			continue
		}

		w.Header().Add("Set-Cookie", header)
		emitted = append(emitted, c.Name())
	}

	cfg.Logger.LogAttrs(r.Context(), slog.LevelDebug, "queued cookies emitted",
		logger.Component("cookie"),
		logger.Event("queued_cookies_emitted"),
		logger.Path(r.URL.Path),
		logger.Count("count", len(emitted)),
		logger.Cookies(emitted...),
	)
}

// cookieWriter emits queued cookies right before the header is written.
type cookieWriter struct {
	http.ResponseWriter
	emit    func()
	emitted bool
}

func (w *cookieWriter) emitOnce() {
	if !w.emitted {
		w.emitted = true
		w.emit()
	}
}

func (w *cookieWriter) WriteHeader(status int) {
	w.emitOnce()
	w.ResponseWriter.WriteHeader(status)
}

func (w *cookieWriter) Write(b []byte) (int, error) {
	w.emitOnce()
	return w.ResponseWriter.Write(b)
}

func (w *cookieWriter) Flush() {
	w.emitOnce()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Written reports whether the underlying writer has sent its header.
func (w *cookieWriter) Written() bool {
	return handler.HeaderWritten(w.ResponseWriter)
}

func (w *cookieWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
