package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/cookiejar/core/handler"
	"github.com/dmitrymomot/cookiejar/core/logger"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Logger for structured logging (default: slog with io.Discard)
	Logger *slog.Logger
	// LogLevel for successful requests (default: slog.LevelInfo)
	LogLevel slog.Level
	// SlowRequestThreshold logs slower requests at warning level (default: 5s)
	SlowRequestThreshold time.Duration
	// Component name for structured logging (default: "http")
	Component string
}

// Logging logs one record per request with its outcome.
func Logging[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{Logger: log})
}

// LoggingWithConfig logs one record per request once the response is rendered:
// method, path, status, duration, request ID and the names of the cookies set by
// the response. Cookie values never reach the log.
//
// Place it outside QueuedCookies so the emitted cookies are visible:
//
//	handler.ToHTTP(handler.NewContext, h, nil,
//		middleware.Logging[*handler.BaseContext](log),
//		middleware.QueuedCookies[*handler.BaseContext](jar),
//	)
func LoggingWithConfig[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = slog.LevelInfo
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			response := next(ctx)
			requestID, _ := GetRequestID(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				var err error
				if response != nil {
					err = response(w, r)
				}

				status := http.StatusOK
				if s, ok := w.(interface{ Status() int }); ok && s.Status() != 0 {
					status = s.Status()
				}
				duration := time.Since(start)

				attrs := []slog.Attr{
					logger.Component(cfg.Component),
					logger.Event("request"),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(status),
					logger.Duration(duration),
					logger.RequestID(requestID),
					logger.Cookies(setCookieNames(w.Header())...),
				}

				level := cfg.LogLevel
				switch {
				case err != nil:
					level = slog.LevelError
					attrs = append(attrs, logger.Error(err))
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				case duration > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					attrs = append(attrs, logger.Bool("slow_request", true))
				}

				cfg.Logger.LogAttrs(r.Context(), level, "request completed", attrs...)

				return err
			}
		}
	}
}

// setCookieNames extracts the cookie names from Set-Cookie headers.
func setCookieNames(h http.Header) []string {
	values := h.Values("Set-Cookie")
	if len(values) == 0 {
		return nil
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, _, ok := strings.Cut(v, "="); ok {
			names = append(names, strings.TrimSpace(name))
		}
	}
	return names
}
