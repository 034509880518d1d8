// Package logger provides structured logging utilities built on Go's standard slog
// package: a logger factory with environment presets and context extractors, and
// nil-safe attribute helpers shared by the cookie jar and its middleware.
//
// # Basic Usage
//
//	import "github.com/dmitrymomot/cookiejar/core/logger"
//
//	// Development: text format, debug level, stdout
//	log := logger.New(logger.WithDevelopment("shop"))
//
//	// Production: JSON format, info level, stdout
//	log := logger.New(logger.WithProduction("shop"))
//
//	// Custom configuration
//	log := logger.New(
//		logger.WithLevel(slog.LevelWarn),
//		logger.WithJSONFormatter(),
//		logger.WithAttr(slog.String("region", "eu")),
//		logger.WithOutput(os.Stderr),
//	)
//
// # Context-Aware Logging
//
// Extractors add attributes from the context of *Context log calls:
//
//	log := logger.New(
//		logger.WithProduction("shop"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.InfoContext(ctx, "cart updated")
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for absent input, which slog drops:
//
//	log.Debug("cookie made",
//		logger.Component("cookie"),
//		logger.Alias("cart"),
//		logger.CookieName("cart_tenant1"),
//		logger.Error(err), // dropped when err is nil
//	)
package logger
