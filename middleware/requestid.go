package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cookiejar/core/handler"
)

// DefaultRequestIDHeader is the header carrying the request ID.
const DefaultRequestIDHeader = "X-Request-ID"

// maxIncomingRequestIDLength caps client-supplied IDs before they reach the logs.
const maxIncomingRequestIDLength = 128

type requestIDContextKey struct{}

// RequestIDContextKey is the context key under which the request ID is stored.
// Pass it to logger.WithContextValue to attach the ID to every log record.
var RequestIDContextKey any = requestIDContextKey{}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Generator creates new request IDs (default: UUID v4)
	Generator func() string
	// HeaderName is read from the request and echoed in the response (default: "X-Request-ID")
	HeaderName string
	// TrustIncoming reuses a non-empty, reasonably short ID sent by the client
	TrustIncoming bool
}

// RequestID tags every request with a fresh UUID.
func RequestID[C handler.Context]() handler.Middleware[C] {
	return RequestIDWithConfig[C](RequestIDConfig{})
}

// RequestIDWithConfig tags every request with an ID stored in the context and echoed
// in the response header, so jar and request logs of one request can be correlated.
func RequestIDWithConfig[C handler.Context](cfg RequestIDConfig) handler.Middleware[C] {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultRequestIDHeader
	}
	if cfg.Generator == nil {
		cfg.Generator = uuid.NewString
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			id := ""
			if cfg.TrustIncoming {
				if incoming := ctx.Request().Header.Get(cfg.HeaderName); len(incoming) <= maxIncomingRequestIDLength {
					id = incoming
				}
			}
			if id == "" {
				id = cfg.Generator()
			}

			ctx.SetValue(requestIDContextKey{}, id)

			response := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				w.Header().Set(cfg.HeaderName, id)
				if response == nil {
					return nil
				}
				return response(w, r)
			}
		}
	}
}

// GetRequestID returns the ID assigned by the RequestID middleware.
func GetRequestID(ctx handler.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey{}).(string)
	return id, ok
}
