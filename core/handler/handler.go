package handler

import "net/http"

// Response is a function that renders HTTP responses.
// It sets headers, status code, and writes the response body.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is a type-safe HTTP request handler with custom context support.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler handles errors returned while rendering a response.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps handlers to add cross-cutting functionality.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]

// Chain builds a single handler from a middleware stack and endpoint.
// The first middleware is the outermost one.
func Chain[C Context](endpoint HandlerFunc[C], middlewares ...Middleware[C]) HandlerFunc[C] {
	h := endpoint
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// ToHTTP adapts a handler chain to http.Handler. newCtx builds the request context
// around a ResponseWriter that tracks whether the header was sent;
// errHandler receives rendering errors; when nil, errors become a 500 response.
func ToHTTP[C Context](
	newCtx func(w http.ResponseWriter, r *http.Request) C,
	endpoint HandlerFunc[C],
	errHandler ErrorHandler[C],
	middlewares ...Middleware[C],
) http.Handler {
	h := Chain(endpoint, middlewares...)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := newCtx(NewResponseWriter(w), r)

		resp := h(ctx)
		if resp == nil {
			return
		}

		if err := resp(ctx.ResponseWriter(), ctx.Request()); err != nil {
			if errHandler != nil {
				errHandler(ctx, err)
				return
			}
			http.Error(ctx.ResponseWriter(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})
}
