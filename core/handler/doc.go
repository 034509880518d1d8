// Package handler provides type-safe HTTP handler and middleware types with a
// custom request context, plus an adapter to plain net/http.
//
//	type Response func(w http.ResponseWriter, r *http.Request) error
//	type HandlerFunc[C Context] func(ctx C) Response
//	type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
//
// Handlers return a Response instead of writing directly, which lets middleware
// act right before the response is rendered (for example to emit queued cookies):
//
//	mux := http.NewServeMux()
//	mux.Handle("/cart", handler.ToHTTP(handler.NewContext, cartHandler, nil,
//		middleware.QueuedCookies[*handler.BaseContext](jar),
//	))
package handler
