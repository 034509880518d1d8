// Package middleware provides handler.Middleware components around the cookie jar.
//
// All middleware follow the same pattern: a generic constructor with defaults,
// a WithConfig variant, a Skip hook and, where a value is stored in the request
// context, a Get accessor.
//
//   - QueuedCookies gives each request its own scope of the jar (GetJar) and turns
//     the cookies queued in it into Set-Cookie headers right before the response
//     header is written.
//   - RequestID tags requests with an ID (GetRequestID) echoed in X-Request-ID.
//   - Logging writes one structured record per request, including the names of
//     the cookies the response set.
//
// A typical stack, outermost first:
//
//	type ctx = *handler.BaseContext
//
//	mw := []handler.Middleware[ctx]{
//		middleware.RequestID[ctx](),
//		middleware.Logging[ctx](log),
//		middleware.QueuedCookies[ctx](jar),
//	}
//	mux.Handle("GET /cart", handler.ToHTTP(handler.NewContext, showCart, nil, mw...))
//
// Queued cookies are delivered only when the response renders without error and
// the header has not been sent by other means; otherwise they are dropped together
// with the request scope.
package middleware
