package handler

import (
	"context"
	"net/http"
	"time"
)

// Context defines the contract for request contexts.
// Use NewContext for the default implementation.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	SetValue(key, val any)
}

// BaseContext is the default Context. It delegates context.Context methods
// to the request's context.
type BaseContext struct {
	w http.ResponseWriter
	r *http.Request
}

// NewContext creates a BaseContext for one request.
func NewContext(w http.ResponseWriter, r *http.Request) *BaseContext {
	return &BaseContext{w: w, r: r}
}

func (c *BaseContext) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

func (c *BaseContext) Done() <-chan struct{} {
	return c.r.Context().Done()
}

func (c *BaseContext) Err() error {
	return c.r.Context().Err()
}

func (c *BaseContext) Value(key any) any {
	return c.r.Context().Value(key)
}

// Request returns the *http.Request associated with the context.
func (c *BaseContext) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the http.ResponseWriter associated with the context.
func (c *BaseContext) ResponseWriter() http.ResponseWriter {
	return c.w
}

// SetValue stores a request-scoped value by replacing the request with one
// carrying the extended context.
func (c *BaseContext) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}
