// Command cookiedemo serves a small shop front that keeps a visitor id and an
// encrypted cart in cookies managed by the cookie jar.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cookiejar/core/config"
	"github.com/dmitrymomot/cookiejar/core/cookie"
	"github.com/dmitrymomot/cookiejar/core/handler"
	"github.com/dmitrymomot/cookiejar/core/logger"
	"github.com/dmitrymomot/cookiejar/middleware"
)

type appConfig struct {
	Addr            string        `env:"DEMO_ADDR" envDefault:":8080"`
	Env             string        `env:"APP_ENV" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"DEMO_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type ctx = *handler.BaseContext

func main() {
	var app appConfig
	config.MustLoad(&app)

	var cookieCfg cookie.Config
	config.MustLoad(&cookieCfg)

	preset := logger.WithDevelopment("cookiedemo")
	if app.Env == "production" {
		preset = logger.WithProduction("cookiedemo")
	}
	log := logger.New(preset, logger.WithContextValue("request_id", middleware.RequestIDContextKey))

	if err := run(app, cookieCfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(app appConfig, cookieCfg cookie.Config, log *slog.Logger) error {
	jar, err := cookie.NewFromConfig(cookieCfg, cookie.WithLogger(log))
	if err != nil {
		return err
	}

	// Declared up front so handlers can read them before writing.
	if _, err := jar.Make("visitor", cookie.Params{Lifetime: "+1 year"}); err != nil {
		return err
	}
	if _, err := jar.Make("cart", cartParams(nil)); err != nil {
		return err
	}

	mw := []handler.Middleware[ctx]{
		middleware.RequestID[ctx](),
		middleware.Logging[ctx](log),
		middleware.QueuedCookiesWithConfig[ctx](middleware.QueuedCookiesConfig{Jar: jar, Logger: log}),
	}
	onError := func(c ctx, err error) {
		log.ErrorContext(c, "request failed", logger.Path(c.Request().URL.Path), logger.Error(err))
		http.Error(c.ResponseWriter(), "internal error", http.StatusInternalServerError)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", handler.ToHTTP(handler.NewContext, visitorHandler, onError, mw...))
	mux.Handle("GET /cart", handler.ToHTTP(handler.NewContext, showCartHandler, onError, mw...))
	mux.Handle("POST /cart/{item}", handler.ToHTTP(handler.NewContext, addToCartHandler, onError, mw...))
	mux.Handle("DELETE /cart", handler.ToHTTP(handler.NewContext, clearCartHandler, onError, mw...))

	srv := &http.Server{
		Addr:              app.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", logger.Component("server"), logger.Key("addr", app.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func text(status int, body string) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, err := fmt.Fprintln(w, body)
		return err
	}
}

func failure(err error) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}

// registered returns the request's jar scope and its copy of a declared cookie.
func registered(c ctx, alias string) (*cookie.Jar, *cookie.Cookie, error) {
	jar, ok := middleware.GetJar(c)
	if !ok {
		return nil, nil, cookie.ErrNotInitialized
	}
	ck, ok := jar.Get(alias)
	if !ok {
		return nil, nil, fmt.Errorf("cookie %q is not registered", alias)
	}
	return jar, ck, nil
}

func visitorHandler(c ctx) handler.Response {
	jar, visitor, err := registered(c, "visitor")
	if err != nil {
		return failure(err)
	}

	id, err := visitor.HTTPValue(c.Request())
	if err != nil {
		return failure(err)
	}
	if id == nil {
		id = uuid.NewString()
		fresh, err := visitor.WithRealValue(id)
		if err != nil {
			return failure(err)
		}
		jar.Add(fresh.Queue())
	}

	return text(http.StatusOK, fmt.Sprintf("visitor %v", id))
}

func cartParams(items []string) cookie.Params {
	p := cookie.Params{Encrypted: true, Prefix: "v1_", Lifetime: 7 * 24 * time.Hour}
	if items != nil {
		p.Value = items
	}
	return p
}

func readCart(cart *cookie.Cookie, r *http.Request) ([]string, error) {
	v, err := cart.HTTPValue(r)
	if err != nil || v == nil {
		return nil, err
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, nil
	}
	items := make([]string, 0, len(raw))
	for _, it := range raw {
		if s, ok := it.(string); ok {
			items = append(items, s)
		}
	}
	return items, nil
}

func showCartHandler(c ctx) handler.Response {
	_, cart, err := registered(c, "cart")
	if err != nil {
		return failure(err)
	}
	items, err := readCart(cart, c.Request())
	if err != nil {
		return failure(err)
	}
	return text(http.StatusOK, fmt.Sprintf("cart %v", items))
}

func addToCartHandler(c ctx) handler.Response {
	jar, cart, err := registered(c, "cart")
	if err != nil {
		return failure(err)
	}
	items, err := readCart(cart, c.Request())
	if err != nil {
		return failure(err)
	}

	item := c.Request().PathValue("item")
	if !slices.Contains(items, item) {
		items = append(items, item)
	}

	updated, err := jar.Make("cart", cartParams(items))
	if err != nil {
		return failure(err)
	}
	updated.Queue()

	return text(http.StatusCreated, fmt.Sprintf("cart %v", items))
}

func clearCartHandler(c ctx) handler.Response {
	jar, cart, err := registered(c, "cart")
	if err != nil {
		return failure(err)
	}
	jar.Add(cart.Clear().Queue())
	return text(http.StatusOK, "cart cleared")
}
