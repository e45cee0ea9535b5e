// Package app wires the Voxara web server from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bluescreen10/voxara/auth"
	"github.com/bluescreen10/voxara/httpx"
	"github.com/bluescreen10/voxara/internal/config"
	"github.com/bluescreen10/voxara/logger"
	"github.com/bluescreen10/voxara/media"
	"github.com/bluescreen10/voxara/requestid"
	"github.com/bluescreen10/voxara/session"
	"github.com/bluescreen10/voxara/web"
)

type App struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *sessionStore
	handler http.Handler
	stop    chan struct{}
}

// New opens the session store and builds the HTTP handler. Close releases
// what New acquired.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	accounts, err := auth.ParseStaticAccounts(cfg.Auth.Accounts)
	if err != nil {
		return nil, fmt.Errorf("parse accounts: %w", err)
	}
	if accounts.Len() == 0 {
		log.Warn("no accounts configured, nobody can sign in")
	}

	store, err := openStore(ctx, cfg.Session, log)
	if err != nil {
		return nil, fmt.Errorf("open %s session store: %w", cfg.Session.Store, err)
	}

	a := &App{cfg: cfg, logger: log, store: store, stop: make(chan struct{})}

	handler, err := a.routes(accounts)
	if err != nil {
		store.close()
		return nil, err
	}
	a.handler = handler

	if startCleanup(store.Store, cfg.Session.CleanupInterval, a.stop) {
		log.Debug("session cleanup started", "interval", cfg.Session.CleanupInterval)
	}

	return a, nil
}

func (a *App) routes(accounts auth.Accounts) (http.Handler, error) {
	cfg := a.cfg

	sessions := session.NewManager(a.store.Store,
		session.WithLifetime(cfg.Session.Lifetime),
		session.WithIdleTimeout(cfg.Session.IdleTimeout),
		session.WithName(cfg.Session.CookieName),
		session.WithSecure(cfg.Session.CookieSecure),
		session.WithLogger(a.logger),
	)

	services := []auth.Service{auth.NewCookieService(sessions, cfg.Session.Lifetime)}

	var tokens *auth.TokenService
	if cfg.Auth.TokenKey != "" {
		var err error
		tokens, err = auth.NewTokenService([]byte(cfg.Auth.TokenKey), cfg.Auth.TokenIssuer, a.logger)
		if err != nil {
			return nil, err
		}
		services = append(services, tokens)
	}

	if cfg.Media.SpeechURL == "" || cfg.Media.VideoURL == "" {
		a.logger.Warn("media endpoints not configured, video creation will fail")
	}

	client := media.NewClient(media.Endpoints{
		Speech: cfg.Media.SpeechURL,
		Import: cfg.Media.ImportURL,
		Video:  cfg.Media.VideoURL,
	},
		media.WithProxyAuth(cfg.Media.ProxyKey, cfg.Media.ProxySecret),
		media.WithMaxTries(cfg.Media.MaxTries),
		media.WithLogger(a.logger),
	)

	opts := web.Options{
		Sessions: sessions,
		Auth:     auth.Chain(services...),
		Accounts: accounts,
		Creator:  media.NewPipeline(client, a.logger),
		Logger:   a.logger,
	}
	if cfg.Media.ImportURL != "" {
		opts.Importer = client
	}
	if cfg.TemplatesDir != "" {
		opts.Templates = os.DirFS(cfg.TemplatesDir)
		opts.ReloadTemplates = true
	}

	pages, err := web.New(opts)
	if err != nil {
		return nil, err
	}

	mux := httpx.NewServeMux()
	mux.Use(requestid.New().Handler)
	mux.Use(logger.New(
		logger.WithLogger(a.logger),
		logger.WithSkipper(func(r *http.Request) bool { return r.URL.Path == "/healthz" }),
	).Handler)

	pages.Routes(mux)
	if tokens != nil {
		mux.Handle("POST /auth/token", auth.TokenHandler(accounts, tokens, cfg.Auth.TokenTTL, a.logger))
	}

	return mux, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves on cfg.HTTPAddr until ctx is canceled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", ln.Addr().String(), "store", a.cfg.Session.Store)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops background cleanup and releases the session store.
func (a *App) Close() error {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	return a.store.close()
}
