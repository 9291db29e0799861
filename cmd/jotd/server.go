package main

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jot-sh/jot/cmd/jotd/handlers/account"
	"github.com/jot-sh/jot/cmd/jotd/handlers/approve"
	"github.com/jot-sh/jot/cmd/jotd/handlers/device"
	"github.com/jot-sh/jot/cmd/jotd/handlers/health"
	"github.com/jot-sh/jot/cmd/jotd/handlers/notes"
	"github.com/jot-sh/jot/internal/devicegrant"
	"github.com/jot-sh/jot/internal/httpmw"
	"github.com/jot-sh/jot/internal/metrics"
	notestore "github.com/jot-sh/jot/internal/notes"
	"github.com/jot-sh/jot/internal/sessiontoken"
	"github.com/jot-sh/jot/internal/users"

	tokenhandler "github.com/jot-sh/jot/cmd/jotd/handlers/token"
)

type server struct {
	cfg    Config
	router *chi.Mux
	grant  *devicegrant.Grant
	issuer *sessiontoken.Issuer
	users  *users.Service
	notes  notestore.Store
}

func newServer(cfg Config, logger zerolog.Logger, grant *devicegrant.Grant, issuer *sessiontoken.Issuer, userSvc *users.Service, noteStore notestore.Store, extraHealth map[string]health.Checker) *server {
	srv := &server{
		cfg:    cfg,
		router: chi.NewRouter(),
		grant:  grant,
		issuer: issuer,
		users:  userSvc,
		notes:  noteStore,
	}

	m := metrics.New()

	srv.router.Use(middleware.RequestID)
	srv.router.Use(middleware.RealIP)
	srv.router.Use(httpmw.RequestLogger(logger))
	srv.router.Use(middleware.Recoverer)
	srv.router.Use(middleware.Timeout(cfg.WriteTimeout))
	srv.router.Use(m.Middleware)

	checkers := map[string]health.Checker{"device_grant": grant}
	for name, c := range extraHealth {
		checkers[name] = c
	}

	accountHandler := account.New(userSvc)
	noteHandler := notes.New(noteStore)

	srv.router.Method("GET", "/healthz", health.New(checkers).WithVersion(Version))
	srv.router.Method("GET", "/metrics", m.Handler())

	srv.router.Method("POST", "/device/code", device.New(grant))
	srv.router.Method("POST", "/device/token", tokenhandler.New(grant, issuer.TTL()))
	srv.router.Method("POST", "/device/approve", approve.New(grant, userSvc))

	srv.router.Post("/auth/register", accountHandler.Register)

	srv.router.Group(func(r chi.Router) {
		r.Use(httpmw.RequireAuth(issuer))
		r.Get("/auth/me", accountHandler.Me)
		r.Post("/notes", noteHandler.Create)
		r.Get("/notes", noteHandler.List)
		r.Get("/notes/{id}", noteHandler.Get)
		r.Put("/notes/{id}", noteHandler.Update)
		r.Delete("/notes/{id}", noteHandler.Delete)
	})

	return srv
}
