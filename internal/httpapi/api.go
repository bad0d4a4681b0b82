// Package httpapi is the HTTP/JSON transport: route table, cookie session
// authentication, middleware and the error-envelope mapping.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"taskdeck.org/internal/auth"
	"taskdeck.org/internal/identity"
	"taskdeck.org/internal/notes"
	"taskdeck.org/internal/obs"
	"taskdeck.org/internal/tasks"
)

const apiPrefix = "/api/v1"

// ReadyProbe — readiness check backed by a DB ping when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the transport-level knobs.
type Config struct {
	// CookieName is the session cookie; defaults to "access_token".
	CookieName string
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	// CookieSameSite defaults to Lax.
	CookieSameSite http.SameSite
	// DevMode exposes internal error messages in 500 responses.
	DevMode bool

	MaxBodyBytes  int64
	RateBurst     int
	RatePerSecond int
}

func (c Config) withDefaults() Config {
	if c.CookieName == "" {
		c.CookieName = "access_token"
	}
	if c.CookieSameSite == 0 {
		c.CookieSameSite = http.SameSiteLaxMode
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 10 << 20
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 50
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 25
	}
	return c
}

// API — HTTP layer.
type API struct {
	mux        *http.ServeMux
	identities *identity.Service
	notes      *notes.Service
	tasks      *tasks.Service
	codec      *auth.TokenCodec
	readyProbe ReadyProbe
	cfg        Config
	version    string
}

func New(identities *identity.Service, noteSvc *notes.Service, taskSvc *tasks.Service, codec *auth.TokenCodec, rp ReadyProbe, cfg Config, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		identities: identities,
		notes:      noteSvc,
		tasks:      taskSvc,
		codec:      codec,
		readyProbe: rp,
		cfg:        cfg.withDefaults(),
		version:    version,
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// users
	a.mux.HandleFunc(apiPrefix+"/users/register", a.handleRegister)
	a.mux.HandleFunc(apiPrefix+"/users/login", a.handleLogin)
	a.mux.HandleFunc(apiPrefix+"/users/logout", a.handleLogout)
	a.mux.HandleFunc(apiPrefix+"/users/google", a.handleOAuthLogin)
	a.mux.HandleFunc(apiPrefix+"/users/my-profile", a.handleMyProfile)
	a.mux.HandleFunc(apiPrefix+"/users/update-profile", a.handleUpdateProfile)
	a.mux.HandleFunc(apiPrefix+"/users/forgot-password", a.handleForgotPassword)
	a.mux.HandleFunc(apiPrefix+"/users/reset-password/", a.handleResetPassword)
	a.mux.HandleFunc(apiPrefix+"/users/delete-account", a.handleDeleteAccount)
	a.mux.HandleFunc(apiPrefix+"/users/delete-user/", a.handleDeleteUser)
	a.mux.HandleFunc(apiPrefix+"/users/user/", a.handleGetUser)
	a.mux.HandleFunc(apiPrefix+"/users/all-users", a.handleAllUsers)
	a.mux.HandleFunc(apiPrefix+"/users/all-username-and-profile", a.handleDirectory)

	// notes
	a.mux.HandleFunc(apiPrefix+"/notes/create", a.handleNoteCreate)
	a.mux.HandleFunc(apiPrefix+"/notes/my-notes", a.handleMyNotes)
	a.mux.HandleFunc(apiPrefix+"/notes/note/", a.handleNoteResource)

	// tasks
	a.mux.HandleFunc(apiPrefix+"/tasks/create", a.handleTaskCreate)
	a.mux.HandleFunc(apiPrefix+"/tasks/my-tasks", a.handleMyTasks)
	a.mux.HandleFunc(apiPrefix+"/tasks/assigned-tasks", a.handleAssignedTasks)
	a.mux.HandleFunc(apiPrefix+"/tasks/update/", a.handleTaskUpdate)
	a.mux.HandleFunc(apiPrefix+"/tasks/delete/", a.handleTaskDelete)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.cfg.MaxBodyBytes)
	h = RateLimit(h, a.cfg.RateBurst, a.cfg.RatePerSecond)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}
