// Package httpapi exposes the authentication engine over HTTP. Handlers stay
// thin: decode, delegate to the service layer, translate errors. All policy
// lives below this package.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/wardenlabs/warden/internal/logging"
	"github.com/wardenlabs/warden/internal/server/csrf"
	"github.com/wardenlabs/warden/internal/server/ratelimit"
	"github.com/wardenlabs/warden/internal/server/services"
)

// Options tunes the HTTP surface.
type Options struct {
	// FrontendOrigin is the single origin allowed by CORS. Empty disables
	// cross-origin access entirely.
	FrontendOrigin string
	// Production enables HSTS.
	Production bool
	// CSRFMaxAge bounds the age of accepted CSRF tokens. Zero falls back to
	// csrf.DefaultMaxAge.
	CSRFMaxAge time.Duration
}

// Server wires handlers, middleware, and their collaborators.
type Server struct {
	auth     *services.AuthService
	limiter  *ratelimit.Limiter
	csrf     *csrf.Guard
	log      logging.Logger
	validate *validator.Validate
	opts     Options
}

// NewServer constructs the HTTP surface around an AuthService.
func NewServer(auth *services.AuthService, limiter *ratelimit.Limiter, guard *csrf.Guard, log logging.Logger, opts Options) *Server {
	if opts.CSRFMaxAge <= 0 {
		opts.CSRFMaxAge = csrf.DefaultMaxAge
	}
	return &Server{
		auth:     auth,
		limiter:  limiter,
		csrf:     guard,
		log:      log,
		validate: validator.New(),
		opts:     opts,
	}
}

// Router builds the route table. Register and login sit behind the rate
// limiter; logout, me, and protected require a bearer token; logout
// additionally requires a CSRF token.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.securityHeaders, s.cors)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	auth := r.PathPrefix("/auth").Subrouter()
	auth.Handle("/register", s.rateLimited("register", http.HandlerFunc(s.handleRegister))).Methods(http.MethodPost)
	auth.Handle("/login", s.rateLimited("login", http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	auth.Handle("/logout", s.requireAuth(s.requireCSRF(http.HandlerFunc(s.handleLogout)))).Methods(http.MethodPost)
	auth.Handle("/me", s.requireAuth(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)
	auth.Handle("/protected", s.requireAuth(http.HandlerFunc(s.handleProtected))).Methods(http.MethodGet)

	// Preflight requests must reach the CORS middleware for every route.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the uniform error body. Wording flows straight from the
// service sentinels, which are already enumeration-safe.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
