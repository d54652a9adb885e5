package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fittrack/fittrack/internal/abuse"
	"github.com/fittrack/fittrack/internal/activity"
	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/internal/errorz"
	"github.com/fittrack/fittrack/internal/krypto"
	"github.com/fittrack/fittrack/internal/stats"
	"github.com/fittrack/fittrack/internal/web/sessions"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/schema"
)

const (
	csrfTokenField      = "gorilla.csrf.Token"
	csrfTokenCookieName = "_gorilla_csrf"
)

// ViewRenderer renders named views with the given data.
type ViewRenderer interface {
	Render(w io.Writer, name string, data any) error
}

// ServerDeps are the dependencies for the server.
type ServerDeps struct {
	Logger       *slog.Logger
	ViewRenderer ViewRenderer
	AuthService  *auth.Service
	Activities   *activity.Service
	Stats        *stats.Aggregator
	SessionStore *sessions.Store
	Limits       *Limits
	SpamCheck    *abuse.SpamCheck
	Metrics      *Metrics
}

// ServerConfig is the configuration for the server.
type ServerConfig struct {
	CSRFKey      krypto.Key
	SecureCookie bool
}

type Server struct {
	deps    *ServerDeps
	mux     *http.ServeMux
	decoder *schema.Decoder
	handler http.Handler
	csrfMW  func(http.Handler) http.Handler

	// nowFunc is used to get the current time.
	// Exposed for testing purposes.
	nowFunc func() time.Time
}

func NewServer(deps *ServerDeps, cfg ServerConfig) *Server {
	s := &Server{
		deps:    deps,
		mux:     http.NewServeMux(),
		decoder: schema.NewDecoder(),
		nowFunc: time.Now,
	}

	s.decoder.IgnoreUnknownKeys(true)

	// CSRF protection only covers the browser form routes. The JSON
	// endpoints are guarded by the session cookie and used by scripts
	// that don't carry a CSRF token.
	s.csrfMW = csrf.Protect(
		cfg.CSRFKey.SecretValue(),
		csrf.CookieName(csrfTokenCookieName),
		csrf.FieldName(csrfTokenField),
		csrf.Secure(cfg.SecureCookie),
	)

	// Pages.
	s.mux.Handle("GET /{$}", s.csrfMW(newViewHandler(s, "main")))
	s.mux.Handle("GET /login", s.csrfMW(newViewHandler(s, "login_signup")))
	s.mux.Handle("GET /index", s.requireUserPage(s.csrfMW(newViewHandler(s, "index"))))
	s.mux.Handle("GET /admin", s.requireAdminPage(s.csrfMW(newViewHandler(s, "admin"))))

	// Signup and login. The rate limiters sit outside everything else,
	// their counters are charged before any other work happens.
	s.mux.Handle("POST /signup", s.limit(deps.Limits.Signup, s.csrfMW(s.signupHandler())))
	s.mux.Handle("POST /login", s.limit(deps.Limits.Login, s.csrfMW(s.loginHandler())))
	s.mux.Handle("GET /logout", http.HandlerFunc(s.logout))

	// User endpoints.
	s.mux.Handle("POST /log_activity", s.limit(deps.Limits.LogActivity, s.requireUserAPI(s.logActivityHandler())))
	s.mux.Handle("GET /get_log_history", s.requireUserAPI(http.HandlerFunc(s.logHistory)))

	// Admin endpoints.
	s.mux.Handle("GET /get_users", s.requireAdminAPI(http.HandlerFunc(s.getUsers)))
	s.mux.Handle("GET /get_activities", s.requireAdminAPI(http.HandlerFunc(s.getActivities)))
	s.mux.Handle("PUT /update_user/{id}", s.requireAdminAPI(s.updateUserHandler()))
	s.mux.Handle("DELETE /delete_user/{id}", s.requireAdminAPI(http.HandlerFunc(s.deleteUser)))
	s.mux.Handle("PUT /update_activity/{id}", s.requireAdminAPI(s.updateActivityHandler()))
	s.mux.Handle("DELETE /delete_activity/{id}", s.requireAdminAPI(http.HandlerFunc(s.deleteActivity)))
	s.mux.Handle("GET /stats", s.requireAdminAPI(http.HandlerFunc(s.getStats)))

	// Operational endpoints.
	s.mux.Handle("GET /metrics", deps.Metrics.Handler())

	// Wrap the mux with the global middlewares, outermost first.
	middlewares := []func(http.Handler) http.Handler{
		securityHeaders,
		requestLogger(s),
		metricsMiddleware(s),
		globalLimit(s),
		sessionMiddleware(s),
	}
	s.handler = s.mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		s.handler = middlewares[i](s.handler)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// requestLogger logs every request with a unique id.
func requestLogger(srv *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			srv.deps.Logger.Info("request",
				"id", uuid.NewString(),
				"method", r.Method,
				"url", r.URL.String(),
				"client", clientKey(r),
			)

			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errorz.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var invalidInput errorz.InvalidInput
	if errors.As(err, &invalidInput) {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	s.deps.Logger.Error("internal server error", "url", r.URL.String(), "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// apiFail is the error response for the JSON endpoints. Store errors
// are logged but never surfaced to the client.
func (s *Server) apiFail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errorz.ErrNotFound) {
		s.writeJSON(w, r, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}

	var invalidInput errorz.InvalidInput
	if errors.As(err, &invalidInput) {
		s.writeJSON(w, r, http.StatusBadRequest, errorBody{Error: "invalid input"})
		return
	}

	s.deps.Logger.Error("internal server error", "url", r.URL.String(), "error", err)
	s.writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
