package web

import (
	"net"
	"net/http"

	"github.com/fittrack/fittrack/internal/abuse"
)

// Limits holds the rate limiters for the request surface. The global
// limiter covers every route, the others add stricter ceilings to the
// endpoints that attract abuse.
type Limits struct {
	Global      *abuse.Limiter
	Signup      *abuse.Limiter
	Login       *abuse.Limiter
	LogActivity *abuse.Limiter
}

// NewLimits creates the default ceilings: 200 per hour and 50 per
// minute globally, 5 signups and 5 logins per minute, 20 logged
// activities per minute. All keyed by client address.
func NewLimits() *Limits {
	return &Limits{
		Global:      abuse.NewLimiter(abuse.PerHour(200), abuse.PerMinute(50)),
		Signup:      abuse.NewLimiter(abuse.PerMinute(5)),
		Login:       abuse.NewLimiter(abuse.PerMinute(5)),
		LogActivity: abuse.NewLimiter(abuse.PerMinute(20)),
	}
}

// globalLimit applies the global rate limiter to every request except
// the metrics endpoint.
func globalLimit(srv *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// The metrics endpoint is scraped on a schedule by the
			// monitoring system. Counting scrapes against the client
			// ceilings would starve both the scraper and real clients
			// behind the same address.
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			if !srv.deps.Limits.Global.Allow(clientKey(r), srv.nowFunc()) {
				srv.rateLimited(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limit applies a route-specific rate limiter to a handler.
func (s *Server) limit(l *abuse.Limiter, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r), s.nowFunc()) {
			s.rateLimited(w, r)
			return
		}

		handler.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.deps.Metrics.RateLimited.Inc()
	s.deps.Logger.Warn("rate limit exceeded", "url", r.URL.String(), "client", clientKey(r))
	http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
}

// clientKey identifies the client a rate limit applies to.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
