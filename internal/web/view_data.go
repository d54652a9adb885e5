package web

import (
	"net/http"

	"github.com/fittrack/fittrack/internal"
	"github.com/gorilla/csrf"
)

type viewData struct {
	Version    string
	CSRFToken  string
	IsLoggedIn bool
	IsAdmin    bool

	// FormTime is embedded in forms so the spam check can tell how
	// long the client took to fill them out.
	FormTime int64

	Flashes []any
	Data    any
}

// newViewHandler creates a HTTP handler that renders the view with the
// given name.
func newViewHandler(s *Server, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := s.writeView(w, r, name, nil)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
	})
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, name string, data any) error {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		return err
	}

	identity, loggedIn := identityFromCtx(r.Context())

	vd := &viewData{
		Version:    internal.BuildRevision,
		CSRFToken:  csrf.Token(r),
		IsLoggedIn: loggedIn,
		IsAdmin:    identity.IsAdmin,
		FormTime:   s.nowFunc().Unix(),
		Flashes:    sess.ConsumeFlashes(),
		Data:       data,
	}

	// Consuming flashes changes the session, persist before writing
	// the body.
	if sess.NeedsSave() {
		if err := s.deps.SessionStore.Save(r, w, sess); err != nil {
			return err
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.deps.ViewRenderer.Render(w, name, vd)
}
