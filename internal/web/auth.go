package web

import (
	"net/http"
)

// requireUserPage guards a browser route: a request without a user
// claim is redirected to the login page with a flash message.
func (s *Server) requireUserPage(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromCtx(r.Context())
		if !ok || identity.IsAdmin {
			s.redirectWithFlash(w, r, "/login", "Please log in first!")
			return
		}

		handler.ServeHTTP(w, r)
	})
}

// requireAdminPage guards a browser route for the admin.
func (s *Server) requireAdminPage(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromCtx(r.Context())
		if !ok || !identity.IsAdmin {
			s.redirectWithFlash(w, r, "/login", "You must be logged in as admin!")
			return
		}

		handler.ServeHTTP(w, r)
	})
}

// requireUserAPI guards a JSON route: a request without a user claim
// gets a 401 response.
func (s *Server) requireUserAPI(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromCtx(r.Context())
		if !ok || identity.IsAdmin {
			s.writeJSON(w, r, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
			return
		}

		handler.ServeHTTP(w, r)
	})
}

// requireAdminAPI guards a JSON route for the admin.
func (s *Server) requireAdminAPI(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromCtx(r.Context())
		if !ok || !identity.IsAdmin {
			s.writeJSON(w, r, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
			return
		}

		handler.ServeHTTP(w, r)
	})
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, flash string) {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	sess.AddFlash(flash)
	if err := s.deps.SessionStore.Save(r, w, sess); err != nil {
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
