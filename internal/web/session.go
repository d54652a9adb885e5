package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/internal/web/sessions"
)

// sessionMiddleware loads the session for each request and injects it
// in the context. Handlers that change the session are responsible for
// saving it.
func sessionMiddleware(srv *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := srv.deps.SessionStore.Get(r)
			if err != nil {
				srv.handleError(w, r, err)
				return
			}

			ctx := ctxWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type ctxKey string

const sessionCtxKey ctxKey = "_session"

func ctxWithSession(ctx context.Context, sess *sessions.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, sess)
}

func sessionFromCtx(ctx context.Context) (*sessions.Session, error) {
	sess, ok := ctx.Value(sessionCtxKey).(*sessions.Session)
	if !ok {
		return nil, fmt.Errorf("could not get session from context")
	}

	return sess, nil
}

// identityFromCtx derives the authenticated identity from the session
// claims. The second return value is false when no claim is present.
func identityFromCtx(ctx context.Context) (auth.Identity, bool) {
	sess, err := sessionFromCtx(ctx)
	if err != nil {
		return auth.Identity{}, false
	}

	if sess.IsAdmin() {
		return auth.Identity{IsAdmin: true}, true
	}

	if userID, ok := sess.UserID(); ok {
		return auth.Identity{UserID: userID}, true
	}

	return auth.Identity{}, false
}
