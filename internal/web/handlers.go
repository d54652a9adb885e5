package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fittrack/fittrack/internal/activity"
	"github.com/fittrack/fittrack/internal/auth"
	"github.com/fittrack/fittrack/internal/email"
	"github.com/fittrack/fittrack/internal/errorz"
)

type messageBody struct {
	Message string `json:"message"`
}

type errorBody struct {
	Error string `json:"error"`
}

// isoDate marshals to and from a bare yyyy-mm-dd date.
type isoDate time.Time

func (d isoDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(time.DateOnly))
}

func (d *isoDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}

	*d = isoDate(t)
	return nil
}

// activityRequest is the payload for logging or updating an activity.
type activityRequest struct {
	ActivityType string  `json:"activityType"`
	Duration     float64 `json:"duration"`
	Calories     float64 `json:"calories"`
	Date         isoDate `json:"date"`
}

func (req activityRequest) record() activity.Record {
	return activity.Record{
		Type:     req.ActivityType,
		Duration: req.Duration,
		Calories: req.Calories,
		Date:     time.Time(req.Date),
	}
}

type activityBody struct {
	ID           int64   `json:"id"`
	ActivityType string  `json:"activityType"`
	Duration     float64 `json:"duration"`
	Calories     float64 `json:"calories"`
	Date         isoDate `json:"date"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.deps.Logger.Error("failed to write response", "url", r.URL.String(), "error", err)
	}
}

// parseFormTime interprets the form_time field, the unix timestamp of
// when the form was rendered. Anything unparseable becomes the zero
// time, which the spam check rejects.
func parseFormTime(raw string) time.Time {
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}
	}

	return time.Unix(int64(seconds), 0)
}

func (s *Server) signupHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.handleError(w, r, err)
			return
		}

		// The anti-bot heuristics run before anything else and share
		// one generic message, the client learns nothing about which
		// heuristic fired.
		err := s.deps.SpamCheck.Check(r.FormValue("robot_test"), parseFormTime(r.FormValue("form_time")))
		if err != nil {
			s.redirectWithFlash(w, r, "/login", "Could not process your signup!")
			return
		}

		addr, err := email.ParseAddress(r.FormValue("email"))
		if err != nil {
			s.redirectWithFlash(w, r, "/login", "Invalid email format!")
			return
		}

		pwd, err := auth.ParsePassword(r.FormValue("signup-password"))
		if err != nil {
			s.redirectWithFlash(w, r, "/login", "Password must be at least 8 characters, include 1 uppercase, 1 number, and 1 special character!")
			return
		}

		err = s.deps.AuthService.Register(r.Context(), auth.Credentials{
			Email:    addr,
			Password: pwd,
		})
		if err != nil {
			if !errors.Is(err, auth.ErrDuplicateUser) {
				s.deps.Logger.Error("failed to register user", "error", err)
			}
			s.redirectWithFlash(w, r, "/login", "Email already exists or an error occurred!")
			return
		}

		s.redirectWithFlash(w, r, "/login", "User created successfully!")
	})
}

func (s *Server) loginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			s.handleError(w, r, err)
			return
		}

		addr, err := email.ParseAddress(r.FormValue("email"))
		if err != nil {
			s.redirectWithFlash(w, r, "/login", "Invalid email format!")
			return
		}

		// The strength policy applies when a password is chosen, not
		// here: the admin password is configured externally and may
		// not conform to it.
		pwd, err := auth.SubmittedPassword(r.FormValue("login-password"))
		if err != nil {
			s.redirectWithFlash(w, r, "/login", "Invalid email or password!")
			return
		}

		identity, err := s.deps.AuthService.Authenticate(r.Context(), auth.Credentials{
			Email:    addr,
			Password: pwd,
		})
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				s.deps.Logger.Error("failed to authenticate", "error", err)
			}
			s.redirectWithFlash(w, r, "/login", "Invalid email or password!")
			return
		}

		sess, err := sessionFromCtx(r.Context())
		if err != nil {
			s.handleError(w, r, err)
			return
		}

		// Rewrite the claims, any previous identity on this session is
		// dropped.
		target := "/index"
		if identity.IsAdmin {
			sess.SetAdmin()
			sess.AddFlash("Admin logged in successfully!")
			target = "/admin"
		} else {
			sess.SetUserID(identity.UserID)
			sess.AddFlash("Logged in successfully!")
		}

		// Drop the pre-login CSRF token, a fresh one is generated on
		// the next page load.
		http.SetCookie(w, &http.Cookie{
			Name:   csrfTokenCookieName,
			MaxAge: -1,
		})

		if err := s.deps.SessionStore.Save(r, w, sess); err != nil {
			s.handleError(w, r, err)
			return
		}

		http.Redirect(w, r, target, http.StatusFound)
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFromCtx(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	sess.Clear()
	if err := s.deps.SessionStore.Save(r, w, sess); err != nil {
		s.handleError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) logActivityHandler() http.Handler {
	h := newHandler(s, func(ctx context.Context, req activityRequest) (int64, error) {
		identity, ok := identityFromCtx(ctx)
		if !ok {
			return 0, errors.New("no identity in context")
		}

		return s.deps.Activities.Log(ctx, identity.UserID, req.record())
	})
	h.success(func(r result[activityRequest, int64]) error {
		s.writeJSON(r.w, r.r, http.StatusOK, messageBody{Message: "Activity logged successfully!"})
		return nil
	})
	h.fail(func(sh shared, err error) {
		s.apiFail(sh.w, sh.r, err)
	})

	return h
}

func (s *Server) logHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromCtx(r.Context())
	if !ok {
		s.writeJSON(w, r, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return
	}

	activities, err := s.deps.Activities.History(r.Context(), identity.UserID)
	if err != nil {
		s.apiFail(w, r, err)
		return
	}

	out := make([]activityBody, 0, len(activities))
	for _, a := range activities {
		out = append(out, activityBody{
			ID:           a.ID,
			ActivityType: a.Type,
			Duration:     a.Duration,
			Calories:     a.Calories,
			Date:         isoDate(a.Date),
		})
	}

	s.writeJSON(w, r, http.StatusOK, struct {
		Activities []activityBody `json:"activities"`
	}{Activities: out})
}

func (s *Server) getUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.AuthService.Users(r.Context())
	if err != nil {
		s.apiFail(w, r, err)
		return
	}

	type userBody struct {
		ID       int64  `json:"id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	out := make([]userBody, 0, len(users))
	for _, u := range users {
		out = append(out, userBody{
			ID:       u.ID,
			Email:    string(u.Email),
			Password: u.PasswordHash.String(),
		})
	}

	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) getActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := s.deps.Activities.All(r.Context())
	if err != nil {
		s.apiFail(w, r, err)
		return
	}

	type ownedBody struct {
		ID           int64   `json:"id"`
		Email        *string `json:"email"`
		ActivityType string  `json:"activityType"`
		Duration     float64 `json:"duration"`
		Calories     float64 `json:"calories"`
		Date         isoDate `json:"date"`
	}

	out := make([]ownedBody, 0, len(activities))
	for _, a := range activities {
		body := ownedBody{
			ID:           a.ID,
			ActivityType: a.Type,
			Duration:     a.Duration,
			Calories:     a.Calories,
			Date:         isoDate(a.Date),
		}

		if a.OwnerEmail != nil {
			addr := string(*a.OwnerEmail)
			body.Email = &addr
		}

		out = append(out, body)
	}

	s.writeJSON(w, r, http.StatusOK, out)
}

// updateUserRequest is the payload for updating a user. An empty
// password keeps the stored hash.
type updateUserRequest struct {
	ID       int64         `json:"-"`
	Email    email.Address `json:"email"`
	Password string        `json:"password"`
}

func (s *Server) updateUserHandler() http.Handler {
	h := newInputHandler(s, func(ctx context.Context, req updateUserRequest) error {
		// A body without an email key decodes to an empty address,
		// which must not end up in the store.
		if req.Email == "" {
			return errorz.InvalidInput{errorz.Keyed{Key: "email", Err: errors.New("must not be empty")}}
		}

		var pwd *auth.Password
		if req.Password != "" {
			parsed, err := auth.ParsePassword(req.Password)
			if err != nil {
				return errorz.InvalidInput{errorz.Keyed{Key: "password", Err: err}}
			}
			pwd = &parsed
		}

		return s.deps.AuthService.UpdateUser(ctx, req.ID, req.Email, pwd)
	})
	h.request(func(sh shared) (updateUserRequest, error) {
		req, err := defaultReqToIn[updateUserRequest](s, sh)
		if err != nil {
			return req, err
		}

		req.ID, err = pathID(sh.r)
		return req, err
	})
	h.success(func(r result[updateUserRequest, struct{}]) error {
		s.writeJSON(r.w, r.r, http.StatusOK, messageBody{Message: "User updated successfully!"})
		return nil
	})
	h.fail(func(sh shared, err error) {
		s.apiFail(sh.w, sh.r, err)
	})

	return h
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.apiFail(w, r, err)
		return
	}

	if err := s.deps.AuthService.DeleteUser(r.Context(), id); err != nil {
		s.apiFail(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, messageBody{Message: "User deleted successfully!"})
}

func (s *Server) updateActivityHandler() http.Handler {
	type updateActivityRequest struct {
		ID int64 `json:"-"`
		activityRequest
	}

	h := newInputHandler(s, func(ctx context.Context, req updateActivityRequest) error {
		return s.deps.Activities.Update(ctx, req.ID, req.record())
	})
	h.request(func(sh shared) (updateActivityRequest, error) {
		req, err := defaultReqToIn[updateActivityRequest](s, sh)
		if err != nil {
			return req, err
		}

		req.ID, err = pathID(sh.r)
		return req, err
	})
	h.success(func(r result[updateActivityRequest, struct{}]) error {
		s.writeJSON(r.w, r.r, http.StatusOK, messageBody{Message: "Activity updated successfully!"})
		return nil
	})
	h.fail(func(sh shared, err error) {
		s.apiFail(sh.w, sh.r, err)
	})

	return h
}

func (s *Server) deleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.apiFail(w, r, err)
		return
	}

	if err := s.deps.Activities.Delete(r.Context(), id); err != nil {
		s.apiFail(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, messageBody{Message: "Activity deleted successfully!"})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.deps.Stats.Compute(r.Context())
	if err != nil {
		s.apiFail(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, snapshot)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, errorz.InvalidInput{errorz.Keyed{Key: "id", Err: errors.New("must be an integer")}}
	}

	return id, nil
}
