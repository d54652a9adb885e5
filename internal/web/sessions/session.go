package sessions

import (
	"github.com/gorilla/sessions"
)

// Session carries the authentication claims and flash messages for one
// client. A session holds either a user id claim or an admin claim,
// never both: setting one clears the other.
type Session struct {
	base      *sessions.Session
	needsSave bool
}

func (s *Session) NeedsSave() bool {
	return s.needsSave
}

func (s *Session) UserID() (int64, bool) {
	userID, ok := s.base.Values["userID"].(int64)
	return userID, ok
}

func (s *Session) SetUserID(userID int64) {
	s.needsSave = true
	delete(s.base.Values, "isAdmin")
	s.base.Values["userID"] = userID
}

func (s *Session) IsAdmin() bool {
	isAdmin, ok := s.base.Values["isAdmin"].(bool)
	return ok && isAdmin
}

func (s *Session) SetAdmin() {
	s.needsSave = true
	delete(s.base.Values, "userID")
	s.base.Values["isAdmin"] = true
}

// Clear drops all authentication claims.
func (s *Session) Clear() {
	s.needsSave = true
	delete(s.base.Values, "userID")
	delete(s.base.Values, "isAdmin")
}

func (s *Session) AddFlash(flash any, vars ...string) {
	s.needsSave = true
	s.base.AddFlash(flash, vars...)
}

// ConsumeFlashes returns the queued flash messages and removes them
// from the session.
func (s *Session) ConsumeFlashes() []any {
	flashes := s.base.Flashes()
	if len(flashes) > 0 {
		s.needsSave = true
	}

	return flashes
}
