package session

import "github.com/geotrack/tracker-client/internal/client/models"

// State is the client's view of who, if anyone, is signed in.
//
// IsAuthenticated is true exactly when User is non-nil. IsLoading is true
// only until the first RestoreSession event. IsSignout records that the last
// sign-out was explicit; it is informational and never gates access.
type State struct {
	IsLoading       bool
	IsSignout       bool
	IsAuthenticated bool
	User            *models.User
}

// Initial is the state before bootstrap.
func Initial() State {
	return State{IsLoading: true}
}

// Event is one of RestoreSession, SignIn, SignOut or SessionExpired.
type Event interface {
	isEvent()
}

// RestoreSession ends bootstrap with the outcome of the persisted-session check.
type RestoreSession struct {
	Authenticated bool
	User          *models.User
}

// SignIn records a confirmed login.
type SignIn struct {
	User models.User
}

// SignOut records an explicit, user-initiated sign-out.
type SignOut struct{}

// SessionExpired records that the authority no longer knows the session.
type SessionExpired struct{}

func (RestoreSession) isEvent() {}
func (SignIn) isEvent()         {}
func (SignOut) isEvent()        {}
func (SessionExpired) isEvent() {}

// Reduce returns the state that follows prev after e. It has no side effects.
func Reduce(prev State, e Event) State {
	next := prev

	switch ev := e.(type) {
	case RestoreSession:
		next.IsLoading = false
		if ev.Authenticated && ev.User != nil {
			next.IsAuthenticated = true
			next.User = copyUser(*ev.User)
		} else {
			next.IsAuthenticated = false
			next.User = nil
		}

	case SignIn:
		next.IsSignout = false
		next.IsAuthenticated = true
		next.User = copyUser(ev.User)

	case SignOut:
		next.IsSignout = true
		next.IsAuthenticated = false
		next.User = nil

	case SessionExpired:
		next.IsAuthenticated = false
		next.User = nil
	}

	return next
}

// Name is the event's label in logs.
func Name(e Event) string {
	switch e.(type) {
	case RestoreSession:
		return "restore_session"
	case SignIn:
		return "sign_in"
	case SignOut:
		return "sign_out"
	case SessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

func copyUser(u models.User) *models.User {
	if u.Name != nil {
		name := *u.Name
		u.Name = &name
	}
	return &u
}
