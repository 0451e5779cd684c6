// Package authtest runs an in-process stand-in for the remote authentication
// authority. It speaks the same JSON contract (POST /login, GET /me,
// POST /logout) and keeps sessions in a cookie, which is enough to exercise
// the client end to end in tests.
package authtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/geotrack/tracker-client/internal/client/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const SessionCookieName = "session_id"

type account struct {
	password string
	user     models.User
}

// Server is a fake authority. Its zero knobs behave like a healthy server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]account
	sessions map[string]models.User
	calls    map[string]int
	forced   map[string]forcedResponse

	lastRequestID string
	lastLogin     credentials
	maxAge        int
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forcedResponse struct {
	status  int
	message string
}

// NewServer starts a fake authority and stops it when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		accounts: make(map[string]account),
		sessions: make(map[string]models.User),
		calls:    make(map[string]int),
		forced:   make(map[string]forcedResponse),
	}

	r := chi.NewRouter()
	r.Use(s.count)
	r.Post("/login", s.login)
	r.Get("/me", s.me)
	r.Post("/logout", s.logout)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account the server will accept.
func (s *Server) AddUser(email, password string, user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = account{password: password, user: user}
}

// Fail makes every request to path answer with status and an optional
// {"message": ...} body until Recover is called.
func (s *Server) Fail(path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[path] = forcedResponse{status: status, message: message}
}

func (s *Server) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forced, path)
}

// LastRequestID returns the X-Request-ID of the most recent request.
func (s *Server) LastRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRequestID
}

// LastLogin returns the credentials of the most recent /login request.
func (s *Server) LastLogin() (email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLogin.Email, s.lastLogin.Password
}

// SetSessionMaxAge makes later logins issue cookies with the given Max-Age
// in seconds. Zero issues session cookies.
func (s *Server) SetSessionMaxAge(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxAge = seconds
}

// ExpireSessions drops every server-side session.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]models.User)
}

// Calls reports how many requests path has received.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// ActiveSessions reports how many sessions the server holds.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		s.lastRequestID = r.Header.Get("X-Request-ID")
		f, forced := s.forced[r.URL.Path]
		s.mu.Unlock()

		if forced {
			if f.message != "" {
				writeJSON(w, f.status, map[string]string{"message": f.message})
			} else {
				w.WriteHeader(f.status)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := json.NewDecoder(r.Body).Decode(&s.lastLogin); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	acc, ok := s.accounts[s.lastLogin.Email]
	if !ok || acc.password != s.lastLogin.Password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	token := uuid.NewString()
	s.sessions[token] = acc.user
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: token, Path: "/", HttpOnly: true, MaxAge: s.maxAge})
	writeJSON(w, http.StatusOK, map[string]any{"user": acc.user})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	user, ok := s.sessions[c.Value]
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(SessionCookieName); err == nil {
		delete(s.sessions, c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
