// Package services contains application services for the tracker client.
// This file defines the remote session gateway: login, session check and
// logout against the authentication authority, with local input validation
// and a fixed catalogue of user-facing messages.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/geotrack/tracker-client/internal/client/client"
	"github.com/geotrack/tracker-client/internal/client/models"
	"github.com/geotrack/tracker-client/internal/client/policy"
	"github.com/geotrack/tracker-client/internal/common"
	"github.com/geotrack/tracker-client/internal/logging"
)

// User-facing messages.
const (
	MsgCredentialsRequired = "email and password are required"
	MsgInvalidEmail        = "invalid email format"
	MsgLoginSucceeded      = "login successful"
	MsgConnection          = "connection error, check your network connection"
	MsgUnexpected          = "an unexpected error occurred, please try again"
	MsgSessionExpired      = "session expired"
	MsgLoggedOut           = "logged out"
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "invalid data",
	http.StatusUnauthorized:        "invalid credentials",
	http.StatusForbidden:           "access denied",
	http.StatusNotFound:            "service not found",
	http.StatusTooManyRequests:     "too many attempts, try again later",
	http.StatusInternalServerError: "server error",
}

const defaultStatusMessage = "connection error"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// StatusMessage returns the fixed message for an HTTP status code.
func StatusMessage(code int) string {
	if m, ok := statusMessages[code]; ok {
		return m
	}
	return defaultStatusMessage
}

// ValidEmail reports whether s has a local part, an "@" and a dotted domain.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// SessionCleaner removes the persisted session record.
type SessionCleaner interface {
	Clear(ctx context.Context) error
}

// AuthService is the only component that talks to the authentication
// authority. Every method reports its outcome as a models.AuthResult; no
// failure escapes as an error or a panic.
type AuthService interface {
	Login(ctx context.Context, email, password string) models.AuthResult
	CheckSession(ctx context.Context) models.AuthResult
	Logout(ctx context.Context) models.AuthResult
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	store  SessionCleaner
	log    logging.Logger
}

// NewAuthService binds the gateway to a transport and the session store it
// must clear when the remote session turns out to be gone.
func NewAuthService(c client.Client, store SessionCleaner, log logging.Logger) AuthService {
	return &authService{client: c, store: store, log: log.With("component", "auth")}
}

// Login validates the credentials locally, then submits them with the email
// trimmed and lower-cased. Invalid input never reaches the network.
func (a *authService) Login(ctx context.Context, email, password string) (res models.AuthResult) {
	defer a.recoverTo(ctx, policy.Login, &res)

	if email == "" || password == "" {
		return models.Failed(MsgCredentialsRequired)
	}
	if !ValidEmail(email) {
		return models.Failed(MsgInvalidEmail)
	}

	user, err := a.client.Login(ctx, common.NormalizeEmail(email), password)
	if err != nil {
		a.log.Warn(ctx, "login failed", "error", err)
		return a.fail(ctx, policy.Login, loginFailureMessage(err))
	}

	return models.AuthResult{Success: true, Message: MsgLoginSucceeded, User: user}
}

// CheckSession asks the authority for the session the transport currently
// carries. Any failure means the session is expired, and the local record is
// cleared so it cannot keep looking valid.
func (a *authService) CheckSession(ctx context.Context) (res models.AuthResult) {
	defer a.recoverTo(ctx, policy.CheckSession, &res)

	user, err := a.client.Me(ctx)
	if err != nil {
		a.log.Info(ctx, "session check failed", "error", err)
		return a.fail(ctx, policy.CheckSession, MsgSessionExpired)
	}
	return models.AuthResult{Success: true, User: user}
}

// Logout asks the authority to end the session. The local record is cleared
// and success reported regardless of what the authority answers.
func (a *authService) Logout(ctx context.Context) (res models.AuthResult) {
	defer a.recoverTo(ctx, policy.Logout, &res)

	if err := a.client.Logout(ctx); err != nil {
		a.log.Warn(ctx, "remote logout failed", "error", err)
		return a.fail(ctx, policy.Logout, MsgLoggedOut)
	}

	a.clearStore(ctx)
	return models.AuthResult{Success: true, Message: MsgLoggedOut}
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// fail applies the failure rule of op and builds the result.
func (a *authService) fail(ctx context.Context, op policy.Operation, msg string) models.AuthResult {
	rule := policy.For(op)
	if rule.ClearStore {
		a.clearStore(ctx)
	}
	if rule.ReportSuccess {
		return models.AuthResult{Success: true, Message: msg}
	}
	return models.Failed(msg)
}

func (a *authService) recoverTo(ctx context.Context, op policy.Operation, res *models.AuthResult) {
	if p := recover(); p != nil {
		a.log.Error(ctx, "unexpected failure", "op", op, "panic", fmt.Sprint(p))
		msg := MsgUnexpected
		if op == policy.CheckSession {
			msg = MsgSessionExpired
		}
		*res = a.fail(ctx, op, msg)
	}
}

func (a *authService) clearStore(ctx context.Context) {
	if err := a.store.Clear(ctx); err != nil {
		a.log.Error(ctx, "session record not cleared", "error", err)
	}
}

func loginFailureMessage(err error) string {
	var se *client.StatusError
	switch {
	case errors.As(err, &se):
		if se.Message != "" {
			return se.Message
		}
		return fmt.Sprintf("error %d: %s", se.Code, StatusMessage(se.Code))
	case errors.Is(err, client.ErrUnavailable):
		return MsgConnection
	default:
		return MsgUnexpected
	}
}
