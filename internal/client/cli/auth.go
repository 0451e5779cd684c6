package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/geotrack/tracker-client/internal/client/session"
	"github.com/geotrack/tracker-client/internal/common"
)

// getSimpleText, getPassword and confirm point to the interactive input
// helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	confirm       = Confirm
)

// Login prompts for credentials and signs in. A rejected login is reported
// to the user and is not an error; only input failures and a session that
// could not be persisted are returned.
func (a *App) Login(ctx context.Context) error {
	if st := a.manager.State(); st.IsAuthenticated {
		printlnFn("Already logged in as", st.User.DisplayName())
		return nil
	}

	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res := a.authService.Login(ctx, email, string(password))
	if !res.Success {
		printlnFn("Login failed:", res.Message)
		return nil
	}

	if err := a.manager.SignIn(ctx, *res.User); err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Welcome, %s!", res.User.DisplayName()))
	return nil
}

// Logout asks for confirmation and signs out. The local session always ends,
// whatever the server answers.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not logged in")
		return nil
	}
	if !confirm(a.reader, "Log out?", os.Stdout) {
		printlnFn("Cancelled")
		return nil
	}

	err := a.manager.SignOut(ctx)
	printlnFn("Logged out")
	return err
}

// WhoAmI prints the signed-in user's profile.
func (a *App) WhoAmI(ctx context.Context) error {
	st := a.manager.State()
	if !st.IsAuthenticated {
		printlnFn("Not logged in")
		return nil
	}

	u := st.User
	printlnFn(fmt.Sprintf("[%s] %s", u.Initial(), u.DisplayName()))
	printlnFn("  email:", u.Email)
	printlnFn("  id:   ", u.ID)
	return nil
}

// Refresh re-validates the session with the server.
func (a *App) Refresh(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not logged in")
		return nil
	}

	err := a.manager.RefreshSession(ctx)
	switch {
	case err == nil:
		printlnFn("Session is valid")
		return nil
	case errors.Is(err, session.ErrSessionExpired):
		// the transition listener already told the user
		return nil
	default:
		return err
	}
}

// Status reports whether the server is reachable and updates the mode.
func (a *App) Status(ctx context.Context) error {
	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		printlnFn("Server unreachable:", err)
		return nil
	}
	a.setMode(ModeOnline)
	printlnFn("Server reachable at", a.config.ServerBaseURL)
	return nil
}

func (a *App) getStatus() string {
	var parts []string
	if st := a.manager.State(); st.IsAuthenticated {
		parts = append(parts, st.User.Email)
	}
	if m := a.mode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}
