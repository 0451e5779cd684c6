package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/geotrack/tracker-client/internal/authtest"
	"github.com/geotrack/tracker-client/internal/client/config"
	"github.com/geotrack/tracker-client/internal/client/session"
	"github.com/geotrack/tracker-client/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoggedIn_FollowsManager(t *testing.T) {
	m := &fakeManager{}
	app := newTestApp(m, &fakeAuth{})
	assert.False(t, app.isLoggedIn())

	m.state = signedIn(alice)
	assert.True(t, app.isLoggedIn())
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(&fakeManager{}, &fakeAuth{})
	app.log = logging.NewTextLogger(&buf, slog.LevelInfo)

	app.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, app.mode())
	assert.Contains(t, buf.String(), "mode=online")

	buf.Reset()
	app.setMode(ModeOnline)
	assert.Empty(t, buf.String(), "no log when mode does not change")

	app.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, app.mode())
	assert.Contains(t, buf.String(), "mode=offline")
}

func TestGetStatus(t *testing.T) {
	m := &fakeManager{}
	app := newTestApp(m, &fakeAuth{})
	assert.Equal(t, "", app.getStatus())

	app.setMode(ModeOffline)
	assert.Equal(t, "(offline)", app.getStatus())

	m.state = signedIn(alice)
	app.setMode(ModeOnline)
	assert.Equal(t, "(alice@example.com online)", app.getStatus())
}

func TestOnTransition_ReportsOnlyUnrequestedEnd(t *testing.T) {
	out := capturePrint(t)
	notify := newTestApp(&fakeManager{}, &fakeAuth{}).onTransition()

	notify(session.State{})
	notify(signedIn(alice))
	notify(session.State{IsSignout: true})
	assert.Empty(t, *out, "explicit sign-out is not an expiry")

	notify(signedIn(alice))
	notify(session.State{})
	assert.Equal(t, []string{"Your session has expired, please log in again."}, *out)
}

func TestCheckOnce(t *testing.T) {
	t.Run("offline skips refresh", func(t *testing.T) {
		m := &fakeManager{state: signedIn(alice)}
		app := newTestApp(m, &fakeAuth{pingErr: errors.New("unavailable")})

		app.checkOnce(context.Background())

		assert.Equal(t, ModeOffline, app.mode())
		assert.Zero(t, m.refreshes)
		assert.True(t, app.isLoggedIn())
	})

	t.Run("online and signed in refreshes", func(t *testing.T) {
		m := &fakeManager{state: signedIn(alice), refreshErr: session.ErrSessionExpired}
		app := newTestApp(m, &fakeAuth{})

		app.checkOnce(context.Background())

		assert.Equal(t, ModeOnline, app.mode())
		assert.Equal(t, 1, m.refreshes)
		assert.False(t, app.isLoggedIn())
	})

	t.Run("online and signed out does nothing", func(t *testing.T) {
		m := &fakeManager{}
		app := newTestApp(m, &fakeAuth{})

		app.checkOnce(context.Background())

		assert.Zero(t, m.refreshes)
	})
}

func TestStartSessionWatcher(t *testing.T) {
	m := &fakeManager{state: signedIn(alice)}
	as := &fakeAuth{}
	app := newTestApp(m, as)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.StartSessionWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.refreshCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestStartSessionWatcher_DisabledInterval(t *testing.T) {
	app := newTestApp(&fakeManager{}, &fakeAuth{})
	done := make(chan struct{})
	go func() {
		app.StartSessionWatcher(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher with zero interval must return at once")
	}
}

func TestNewApp_EndToEnd(t *testing.T) {
	capturePrint(t)
	stubConfirm(t, true)

	srv := authtest.NewServer(t)
	srv.AddUser("alice@example.com", "secret", alice)

	cfg := &config.Config{
		ServerBaseURL:  srv.URL,
		DatabasePath:   filepath.Join(t.TempDir(), "nested", "session.db"),
		RequestTimeout: time.Second,
	}
	ctx := context.Background()

	app, err := NewApp(cfg, logging.Discard())
	require.NoError(t, err)
	defer app.close()

	st := app.manager.Bootstrap(ctx)
	require.False(t, st.IsAuthenticated)

	stubInputs(t, "alice@example.com", []byte("secret"))
	require.NoError(t, app.Login(ctx))
	require.True(t, app.isLoggedIn())

	app.checkOnce(ctx)
	assert.Equal(t, ModeOnline, app.mode())
	assert.True(t, app.isLoggedIn())

	srv.ExpireSessions()
	app.checkOnce(ctx)
	assert.False(t, app.isLoggedIn())

	require.NoError(t, app.Login(ctx))
	require.NoError(t, app.Logout(ctx))
	assert.False(t, app.isLoggedIn())
	assert.Zero(t, srv.ActiveSessions())
}

func TestNewApp_BadServerURL(t *testing.T) {
	cfg := &config.Config{
		ServerBaseURL: "not a url",
		DatabasePath:  filepath.Join(t.TempDir(), "session.db"),
	}

	_, err := NewApp(cfg, logging.Discard())
	require.Error(t, err)
}
