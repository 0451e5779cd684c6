package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/geotrack/tracker-client/internal/client/client"
	"github.com/geotrack/tracker-client/internal/client/config"
	"github.com/geotrack/tracker-client/internal/client/models"
	"github.com/geotrack/tracker-client/internal/client/repositories/metadata"
	"github.com/geotrack/tracker-client/internal/client/services"
	"github.com/geotrack/tracker-client/internal/client/session"
	"github.com/geotrack/tracker-client/internal/client/sessionstore"
	"github.com/geotrack/tracker-client/internal/filex"
	"github.com/geotrack/tracker-client/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionManager is the slice of *session.Manager the CLI drives.
type sessionManager interface {
	Bootstrap(ctx context.Context) session.State
	SignIn(ctx context.Context, user models.User) error
	SignOut(ctx context.Context) error
	RefreshSession(ctx context.Context) error
	State() session.State
	Subscribe(fn func(session.State)) func()
}

type App struct {
	config      *config.Config
	manager     sessionManager
	authService services.AuthService
	log         logging.Logger
	reader      *bufio.Reader
	db          *sql.DB

	modeMu sync.Mutex
	Mode   Mode
}

// NewApp opens the session database and wires transport, gateway and
// session manager. The returned App owns the database handle.
func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	if err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	httpClient, err := client.NewHTTPClient(ctx, c.ServerBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithCookieStore(client.NewMetadataCookieStore(metadata.NewSQLiteRepository(db))),
		client.WithLogger(log),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := sessionstore.NewSQLiteStore(db)
	as := services.NewAuthService(httpClient, store, log)
	m := session.NewManager(store, as, log)

	a := &App{
		config:      c,
		manager:     m,
		authService: as,
		log:         log,
		reader:      bufio.NewReader(os.Stdin),
		db:          db,
	}
	m.Subscribe(a.onTransition())
	return a, nil
}

// Run restores the previous session, starts the background session watcher
// and blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to tracker CLI (type 'help' for commands)")

	st := a.manager.Bootstrap(ctx)
	if st.IsAuthenticated {
		printlnFn("Signed in as", st.User.DisplayName())
	}

	go a.StartSessionWatcher(ctx, a.config.SessionCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.log.Warn(context.Background(), "closing database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return a.manager.State().IsAuthenticated
}

func (a *App) mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.Mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.modeMu.Unlock()

	if changed {
		a.log.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

// onTransition reports a session that ended without the user asking for it.
func (a *App) onTransition() func(session.State) {
	var mu sync.Mutex
	wasAuthenticated := false

	return func(s session.State) {
		mu.Lock()
		defer mu.Unlock()

		if wasAuthenticated && !s.IsAuthenticated && !s.IsSignout {
			printlnFn("Your session has expired, please log in again.")
		}
		wasAuthenticated = s.IsAuthenticated
	}
}

// StartSessionWatcher pings the server every interval. Reachability drives
// the connectivity mode; while online and signed in, the session is
// re-validated so a session revoked elsewhere ends here too.
func (a *App) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnce(ctx context.Context) {
	if err := a.authService.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)

	if !a.isLoggedIn() {
		return
	}
	err := a.manager.RefreshSession(ctx)
	if err != nil && !errors.Is(err, session.ErrSessionExpired) {
		a.log.Warn(ctx, "session refresh failed", "error", err)
	}
}
