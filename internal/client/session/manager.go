package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/geotrack/tracker-client/internal/client/models"
	"github.com/geotrack/tracker-client/internal/client/policy"
	"github.com/geotrack/tracker-client/internal/logging"
)

var (
	ErrNotBootstrapped = errors.New("session not bootstrapped")
	ErrSessionExpired  = errors.New("session expired")
)

// Store is the durable session record the manager mirrors.
type Store interface {
	Write(ctx context.Context, user models.User) error
	Read(ctx context.Context) (bool, *models.User, error)
	Clear(ctx context.Context) error
}

// Gateway is the part of the remote session gateway the manager drives.
type Gateway interface {
	CheckSession(ctx context.Context) models.AuthResult
	Logout(ctx context.Context) models.AuthResult
}

// Manager owns the session state. The state changes only through Reduce,
// driven by Bootstrap, SignIn, SignOut and RefreshSession.
//
// Operations are serialised: a SignIn racing a RefreshSession runs one after
// the other, in lock acquisition order. State readers never wait on network
// calls.
type Manager struct {
	store   Store
	gateway Gateway
	log     logging.Logger

	opMu         sync.Mutex
	bootstrapped bool

	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

func NewManager(store Store, gateway Gateway, log logging.Logger) *Manager {
	return &Manager{
		store:     store,
		gateway:   gateway,
		log:       log.With("component", "session"),
		state:     Initial(),
		listeners: make(map[int]func(State)),
	}
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Subscribe registers fn to receive the new state after every transition.
// fn runs on the goroutine of the operation that caused the transition and
// must not call back into the Manager's operations. A panic in fn is logged
// and does not reach the caller.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Bootstrap reconciles the persisted session with the authority and ends the
// loading phase. It runs once; later calls return the current state. It
// never fails: any error along the way yields the unauthenticated state.
func (m *Manager) Bootstrap(ctx context.Context) State {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.bootstrapped {
		m.log.Warn(ctx, "bootstrap already ran")
		return m.State()
	}
	m.bootstrapped = true

	user := m.restore(ctx)
	return m.dispatch(ctx, RestoreSession{Authenticated: user != nil, User: user})
}

// restore returns the corroborated user, or nil.
func (m *Manager) restore(ctx context.Context) (user *models.User) {
	defer func() {
		if p := recover(); p != nil {
			m.log.Error(ctx, "bootstrap aborted", "panic", fmt.Sprint(p))
			m.onFailure(ctx, policy.Bootstrap)
			user = nil
		}
	}()

	flag, stored, err := m.store.Read(ctx)
	if err != nil {
		m.log.Error(ctx, "persisted session unreadable", "error", err)
		m.onFailure(ctx, policy.Bootstrap)
		return nil
	}
	if !flag || stored == nil {
		m.log.Debug(ctx, "no persisted session")
		return nil
	}

	res := m.gateway.CheckSession(ctx)
	if !res.Success || res.User == nil {
		m.log.Info(ctx, "persisted session rejected", "user_id", stored.ID, "reason", res.Message)
		m.onFailure(ctx, policy.Bootstrap)
		return nil
	}
	return res.User
}

// SignIn persists user and then records the sign-in. When the record cannot
// be written the state is left untouched and the error returned.
func (m *Manager) SignIn(ctx context.Context, user models.User) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.bootstrapped {
		return ErrNotBootstrapped
	}

	if err := m.store.Write(ctx, user); err != nil {
		m.log.Error(ctx, "sign-in not persisted", "user_id", user.ID, "error", err)
		m.onFailure(ctx, policy.SignIn)
		return fmt.Errorf("persist session: %w", err)
	}

	m.dispatch(ctx, SignIn{User: user})
	return nil
}

// SignOut ends the session remotely (best effort), records the sign-out and
// clears the persisted record. The state is signed out even when an error is
// returned; the error only reports that the record could not be removed.
func (m *Manager) SignOut(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.bootstrapped {
		return ErrNotBootstrapped
	}

	if res := m.logout(ctx); !res.Success {
		m.log.Warn(ctx, "remote logout failed", "reason", res.Message)
	}

	m.dispatch(ctx, SignOut{})

	if policy.For(policy.SignOut).ClearStore {
		if err := m.store.Clear(ctx); err != nil {
			m.log.Error(ctx, "session record not cleared", "error", err)
			return fmt.Errorf("clear session: %w", err)
		}
	}
	return nil
}

// RefreshSession checks the session with the authority. When the session is no longer valid
// the client is moved to the unauthenticated state and ErrSessionExpired is
// returned. A live session leaves the state untouched.
func (m *Manager) RefreshSession(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if !m.bootstrapped {
		return ErrNotBootstrapped
	}

	res := m.checkSession(ctx)
	if res.Success {
		return nil
	}

	m.log.Info(ctx, "session expired", "reason", res.Message)
	m.onFailure(ctx, policy.RefreshSession)
	m.dispatch(ctx, SessionExpired{})
	return ErrSessionExpired
}

func (m *Manager) dispatch(ctx context.Context, e Event) State {
	m.mu.Lock()
	m.state = Reduce(m.state, e)
	next := m.state.clone()
	listeners := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	m.log.Debug(ctx, "transition", "event", Name(e), "authenticated", next.IsAuthenticated)

	for _, fn := range listeners {
		m.notify(ctx, fn, next.clone())
	}
	return next
}

// notify delivers s to one listener. A panicking listener is logged and
// skipped; the transition has already happened.
func (m *Manager) notify(ctx context.Context, fn func(State), s State) {
	defer func() {
		if p := recover(); p != nil {
			m.log.Error(ctx, "session listener panicked", "panic", fmt.Sprint(p))
		}
	}()
	fn(s)
}

// onFailure applies the store side of op's failure rule. It never panics.
func (m *Manager) onFailure(ctx context.Context, op policy.Operation) {
	if !policy.For(op).ClearStore {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			m.log.Error(ctx, "session record not cleared", "op", op, "panic", fmt.Sprint(p))
		}
	}()
	if err := m.store.Clear(ctx); err != nil {
		m.log.Error(ctx, "session record not cleared", "op", op, "error", err)
	}
}

func (m *Manager) checkSession(ctx context.Context) (res models.AuthResult) {
	defer func() {
		if p := recover(); p != nil {
			m.log.Error(ctx, "session check panicked", "panic", fmt.Sprint(p))
			res = models.Failed(ErrSessionExpired.Error())
		}
	}()
	return m.gateway.CheckSession(ctx)
}

func (m *Manager) logout(ctx context.Context) (res models.AuthResult) {
	defer func() {
		if p := recover(); p != nil {
			m.log.Error(ctx, "logout panicked", "panic", fmt.Sprint(p))
			res = models.Failed(fmt.Sprint(p))
		}
	}()
	return m.gateway.Logout(ctx)
}

func (s State) clone() State {
	if s.User != nil {
		s.User = copyUser(*s.User)
	}
	return s
}
