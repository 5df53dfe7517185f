// Package registry is the client SDK for the staff registry API. It bundles
// what a tool or frontend needs to hold a session: a request pipeline that
// carries the bearer credential (Client), durable single-slot token storage
// (TokenStore), the session state machine that ties the two together
// (Manager), and the role policy interface code consults to decide what to
// offer (RoleCapabilities).
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// State is the position of the session machine.
type State string

const (
	// StateIdle is the position before Restore has run.
	StateIdle State = "idle"
	// StateLoading covers an in-flight Restore, Login, or Register.
	StateLoading State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Session is a point-in-time snapshot of the machine. Err annotates the
// current state rather than being a state of its own: Unauthenticated wears
// a message after a rejected login and none after a logout. Token and User
// are set exactly when State is StateAuthenticated.
type Session struct {
	State State
	User  *User
	Token string
	Err   string
}

// Authenticated reports whether the snapshot holds a live session.
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated
}

// Events the machine steps on. Each session change in the Manager goes
// through transition with one of these.
type event interface{ isEvent() }

type evStarted struct{}
type evAuthenticated struct {
	token string
	user  *User
}
type evRejected struct{ message string }
type evInvalidated struct{}
type evUserRefreshed struct{ user *User }
type evErrorCleared struct{}

func (evStarted) isEvent()       {}
func (evAuthenticated) isEvent() {}
func (evRejected) isEvent()      {}
func (evInvalidated) isEvent()   {}
func (evUserRefreshed) isEvent() {}
func (evErrorCleared) isEvent()  {}

// transition is the single pure step function of the machine.
func transition(s Session, ev event) Session {
	switch ev := ev.(type) {
	case evStarted:
		return Session{State: StateLoading}
	case evAuthenticated:
		return Session{State: StateAuthenticated, User: ev.user, Token: ev.token}
	case evRejected:
		return Session{State: StateUnauthenticated, Err: ev.message}
	case evInvalidated:
		return Session{State: StateUnauthenticated}
	case evUserRefreshed:
		if s.State != StateAuthenticated {
			return s
		}
		return Session{State: s.State, User: ev.user, Token: s.Token, Err: s.Err}
	case evErrorCleared:
		return Session{State: s.State, User: s.User, Token: s.Token}
	}
	return s
}

// Verifier is the client-side face of the server's credential endpoints.
// *Client implements it. SetToken and ClearToken attach and detach the
// bearer credential the pipeline sends with authenticated requests.
type Verifier interface {
	Login(ctx context.Context, creds Credentials) (token string, user *User, err error)
	Register(ctx context.Context, profile Profile) (*User, error)
	Me(ctx context.Context) (*User, error)
	SetToken(token string)
	ClearToken()
}

// Options configures a Manager.
type Options struct {
	Verifier Verifier
	Store    TokenStore
	// Logger defaults to a disabled logger when nil.
	Logger *zerolog.Logger
}

// Manager is the session state machine. All methods are safe for concurrent
// use; state moves through one mutex-held transition at a time. A logout
// always wins over work still in flight: operations that resolve afterwards
// are discarded rather than resurrecting the session.
type Manager struct {
	verifier Verifier
	store    TokenStore
	log      zerolog.Logger

	mu         sync.Mutex
	session    Session
	generation uint64
	inFlight   bool
}

func NewManager(opts Options) (*Manager, error) {
	if opts.Verifier == nil {
		return nil, errors.New("registry: verifier is required")
	}
	if opts.Store == nil {
		return nil, errors.New("registry: token store is required")
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	m := &Manager{
		verifier: opts.Verifier,
		store:    opts.Store,
		log:      log,
		session:  Session{State: StateIdle},
	}
	if c, ok := opts.Verifier.(*Client); ok {
		c.bindSessionHook(m.sessionInvalidated)
	}
	return m, nil
}

// Current returns a snapshot of the session. The User value is a copy.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Restore rebuilds the session from the store, the first thing to run at
// startup. It never propagates verifier or store failures: a missing,
// unreadable, or rejected token leaves the machine Unauthenticated with the
// store erased and no error message recorded. The only possible error is
// ErrOperationInFlight.
func (m *Manager) Restore(ctx context.Context) error {
	gen, err := m.begin()
	if err != nil {
		return err
	}

	token, err := m.store.Load()
	if err != nil || token == "" {
		if err != nil {
			m.log.Warn().Err(err).Msg("load stored token")
		}
		m.finish(gen, evInvalidated{})
		return nil
	}

	// The token is attached before the whoami so the lookup itself rides
	// the authenticated pipeline.
	m.verifier.SetToken(token)
	user, err := m.verifier.Me(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	if m.generation != gen {
		return nil
	}
	if err != nil {
		m.log.Info().Err(err).Msg("stored token rejected")
		m.detachLocked()
		m.session = transition(m.session, evInvalidated{})
		return nil
	}
	m.session = transition(m.session, evAuthenticated{token: token, user: user})
	return nil
}

// Login exchanges credentials for a session. On success the token is
// persisted and attached before the state reports Authenticated. On failure
// the machine lands in Unauthenticated carrying a user-facing message, the
// server's own when it sent one, and the cause is also returned.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	gen, err := m.begin()
	if err != nil {
		return err
	}

	token, user, err := m.verifier.Login(ctx, Credentials{Email: email, Password: password})
	if err != nil {
		if !m.finish(gen, evRejected{message: failureMessage(err, loginFallbackMessage)}) {
			return ErrSuperseded
		}
		return err
	}
	return m.finishAuthenticated(gen, token, user)
}

// Register creates an account and signs it in. Doctor profiles are checked
// before anything goes on the wire: a missing license number or specialty
// fails with a *ValidationError and the machine does not move. When the
// account is created but the follow-up sign-in fails, the returned error
// wraps ErrAutoLoginFailed so callers can tell that apart from a rejected
// registration.
func (m *Manager) Register(ctx context.Context, profile Profile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}

	gen, err := m.begin()
	if err != nil {
		return err
	}

	if _, err := m.verifier.Register(ctx, profile); err != nil {
		if !m.finish(gen, evRejected{message: failureMessage(err, registerFallbackMessage)}) {
			return ErrSuperseded
		}
		return err
	}

	token, user, err := m.verifier.Login(ctx, Credentials{Email: profile.Email, Password: profile.Password})
	if err != nil {
		if !m.finish(gen, evRejected{message: failureMessage(err, loginFallbackMessage)}) {
			return ErrSuperseded
		}
		return fmt.Errorf("%w: %w", ErrAutoLoginFailed, err)
	}
	return m.finishAuthenticated(gen, token, user)
}

// Logout ends the session unconditionally and synchronously: the stored
// token is erased, the credential detached, and the machine reports
// Unauthenticated with no user, token, or error before the call returns.
// Calling it with no session is a no-op; calling it while a login is in
// flight makes that login's outcome moot.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.generation++
	m.detachLocked()
	m.session = transition(m.session, evInvalidated{})
	m.mu.Unlock()
}

// ClearError drops the error annotation, nothing else.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.session = transition(m.session, evErrorCleared{})
	m.mu.Unlock()
}

// RefreshUser re-fetches the account behind the session and swaps it in
// place. A failure leaves the current user untouched and comes back to the
// caller; it does not end the session.
func (m *Manager) RefreshUser(ctx context.Context) error {
	m.mu.Lock()
	if m.session.State != StateAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	gen := m.generation
	m.mu.Unlock()

	user, err := m.verifier.Me(ctx)
	if err != nil {
		return fmt.Errorf("refresh user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen {
		return ErrSuperseded
	}
	m.session = transition(m.session, evUserRefreshed{user: user})
	return nil
}

// sessionInvalidated is delivered by the pipeline when the server rejects
// the attached credential. The pipeline has already detached it and cleared
// the store; only the machine state moves here.
func (m *Manager) sessionInvalidated() {
	m.mu.Lock()
	m.generation++
	m.session = transition(m.session, evInvalidated{})
	m.mu.Unlock()
}

// begin claims the machine for one exclusive session operation and moves it
// to Loading. The returned generation ties the operation's outcome to the
// session era it started under.
func (m *Manager) begin() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return 0, ErrOperationInFlight
	}
	m.inFlight = true
	if m.session.State == StateAuthenticated {
		// Starting over discards the session that is already attached.
		m.detachLocked()
	}
	m.session = transition(m.session, evStarted{})
	return m.generation, nil
}

// finish applies the outcome of an operation started at gen. It reports
// false when a logout superseded the operation, in which case the outcome is
// discarded.
func (m *Manager) finish(gen uint64, ev event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	if m.generation != gen {
		return false
	}
	m.session = transition(m.session, ev)
	return true
}

// finishAuthenticated persists and attaches the token, then moves to
// Authenticated, all under one lock hold so no snapshot can observe a
// half-built session. A store write failure surfaces as a failed login.
func (m *Manager) finishAuthenticated(gen uint64, token string, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	if m.generation != gen {
		return ErrSuperseded
	}
	if err := m.store.Save(token); err != nil {
		m.session = transition(m.session, evRejected{message: loginFallbackMessage})
		return fmt.Errorf("persist session token: %w", err)
	}
	m.verifier.SetToken(token)
	m.session = transition(m.session, evAuthenticated{token: token, user: user})
	return nil
}

// detachLocked clears the credential and the store. Callers hold m.mu.
func (m *Manager) detachLocked() {
	m.verifier.ClearToken()
	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("clear token store")
	}
}

func validateProfile(p Profile) error {
	if p.Role != RoleDoctor {
		return nil
	}
	fields := make(map[string]string)
	if strings.TrimSpace(p.LicenseNumber) == "" {
		fields["licenseNumber"] = "is required for role doctor"
	}
	if strings.TrimSpace(p.Specialty) == "" {
		fields["specialty"] = "is required for role doctor"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
