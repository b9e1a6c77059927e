package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/deojon/studio/types"
)

// SavedUserIDKey is the preference slot holding the remembered login id.
const SavedUserIDKey = "savedUserId"

// ErrPreferenceNotFound is returned by a PreferenceStore for unset keys.
var ErrPreferenceNotFound = errors.New("preference not set")

// PreferenceStore is a durable key-value slot that survives restarts.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// AuthMode is the sub-screen shown while signed out.
type AuthMode string

const (
	ModeLogin  AuthMode = "login"
	ModeSignup AuthMode = "signup"
	ModeForgot AuthMode = "forgot"
)

func (m AuthMode) valid() bool {
	switch m {
	case ModeLogin, ModeSignup, ModeForgot:
		return true
	}
	return false
}

// SessionState is the coarse state of a Session.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateLoggedOut
	StateLoggedIn
)

func (s SessionState) String() string {
	switch s {
	case StateLoggedOut:
		return "logged-out"
	case StateLoggedIn:
		return "logged-in"
	default:
		return "uninitialized"
	}
}

// Session is the sign-in state of one client. Every operation reports
// success with its boolean result; the reason for a failure is kept in
// LastError.
type Session struct {
	auth  *AuthService
	prefs PreferenceStore

	mu       sync.Mutex
	state    SessionState
	mode     AuthMode
	user     *types.User
	savedID  string
	lastErr  error
	onLogin  []func(types.User)
	onLogout []func()
}

func NewSession(auth *AuthService, prefs PreferenceStore) *Session {
	return &Session{auth: auth, prefs: prefs, mode: ModeLogin}
}

// OnLogin registers fn to run after every successful login.
func (s *Session) OnLogin(fn func(types.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogin = append(s.onLogin, fn)
}

// OnLogout registers fn to run after every logout.
func (s *Session) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Init loads the remembered id and enters the login screen.
func (s *Session) Init(ctx context.Context) bool {
	saved, err := s.prefs.Get(ctx, SavedUserIDKey)
	if err != nil && !errors.Is(err, ErrPreferenceNotFound) {
		log.Printf("[auth] reading %s failed: %v", SavedUserIDKey, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedID = saved
	s.state = StateLoggedOut
	s.mode = ModeLogin
	return true
}

// Login signs the user in. It fails for a blank id or a wrong password
// of a registered account.
func (s *Session) Login(ctx context.Context, params LoginParams) bool {
	user, err := s.auth.Authenticate(ctx, params.ID, params.Password)
	if err != nil {
		s.fail(err)
		return false
	}

	if params.RememberID {
		err = s.prefs.Set(ctx, SavedUserIDKey, user.ID)
	} else {
		err = s.prefs.Delete(ctx, SavedUserIDKey)
	}
	if err != nil {
		log.Printf("[auth] updating %s failed: %v", SavedUserIDKey, err)
	}

	s.mu.Lock()
	s.user = &user
	s.state = StateLoggedIn
	s.lastErr = nil
	if params.RememberID {
		s.savedID = user.ID
	} else {
		s.savedID = ""
	}
	hooks := append([]func(types.User){}, s.onLogin...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(user)
	}
	return true
}

// Signup registers an account and returns to the login screen without
// signing in.
func (s *Session) Signup(ctx context.Context, params SignupParams) bool {
	if _, err := s.auth.Register(ctx, params); err != nil {
		s.fail(err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeLogin
	s.lastErr = nil
	return true
}

// Logout clears the current user and stops session-bound work.
func (s *Session) Logout() bool {
	s.mu.Lock()
	wasLoggedIn := s.user != nil
	s.user = nil
	s.mode = ModeLogin
	if s.state == StateLoggedIn {
		s.state = StateLoggedOut
	}
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	if wasLoggedIn {
		for _, fn := range hooks {
			fn()
		}
	}
	return true
}

// UpdateProfile merges params into the current user.
func (s *Session) UpdateProfile(ctx context.Context, params UpdateProfileParams) bool {
	return s.UpdateProfileErr(ctx, params) == nil
}

// UpdateProfileErr is UpdateProfile with the failure reason.
func (s *Session) UpdateProfileErr(ctx context.Context, params UpdateProfileParams) error {
	current, ok := s.CurrentUser()
	if !ok {
		s.fail(ErrNoSession)
		return ErrNoSession
	}

	updated, err := s.auth.UpdateProfile(ctx, current, params)
	if err != nil {
		s.fail(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && s.user.ID == updated.ID {
		s.user = &updated
	}
	s.lastErr = nil
	return nil
}

// SendTempPassword issues a temporary password for email and returns to
// the login screen.
func (s *Session) SendTempPassword(ctx context.Context, email string) bool {
	if _, err := s.auth.IssueTempPassword(ctx, email); err != nil {
		s.fail(err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeLogin
	s.lastErr = nil
	return true
}

// SetMode switches the signed-out screen. It fails while signed in.
func (s *Session) SetMode(mode AuthMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil || !mode.valid() {
		return false
	}
	s.mode = mode
	return true
}

// CurrentUser returns the signed-in user.
func (s *Session) CurrentUser() (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}

// State returns the coarse session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the signed-out screen.
func (s *Session) Mode() AuthMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SavedID returns the remembered login id for prefill.
func (s *Session) SavedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savedID
}

// LastError returns the reason of the most recent failed operation.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}
