package client

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// AuthState is where the session manager is in its lifecycle.
type AuthState int

const (
	// StateLoading lasts until the first session check resolves.
	StateLoading AuthState = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// AuthEventKind names a session transition.
type AuthEventKind string

const (
	EventSignedIn  AuthEventKind = "SIGNED_IN"
	EventSignedOut AuthEventKind = "SIGNED_OUT"
)

// Identity is the signed-in account.
type Identity struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
	IsAdmin        bool   `json:"is_admin"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// AuthEvent is delivered to every subscriber. Restored is set when a
// SignedIn comes from a persisted session rather than a fresh sign-in.
type AuthEvent struct {
	Kind     AuthEventKind
	Identity *Identity
	Restored bool

	token     string
	expiresAt time.Time
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        Identity  `json:"user"`
}

// Session is the single owner of "who is signed in". Every state change,
// local or pushed by the server, goes through one funnel that updates state
// and then notifies subscribers.
type Session struct {
	transport *Transport
	store     TokenStore
	toaster   Toaster
	log       *slog.Logger

	funnelMu sync.Mutex

	mu        sync.RWMutex
	state     AuthState
	identity  *Identity
	token     string
	listeners map[int]func(AuthEvent)
	nextID    int

	background sync.WaitGroup
}

// NewSession wires a session manager to transport. The transport's token
// source and 401 hook are taken over by the session.
func NewSession(transport *Transport, store TokenStore, toaster Toaster, logger *slog.Logger) *Session {
	if store == nil {
		store = &MemoryTokenStore{}
	}
	if toaster == nil {
		toaster = LogToaster{Logger: logger}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		transport: transport,
		store:     store,
		toaster:   toaster,
		log:       logger,
		state:     StateLoading,
		listeners: make(map[int]func(AuthEvent)),
	}
	transport.SetTokenSource(s.Token)
	transport.OnUnauthorized(s.expire)
	return s
}

// Init restores a persisted session. It always leaves StateLoading.
func (s *Session) Init(ctx context.Context) error {
	stored, err := s.store.Load()
	if err != nil {
		s.log.Warn("ignoring unreadable session", slog.String("error", err.Error()))
		stored = nil
	}
	if stored == nil || (!stored.ExpiresAt.IsZero() && time.Now().After(stored.ExpiresAt)) {
		if stored != nil {
			_ = s.store.Clear()
		}
		s.funnel(AuthEvent{Kind: EventSignedOut})
		return nil
	}

	var identity Identity
	err = s.transport.Send(ctx, Call{Method: http.MethodGet, Path: "/api/auth/session", Token: stored.AccessToken}, &identity)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			_ = s.store.Clear()
		}
		s.funnel(AuthEvent{Kind: EventSignedOut})
		return err
	}
	s.funnel(AuthEvent{Kind: EventSignedIn, Identity: &identity, Restored: true, token: stored.AccessToken, expiresAt: stored.ExpiresAt})
	return nil
}

// Subscribe registers fn for every auth event and returns its remover.
func (s *Session) Subscribe(fn func(AuthEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Identity returns the signed-in identity or nil.
func (s *Session) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// RequireIdentity fails with ErrNotAuthenticated when nobody is signed in.
func (s *Session) RequireIdentity() (*Identity, error) {
	id := s.Identity()
	if id == nil {
		return nil, ErrNotAuthenticated
	}
	return id, nil
}

// Token returns the current access token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignUp creates an account. The account may need its email confirmed
// before SignIn succeeds.
func (s *Session) SignUp(ctx context.Context, email, password, displayName string) error {
	var resp struct {
		ConfirmationRequired bool `json:"confirmation_required"`
	}
	err := s.transport.Send(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/auth/signup",
		Body:   map[string]string{"email": email, "password": password, "display_name": displayName},
		NoAuth: true,
	}, &resp)
	if err != nil {
		s.toaster.Toast(errorToast(userMessage(err)))
		return err
	}
	if resp.ConfirmationRequired {
		s.toaster.Toast(successToast("Please check your email to verify your account."))
	} else {
		s.toaster.Toast(successToast("Account created. You can sign in now."))
	}
	return nil
}

// signInMessage turns known sign-in failures into friendlier text.
func signInMessage(err error) string {
	switch {
	case HasCode(err, "EMAIL_NOT_CONFIRMED"):
		return "Please confirm your email address before signing in."
	case HasCode(err, "INVALID_CREDENTIALS"):
		return "Incorrect email or password."
	default:
		return userMessage(err)
	}
}

// SignIn requests a session. On success the token is persisted and a
// SignedIn event is funnelled.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	var resp loginResponse
	err := s.transport.Send(ctx, Call{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   map[string]string{"email": email, "password": password},
		NoAuth: true,
	}, &resp)
	if err != nil {
		s.toaster.Toast(errorToast(signInMessage(err)))
		return err
	}

	if err := s.store.Save(&StoredSession{
		AccessToken: resp.AccessToken,
		ExpiresAt:   resp.ExpiresAt,
		UserID:      resp.User.ID,
		Email:       resp.User.Email,
	}); err != nil {
		s.log.Warn("session not persisted", slog.String("error", err.Error()))
	}
	s.toaster.Toast(successToast("Successfully signed in!"))
	s.funnel(AuthEvent{Kind: EventSignedIn, Identity: &resp.User, token: resp.AccessToken, expiresAt: resp.ExpiresAt})
	return nil
}

// SignOut revokes the token on the server. Local state is cleared by the
// funnel, not here.
func (s *Session) SignOut(ctx context.Context) error {
	if s.Token() == "" {
		return nil
	}
	if err := s.transport.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			// Already revoked or expired; expire() has funnelled the sign-out.
			return nil
		}
		s.toaster.Toast(errorToast(userMessage(err)))
		return err
	}
	s.signedOut()
	return nil
}

// RemoteSignOut handles a SIGNED_OUT pushed by the server.
func (s *Session) RemoteSignOut() {
	s.signedOut()
}

func (s *Session) expire() {
	s.signedOut()
}

func (s *Session) signedOut() {
	if err := s.store.Clear(); err != nil {
		s.log.Warn("session file not cleared", slog.String("error", err.Error()))
	}
	s.funnel(AuthEvent{Kind: EventSignedOut})
}

// funnel applies ev to the session state and then notifies subscribers.
// Repeated sign-outs while already signed out are dropped.
func (s *Session) funnel(ev AuthEvent) {
	s.funnelMu.Lock()
	defer s.funnelMu.Unlock()

	s.mu.Lock()
	if ev.Kind == EventSignedOut && s.state == StateUnauthenticated {
		s.mu.Unlock()
		return
	}
	switch ev.Kind {
	case EventSignedIn:
		s.state = StateAuthenticated
		s.identity = ev.Identity
		s.token = ev.token
	case EventSignedOut:
		s.state = StateUnauthenticated
		s.identity = nil
		s.token = ""
	}
	listeners := make([]func(AuthEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if ev.Kind == EventSignedIn && ev.Identity != nil {
		s.ensureUser(*ev.Identity, ev.token)
	}
	for _, fn := range listeners {
		fn(ev)
	}
}

// ensureUser creates the public user record in the background. Failures are
// logged and never reach the caller.
func (s *Session) ensureUser(identity Identity, token string) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		name := identity.DisplayName
		if name == "" {
			name = identity.Email
		}
		err := s.transport.Send(ctx, Call{
			Method: http.MethodPost,
			Path:   "/api/users/ensure",
			Body:   map[string]string{"display_name": name},
			Token:  token,
		}, nil)
		if err != nil {
			s.log.Warn("user record reconciliation failed",
				slog.Uint64("user_id", uint64(identity.ID)), slog.String("error", err.Error()))
		}
	}()
}

// Close waits for background reconciliation to finish.
func (s *Session) Close() {
	s.background.Wait()
}
