package canchannels

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AuthState is the gate's position in its sign-in state machine.
type AuthState string

const (
	StateAnonymous      AuthState = "anonymous"
	StateAuthenticating AuthState = "authenticating"
	StateAuthenticated  AuthState = "authenticated"
	StateDenied         AuthState = "denied"
)

// ErrPrivilegesRequired is the single error surfaced when credentials are
// valid but the actor's role is outside the admin-level allow-list.
var ErrPrivilegesRequired = errors.New("Admin-level privileges required.")

// ErrDenied is returned for mid-session permission failures. Unlike sign-in
// failures it does not invalidate the session.
var ErrDenied = errors.New("access denied")

// Permission names one protected surface.
type Permission string

const (
	PermManagePosts          Permission = "managePosts"
	PermManageAdvertisements Permission = "manageAdvertisements"
	PermManageUsers          Permission = "manageUsers"
	PermSystemSettings       Permission = "systemSettings"
)

// Has reports whether the set grants p.
func (ps PermissionSet) Has(p Permission) bool {
	switch p {
	case PermManagePosts:
		return ps.ManagePosts
	case PermManageAdvertisements:
		return ps.ManageAdvertisements
	case PermManageUsers:
		return ps.ManageUsers
	case PermSystemSettings:
		return ps.SystemSettings
	default:
		return false
	}
}

// Actor is an authenticated session joined with its freshly loaded profile.
type Actor struct {
	Session Session `json:"session"`
	Profile Profile `json:"profile"`
}

// AuthStatus is the observable outcome of a gate transition.
type AuthStatus struct {
	State AuthState `json:"state"`
	Actor *Actor    `json:"actor,omitempty"`
	Err   error     `json:"-"`
}

// Gate validates credentials, enforces the role allow-list on sign-in, and
// evaluates protected-surface permissions at the point of use. It holds no
// mutable session state; the session token travels with each call.
type Gate struct {
	identity      IdentityStore
	store         *Store
	log           *Logger
	resumeTimeout time.Duration
}

// NewGate wires a Gate. resumeTimeout bounds session resumption on startup.
func NewGate(identity IdentityStore, store *Store, log *Logger, resumeTimeout time.Duration) *Gate {
	return &Gate{
		identity:      identity,
		store:         store,
		log:           log.With("component", "auth"),
		resumeTimeout: resumeTimeout,
	}
}

// SignIn validates credentials and loads the actor's profile. When the role
// is outside {admin, moderator, editor} the freshly created session is
// invalidated before the denial is returned.
func (g *Gate) SignIn(ctx context.Context, email, password string) AuthStatus {
	session, err := g.identity.SignIn(ctx, email, password)
	if err != nil {
		return AuthStatus{State: StateDenied, Err: err}
	}
	profile, err := g.store.GetProfile(session.ActorID)
	if err != nil {
		_ = g.identity.SignOut(ctx, session.Token)
		if errors.Is(err, ErrNotFound) {
			return AuthStatus{State: StateDenied, Err: ErrPrivilegesRequired}
		}
		return AuthStatus{State: StateDenied, Err: fmt.Errorf("load profile: %w", err)}
	}
	if !profile.Role.AdminLevel() {
		_ = g.identity.SignOut(ctx, session.Token)
		return AuthStatus{State: StateDenied, Err: ErrPrivilegesRequired}
	}
	return AuthStatus{
		State: StateAuthenticated,
		Actor: &Actor{Session: session, Profile: profile},
	}
}

// SignOut invalidates the session unconditionally and returns to anonymous.
func (g *Gate) SignOut(ctx context.Context, token string) AuthStatus {
	if err := g.identity.SignOut(ctx, token); err != nil {
		g.log.Warn("sign out failed", "error", err)
	}
	return AuthStatus{State: StateAnonymous}
}

// Resume attempts to restore an existing session within the gate's bounded
// timeout. A slow or unreachable identity store fails open to anonymous
// rather than blocking; a resumed session whose role has lost admin-level
// standing is invalidated.
func (g *Gate) Resume(ctx context.Context, token string) AuthStatus {
	ctx, cancel := context.WithTimeout(ctx, g.resumeTimeout)
	defer cancel()

	type result struct {
		session Session
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		session, err := g.identity.CurrentSession(ctx, token)
		ch <- result{session, err}
	}()

	select {
	case <-ctx.Done():
		g.log.Warn("session resume timed out")
		return AuthStatus{State: StateAnonymous}
	case res := <-ch:
		if res.err != nil {
			return AuthStatus{State: StateAnonymous}
		}
		profile, err := g.store.GetProfile(res.session.ActorID)
		if err != nil || !profile.Role.AdminLevel() {
			_ = g.identity.SignOut(ctx, token)
			return AuthStatus{State: StateAnonymous}
		}
		return AuthStatus{
			State: StateAuthenticated,
			Actor: &Actor{Session: res.session, Profile: profile},
		}
	}
}

// Require resolves the token and checks the named permission against the
// actor's current profile. The profile is reloaded on every call so a role
// change by an admin takes effect at the next privilege check; a mid-session
// denial does not invalidate the session.
func (g *Gate) Require(ctx context.Context, token string, perm Permission) (*Actor, error) {
	session, err := g.identity.CurrentSession(ctx, token)
	if err != nil {
		return nil, ErrNoSession
	}
	profile, err := g.store.GetProfile(session.ActorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrDenied
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !profile.Role.AdminLevel() || !profile.Permissions.Has(perm) {
		return nil, ErrDenied
	}
	return &Actor{Session: session, Profile: profile}, nil
}

// RequireAdmin resolves the token and checks for the admin role itself,
// used by the sub-actor administrator.
func (g *Gate) RequireAdmin(ctx context.Context, token string) (*Actor, error) {
	actor, err := g.Require(ctx, token, PermManageUsers)
	if err != nil {
		return nil, err
	}
	if actor.Profile.Role != RoleAdmin {
		return nil, ErrDenied
	}
	return actor, nil
}
