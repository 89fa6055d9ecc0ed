package canchannels

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAdminProtected is the denial reported when a delete targets an
// admin-role profile.
var ErrAdminProtected = errors.New("admin accounts cannot be deleted")

// SubActorAdmin creates, updates, and deletes lower-privilege accounts.
// Callers must already hold an authenticated admin session; that check
// belongs to the gate, not here.
type SubActorAdmin struct {
	identity   IdentityStore
	store      *Store
	log        *Logger
	retryDelay time.Duration
}

// NewSubActorAdmin wires a SubActorAdmin. retryDelay paces the single retry
// used when the new actor's profile row has not materialized yet.
func NewSubActorAdmin(identity IdentityStore, store *Store, log *Logger, retryDelay time.Duration) *SubActorAdmin {
	return &SubActorAdmin{
		identity:   identity,
		store:      store,
		log:        log.With("component", "subactors"),
		retryDelay: retryDelay,
	}
}

// CreateSubActor registers an account and assigns role plus permissions.
// When perms is nil the role's default bundle is persisted; either way the
// stored set is explicit and never re-derived. Profile creation runs behind
// an identity-store trigger, so the access update tolerates a not-yet-
// materialized profile row with one bounded retry.
func (a *SubActorAdmin) CreateSubActor(ctx context.Context, email, password string, role Role, perms *PermissionSet) (Profile, error) {
	if !role.AdminLevel() {
		return Profile{}, fmt.Errorf("%w: role %q is not assignable", ErrValidation, role)
	}
	granted := DefaultPermissions(role)
	if perms != nil {
		granted = *perms
	}

	actorID, err := a.identity.CreateAccount(ctx, email, password)
	if err != nil {
		return Profile{}, err
	}

	err = a.store.UpdateProfileAccess(actorID, role, granted)
	if errors.Is(err, ErrNotFound) {
		a.log.Warn("profile not materialized yet, retrying", "actor", actorID)
		select {
		case <-ctx.Done():
			return Profile{}, ctx.Err()
		case <-time.After(a.retryDelay):
		}
		err = a.store.UpdateProfileAccess(actorID, role, granted)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("assign role and permissions: %w", err)
	}
	return a.store.GetProfile(actorID)
}

// UpdateRole changes an actor's role. Permissions are left untouched so an
// earlier explicit grant does not silently drift.
func (a *SubActorAdmin) UpdateRole(ctx context.Context, actorID string, role Role) error {
	if !role.AdminLevel() {
		return fmt.Errorf("%w: role %q is not assignable", ErrValidation, role)
	}
	return a.store.UpdateProfileRole(actorID, role)
}

// DeleteSubActor removes an actor's profile, sessions, and credentials.
// Admin-role targets are refused and left unchanged.
func (a *SubActorAdmin) DeleteSubActor(ctx context.Context, actorID string) error {
	profile, err := a.store.GetProfile(actorID)
	if err != nil {
		return err
	}
	if profile.Role == RoleAdmin {
		return ErrAdminProtected
	}
	if err := a.store.DeleteProfile(actorID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if err := a.store.DeleteSessionsForActor(actorID); err != nil {
		a.log.Warn("revoke sessions failed", "actor", actorID, "error", err)
	}
	if err := a.store.DeleteAccount(actorID); err != nil {
		a.log.Warn("delete credentials failed", "actor", actorID, "error", err)
	}
	return nil
}

// List returns every admin-level profile. Store failures degrade to an
// empty slice.
func (a *SubActorAdmin) List() []Profile {
	profiles, err := a.store.ListAdminProfiles()
	if err != nil {
		a.log.Warn("list profiles failed", "error", err)
		return []Profile{}
	}
	return profiles
}
