package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MirrorStatus reports whether the document store caught up with a
// relational write. A false Synced is logged but never fails the request.
type MirrorStatus struct {
	Synced bool
	Err    error
}

var synced = MirrorStatus{Synced: true}

// Coordinator keeps the credential store (authoritative) and the profile
// cache / archive (derived) in step. Relational writes commit first; the
// document side is written only after the commit succeeded.
type Coordinator struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	wallets  repository.WalletRepository
	profiles repository.ProfileRepository
	archive  repository.ArchiveRepository
	authz    Authorizer
	now      func() time.Time
}

func NewCoordinator(
	users repository.UserRepository,
	roles repository.RoleRepository,
	wallets repository.WalletRepository,
	profiles repository.ProfileRepository,
	archive repository.ArchiveRepository,
	authz Authorizer,
) *Coordinator {
	return &Coordinator{
		users:    users,
		roles:    roles,
		wallets:  wallets,
		profiles: profiles,
		archive:  archive,
		authz:    authz,
		now:      time.Now,
	}
}

// Commit runs fn in one relational transaction. The cache is not touched.
func (c *Coordinator) Commit(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return runTx(ctx, c.users.DB(), fn)
}

// Project builds the profile record for u from the credential store.
func (c *Coordinator) Project(ctx context.Context, u *model.User) (*model.ProfileRecord, error) {
	perms, err := c.authz.EffectivePermissions(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("permissions: %w", err)
	}
	roles, err := c.roles.UserRoles(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}
	rec := &model.ProfileRecord{
		ID:          u.ID.String(),
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		CardNumber:  u.CardNumber,
		Type:        u.Kind,
		Permissions: perms.Codes(),
		Roles:       roleNames(roles),
		Validated:   u.Validated,
		UpdatedAt:   c.now().UTC(),
	}
	w, err := c.wallets.FindByUserID(ctx, nil, u.ID)
	switch {
	case err == nil:
		id := w.ID.String()
		rec.WalletID = &id
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("wallet: %w", err)
	}
	return rec, nil
}

// Mirror re-projects the user and writes the profile record, keeping the
// session timestamps only the cache knows about.
func (c *Coordinator) Mirror(ctx context.Context, userID uuid.UUID) MirrorStatus {
	return c.mirror(ctx, userID, nil)
}

// Touch mirrors the user after letting mutate adjust cache-only fields
// (last_login / last_logout).
func (c *Coordinator) Touch(ctx context.Context, userID uuid.UUID, mutate func(*model.ProfileRecord)) MirrorStatus {
	return c.mirror(ctx, userID, mutate)
}

func (c *Coordinator) mirror(ctx context.Context, userID uuid.UUID, mutate func(*model.ProfileRecord)) MirrorStatus {
	u, err := c.users.FindByID(ctx, userID)
	if err != nil {
		return c.diverged(userID, "load", err)
	}
	rec, err := c.Project(ctx, u)
	if err != nil {
		return c.diverged(userID, "project", err)
	}
	if prev, err := c.profiles.Get(ctx, rec.ID); err == nil {
		rec.LastLogin = prev.LastLogin
		rec.LastLogout = prev.LastLogout
	}
	if mutate != nil {
		mutate(rec)
	}
	if err := c.profiles.Put(ctx, rec); err != nil {
		return c.diverged(userID, "put", err)
	}
	return synced
}

func (c *Coordinator) diverged(userID uuid.UUID, step string, err error) MirrorStatus {
	log.Error().
		Err(err).
		Str("op", "dual_write_diverged").
		Str("step", step).
		Str("user_id", userID.String()).
		Msg("profile cache not updated after relational commit")
	return MirrorStatus{Synced: false, Err: err}
}

// DeleteUser removes the user relationally in one transaction, then writes
// the archive snapshot and drops the profile record. A relational failure
// leaves both stores untouched.
func (c *Coordinator) DeleteUser(ctx context.Context, userID uuid.UUID) (*model.ArchivedUser, MirrorStatus, error) {
	var snap *model.ArchivedUser
	err := c.Commit(ctx, func(tx *gorm.DB) error {
		u, err := c.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		snap, err = c.snapshot(ctx, tx, u)
		if err != nil {
			return err
		}
		return c.users.Delete(ctx, tx, userID)
	})
	if err != nil {
		return nil, MirrorStatus{}, err
	}

	snap.DeletedAt = c.now().UTC()
	status := synced
	if err := c.archive.Archive(ctx, snap); err != nil {
		status = c.diverged(userID, "archive", err)
	}
	if err := c.profiles.Delete(ctx, snap.ID); err != nil {
		status = c.diverged(userID, "evict", err)
	}
	return snap, status, nil
}

func (c *Coordinator) snapshot(ctx context.Context, tx *gorm.DB, u *model.User) (*model.ArchivedUser, error) {
	roles, err := c.roles.UserRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	snap := &model.ArchivedUser{
		ID:          u.ID.String(),
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		CardNumber:  u.CardNumber,
		AccountType: u.AccountType,
		Type:        u.Kind,
		Validated:   u.Validated,
		Roles:       roleNames(roles),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
	w, err := c.wallets.FindByUserID(ctx, tx, u.ID)
	switch {
	case err == nil:
		id, bal := w.ID.String(), w.Balance.StringFixed(2)
		snap.WalletID, snap.WalletBalance = &id, &bal
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return snap, nil
}

// Resolve finds a user by key, trying each field against the profile cache
// first and then the credential store. kind "" accepts any subtype. A cache
// hit whose id no longer exists relationally is ignored.
func (c *Coordinator) Resolve(ctx context.Context, key string, kind model.UserKind, fields ...repository.LookupField) (*model.User, error) {
	for _, f := range fields {
		rec, err := c.profiles.FindBy(ctx, f, key)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				log.Warn().Err(err).Str("field", string(f)).Msg("profile cache lookup failed, falling back")
			}
			continue
		}
		if kind != "" && rec.Type != kind {
			continue
		}
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			continue
		}
		u, err := c.users.FindByID(ctx, id)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	for _, f := range fields {
		u, err := c.users.FindBy(ctx, f, key, kind)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return nil, repository.ErrNotFound
}

// Profile returns the cached record, rebuilding it when missing.
func (c *Coordinator) Profile(ctx context.Context, userID uuid.UUID) (*model.ProfileRecord, error) {
	rec, err := c.profiles.Get(ctx, userID.String())
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("profile cache read failed")
	}
	if st := c.Mirror(ctx, userID); !st.Synced {
		u, err := c.users.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return c.Project(ctx, u)
	}
	return c.profiles.Get(ctx, userID.String())
}

func roleNames(roles []model.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.Name
	}
	return out
}
