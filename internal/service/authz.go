package service

import (
	"context"
	"errors"
	"sort"

	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
)

// PermissionSet is a set of permission codes.
type PermissionSet map[string]struct{}

func NewPermissionSet(codes ...string) PermissionSet {
	s := make(PermissionSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s PermissionSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the members in lexical order.
func (s PermissionSet) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// MergePermissions applies overrides on top of the union of role codes.
// A granted override adds its code, a revoked one removes it, regardless of
// what the roles say.
func MergePermissions(roleCodes []string, overrides []model.PermissionOverride) PermissionSet {
	set := NewPermissionSet(roleCodes...)
	for _, o := range overrides {
		if o.IsGranted {
			set[o.Code] = struct{}{}
		} else {
			delete(set, o.Code)
		}
	}
	return set
}

// Authorizer answers permission questions against the credential store.
type Authorizer interface {
	EffectivePermissions(ctx context.Context, userID uuid.UUID) (PermissionSet, error)
	HasPermission(ctx context.Context, userID uuid.UUID, code string) (bool, error)
	// HasAny reports whether the user holds at least one of codes.
	HasAny(ctx context.Context, userID uuid.UUID, codes ...string) (bool, error)
}

type authorizer struct {
	roles repository.RoleRepository
}

func NewAuthorizer(roles repository.RoleRepository) Authorizer {
	return &authorizer{roles: roles}
}

func (a *authorizer) EffectivePermissions(ctx context.Context, userID uuid.UUID) (PermissionSet, error) {
	codes, err := a.roles.UserRolePermissionCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	overrides, err := a.roles.Overrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	return MergePermissions(codes, overrides), nil
}

func (a *authorizer) HasPermission(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	o, err := a.roles.OverrideFor(ctx, userID, code)
	switch {
	case err == nil:
		return o.IsGranted, nil
	case !errors.Is(err, repository.ErrNotFound):
		return false, err
	}
	return a.roles.UserRoleHasPermission(ctx, userID, code)
}

func (a *authorizer) HasAny(ctx context.Context, userID uuid.UUID, codes ...string) (bool, error) {
	if len(codes) == 0 {
		return false, nil
	}
	set, err := a.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, c := range codes {
		if set.Has(c) {
			return true, nil
		}
	}
	return false, nil
}
