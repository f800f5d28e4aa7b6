package service

import (
	"context"
	"fmt"
	"strings"

	"swiftaza/internal/dto"
	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PermissionService manages role assignment and per-user overrides.
type PermissionService interface {
	UserPermissions(ctx context.Context, userID uuid.UUID) (*dto.UserPermissionsResponse, error)
	Check(ctx context.Context, userID uuid.UUID, code string) (*dto.PermissionCheckResponse, error)
	// AssignRole replaces the user's roles with one catalogue role.
	AssignRole(ctx context.Context, userKey, role string) (*dto.UserPermissionsResponse, error)
	SetOverrides(ctx context.Context, userKey string, items []dto.OverrideItem) (*dto.UserPermissionsResponse, error)
	RemoveOverride(ctx context.Context, userKey, code string) (*dto.UserPermissionsResponse, error)
}

type permissionService struct {
	roles       repository.RoleRepository
	provisioner Provisioner
	authz       Authorizer
	coord       *Coordinator
}

func NewPermissionService(roles repository.RoleRepository, provisioner Provisioner, authz Authorizer, coord *Coordinator) PermissionService {
	return &permissionService{roles: roles, provisioner: provisioner, authz: authz, coord: coord}
}

func (s *permissionService) UserPermissions(ctx context.Context, userID uuid.UUID) (*dto.UserPermissionsResponse, error) {
	perms, err := s.authz.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.roles.Overrides(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &dto.UserPermissionsResponse{
		UserID:      userID.String(),
		Permissions: perms.Codes(),
		Roles:       roleRefs(roles),
		Overrides:   make([]dto.OverrideResponse, len(overrides)),
	}
	for i, o := range overrides {
		resp.Overrides[i] = dto.OverrideResponse{Code: o.Code, IsGranted: o.IsGranted}
	}
	return resp, nil
}

func (s *permissionService) Check(ctx context.Context, userID uuid.UUID, code string) (*dto.PermissionCheckResponse, error) {
	ok, err := s.authz.HasPermission(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	return &dto.PermissionCheckResponse{Code: code, Granted: ok}, nil
}

func (s *permissionService) AssignRole(ctx context.Context, userKey, role string) (*dto.UserPermissionsResponse, error) {
	codes, ok := RoleCatalogue[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	u, err := s.resolve(ctx, userKey)
	if err != nil {
		return nil, err
	}
	res := s.provisioner.ProvisionRole(ctx, nil, role, codes, &u.ID)
	if !res.OK() {
		return nil, res.Err
	}
	return s.afterWrite(ctx, u.ID)
}

func (s *permissionService) SetOverrides(ctx context.Context, userKey string, items []dto.OverrideItem) (*dto.UserPermissionsResponse, error) {
	if len(items) == 0 {
		return nil, validationErr("no permissions given")
	}
	u, err := s.resolve(ctx, userKey)
	if err != nil {
		return nil, err
	}
	err = s.coord.Commit(ctx, func(tx *gorm.DB) error {
		for _, it := range items {
			code := strings.TrimSpace(it.Code)
			if code == "" || it.IsGranted == nil {
				return validationErr("override needs code and is_granted")
			}
			perm, err := s.roles.EnsurePermission(ctx, tx, code, code+" permission")
			if err != nil {
				return err
			}
			if err := s.roles.SetOverride(ctx, tx, u.ID, perm.ID, *it.IsGranted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, u.ID)
}

func (s *permissionService) RemoveOverride(ctx context.Context, userKey, code string) (*dto.UserPermissionsResponse, error) {
	u, err := s.resolve(ctx, userKey)
	if err != nil {
		return nil, err
	}
	perm, err := s.roles.FindPermissionByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if err := s.coord.Commit(ctx, func(tx *gorm.DB) error {
		return s.roles.DeleteOverride(ctx, tx, u.ID, perm.ID)
	}); err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, u.ID)
}

func (s *permissionService) resolve(ctx context.Context, key string) (*model.User, error) {
	return s.coord.Resolve(ctx, key, "", repository.ByID, repository.ByEmail)
}

// afterWrite mirrors the new permission set into the cache and reports it.
func (s *permissionService) afterWrite(ctx context.Context, userID uuid.UUID) (*dto.UserPermissionsResponse, error) {
	status := s.coord.Mirror(ctx, userID)
	resp, err := s.UserPermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp.CacheSynced = &status.Synced
	return resp, nil
}
