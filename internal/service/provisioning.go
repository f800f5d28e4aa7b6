package service

import (
	"context"
	"fmt"
	"strings"

	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Built-in roles.
const (
	RoleAdmin  = "admin"
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

func codeRange(prefix string, from, to int) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}

// RoleCatalogue lists the permission codes each built-in role is provisioned with.
var RoleCatalogue = map[string][]string{
	RoleAdmin:  codeRange("adm", 101, 108),
	RoleBuyer:  codeRange("buy", 101, 108),
	RoleSeller: codeRange("sel", 101, 108),
}

// RoleForKind is the catalogue role a freshly registered user receives.
func RoleForKind(k model.UserKind) string {
	switch k {
	case model.KindManager:
		return RoleAdmin
	case model.KindSeller:
		return RoleSeller
	default:
		return RoleBuyer
	}
}

// ProvisionResult is the outcome of ProvisionRole. Role is nil exactly when
// Err is set.
type ProvisionResult struct {
	Role        *model.Role
	Permissions []string
	Err         error
}

func (r ProvisionResult) OK() bool { return r.Err == nil && r.Role != nil }

// Provisioner resolves or creates roles and their permission sets.
type Provisioner interface {
	// ProvisionRole makes sure role name exists with at least codes attached.
	// When subject is set the user's roles are replaced by that single role.
	// It runs in a savepoint of tx (or its own transaction when tx is nil);
	// on failure only that savepoint is rolled back.
	ProvisionRole(ctx context.Context, tx *gorm.DB, name string, codes []string, subject *uuid.UUID) ProvisionResult
}

type provisioner struct {
	roles repository.RoleRepository
}

func NewProvisioner(roles repository.RoleRepository) Provisioner {
	return &provisioner{roles: roles}
}

func (p *provisioner) ProvisionRole(ctx context.Context, tx *gorm.DB, name string, codes []string, subject *uuid.UUID) ProvisionResult {
	name = strings.TrimSpace(name)
	if name == "" {
		return ProvisionResult{Err: validationErr("role name is required")}
	}
	codes = dedupeCodes(codes)

	var res ProvisionResult
	err := runNested(ctx, p.roles.DB(), tx, func(tx *gorm.DB) error {
		role, err := p.roles.EnsureRole(ctx, tx, name, name+" role")
		if err != nil {
			return fmt.Errorf("role %q: %w", name, err)
		}
		for _, code := range codes {
			perm, err := p.roles.EnsurePermission(ctx, tx, code, code+" permission")
			if err != nil {
				return fmt.Errorf("permission %q: %w", code, err)
			}
			if err := p.roles.AttachPermission(ctx, tx, role.ID, perm.ID); err != nil {
				return fmt.Errorf("attach %q to %q: %w", code, name, err)
			}
		}
		if subject != nil {
			if err := p.roles.ReplaceUserRoles(ctx, tx, *subject, role.ID); err != nil {
				return fmt.Errorf("assign %q: %w", name, err)
			}
		}
		attached, err := p.roles.RolePermissionCodes(ctx, tx, role.ID)
		if err != nil {
			return err
		}
		res = ProvisionResult{Role: role, Permissions: attached}
		return nil
	})
	if err != nil {
		ev := log.Error().Err(err).Str("op", "provision_role").Str("role", name)
		if subject != nil {
			ev = ev.Str("user_id", subject.String())
		}
		ev.Msg("role provisioning rolled back")
		return ProvisionResult{Err: fmt.Errorf("%w: %v", ErrProvisionFailed, err)}
	}
	return res
}

func dedupeCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
