package repository

import (
	"context"
	"time"

	"swiftaza/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository covers roles, permissions, the two join tables and the
// per-user overrides.
type RoleRepository interface {
	FindRoleByName(ctx context.Context, tx *gorm.DB, name string) (*model.Role, error)
	// EnsureRole inserts the role unless the name already exists, then
	// returns the stored row.
	EnsureRole(ctx context.Context, tx *gorm.DB, name, description string) (*model.Role, error)
	FindPermissionByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Permission, error)
	EnsurePermission(ctx context.Context, tx *gorm.DB, code, description string) (*model.Permission, error)
	AttachPermission(ctx context.Context, tx *gorm.DB, roleID, permissionID uuid.UUID) error
	RolePermissionCodes(ctx context.Context, tx *gorm.DB, roleID uuid.UUID) ([]string, error)

	ReplaceUserRoles(ctx context.Context, tx *gorm.DB, userID uuid.UUID, roleIDs ...uuid.UUID) error
	UserRoles(ctx context.Context, userID uuid.UUID) ([]model.Role, error)
	// UserRolePermissionCodes is the distinct union of codes over every role the user holds.
	UserRolePermissionCodes(ctx context.Context, userID uuid.UUID) ([]string, error)
	UserRoleHasPermission(ctx context.Context, userID uuid.UUID, code string) (bool, error)

	Overrides(ctx context.Context, userID uuid.UUID) ([]model.PermissionOverride, error)
	OverrideFor(ctx context.Context, userID uuid.UUID, code string) (*model.PermissionOverride, error)
	SetOverride(ctx context.Context, tx *gorm.DB, userID, permissionID uuid.UUID, granted bool) error
	DeleteOverride(ctx context.Context, tx *gorm.DB, userID, permissionID uuid.UUID) error

	DB() *gorm.DB
}

type roleRepo struct{ db *gorm.DB }

func NewRoleRepository(db *gorm.DB) RoleRepository { return &roleRepo{db: db} }

func (r *roleRepo) DB() *gorm.DB { return r.db }

func (r *roleRepo) FindRoleByName(ctx context.Context, tx *gorm.DB, name string) (*model.Role, error) {
	var role model.Role
	if err := conn(ctx, r.db, tx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) EnsureRole(ctx context.Context, tx *gorm.DB, name, description string) (*model.Role, error) {
	role := &model.Role{Name: name, Description: description}
	err := conn(ctx, r.db, tx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(role).Error
	if err != nil {
		return nil, translate(err)
	}
	// A concurrent provisioner may have won the insert; the stored row is authoritative.
	return r.FindRoleByName(ctx, tx, name)
}

func (r *roleRepo) FindPermissionByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Permission, error) {
	var p model.Permission
	if err := conn(ctx, r.db, tx).Where("code = ?", code).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *roleRepo) EnsurePermission(ctx context.Context, tx *gorm.DB, code, description string) (*model.Permission, error) {
	p := &model.Permission{Code: code, Description: description}
	err := conn(ctx, r.db, tx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(p).Error
	if err != nil {
		return nil, translate(err)
	}
	return r.FindPermissionByCode(ctx, tx, code)
}

func (r *roleRepo) AttachPermission(ctx context.Context, tx *gorm.DB, roleID, permissionID uuid.UUID) error {
	link := &model.RolePermission{RoleID: roleID, PermissionID: permissionID}
	return translate(conn(ctx, r.db, tx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error)
}

func (r *roleRepo) RolePermissionCodes(ctx context.Context, tx *gorm.DB, roleID uuid.UUID) ([]string, error) {
	var codes []string
	err := conn(ctx, r.db, tx).
		Table("permissions p").
		Joins("JOIN role_permissions rp ON rp.permission_id = p.id").
		Where("rp.role_id = ?", roleID).
		Order("p.code").
		Pluck("p.code", &codes).Error
	return codes, translate(err)
}

func (r *roleRepo) ReplaceUserRoles(ctx context.Context, tx *gorm.DB, userID uuid.UUID, roleIDs ...uuid.UUID) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("user_id = ?", userID).Delete(&model.UserRole{}).Error; err != nil {
		return translate(err)
	}
	for _, id := range roleIDs {
		link := &model.UserRole{UserID: userID, RoleID: id}
		if err := db.Omit(clause.Associations).Create(link).Error; err != nil {
			return translate(err)
		}
	}
	return nil
}

func (r *roleRepo) UserRoles(ctx context.Context, userID uuid.UUID) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ur ON ur.role_id = roles.id").
		Where("ur.user_id = ?", userID).
		Order("roles.name").
		Find(&roles).Error
	return roles, translate(err)
}

func (r *roleRepo) UserRolePermissionCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Table("permissions p").
		Distinct("p.code").
		Joins("JOIN role_permissions rp ON rp.permission_id = p.id").
		Joins("JOIN user_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ?", userID).
		Order("p.code").
		Pluck("p.code", &codes).Error
	return codes, translate(err)
}

func (r *roleRepo) UserRoleHasPermission(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("permissions p").
		Joins("JOIN role_permissions rp ON rp.permission_id = p.id").
		Joins("JOIN user_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ? AND p.code = ?", userID, code).
		Count(&n).Error
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *roleRepo) Overrides(ctx context.Context, userID uuid.UUID) ([]model.PermissionOverride, error) {
	var out []model.PermissionOverride
	err := r.db.WithContext(ctx).
		Table("user_specific_permissions usp").
		Select("p.code AS code, usp.is_granted AS is_granted").
		Joins("JOIN permissions p ON p.id = usp.permission_id").
		Where("usp.user_id = ?", userID).
		Order("p.code").
		Scan(&out).Error
	return out, translate(err)
}

func (r *roleRepo) OverrideFor(ctx context.Context, userID uuid.UUID, code string) (*model.PermissionOverride, error) {
	var out []model.PermissionOverride
	err := r.db.WithContext(ctx).
		Table("user_specific_permissions usp").
		Select("p.code AS code, usp.is_granted AS is_granted").
		Joins("JOIN permissions p ON p.id = usp.permission_id").
		Where("usp.user_id = ? AND p.code = ?", userID, code).
		Limit(1).
		Scan(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

func (r *roleRepo) SetOverride(ctx context.Context, tx *gorm.DB, userID, permissionID uuid.UUID, granted bool) error {
	row := &model.UserSpecificPermission{UserID: userID, PermissionID: permissionID, IsGranted: granted}
	return translate(conn(ctx, r.db, tx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "permission_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"is_granted": granted, "updated_at": time.Now()}),
		}).
		Create(row).Error)
}

func (r *roleRepo) DeleteOverride(ctx context.Context, tx *gorm.DB, userID, permissionID uuid.UUID) error {
	res := conn(ctx, r.db, tx).
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		Delete(&model.UserSpecificPermission{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
