package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a named bundle of permissions. Names are globally unique and roles
// are shared by every user holding them.
type Role struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string    `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Permission is a single capability identified by its unique code (e.g. "buy101").
type Permission struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Code        string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string    `gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Permission) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// RolePermission is one edge of the role → permission graph.
type RolePermission struct {
	RoleID       uuid.UUID  `gorm:"type:char(36);primaryKey"`
	PermissionID uuid.UUID  `gorm:"type:char(36);primaryKey;index"`
	Role         Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	Permission   Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE"`
}

// UserRole is one edge of the user → role graph.
type UserRole struct {
	UserID uuid.UUID `gorm:"type:char(36);primaryKey"`
	RoleID uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	User   User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Role   Role      `gorm:"foreignKey:RoleID"`
}

// UserSpecificPermission overrides whatever the user's roles say about one
// permission: IsGranted=true grants it, false revokes it.
type UserSpecificPermission struct {
	UserID       uuid.UUID  `gorm:"type:char(36);primaryKey"`
	PermissionID uuid.UUID  `gorm:"type:char(36);primaryKey"`
	IsGranted    bool       `gorm:"not null"`
	User         User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Permission   Permission `gorm:"foreignKey:PermissionID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PermissionOverride is the code-level view of a UserSpecificPermission row.
type PermissionOverride struct {
	Code      string `json:"code"`
	IsGranted bool   `json:"is_granted"`
}
