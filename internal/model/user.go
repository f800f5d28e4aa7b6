package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserKind is the subtype discriminator stored in users.kind.
type UserKind string

const (
	KindManager UserKind = "manager"
	KindSeller  UserKind = "seller"
	KindBuyer   UserKind = "buyer"
)

// ParseUserKind accepts the singular or plural form, case-insensitive.
func ParseUserKind(s string) (UserKind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "manager":
		return KindManager, nil
	case "seller":
		return KindSeller, nil
	case "buyer":
		return KindBuyer, nil
	}
	return "", fmt.Errorf("invalid user type %q", s)
}

func (k UserKind) Valid() bool {
	return k == KindManager || k == KindSeller || k == KindBuyer
}

// User is the single relational record for every account. Kind selects which
// of the subtype rows (managers / sellers / buyers) accompanies it.
type User struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	FullName     string    `gorm:"type:varchar(80);not null;index"`
	Email        string    `gorm:"type:varchar(120);uniqueIndex;not null"`
	PhoneNumber  *string   `gorm:"type:varchar(120)"`
	CardNumber   *string   `gorm:"type:varchar(32);uniqueIndex"`
	AccountType  *string   `gorm:"type:varchar(50)"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Kind         UserKind  `gorm:"type:varchar(20);not null;index"`
	Validated    bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Manager *ManagerProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Seller  *SellerProfile  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Buyer   *BuyerProfile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// AttachProfile sets the subtype block matching u.Kind so that creating the
// user also creates its row in managers / sellers / buyers.
func (u *User) AttachProfile() {
	switch u.Kind {
	case KindManager:
		u.Manager = &ManagerProfile{UserID: u.ID}
	case KindSeller:
		u.Seller = &SellerProfile{UserID: u.ID}
	case KindBuyer:
		u.Buyer = &BuyerProfile{UserID: u.ID}
	}
}

// ManagerProfile is the manager-specific block of a User.
type ManagerProfile struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey;column:id"`
	CreatedAt time.Time
}

func (ManagerProfile) TableName() string { return "managers" }

// SellerProfile is the seller-specific block of a User.
type SellerProfile struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey;column:id"`
	CreatedAt time.Time
}

func (SellerProfile) TableName() string { return "sellers" }

// BuyerProfile is the buyer-specific block of a User.
type BuyerProfile struct {
	UserID    uuid.UUID `gorm:"type:char(36);primaryKey;column:id"`
	CreatedAt time.Time
}

func (BuyerProfile) TableName() string { return "buyers" }
