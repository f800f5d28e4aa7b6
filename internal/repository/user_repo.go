package repository

import (
	"context"
	"strings"

	"swiftaza/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LookupField names a candidate key for resolving a user.
type LookupField string

const (
	ByID         LookupField = "id"
	ByEmail      LookupField = "email"
	ByFullName   LookupField = "full_name"
	ByCardNumber LookupField = "card_number"
)

// UserRepository is the credential-store access contract for users.
// Methods taking a tx run inside the caller's transaction; a nil tx runs
// against the base connection.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, u *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// FindBy resolves a user by a single candidate key. kind "" matches any subtype.
	FindBy(ctx context.Context, field LookupField, value string, kind model.UserKind) (*model.User, error)
	List(ctx context.Context, kind model.UserKind) ([]model.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, u *model.User) error
	// Delete removes the user together with its subtype row, role links,
	// permission overrides and wallet.
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) DB() *gorm.DB { return r.db }

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.AttachProfile()
	return translate(conn(ctx, r.db, tx).Create(u).Error)
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) FindBy(ctx context.Context, field LookupField, value string, kind model.UserKind) (*model.User, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrNotFound
	}
	q := r.db.WithContext(ctx).Model(&model.User{})
	switch field {
	case ByID:
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, ErrNotFound
		}
		q = q.Where("id = ?", id)
	case ByEmail:
		q = q.Where("email = ?", normalizeEmail(value))
	case ByFullName:
		q = q.Where("full_name = ?", value)
	case ByCardNumber:
		q = q.Where("card_number = ?", value)
	default:
		return nil, ErrNotFound
	}
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}

	var u model.User
	if err := q.First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context, kind model.UserKind) ([]model.User, error) {
	var users []model.User
	q := r.db.WithContext(ctx).Order("created_at ASC")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Find(&users).Error
	return users, translate(err)
}

func (r *userRepo) EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", normalizeEmail(email))
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *userRepo) Update(ctx context.Context, tx *gorm.DB, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	return translate(conn(ctx, r.db, tx).Omit(clause.Associations).Save(u).Error)
}

func (r *userRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	db := conn(ctx, r.db, tx)
	dependents := []interface{}{
		&model.UserSpecificPermission{},
		&model.UserRole{},
		&model.Wallet{},
	}
	for _, m := range dependents {
		if err := db.Where("user_id = ?", id).Delete(m).Error; err != nil {
			return translate(err)
		}
	}
	for _, m := range []interface{}{&model.ManagerProfile{}, &model.SellerProfile{}, &model.BuyerProfile{}} {
		if err := db.Where("id = ?", id).Delete(m).Error; err != nil {
			return translate(err)
		}
	}
	res := db.Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
