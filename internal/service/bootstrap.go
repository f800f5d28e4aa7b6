package service

import (
	"context"
	"errors"
	"fmt"

	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ManagerSeed describes the manager account BootstrapManager creates or refreshes.
type ManagerSeed struct {
	Email    string
	FullName string
	Password string
}

// BootstrapResult reports what BootstrapManager did.
type BootstrapResult struct {
	User    *model.User
	Created bool
	Mirror  MirrorStatus
}

// BootstrapManager creates a validated manager holding the admin role, or
// resets the password and role of an existing one. Manager registration over
// HTTP requires a manager, so the first account comes from here.
func BootstrapManager(ctx context.Context, users repository.UserRepository, prov Provisioner, coord *Coordinator, seed ManagerSeed) (*BootstrapResult, error) {
	if seed.Email == "" || seed.Password == "" {
		return nil, validationErr("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := users.FindBy(ctx, repository.ByEmail, seed.Email, "")
	switch {
	case errors.Is(err, repository.ErrNotFound):
		u = &model.User{ID: uuid.New(), FullName: seed.FullName, Email: seed.Email, Kind: model.KindManager}
	case err != nil:
		return nil, err
	case u.Kind != model.KindManager:
		return nil, fmt.Errorf("%w: %s belongs to a %s account", repository.ErrConflict, seed.Email, u.Kind)
	}
	created := u.CreatedAt.IsZero()
	u.PasswordHash = string(hash)
	u.Validated = true

	err = coord.Commit(ctx, func(tx *gorm.DB) error {
		if created {
			if err := users.Create(ctx, tx, u); err != nil {
				return err
			}
		} else if err := users.Update(ctx, tx, u); err != nil {
			return err
		}
		return prov.ProvisionRole(ctx, tx, RoleAdmin, RoleCatalogue[RoleAdmin], &u.ID).Err
	})
	if err != nil {
		return nil, err
	}
	return &BootstrapResult{User: u, Created: created, Mirror: coord.Mirror(ctx, u.ID)}, nil
}
