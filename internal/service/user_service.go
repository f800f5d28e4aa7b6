package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"swiftaza/internal/dto"
	"swiftaza/internal/infra"
	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// bcryptCost is a variable so tests can lower it.
var bcryptCost = 12

// UserService covers registration and the account lifecycle of buyers,
// sellers and managers.
type UserService interface {
	Register(ctx context.Context, kind model.UserKind, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	Update(ctx context.Context, kind model.UserKind, req dto.UpdateUserRequest) (*dto.UpdateUserResponse, error)
	DeleteByFullName(ctx context.Context, kind model.UserKind, fullName string) (*dto.DeleteUserResponse, error)
	// DeleteByKey deletes any user by id or email.
	DeleteByKey(ctx context.Context, key string) (*dto.DeleteUserResponse, error)
	List(ctx context.Context, kind model.UserKind) (*dto.UserListResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.UserDetailResponse, error)
	GetByEmail(ctx context.Context, email string) (*dto.UserDetailResponse, error)
	// GetByCardNumber and DeleteByCardNumber serve the card-holder flow.
	GetByCardNumber(ctx context.Context, cardNumber string) (*dto.UserDetailResponse, error)
	DeleteByCardNumber(ctx context.Context, cardNumber string) (*dto.DeleteUserResponse, error)
	DeletedUsers(ctx context.Context, limit int64) ([]dto.ArchivedUserResponse, error)
}

type userService struct {
	users       repository.UserRepository
	roles       repository.RoleRepository
	archive     repository.ArchiveRepository
	provisioner Provisioner
	coord       *Coordinator
	verify      VerificationService
	tokens      *TokenIssuer
	events      infra.EventPublisher
}

func NewUserService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	archive repository.ArchiveRepository,
	provisioner Provisioner,
	coord *Coordinator,
	verify VerificationService,
	tokens *TokenIssuer,
	events infra.EventPublisher,
) UserService {
	return &userService{
		users:       users,
		roles:       roles,
		archive:     archive,
		provisioner: provisioner,
		coord:       coord,
		verify:      verify,
		tokens:      tokens,
		events:      events,
	}
}

// ── Register ─────────────────────────────────────────────────────────────────
//  1. reject duplicate email, and duplicate full name within the same kind
//  2. BEGIN: insert user + subtype row, provision the kind's role (savepoint)
//  3. COMMIT, then mirror into the profile cache
//  4. queue the verification email and publish user.registered

func (s *userService) Register(ctx context.Context, kind model.UserKind, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if !kind.Valid() {
		return nil, validationErr("invalid user type %q", kind)
	}
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if fullName == "" || email == "" || req.Password == "" {
		return nil, validationErr("user missing a credential")
	}

	taken, err := s.users.EmailTaken(ctx, email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateUser
	}
	if _, err := s.users.FindBy(ctx, repository.ByFullName, fullName, kind); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:           uuid.New(),
		FullName:     fullName,
		Email:        email,
		PhoneNumber:  req.ResolvedPhone(),
		CardNumber:   req.CardNumber,
		AccountType:  req.AccountType,
		PasswordHash: string(hash),
		Kind:         kind,
	}

	var prov ProvisionResult
	txErr := s.coord.Commit(ctx, func(tx *gorm.DB) error {
		if err := s.users.Create(ctx, tx, u); err != nil {
			return err
		}
		role := RoleForKind(kind)
		prov = s.provisioner.ProvisionRole(ctx, tx, role, RoleCatalogue[role], &u.ID)
		if !prov.OK() {
			return prov.Err
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, repository.ErrConflict) {
			return nil, ErrDuplicateUser
		}
		return nil, txErr
	}

	status := s.coord.Mirror(ctx, u.ID)
	if err := s.verify.SendCode(ctx, u.Email, u.FullName); err != nil {
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("verification email not queued")
	}
	publish(ctx, s.events, infra.EventUserRegistered, u.ID.String(), u.Email, string(kind))

	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &dto.RegisterResponse{
		Message:     fmt.Sprintf("%s registered successfully", titleKind(kind)),
		User:        userToResponse(u),
		Permissions: prov.Permissions,
		Roles:       []dto.RoleRef{{ID: prov.Role.ID.String(), Name: prov.Role.Name}},
		Token:       token,
		LastLogin:   time.Now().UTC(),
		CacheSynced: status.Synced,
	}, nil
}

// ── Update ───────────────────────────────────────────────────────────────────

func (s *userService) Update(ctx context.Context, kind model.UserKind, req dto.UpdateUserRequest) (*dto.UpdateUserResponse, error) {
	u, err := s.coord.Resolve(ctx, req.ID, kind, repository.ByID, repository.ByEmail, repository.ByCardNumber)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		taken, err := s.users.EmailTaken(ctx, email, u.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateUser
		}
		u.Email = email
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, validationErr("full name cannot be empty")
		}
		other, err := s.users.FindBy(ctx, repository.ByFullName, name, u.Kind)
		switch {
		case err == nil && other.ID != u.ID:
			return nil, ErrDuplicateUser
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		u.FullName = name
	}
	if req.CardNumber != nil {
		card := strings.TrimSpace(*req.CardNumber)
		other, err := s.users.FindBy(ctx, repository.ByCardNumber, card, "")
		switch {
		case err == nil && other.ID != u.ID:
			return nil, ErrDuplicateUser
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
		u.CardNumber = &card
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = req.PhoneNumber
	}

	if err := s.coord.Commit(ctx, func(tx *gorm.DB) error {
		return s.users.Update(ctx, tx, u)
	}); err != nil {
		return nil, err
	}
	status := s.coord.Mirror(ctx, u.ID)
	return &dto.UpdateUserResponse{
		Message:     fmt.Sprintf("%s updated successfully", titleKind(u.Kind)),
		User:        userToResponse(u),
		CacheSynced: status.Synced,
	}, nil
}

// ── Delete ───────────────────────────────────────────────────────────────────

func (s *userService) DeleteByFullName(ctx context.Context, kind model.UserKind, fullName string) (*dto.DeleteUserResponse, error) {
	u, err := s.coord.Resolve(ctx, fullName, kind, repository.ByFullName)
	if err != nil {
		return nil, err
	}
	return s.delete(ctx, u)
}

func (s *userService) DeleteByKey(ctx context.Context, key string) (*dto.DeleteUserResponse, error) {
	u, err := s.coord.Resolve(ctx, key, "", repository.ByID, repository.ByEmail)
	if err != nil {
		return nil, err
	}
	return s.delete(ctx, u)
}

func (s *userService) DeleteByCardNumber(ctx context.Context, cardNumber string) (*dto.DeleteUserResponse, error) {
	u, err := s.coord.Resolve(ctx, strings.TrimSpace(cardNumber), "", repository.ByCardNumber)
	if err != nil {
		return nil, err
	}
	return s.delete(ctx, u)
}

func (s *userService) delete(ctx context.Context, u *model.User) (*dto.DeleteUserResponse, error) {
	snap, status, err := s.coord.DeleteUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, infra.EventUserDeleted, snap.ID, snap.Email, string(snap.Type))
	return &dto.DeleteUserResponse{
		Message:     fmt.Sprintf("%s deleted successfully", titleKind(u.Kind)),
		ID:          snap.ID,
		DeletedAt:   snap.DeletedAt,
		CacheSynced: status.Synced,
	}, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *userService) List(ctx context.Context, kind model.UserKind) (*dto.UserListResponse, error) {
	users, err := s.users.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	resp := &dto.UserListResponse{Type: "all", Total: len(users), Users: make([]dto.UserResponse, len(users))}
	if kind != "" {
		resp.Type = string(kind)
	}
	for i := range users {
		resp.Users[i] = userToResponse(&users[i])
	}
	return resp, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*dto.UserDetailResponse, error) {
	u, err := s.coord.Resolve(ctx, email, "", repository.ByEmail)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, u)
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*dto.UserDetailResponse, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, u)
}

func (s *userService) GetByCardNumber(ctx context.Context, cardNumber string) (*dto.UserDetailResponse, error) {
	u, err := s.coord.Resolve(ctx, strings.TrimSpace(cardNumber), "", repository.ByCardNumber)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, u)
}

func (s *userService) detail(ctx context.Context, u *model.User) (*dto.UserDetailResponse, error) {
	roles, err := s.roles.UserRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	rec, err := s.coord.Profile(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &dto.UserDetailResponse{
		User:        userToResponse(u),
		Roles:       roleRefs(roles),
		Permissions: rec.Permissions,
		WalletID:    rec.WalletID,
		LastLogin:   rec.LastLogin,
		LastLogout:  rec.LastLogout,
		CreatedAt:   u.CreatedAt,
	}, nil
}

func (s *userService) DeletedUsers(ctx context.Context, limit int64) ([]dto.ArchivedUserResponse, error) {
	recs, err := s.archive.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ArchivedUserResponse, len(recs))
	for i, r := range recs {
		out[i] = dto.ArchivedUserResponse{
			ID:            r.ID,
			FullName:      r.FullName,
			Email:         r.Email,
			UserType:      string(r.Type),
			Roles:         r.Roles,
			WalletID:      r.WalletID,
			WalletBalance: r.WalletBalance,
			DeletedAt:     r.DeletedAt,
		}
	}
	return out, nil
}

// ── Mapping helpers ──────────────────────────────────────────────────────────

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID.String(),
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		CardNumber:  u.CardNumber,
		AccountType: u.AccountType,
		UserType:    string(u.Kind),
		Validated:   u.Validated,
	}
}

func roleRefs(roles []model.Role) []dto.RoleRef {
	out := make([]dto.RoleRef, len(roles))
	for i, r := range roles {
		out[i] = dto.RoleRef{ID: r.ID.String(), Name: r.Name}
	}
	return out
}

func titleKind(k model.UserKind) string {
	if k == "" {
		return "User"
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}
