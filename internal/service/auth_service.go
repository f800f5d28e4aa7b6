package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"swiftaza/internal/dto"
	"swiftaza/internal/model"
	"swiftaza/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) (*dto.MessageResponse, error)
	Status(ctx context.Context, userID uuid.UUID) (*dto.StatusResponse, error)
	VerifyUser(ctx context.Context, req dto.VerifyUserRequest) (*dto.MessageResponse, error)
	ResendCode(ctx context.Context, email string) (*dto.MessageResponse, error)
}

type authService struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	coord  *Coordinator
	authz  Authorizer
	verify VerificationService
	tokens *TokenIssuer
	now    func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	coord *Coordinator,
	authz Authorizer,
	verify VerificationService,
	tokens *TokenIssuer,
) AuthService {
	return &authService{
		users:  users,
		roles:  roles,
		coord:  coord,
		authz:  authz,
		verify: verify,
		tokens: tokens,
		now:    time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	u, err := s.coord.Resolve(ctx, req.Email, "", repository.ByEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	perms, err := s.authz.EffectivePermissions(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.UserRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := s.coord.Touch(ctx, u.ID, func(rec *model.ProfileRecord) { rec.LastLogin = &now })

	return &dto.LoginResponse{
		Message:     "Login Successful",
		Token:       token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		User:        userToResponse(u),
		Permissions: perms.Codes(),
		Roles:       roleRefs(roles),
		LastLogin:   now,
		CacheSynced: status.Synced,
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) (*dto.MessageResponse, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	status := s.coord.Touch(ctx, userID, func(rec *model.ProfileRecord) { rec.LastLogout = &now })
	return &dto.MessageResponse{Message: "Successfully logged out", CacheSynced: &status.Synced}, nil
}

func (s *authService) Status(ctx context.Context, userID uuid.UUID) (*dto.StatusResponse, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.UserRoles(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	rec, err := s.coord.Profile(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &dto.StatusResponse{
		Message:         "User status retrieved successfully",
		IsAuthenticated: true,
		UserType:        string(u.Kind),
		User:            userToResponse(u),
		Permissions:     rec.Permissions,
		Roles:           roleRefs(roles),
		LastLogin:       rec.LastLogin,
		LastLogout:      rec.LastLogout,
	}, nil
}

func (s *authService) VerifyUser(ctx context.Context, req dto.VerifyUserRequest) (*dto.MessageResponse, error) {
	status, err := s.verify.Verify(ctx, req.Email, req.Code)
	if err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Message: "Account verified successfully", CacheSynced: &status.Synced}, nil
}

func (s *authService) ResendCode(ctx context.Context, email string) (*dto.MessageResponse, error) {
	u, err := s.users.FindBy(ctx, repository.ByEmail, strings.TrimSpace(email), "")
	if err != nil {
		return nil, err
	}
	if u.Validated {
		return &dto.MessageResponse{Message: "Account already verified"}, nil
	}
	if err := s.verify.SendCode(ctx, u.Email, u.FullName); err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Message: "Verification code sent"}, nil
}
