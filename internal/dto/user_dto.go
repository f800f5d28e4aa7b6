package dto

import "time"

// RegisterRequest accepts both "phone" and "phone_number" for the phone.
type RegisterRequest struct {
	FullName    string  `json:"fullName"     validate:"required,min=2,max=80"`
	Email       string  `json:"email"        validate:"required,email,max=120"`
	Password    string  `json:"password"     validate:"required,min=6,max=72"`
	Phone       *string `json:"phone"        validate:"omitempty,max=120"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=120"`
	CardNumber  *string `json:"card_number"  validate:"omitempty,numeric,min=12,max=19"`
	AccountType *string `json:"account_type" validate:"omitempty,max=50"`
}

// ResolvedPhone prefers phone_number over phone.
func (r RegisterRequest) ResolvedPhone() *string {
	if r.PhoneNumber != nil && *r.PhoneNumber != "" {
		return r.PhoneNumber
	}
	return r.Phone
}

// UpdateUserRequest identifies the user by id, email or card number in ID.
type UpdateUserRequest struct {
	ID          string  `json:"id"           validate:"required"`
	FullName    *string `json:"full_name"    validate:"omitempty,min=2,max=80"`
	Email       *string `json:"email"        validate:"omitempty,email,max=120"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=120"`
	CardNumber  *string `json:"card_number"  validate:"omitempty,numeric,min=12,max=19"`
}

type RegisterResponse struct {
	Message     string       `json:"message"`
	User        UserResponse `json:"user"`
	Permissions []string     `json:"permissions"`
	Roles       []RoleRef    `json:"roles"`
	Token       string       `json:"token"`
	LastLogin   time.Time    `json:"last_login"`
	CacheSynced bool         `json:"cache_synced"`
}

type UpdateUserResponse struct {
	Message     string       `json:"message"`
	User        UserResponse `json:"user"`
	CacheSynced bool         `json:"cache_synced"`
}

type DeleteUserResponse struct {
	Message     string    `json:"message"`
	ID          string    `json:"id"`
	DeletedAt   time.Time `json:"deleted_at"`
	CacheSynced bool      `json:"cache_synced"`
}

// UserDetailResponse is the manager view of one user.
type UserDetailResponse struct {
	User        UserResponse `json:"user"`
	Roles       []RoleRef    `json:"roles"`
	Permissions []string     `json:"permissions"`
	WalletID    *string      `json:"wallet_id,omitempty"`
	LastLogin   *time.Time   `json:"last_login,omitempty"`
	LastLogout  *time.Time   `json:"last_logout,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type UserListResponse struct {
	Type  string         `json:"type"`
	Total int            `json:"total"`
	Users []UserResponse `json:"users"`
}

type ArchivedUserResponse struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	UserType      string    `json:"user_type"`
	Roles         []string  `json:"roles"`
	WalletID      *string   `json:"wallet_id,omitempty"`
	WalletBalance *string   `json:"wallet_balance,omitempty"`
	DeletedAt     time.Time `json:"deleted_at"`
}
