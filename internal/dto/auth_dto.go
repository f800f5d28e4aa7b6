package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  int    `json:"code"  validate:"required,min=1001,max=9999"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserResponse struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	CardNumber  *string `json:"card_number,omitempty"`
	AccountType *string `json:"account_type,omitempty"`
	UserType    string  `json:"user_type"`
	Validated   bool    `json:"validated"`
}

type LoginResponse struct {
	Message     string       `json:"message"`
	Token       string       `json:"token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"` // seconds
	User        UserResponse `json:"user"`
	Permissions []string     `json:"permissions"`
	Roles       []RoleRef    `json:"roles"`
	LastLogin   time.Time    `json:"last_login"`
	CacheSynced bool         `json:"cache_synced"`
}

type StatusResponse struct {
	Message         string       `json:"message"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	UserType        string       `json:"user_type"`
	User            UserResponse `json:"user"`
	Permissions     []string     `json:"permissions"`
	Roles           []RoleRef    `json:"roles"`
	LastLogin       *time.Time   `json:"last_login"`
	LastLogout      *time.Time   `json:"last_logout,omitempty"`
}

type MessageResponse struct {
	Message     string `json:"message"`
	CacheSynced *bool  `json:"cache_synced,omitempty"`
}
