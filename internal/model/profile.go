package model

import "time"

// ProfileRecord is the denormalized copy of a user kept in the document
// store for fast lookup. It is derived from the credential store at write
// time and never authoritative.
type ProfileRecord struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	CardNumber  *string    `json:"card_number,omitempty"`
	Type        UserKind   `json:"type"`
	Permissions []string   `json:"permissions"`
	Roles       []string   `json:"roles"`
	Validated   bool       `json:"validated"`
	WalletID    *string    `json:"wallet_id,omitempty"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	LastLogout  *time.Time `json:"last_logout,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasAny reports whether the record lists at least one of codes.
func (p *ProfileRecord) HasAny(codes ...string) bool {
	for _, held := range p.Permissions {
		for _, c := range codes {
			if held == c {
				return true
			}
		}
	}
	return false
}

// ArchivedUser is the snapshot written to the deleted-user archive. The
// password hash is deliberately not carried over.
type ArchivedUser struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	PhoneNumber   *string   `json:"phone_number,omitempty"`
	CardNumber    *string   `json:"card_number,omitempty"`
	AccountType   *string   `json:"account_type,omitempty"`
	Type          UserKind  `json:"type"`
	Validated     bool      `json:"validated"`
	Roles         []string  `json:"roles"`
	WalletID      *string   `json:"wallet_id,omitempty"`
	WalletBalance *string   `json:"wallet_balance,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DeletedAt     time.Time `json:"deleted_at"`
}
