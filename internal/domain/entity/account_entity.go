package entity

import (
	"time"
)

// Account is the aggregate root for the account domain
// Passwords are stored as bcrypt hashes in PasswordHash field
//
// Accounts are created unverified; Verified flips exactly once when the
// verification token is redeemed.
type Account struct {
	ID           string
	LastName     string
	FirstName    string
	Email        string
	PasswordHash string
	DateOfBirth  time.Time
	Verified     bool
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountView is the part of an Account that may leave the service.
type AccountView struct {
	ID          string    `json:"id"`
	LastName    string    `json:"lastname"`
	FirstName   string    `json:"firstname"`
	Email       string    `json:"email"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Verified    bool      `json:"verified"`
	IsAdmin     bool      `json:"isAdmin"`
}

// View projects the account without its credential hash.
func (a *Account) View() AccountView {
	return AccountView{
		ID:          a.ID,
		LastName:    a.LastName,
		FirstName:   a.FirstName,
		Email:       a.Email,
		DateOfBirth: a.DateOfBirth,
		Verified:    a.Verified,
		IsAdmin:     a.IsAdmin,
	}
}
