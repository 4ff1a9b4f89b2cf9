package models

import "time"

// Account is the identity-provider record behind a user. It owns credentials
// and confirmation state and never leaves the API.
type Account struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash      string     `gorm:"not null" json:"-"`
	DisplayName       string     `json:"display_name"`
	ConfirmationToken string     `gorm:"index" json:"-"`
	EmailConfirmedAt  *time.Time `json:"email_confirmed_at,omitempty"`
	IsAdmin           bool       `gorm:"default:false" json:"is_admin"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Confirmed reports whether the account's email address has been verified.
func (a *Account) Confirmed() bool {
	return a.EmailConfirmedAt != nil
}
