package models

import (
	"time"
)

// User is an account holder. Social sign-in users have an empty PasswordHash
// and a Provider/ProviderID pair.
type User struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Provider     *string   `gorm:"type:varchar(50);index:idx_users_provider_identity,priority:1" json:"provider,omitempty"`
	ProviderID   *string   `gorm:"type:varchar(255);index:idx_users_provider_identity,priority:2" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
