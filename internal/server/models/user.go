// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account record. PasswordHash and SecretKey never leave the
// process; JSON encoding skips them.
type User struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	UserName        string    `json:"userName"`
	ProfileURL      string    `json:"profileUrl"`
	ProfileID       string    `json:"profileId"`
	MobileNumber    int64     `json:"mobileNumber,omitempty"`
	PasswordHash    []byte    `json:"-"`
	SecretKey       string    `json:"-"`
	ReferralCode    string    `json:"referralCode"`
	ReferredBy      *string   `json:"referredBy,omitempty"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	IsActivated     bool      `json:"isActivated"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FullName joins first and last name with a single space.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
