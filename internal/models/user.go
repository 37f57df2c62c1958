package models

import (
	"strconv"
	"strings"
	"time"
)

// User is a signed-in closet owner. Its ID keys the credit account, the
// closet and the billing subscriber.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser trims the identity fields and lower-cases the email.
func NewUser(username, email, phone, passwordHash string) User {
	return User{
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: passwordHash,
	}
}

// SubjectID renders a user ID the way tokens and the billing platform
// address it.
func SubjectID(id int64) string {
	return strconv.FormatInt(id, 10)
}
