package models

import (
	"strings"
	"time"
)

// User represents a row in the PostgreSQL users table.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// SignupParams carries the fields of the sign-up form (POST /users).
type SignupParams struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// FieldErrors maps form field names to validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+" "+msg)
	}
	return strings.Join(parts, "; ")
}

// Validate checks the sign-up fields that can be rejected without
// touching the database. Email uniqueness is enforced by the store.
func (p SignupParams) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(p.Email) == "" {
		errs["email"] = "can't be blank"
	}
	if p.Password == "" {
		errs["password"] = "can't be blank"
	}
	if p.Password != p.PasswordConfirmation {
		errs["password_confirmation"] = "doesn't match password"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
