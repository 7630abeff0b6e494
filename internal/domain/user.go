package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxUsernameLength = 64
	MinPasswordLength = 8
)

// User representa uma conta local usada para proteger as capturas
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateCredentials valida usuário e senha antes do cadastro
func ValidateCredentials(username, password string) error {
	if username == "" || password == "" {
		return ErrCredentialsRequired
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return ErrValidationFailed.WithError(errors.New("username must be at most 64 characters"))
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrValidationFailed.WithError(errors.New("password must be at least 8 characters"))
	}
	return nil
}
