package domain

import "time"

// Role enumerates the account roles known to the review application.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User mirrors the persisted representation in the users table.
type User struct {
	ID                string
	Name              string
	Email             string
	PasswordHash      string
	Role              Role
	IsVerified        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	VerifiedAt        *time.Time
	PasswordChangedAt *time.Time
}

// Validate rejects records missing required fields.
func (u User) Validate() error {
	switch {
	case u.ID == "":
		return NewError(ErrValidation, "user id is required")
	case u.Name == "":
		return NewError(ErrValidation, "user name is required")
	case u.Email == "":
		return NewError(ErrValidation, "user email is required")
	case u.PasswordHash == "":
		return NewError(ErrValidation, "user password hash is required")
	case !u.Role.Valid():
		return NewError(ErrValidation, "user role is invalid")
	}
	return nil
}

// PublicUser is the projection of a user that may leave the service.
type PublicUser struct {
	ID         string
	Name       string
	Email      string
	Role       Role
	IsVerified bool
}

// Public strips credential material from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}

// PasswordContext carries user inputs that strength checks should penalise.
type PasswordContext struct {
	Name  string
	Email string
}
