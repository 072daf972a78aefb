package domain

import "time"

// UserRegisteredEvent represents the payload for auth.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Name         string
	Email        string
	Role         Role
	RegisteredAt time.Time
}

// UserVerifiedEvent represents the payload for auth.user.verified messages.
type UserVerifiedEvent struct {
	EventID    string
	UserID     string
	VerifiedAt time.Time
}

// PasswordResetRequestedEvent represents the payload for auth.user.password.reset_requested messages.
type PasswordResetRequestedEvent struct {
	EventID           string
	UserID            string
	RequestedAt       time.Time
	ExpiresAt         time.Time
	MaskedDestination string
}

// PasswordChangedEvent represents the payload for auth.user.password.changed messages.
type PasswordChangedEvent struct {
	EventID   string
	UserID    string
	ChangedAt time.Time
	Reason    string
}
