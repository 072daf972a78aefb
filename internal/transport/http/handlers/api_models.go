package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/transport/http/middleware"
	"github.com/arklim/reviewapp-auth/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary is the user view returned right after registration.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserProfile is the user view returned to signed-in clients. Token is only
// present when a session was just issued.
type UserProfile struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	IsVerified bool        `json:"isVerified"`
	Token      string      `json:"token,omitempty"`
}

func newUserProfile(user domain.PublicUser) UserProfile {
	return UserProfile{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	}
}

func newSessionProfile(session *usecase.Session) UserProfile {
	profile := newUserProfile(session.User)
	profile.Token = session.Token
	return profile
}

// CreateUserRequest is the payload of POST /api/user/create.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserResponse is returned for a new pending account.
type CreateUserResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// SignInRequest is the payload of POST /api/user/sign-in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest carries the emailed OTP.
type VerifyEmailRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"OTP"`
}

// ResendVerificationRequest asks for a fresh OTP.
type ResendVerificationRequest struct {
	UserID string `json:"userId"`
}

// ForgetPasswordRequest starts the reset flow.
type ForgetPasswordRequest struct {
	Email string `json:"email"`
}

// ResetCapabilityRequest is the (token, userId) pair from the reset link.
type ResetCapabilityRequest struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	NewPassword string `json:"newPassword"`
}

// SessionResponse wraps a user with a freshly issued session token.
type SessionResponse struct {
	User    UserProfile `json:"user"`
	Message string      `json:"message,omitempty"`
}

// UserResponse wraps the authenticated user.
type UserResponse struct {
	User UserProfile `json:"user"`
}

// ValidResponse reports a usable reset link.
type ValidResponse struct {
	Valid bool `json:"valid"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
