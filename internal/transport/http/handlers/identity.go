package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/transport/http/middleware"
	"github.com/arklim/reviewapp-auth/internal/usecase"
)

const (
	msgInvalidPayload = "Invalid request payload"
	msgOTPSent        = "Please verify your email. OTP has been sent to your email account."
	msgOTPResent      = "Please check your email. OTP has been sent to your email account."
	msgEmailVerified  = "Your Email is Verified"
	msgResetLinkSent  = "Link sent to Your Email"
	msgPasswordReset  = "Password reset successful, now you can use your new password."
	msgInvalidSession = "Invalid Token!"
)

// IdentityHandler exposes the account verification, sign-in and password
// reset endpoints under /api/user.
type IdentityHandler struct {
	identity *usecase.IdentityService
	logger   *zap.Logger
}

func NewIdentityHandler(identity *usecase.IdentityService, logger *zap.Logger) *IdentityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityHandler{identity: identity, logger: logger}
}

// Create registers a pending account and emails its verification OTP.
func (h *IdentityHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.identity.Register(c.Request.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		RespondWithMappedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, CreateUserResponse{
		Message: msgOTPSent,
		User:    UserSummary{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// SignIn exchanges credentials for a session token. Unverified accounts may
// sign in; the response reports isVerified.
func (h *IdentityHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.identity.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{User: newSessionProfile(session)})
}

// VerifyEmail confirms the OTP and signs the user in.
func (h *IdentityHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if !h.bind(c, &req) {
		return
	}

	session, err := h.identity.Confirm(c.Request.Context(), req.UserID, req.OTP)
	if err != nil {
		RespondWithMappedError(c, h.logger, err,
			ErrorCase{Err: usecase.ErrTokenNotFound, Status: http.StatusBadRequest},
		)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		User:    newSessionProfile(session),
		Message: msgEmailVerified,
	})
}

// ResendVerification replaces the pending OTP with a fresh one.
func (h *IdentityHandler) ResendVerification(c *gin.Context) {
	var req ResendVerificationRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.identity.Resend(c.Request.Context(), req.UserID); err != nil {
		RespondWithMappedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: msgOTPResent})
}

// ForgetPassword emails a reset link. Unknown accounts get the same answer
// as known ones.
func (h *IdentityHandler) ForgetPassword(c *gin.Context) {
	var req ForgetPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	if _, err := h.identity.RequestReset(c.Request.Context(), req.Email); err != nil && !errors.Is(err, usecase.ErrUserNotFound) {
		RespondWithMappedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: msgResetLinkSent})
}

// VerifyPasswordResetToken checks a reset link without consuming it.
func (h *IdentityHandler) VerifyPasswordResetToken(c *gin.Context) {
	var req ResetCapabilityRequest
	if !h.bind(c, &req) {
		return
	}

	if _, err := h.identity.ValidateResetCapability(c.Request.Context(), req.Token, req.UserID); err != nil {
		RespondWithMappedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ValidResponse{Valid: true})
}

// ResetPassword sets a new password through a live reset link.
func (h *IdentityHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	err := h.identity.CompleteReset(c.Request.Context(), usecase.CompleteResetInput{
		Token:       req.Token,
		UserID:      req.UserID,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		RespondWithMappedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: msgPasswordReset})
}

// IsAuth returns the user behind the bearer session. It must run after
// middleware.RequireAuth.
func (h *IdentityHandler) IsAuth(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, msgInvalidSession))
		return
	}

	user, err := h.identity.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{User: newUserProfile(user)})
}

func (h *IdentityHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, msgInvalidPayload))
		return false
	}
	return true
}
