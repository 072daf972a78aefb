package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
)

const internalErrorMessage = "Internal Server Error"

// ErrorCase maps a sentinel error to an HTTP status code and response message.
// An empty Message keeps the error's own text.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases and
// falls back to the status of its error class.
func RespondWithMappedError(c *gin.Context, log *zap.Logger, err error, cases ...ErrorCase) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil || !errors.Is(err, cs.Err) {
			continue
		}
		msg := cs.Message
		if msg == "" {
			msg = err.Error()
		}
		c.JSON(cs.Status, NewErrorResponse(c, msg))
		return
	}

	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), log).Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, NewErrorResponse(c, internalErrorMessage))
		return
	}
	c.JSON(status, NewErrorResponse(c, err.Error()))
}

// StatusForError maps an error class to its HTTP status. Unclassified errors
// are internal.
func StatusForError(err error) int {
	switch domain.Class(err) {
	case domain.ErrValidation, domain.ErrCapability:
		return http.StatusBadRequest
	case domain.ErrAuthentication:
		return http.StatusUnauthorized
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
