package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/pkg/response"
)

const aiUnavailableMessage = "The assistant is unavailable right now, please try again later"

// statusFor maps application errors to an HTTP status and a client-safe
// message. Unknown errors are 500 and must be logged by the caller.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, application.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, application.ErrActionNotFound):
		return http.StatusNotFound, "action not found"
	case errors.Is(err, application.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, application.ErrInvalidActionType),
		errors.Is(err, application.ErrInvalidSwap),
		errors.Is(err, application.ErrUnsupportedImage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, application.ErrAIUnavailable):
		return http.StatusBadGateway, aiUnavailableMessage
	case errors.Is(err, application.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "photo uploads are not configured"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"path":       c.FullPath(),
			"user_id":    c.GetString("userID"),
			"request_id": c.GetString("request_id"),
		}).Error("request failed")
	}
	response.Error[any](c, status, msg, nil)
}
