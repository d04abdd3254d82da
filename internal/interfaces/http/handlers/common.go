// Package handlers implements the HTTP API: research runs, stored session
// access, and health probes.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BlockchainHB/launchfast-sub000/internal/application/research"
	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

// ResearchService is the application-layer surface the handlers depend on.
type ResearchService interface {
	Research(ctx context.Context, req research.ResearchRequest) (*keyword.ResearchSession, error)
	GetSession(ctx context.Context, userID, sessionID string) (*keyword.ResearchSession, error)
	ListSessions(ctx context.Context, userID string) ([]keyword.SessionSummary, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
	RenameSession(ctx context.Context, userID, sessionID, name string) error
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps application errors to HTTP status codes.  Internal errors
// are masked; their detail stays in the logs.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsValidation(err) || errors.IsCode(err, errors.ErrCodeSessionNameTooLong):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsConflict(err):
		status = http.StatusConflict
	case errors.IsCode(err, errors.ErrCodeTooManyRequests) || errors.IsCode(err, errors.ErrCodeProviderRateLimit):
		status = http.StatusTooManyRequests
	case errors.IsCode(err, errors.ErrCodeTimeout):
		status = http.StatusGatewayTimeout
	case errors.IsCode(err, errors.ErrCodeExternalService) || errors.IsCode(err, errors.ErrCodeProviderFailed):
		status = http.StatusBadGateway
	}

	code := errors.GetCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		code = errors.ErrCodeInternal
		message = "internal server error"
	}
	c.JSON(status, ErrorResponse{Code: code.String(), Message: message})
}
