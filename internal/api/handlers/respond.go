// Package handlers contains the thin HTTP layer. Handlers translate
// between JSON and the domain services and hold no business logic.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
)

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// writeError maps a domain error to an HTTP status and a stable error
// envelope.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsConflict(err):
		status = http.StatusConflict
	case apperrors.IsInsufficientFunds(err):
		status = http.StatusUnprocessableEntity
	case apperrors.IsChainUnavailable(err), errors.Is(err, apperrors.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	case apperrors.IsProvisioningFailed(err):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}

	body := errorBody{
		Code:    apperrors.GetErrorCode(err),
		Message: err.Error(),
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		body.Details = domainErr.Details
	}
	c.JSON(status, errorResponse{Error: body})
}
