package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/domain/shared"
	"github.com/koperasi/backend/internal/infrastructure/logger"
	"github.com/koperasi/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a 200 response with the body as is
func (h *BaseHandler) Success(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(message))
}

// InternalError sends a 500 response with diagnostic details
func (h *BaseHandler) InternalError(c *gin.Context, message, details string) {
	c.JSON(http.StatusInternalServerError, dto.NewServerErrorResponse(message, details))
}

// HandleError converts domain errors to HTTP responses.
// Request errors become 400 with only an error message; aggregation
// failures and unknown errors become 500 and echo the cause as details.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if errors.Is(err, ledger.ErrAggregationFailure) {
		h.InternalError(c, ledger.ErrAggregationFailure.Message, err.Error())
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		if dto.IsClientError(domainErr.Code) {
			h.BadRequest(c, domainErr.Message)
			return
		}
		h.InternalError(c, domainErr.Message, err.Error())
		return
	}

	h.InternalError(c, "Internal server error", err.Error())
}
