// Package handler содержит HTTP обработчики REST API сервиса.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/gem-checkout/internal/domain"
	"example.com/gem-checkout/internal/platform"
	"example.com/gem-checkout/pkg/logger"
)

// ErrorResponse — стандартный формат ошибки API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleError преобразует доменную или платформенную ошибку в HTTP ответ.
// Используется всеми handlers для единообразной обработки ошибок.
func HandleError(c *gin.Context, err error, method string) {
	log := logger.FromContext(c.Request.Context())

	var httpStatus int
	var errorCode string

	switch {
	case errors.Is(err, domain.ErrPlanNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		httpStatus = http.StatusNotFound
		errorCode = "not_found"

	case errors.Is(err, domain.ErrInvalidPlan),
		errors.Is(err, domain.ErrUnsupportedPlanType),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrEmptyCart):
		httpStatus = http.StatusBadRequest
		errorCode = "invalid_request"

	case errors.Is(err, domain.ErrSessionExpired):
		httpStatus = http.StatusGone
		errorCode = "session_expired"

	case errors.Is(err, domain.ErrAlreadyCompleted):
		httpStatus = http.StatusConflict
		errorCode = "already_completed"

	case errors.Is(err, domain.ErrNotConfigured):
		httpStatus = http.StatusServiceUnavailable
		errorCode = "not_configured"

	case platform.IsNotYetVisible(err):
		// Потолок повторов исчерпан: публичный каталог так и не увидел вариант
		httpStatus = http.StatusBadGateway
		errorCode = "platform_lagging"

	case platform.IsRejected(err):
		httpStatus = http.StatusUnprocessableEntity
		errorCode = "platform_rejected"

	default:
		var pe *platform.Error
		if errors.As(err, &pe) {
			httpStatus = http.StatusBadGateway
			errorCode = "platform_unavailable"
			break
		}
		httpStatus = http.StatusInternalServerError
		errorCode = "internal_error"
		log.Error().Err(err).Str("method", method).Msg("Внутренняя ошибка")
	}

	if httpStatus != http.StatusInternalServerError {
		log.Warn().Err(err).Str("method", method).Int("status", httpStatus).Msg("Ошибка запроса")
	}

	message := err.Error()
	if httpStatus == http.StatusInternalServerError {
		message = "Внутренняя ошибка сервера"
	}

	c.JSON(httpStatus, ErrorResponse{Error: errorCode, Message: message})
}

// BadRequest возвращает 400 с сообщением об ошибке валидации.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}
