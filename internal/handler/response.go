package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/service"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// writeError maps service errors onto HTTP. Invariant violations surface as
// 500s: they mean corrupted data, not bad requests.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", err.Error()))
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyCheckedOut),
		errors.Is(err, service.ErrNoFailedItems):
		return c.JSON(http.StatusConflict, NewErrorResponse("conflict", err.Error()))
	case errors.Is(err, service.ErrNoItems),
		errors.Is(err, service.ErrZeroAdjustment):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	case errors.Is(err, service.ErrNoBatches),
		errors.Is(err, service.ErrStockExhausted),
		errors.Is(err, service.ErrInsufficientUnits):
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("invariant_violation", err.Error()))
	default:
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	}
}
