package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/makerloop/commerce-backend/internal/service"
)

type StockHandler struct {
	svc service.StockService
}

func NewStockHandler(svc service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

func (h *StockHandler) Adjust(c echo.Context) error {
	skuID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid sku id"))
	}
	var body struct {
		QtyDiff int    `json:"qtyDiff"`
		Reason  string `json:"reason"`
		Actor   string `json:"actor"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if body.Reason == "" || body.Actor == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "reason and actor are required"))
	}
	if err := h.svc.AdjustQty(c.Request().Context(), skuID, body.QtyDiff, body.Reason, body.Actor); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
