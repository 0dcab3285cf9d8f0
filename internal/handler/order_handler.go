package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/makerloop/commerce-backend/internal/model"
	"github.com/makerloop/commerce-backend/internal/service"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	settlement service.SettlementService
	lifecycle  service.LifecycleService
	orders     service.OrderReader
}

func NewOrderHandler(settlement service.SettlementService, lifecycle service.LifecycleService, orders service.OrderReader) *OrderHandler {
	return &OrderHandler{settlement: settlement, lifecycle: lifecycle, orders: orders}
}

type OrderResponse struct {
	ID     uint64             `json:"id"`
	CartID uint64             `json:"cartId"`
	Closed bool               `json:"closed"`
	Total  string             `json:"total"`
	Paid   string             `json:"paid"`
	Due    string             `json:"due"`
	Items  []LineItemResponse `json:"items"`
}

func toOrderResponse(o *model.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.Cart.Items))
	for i := range o.Cart.Items {
		items = append(items, toLineItemResponse(&o.Cart.Items[i]))
	}
	return OrderResponse{
		ID:     o.ID,
		CartID: o.CartID,
		Closed: o.Closed,
		Total:  o.TotalAmount().StringFixed(2),
		Paid:   o.PaidAmount().StringFixed(2),
		Due:    o.DueAmount().StringFixed(2),
		Items:  items,
	}
}

func parseID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	o, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	cartID, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid cart id"))
	}
	order, err := h.settlement.Checkout(c.Request().Context(), cartID)
	if err != nil {
		return writeError(c, err)
	}
	o, err := h.orders.Get(c.Request().Context(), order.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(o))
}

func (h *OrderHandler) Capture(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	if err := h.settlement.CaptureOrder(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	o, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	var body struct {
		ItemIDs []uint64 `json:"itemIds"`
		Reason  string   `json:"reason"`
		Actor   string   `json:"actor"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := h.settlement.Cancel(c.Request().Context(), id, body.ItemIDs, body.Reason, body.Actor); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) Ship(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	var body struct {
		ItemIDs          []uint64 `json:"itemIds"`
		Tracking         string   `json:"tracking"`
		Cost             string   `json:"cost"`
		ShippedByCreator bool     `json:"shippedByCreator"`
		Actor            string   `json:"actor"`
		ShippedAt        *string  `json:"shippedAt"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	cost := decimal.Zero
	if body.Cost != "" {
		cost, err = decimal.NewFromString(body.Cost)
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid cost"))
		}
	}
	var shippedAt *time.Time
	if body.ShippedAt != nil {
		t, err := time.Parse(time.RFC3339, *body.ShippedAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid shippedAt"))
		}
		shippedAt = &t
	}
	shipment, err := h.settlement.ShipItems(c.Request().Context(), id, body.ItemIDs, body.Tracking, cost, body.ShippedByCreator, body.Actor, shippedAt)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"shipmentId": shipment.ID,
		"tracking":   shipment.Tracking,
		"shippedAt":  shipment.ShippedAt.Format(time.RFC3339),
	})
}

func (h *OrderHandler) Abandon(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	if err := h.settlement.Abandon(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) UpdateItemStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid item id"))
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := h.lifecycle.UpdateStatus(c.Request().Context(), id, model.Status(body.Status)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) UpdateItemPaymentStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid item id"))
	}
	var body struct {
		Settled bool `json:"settled"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := h.lifecycle.UpdatePaymentStatus(c.Request().Context(), id, body.Settled); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) ProjectOutcome(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid project id"))
	}
	var body struct {
		Funded bool `json:"funded"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	ctx := c.Request().Context()
	if body.Funded {
		err = h.settlement.ProjectSucceeded(ctx, id)
	} else {
		err = h.settlement.ProjectFailed(ctx, id)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
