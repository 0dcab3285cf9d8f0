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

type CartHandler struct {
	svc service.CartService
}

func NewCartHandler(svc service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

type LineItemResponse struct {
	ID             uint64  `json:"id"`
	ProductID      uint64  `json:"productId"`
	SkuID          *uint64 `json:"skuId,omitempty"`
	QtyDesired     int     `json:"qtyDesired"`
	Price          string  `json:"price"`
	ShippingPrice  string  `json:"shippingPrice"`
	Stage          string  `json:"stage"`
	Status         string  `json:"status"`
	BatchID        *uint64 `json:"batchId,omitempty"`
	ExpectedShipAt *string `json:"expectedShipAt,omitempty"`
	ShippedAt      *string `json:"shippedAt,omitempty"`
}

type CartResponse struct {
	ID        uint64             `json:"id"`
	Items     []LineItemResponse `json:"items"`
	UpdatedAt string             `json:"updatedAt"`
}

func toLineItemResponse(i *model.CartLineItem) LineItemResponse {
	var expected, shipped *string
	if i.ExpectedShipAt != nil {
		v := i.ExpectedShipAt.Format(time.RFC3339)
		expected = &v
	}
	if i.ShippedAt != nil {
		v := i.ShippedAt.Format(time.RFC3339)
		shipped = &v
	}
	return LineItemResponse{
		ID:             i.ID,
		ProductID:      i.ProductID,
		SkuID:          i.SkuID,
		QtyDesired:     i.QtyDesired,
		Price:          i.Price.StringFixed(2),
		ShippingPrice:  i.ShippingPrice.StringFixed(2),
		Stage:          string(i.Stage),
		Status:         string(i.Status),
		BatchID:        i.BatchID,
		ExpectedShipAt: expected,
		ShippedAt:      shipped,
	}
}

func toCartResponse(c *model.Cart) CartResponse {
	items := make([]LineItemResponse, 0, len(c.Items))
	for i := range c.Items {
		items = append(items, toLineItemResponse(&c.Items[i]))
	}
	return CartResponse{
		ID:        c.ID,
		Items:     items,
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *CartHandler) Create(c echo.Context) error {
	cart, err := h.svc.CreateCart(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toCartResponse(cart))
}

func (h *CartHandler) Get(c echo.Context) error {
	cartID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid cart id"))
	}
	cart, err := h.svc.Get(c.Request().Context(), cartID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) AddItem(c echo.Context) error {
	cartID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid cart id"))
	}
	var body struct {
		ProductID     uint64  `json:"productId"`
		SkuID         *uint64 `json:"skuId"`
		Qty           int     `json:"qty"`
		ShippingPrice string  `json:"shippingPrice"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	shipping := decimal.Zero
	if body.ShippingPrice != "" {
		shipping, err = decimal.NewFromString(body.ShippingPrice)
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid shipping price"))
		}
	}
	item, satisfied, err := h.svc.AddItem(c.Request().Context(), cartID, body.ProductID, body.SkuID, body.Qty, shipping)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"item":      toLineItemResponse(item),
		"satisfied": satisfied,
	})
}

func (h *CartHandler) Refresh(c echo.Context) error {
	cartID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid cart id"))
	}
	results, err := h.svc.RefreshCart(c.Request().Context(), cartID)
	if err != nil {
		return writeError(c, err)
	}
	satisfied := make(map[string]bool, len(results))
	for id, ok := range results {
		satisfied[strconv.FormatUint(id, 10)] = ok
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"satisfied": satisfied})
}
