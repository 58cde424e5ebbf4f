package handler

import (
	"errors"
	"net/http"

	"hpmarcas/internal/apierror"
	"hpmarcas/internal/dto"
	"hpmarcas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// CreateOrder handles POST /v1/orders — the online checkout entry point.
// A stock shortfall answers 400 with the itemized list; a gateway failure
// after the sale committed still answers 201 with payment_setup_error set.
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.CreateOrder(c.Request.Context(), req)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetOrder handles GET /v1/orders/:id.
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(service.ErrSaleNotFound.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func writeOrderError(c *gin.Context, err error) {
	var stockErr *service.StockInsufficientError
	if errors.As(err, &stockErr) {
		shortfalls := make([]apierror.StockShortfall, 0, len(stockErr.Shortfalls))
		for _, sf := range stockErr.Shortfalls {
			shortfalls = append(shortfalls, apierror.StockShortfall(sf))
		}
		c.JSON(http.StatusBadRequest, apierror.NewStock(shortfalls))
		return
	}

	var unavailable *service.ErrProductUnavailable
	switch {
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrAddressNotFound),
		errors.Is(err, service.ErrSaleNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrAddressOwnership):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.As(err, &unavailable),
		errors.Is(err, service.ErrEmptyItems):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrOrderCreateFailed):
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
