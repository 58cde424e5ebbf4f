package handler

import (
	"errors"
	"net/http"

	"hpmarcas/internal/apierror"
	"hpmarcas/internal/dto"
	"hpmarcas/internal/service"

	"github.com/gin-gonic/gin"
)

type PDVHandler struct{ svc service.PDVService }

func NewPDVHandler(svc service.PDVService) *PDVHandler { return &PDVHandler{svc: svc} }

// FinalizeSale handles POST /v1/pdv/sales — in-person checkout. Payment is
// already collected at the counter, so success means the sale, items and
// stock decrements all committed together.
func (h *PDVHandler) FinalizeSale(c *gin.Context) {
	var req dto.FinalizePDVSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.FinalizeSale(c.Request.Context(), req)
	if err != nil {
		writePDVError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SaveDraft handles PUT /v1/pdv/cart/:session.
func (h *PDVHandler) SaveDraft(c *gin.Context) {
	var req dto.SaveDraftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	req.Cart.SessionID = c.Param("session")

	if err := h.svc.SaveDraft(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("falha ao salvar o rascunho"))
		return
	}
	c.Status(http.StatusNoContent)
}

// LoadDraft handles GET /v1/pdv/cart/:session. The restored flag is true
// exactly once after an interrupted session; this call acknowledges it.
func (h *PDVHandler) LoadDraft(c *gin.Context) {
	resp, err := h.svc.LoadDraft(c.Request.Context(), c.Param("session"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("falha ao carregar o rascunho"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ClearDraft handles DELETE /v1/pdv/cart/:session.
func (h *PDVHandler) ClearDraft(c *gin.Context) {
	if err := h.svc.ClearDraft(c.Request.Context(), c.Param("session")); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("falha ao limpar o rascunho"))
		return
	}
	c.Status(http.StatusNoContent)
}

func writePDVError(c *gin.Context, err error) {
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
	case errors.Is(err, service.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrCashAmountRequired),
		errors.Is(err, service.ErrInsufficientCash),
		errors.Is(err, service.ErrConflictingItemPricing),
		errors.As(err, &unavailable):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrOrderCreateFailed):
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
