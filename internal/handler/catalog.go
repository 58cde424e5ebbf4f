package handler

import (
	"net/http"

	"hpmarcas/internal/apierror"
	"hpmarcas/internal/dto"
	"hpmarcas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListProducts handles GET /v1/products with name/barcode/category filters
// and pagination.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("falha ao listar produtos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct handles GET /v1/products/:id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ValidateCoupon handles GET /v1/coupons/validate — the storefront's
// pre-checkout preview. Ineligibility answers 200 with valid=false, never an
// error status.
func (h *CatalogHandler) ValidateCoupon(c *gin.Context) {
	var q dto.ValidateCouponQuery
	if !bindQueryAndValidate(c, &q) {
		return
	}
	resp, err := h.svc.ValidateCoupon(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("falha ao validar o cupom"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
