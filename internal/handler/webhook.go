package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"hpmarcas/internal/apierror"
	"hpmarcas/internal/dto"
	"hpmarcas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type WebhookHandler struct {
	svc service.WebhookService
	// secret signs the x-signature manifest. Empty disables verification —
	// local development only, production always configures it.
	secret string
}

func NewWebhookHandler(svc service.WebhookService, secret string) *WebhookHandler {
	return &WebhookHandler{svc: svc, secret: secret}
}

// HandleEvent handles POST /v1/webhooks/payment. Response codes drive the
// gateway's retry behavior: 2xx acknowledges, 4xx is a permanent rejection,
// 5xx makes the gateway redeliver later.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return
	}

	if !h.verifySignature(c, req.Data.ID) {
		c.JSON(http.StatusUnauthorized, apierror.New("assinatura inválida"))
		return
	}

	resp, err := h.svc.ProcessEvent(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentFetch):
			c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		case errors.Is(err, service.ErrUnknownGatewayStatus):
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		case errors.Is(err, service.ErrSaleLookup):
			// Transient persistence failure — 5xx so the gateway retries.
			c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		case errors.Is(err, service.ErrSaleNotFound):
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Probe handles GET /v1/webhooks/payment — the gateway's reachability check
// during endpoint registration. Echoes the query params back.
func (h *WebhookHandler) Probe(c *gin.Context) {
	params := gin.H{"status": "ok"}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	c.JSON(http.StatusOK, params)
}

// verifySignature checks the x-signature header against the HMAC-SHA256 of
// the delivery manifest "id:{data.id};request-id:{x-request-id};ts:{ts};".
// The header carries "ts=...,v1=...".
func (h *WebhookHandler) verifySignature(c *gin.Context, dataID string) bool {
	if h.secret == "" {
		return true
	}

	sig := c.GetHeader("x-signature")
	requestID := c.GetHeader("x-request-id")
	if sig == "" {
		log.Warn().Str("request_id", requestID).Msg("webhook: missing x-signature header")
		return false
	}

	var ts, v1 string
	for _, part := range strings.Split(sig, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(v1))
}
