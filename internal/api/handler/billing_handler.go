package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, body)), optionally
// prefixed with "sha256=".
const SignatureHeader = "X-Billing-Signature"

const maxWebhookBody = 64 << 10

// BillingDispatcher is the interface the handler uses to enqueue events.
type BillingDispatcher interface {
	TryEnqueue(event ports.BillingEvent) error
}

// BillingHandler receives billing webhooks and admin tier changes.
type BillingHandler struct {
	dispatcher BillingDispatcher
	service    ports.BillingService
	secret     []byte
}

func NewBillingHandler(dispatcher BillingDispatcher, service ports.BillingService, webhookSecret string) *BillingHandler {
	return &BillingHandler{dispatcher: dispatcher, service: service, secret: []byte(webhookSecret)}
}

// Webhook handles POST /v1/webhooks/billing. It verifies the signature,
// enqueues the event and returns 202.
//
// @Summary      Billing provider webhook
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        X-Billing-Signature  header    string               true  "HMAC-SHA256 of the body"
// @Param        body                 body      billingEventRequest  true  "Billing event"
// @Success      202                  {object}  acceptedResponse
// @Failure      401                  {object}  errorResponse
// @Failure      422                  {object}  errorResponse
// @Failure      503                  {object}  errorResponse
// @Router       /v1/webhooks/billing [post]
func (h *BillingHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if !VerifySignature(h.secret, body, c.Request().Header.Get(SignatureHeader)) {
		return domain.ErrInvalidSignature
	}

	var req billingEventRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	event := ports.BillingEvent{ID: req.ID, Type: req.Type, AccountID: req.AccountID, OccurredAt: req.OccurredAt}
	if err := h.dispatcher.TryEnqueue(event); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "billing queue full, retry later")
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "event accepted"})
}

// SetTier handles PUT /v1/admin/accounts/:account_id/tier.
//
// @Summary      Override an account's subscription tier
// @Tags         billing
// @Accept       json
// @Security     BearerAuth
// @Param        account_id  path  string          true  "Account id"
// @Param        body        body  setTierRequest  true  "Tier"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/accounts/{account_id}/tier [put]
func (h *BillingHandler) SetTier(c echo.Context) error {
	var req setTierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	err := h.service.SetTier(c.Request().Context(), c.Param("account_id"), domain.Tier(req.Tier))
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// VerifySignature reports whether header is the HMAC-SHA256 of body under
// secret. An empty secret rejects everything.
func VerifySignature(secret, body []byte, header string) bool {
	if len(secret) == 0 || header == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign returns the header value for body. The CLI and tests use it.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
