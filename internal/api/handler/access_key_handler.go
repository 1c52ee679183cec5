package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

// AccessKeyHandler lets an authenticated contractor manage portal keys and
// approval tokens for their own records.
type AccessKeyHandler struct {
	service ports.AccessKeyService
}

func NewAccessKeyHandler(service ports.AccessKeyService) *AccessKeyHandler {
	return &AccessKeyHandler{service: service}
}

// IssuePortalKey handles POST /v1/clients/:id/portal-key. The plaintext key
// is only returned here.
//
// @Summary      Issue a client portal key
// @Tags         keys
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Client id"
// @Success      201  {object}  issuedKeyResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/clients/{id}/portal-key [post]
func (h *AccessKeyHandler) IssuePortalKey(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}
	key, err := h.service.IssuePortalKey(c.Request().Context(), accountID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toIssuedKeyResponse(key))
}

// RevokePortalKey handles DELETE /v1/clients/:id/portal-key.
//
// @Summary      Revoke a client portal key
// @Tags         keys
// @Security     BearerAuth
// @Param        id   path  string  true  "Client id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/clients/{id}/portal-key [delete]
func (h *AccessKeyHandler) RevokePortalKey(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}
	if err := h.service.RevokePortalKey(c.Request().Context(), accountID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// IssueDocumentToken handles POST /v1/documents/:id/token.
//
// @Summary      Issue a public approval token for a document
// @Tags         keys
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document id"
// @Success      201  {object}  issuedKeyResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/documents/{id}/token [post]
func (h *AccessKeyHandler) IssueDocumentToken(c echo.Context) error {
	accountID, err := ctxAccount(c)
	if err != nil {
		return err
	}
	key, err := h.service.IssueDocumentToken(c.Request().Context(), accountID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toIssuedKeyResponse(key))
}
