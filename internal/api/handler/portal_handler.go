package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

// PortalHandler serves the unauthenticated client portal and approval links.
// The access key in the path is the credential.
type PortalHandler struct {
	service ports.PortalService
}

func NewPortalHandler(service ports.PortalService) *PortalHandler {
	return &PortalHandler{service: service}
}

// Bundle handles GET /v1/portal/:key.
//
// @Summary      Client portal contents
// @Tags         portal
// @Produce      json
// @Param        key  path      string  true  "Portal access key"
// @Success      200  {object}  portalResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/portal/{key} [get]
func (h *PortalHandler) Bundle(c echo.Context) error {
	bundle, err := h.service.Bundle(c.Request().Context(), c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPortalResponse(bundle))
}

// Sign handles POST /v1/portal/:key/documents/:id/sign.
//
// @Summary      Sign a document from the client portal
// @Tags         portal
// @Accept       json
// @Produce      json
// @Param        key   path      string       true  "Portal access key"
// @Param        id    path      string       true  "Document id"
// @Param        body  body      signRequest  true  "Signature"
// @Success      200   {object}  documentView
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/portal/{key}/documents/{id}/sign [post]
func (h *PortalHandler) Sign(c echo.Context) error {
	in, err := bindSignature(c)
	if err != nil {
		return err
	}
	doc, err := h.service.Sign(c.Request().Context(), c.Param("key"), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDocumentView(*doc))
}

// Approval handles GET /v1/approvals/:token.
//
// @Summary      Document behind a public approval link
// @Tags         approvals
// @Produce      json
// @Param        token  path      string  true  "Public token"
// @Success      200    {object}  approvalResponse
// @Failure      401    {object}  errorResponse
// @Router       /v1/approvals/{token} [get]
func (h *PortalHandler) Approval(c echo.Context) error {
	view, err := h.service.Approval(c.Request().Context(), c.Param("token"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, approvalResponse{
		Document:   toDocumentView(view.Document),
		Contractor: toContractorView(view.Contractor),
	})
}

// SignApproval handles POST /v1/approvals/:token/sign.
//
// @Summary      Sign through a public approval link
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        token  path      string       true  "Public token"
// @Param        body   body      signRequest  true  "Signature"
// @Success      200    {object}  documentView
// @Failure      401    {object}  errorResponse
// @Failure      409    {object}  errorResponse
// @Router       /v1/approvals/{token}/sign [post]
func (h *PortalHandler) SignApproval(c echo.Context) error {
	in, err := bindSignature(c)
	if err != nil {
		return err
	}
	doc, err := h.service.SignApproval(c.Request().Context(), c.Param("token"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDocumentView(*doc))
}

func bindSignature(c echo.Context) (ports.SignatureInput, error) {
	var req signRequest
	if err := c.Bind(&req); err != nil {
		return ports.SignatureInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return ports.SignatureInput{}, echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return ports.SignatureInput{Name: req.Name, Signature: req.Signature, IP: c.RealIP()}, nil
}
