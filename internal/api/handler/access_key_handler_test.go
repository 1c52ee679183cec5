package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

type stubAccessKeys struct {
	revoked []string
}

func (s *stubAccessKeys) IssuePortalKey(_ context.Context, accountID, clientID string) (*ports.IssuedKey, error) {
	return &ports.IssuedKey{KeyID: "kid", Key: "kid.secret", URL: "https://app/portal/kid.secret"}, nil
}

func (s *stubAccessKeys) RevokePortalKey(_ context.Context, accountID, clientID string) error {
	s.revoked = append(s.revoked, accountID+"/"+clientID)
	return nil
}

func (s *stubAccessKeys) IssueDocumentToken(_ context.Context, accountID, documentID string) (*ports.IssuedKey, error) {
	return &ports.IssuedKey{KeyID: "tid", Key: "tid.secret", URL: "https://app/approve/tid.secret"}, nil
}

func TestAccessKeyHandler_IssuePortalKey(t *testing.T) {
	e := newTestEcho()
	h := NewAccessKeyHandler(&stubAccessKeys{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	c.Set("account_id", "acct-1")
	c.SetParamNames("id")
	c.SetParamValues("c1")

	if err := h.IssuePortalKey(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp issuedKeyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Key != "kid.secret" || resp.URL == "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestAccessKeyHandler_RevokeScopedToAccount(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccessKeys{}
	h := NewAccessKeyHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.Set("account_id", "acct-1")
	c.SetParamNames("id")
	c.SetParamValues("c1")

	if err := h.RevokePortalKey(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || len(stub.revoked) != 1 || stub.revoked[0] != "acct-1/c1" {
		t.Fatalf("unexpected revoke %d %v", rec.Code, stub.revoked)
	}
}

func TestAccessKeyHandler_MissingAccount(t *testing.T) {
	e := newTestEcho()
	h := NewAccessKeyHandler(&stubAccessKeys{})
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())

	err := h.IssueDocumentToken(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
