package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

type stubDispatcher struct {
	err    error
	queued []ports.BillingEvent
}

func (d *stubDispatcher) TryEnqueue(e ports.BillingEvent) error {
	if d.err != nil {
		return d.err
	}
	d.queued = append(d.queued, e)
	return nil
}

type stubBillingService struct {
	tiers map[string]domain.Tier
	err   error
}

func (s *stubBillingService) Process(context.Context, ports.BillingEvent) error { return nil }

func (s *stubBillingService) SetTier(_ context.Context, accountID string, tier domain.Tier) error {
	if s.err != nil {
		return s.err
	}
	s.tiers[accountID] = tier
	return nil
}

const webhookSecret = "whsec_test"

func webhookRequest(body, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/billing", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	return req
}

func TestBillingHandler_Webhook_Accepted(t *testing.T) {
	e := newTestEcho()
	disp := &stubDispatcher{}
	h := NewBillingHandler(disp, &stubBillingService{}, webhookSecret)

	body := `{"id":"evt_1","type":"subscription.activated","account_id":"acct-1"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(webhookRequest(body, Sign([]byte(webhookSecret), []byte(body))), rec)

	if err := h.Webhook(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(disp.queued) != 1 || disp.queued[0].ID != "evt_1" || disp.queued[0].AccountID != "acct-1" {
		t.Fatalf("unexpected queue %+v", disp.queued)
	}
}

func TestBillingHandler_Webhook_BadSignature(t *testing.T) {
	e := newTestEcho()
	disp := &stubDispatcher{}
	h := NewBillingHandler(disp, &stubBillingService{}, webhookSecret)

	body := `{"id":"evt_1","type":"subscription.activated","account_id":"acct-1"}`
	for name, sig := range map[string]string{
		"missing":    "",
		"wrong key":  Sign([]byte("other"), []byte(body)),
		"not hex":    "sha256=zz",
		"other body": Sign([]byte(webhookSecret), []byte(`{}`)),
	} {
		c := e.NewContext(webhookRequest(body, sig), httptest.NewRecorder())
		if err := h.Webhook(c); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Errorf("%s: expected ErrInvalidSignature, got %v", name, err)
		}
	}
	if len(disp.queued) != 0 {
		t.Fatal("nothing may be enqueued without a valid signature")
	}
}

func TestBillingHandler_Webhook_UnknownType(t *testing.T) {
	e := newTestEcho()
	h := NewBillingHandler(&stubDispatcher{}, &stubBillingService{}, webhookSecret)

	body := `{"id":"evt_2","type":"invoice.paid","account_id":"acct-1"}`
	c := e.NewContext(webhookRequest(body, Sign([]byte(webhookSecret), []byte(body))), httptest.NewRecorder())

	var he *echo.HTTPError
	if err := h.Webhook(c); !errors.As(err, &he) || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestBillingHandler_Webhook_QueueFull(t *testing.T) {
	e := newTestEcho()
	h := NewBillingHandler(&stubDispatcher{err: errors.New("full")}, &stubBillingService{}, webhookSecret)

	body := `{"id":"evt_3","type":"subscription.cancelled","account_id":"acct-1"}`
	c := e.NewContext(webhookRequest(body, Sign([]byte(webhookSecret), []byte(body))), httptest.NewRecorder())

	var he *echo.HTTPError
	if err := h.Webhook(c); !errors.As(err, &he) || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
}

func TestBillingHandler_SetTier(t *testing.T) {
	e := newTestEcho()
	svc := &stubBillingService{tiers: map[string]domain.Tier{}}
	h := NewBillingHandler(&stubDispatcher{}, svc, webhookSecret)

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"tier":"premium"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("account_id")
	c.SetParamValues("acct-7")

	if err := h.SetTier(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || svc.tiers["acct-7"] != domain.TierPremium {
		t.Fatalf("expected tier set, got %d %v", rec.Code, svc.tiers)
	}
}

func TestVerifySignature_EmptySecretRejects(t *testing.T) {
	body := []byte(`{}`)
	if VerifySignature(nil, body, Sign(nil, body)) {
		t.Fatal("an unset secret must reject every request")
	}
}
