package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/tradeworks/contractor-hub/internal/api/handler"
	"github.com/tradeworks/contractor-hub/internal/api/middleware"
	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
	"github.com/tradeworks/contractor-hub/internal/core/service"
	"github.com/tradeworks/contractor-hub/internal/infrastructure/db/memory"
)

type inlineDispatcher struct {
	svc ports.BillingService
}

func (d inlineDispatcher) TryEnqueue(e ports.BillingEvent) error {
	return d.svc.Process(context.Background(), e)
}

type mapDedup map[string]bool

func (m mapDedup) IsDuplicate(_ context.Context, id string) (bool, error) { return m[id], nil }
func (m mapDedup) Mark(_ context.Context, id string) error                { m[id] = true; return nil }

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub, "role": role, "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("jwt-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + signed
}

// TestRouter drives the wired routes end to end over the in-memory store.
func TestRouter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	if err := store.Clients().Insert(ctx, &domain.Client{ID: "c1", AccountID: "acct-1", Name: "Jane Doe"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Jobs().Insert(ctx, &domain.Job{ID: "j1", AccountID: "acct-1", Name: "Kitchen Remodel", ClientID: "c1", Status: domain.JobActive}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Documents().Insert(ctx, &domain.Document{ID: "d1", AccountID: "acct-1", JobID: "j1", Type: domain.DocEstimate,
		Payload: json.RawMessage(`{"status":"sent"}`)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	portal := service.NewPortalService(store, "https://app.example.com", zerolog.Nop())
	billing := service.NewBillingService(store.Profiles(), mapDedup{}, zerolog.Nop())
	e := NewRouter(Dependencies{
		Portal:        portal,
		AccessKeys:    portal,
		Billing:       billing,
		Dispatcher:    inlineDispatcher{svc: billing},
		JWTSecret:     "jwt-secret",
		WebhookSecret: "whsec",
		Log:           zerolog.Nop(),
	})

	do := func(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("liveness", func(t *testing.T) {
		if rec := do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("key management requires a token", func(t *testing.T) {
		if rec := do(http.MethodPost, "/v1/clients/c1/portal-key", "", nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("portal key round trip", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/clients/c1/portal-key", "", map[string]string{
			"Authorization": bearer(t, "acct-1", middleware.RoleContractor),
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("issue: expected 201, got %d %s", rec.Code, rec.Body.String())
		}
		var issued struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &issued); err != nil {
			t.Fatalf("invalid json: %v", err)
		}

		if rec := do(http.MethodGet, "/v1/portal/"+issued.Key, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("bundle: expected 200, got %d", rec.Code)
		}

		sign := `{"name":"Jane Doe","signature":"Jane Doe"}`
		if rec := do(http.MethodPost, "/v1/portal/"+issued.Key+"/documents/d1/sign", sign, nil); rec.Code != http.StatusOK {
			t.Fatalf("sign: expected 200, got %d %s", rec.Code, rec.Body.String())
		}
		if rec := do(http.MethodPost, "/v1/portal/"+issued.Key+"/documents/d1/sign", sign, nil); rec.Code != http.StatusConflict {
			t.Fatalf("second sign: expected 409, got %d", rec.Code)
		}
	})

	t.Run("unknown portal key", func(t *testing.T) {
		if rec := do(http.MethodGet, "/v1/portal/nope.nope", "", nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("webhook upgrades tier", func(t *testing.T) {
		body := `{"id":"evt_1","type":"subscription.activated","account_id":"acct-1"}`
		rec := do(http.MethodPost, "/v1/webhooks/billing", body, map[string]string{
			handler.SignatureHeader: handler.Sign([]byte("whsec"), []byte(body)),
		})
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d %s", rec.Code, rec.Body.String())
		}
		p, err := store.Profiles().Get(ctx, "acct-1")
		if err != nil || p.SubscriptionTier != domain.TierPremium {
			t.Fatalf("expected premium, got %+v (%v)", p, err)
		}
	})

	t.Run("admin route rejects contractors", func(t *testing.T) {
		rec := do(http.MethodPut, "/v1/admin/accounts/acct-1/tier", `{"tier":"free"}`, map[string]string{
			"Authorization": bearer(t, "acct-1", middleware.RoleContractor),
		})
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}
