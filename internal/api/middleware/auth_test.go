package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, echo.Context, error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := Auth("secret")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, c, err, called
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "acct-1",
		"role": RoleContractor,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, c, err, called := runAuth(t, "Bearer "+token)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if c.Get("account_id") != "acct-1" {
		t.Fatalf("account_id not set")
	}
	if c.Get("role") != RoleContractor {
		t.Fatalf("role not set")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	_, _, err, called := runAuth(t, "")
	assertUnauthorized(t, err)
	if called {
		t.Fatal("next must not run")
	}
}

func TestAuthMiddleware_BadScheme(t *testing.T) {
	_, _, err, _ := runAuth(t, "Basic abc")
	assertUnauthorized(t, err)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token := signToken(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"sub": "acct-1"})
	_, _, err, _ := runAuth(t, "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestAuthMiddleware_Expired(t *testing.T) {
	token := signToken(t, "secret", jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "acct-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	_, _, err, _ := runAuth(t, "Bearer "+token)
	assertUnauthorized(t, err)
}

func TestAuthMiddleware_RejectsOtherAlgorithms(t *testing.T) {
	token := signToken(t, "secret", jwt.SigningMethodHS512, jwt.MapClaims{"sub": "acct-1"})
	_, _, err, _ := runAuth(t, "Bearer "+token)
	assertUnauthorized(t, err)
}
