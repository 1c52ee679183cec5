package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

func TestHTTPErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInvalidKey, http.StatusUnauthorized},
		{domain.ErrInvalidSignature, http.StatusUnauthorized},
		{fmt.Errorf("sign document: %w", domain.ErrAlreadySigned), http.StatusConflict},
		{domain.NewStoreError(domain.KindNotFound, "update", domain.CollectionClients, nil), http.StatusNotFound},
		{fmt.Errorf("%w: bad tier", domain.ErrValidation), http.StatusUnprocessableEntity},
		{domain.ErrUnknownEvent, http.StatusUnprocessableEntity},
		{domain.NewStoreError(domain.KindAuthorization, "list", domain.CollectionJobs, nil), http.StatusForbidden},
		{domain.NewStoreError(domain.KindTransient, "list", domain.CollectionJobs, nil), http.StatusServiceUnavailable},
		{domain.NewStoreError(domain.KindSchemaMismatch, "list", domain.CollectionJobs, nil), http.StatusInternalServerError},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		h(tc.err, c)

		if rec.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var body errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
			t.Errorf("%v: expected error envelope, got %q", tc.err, rec.Body.String())
		}
	}
}

func TestHTTPErrorHandler_HidesUnexpectedErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(fmt.Errorf("dial tcp 10.0.0.3: secret detail"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); !json.Valid([]byte(got)) || strings.Contains(got, "secret detail") {
		t.Errorf("internal detail leaked: %s", got)
	}
}
