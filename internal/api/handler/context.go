package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxAccount extracts the account id injected by the Auth middleware and
// fails fast before any service call. A structurally valid JWT without a
// subject is unusable and is rejected with 401.
func ctxAccount(c echo.Context) (string, error) {
	accountID, _ := c.Get("account_id").(string)
	if accountID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token missing account identity")
	}
	return accountID, nil
}
