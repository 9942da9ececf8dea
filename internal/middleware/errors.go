package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// problemDetails mirrors handler.ProblemDetails; middleware cannot import the
// handler package
type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const (
	errorTypeUnauthorized = "https://domo.app/errors/unauthorized"
	errorTypeRateLimit    = "https://domo.app/errors/rate-limit"
)

func problem(c echo.Context, status int, errType, detail string) error {
	return c.JSON(status, problemDetails{
		Type:     errType,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

func unauthorizedError(c echo.Context, detail string) error {
	return problem(c, http.StatusUnauthorized, errorTypeUnauthorized, detail)
}

func rateLimitError(c echo.Context, detail string) error {
	return problem(c, http.StatusTooManyRequests, errorTypeRateLimit, detail)
}
