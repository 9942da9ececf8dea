package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// pathID parses a positive int32 path parameter
func pathID(c echo.Context, name string) (int32, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}

func invalidID(c echo.Context, what string) error {
	return NewValidationError(c, "Invalid "+what+" ID", nil)
}

func invalidBody(c echo.Context) error {
	return NewValidationError(c, "Invalid request body", nil)
}
