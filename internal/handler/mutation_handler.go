package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxWait caps how long GET /mutations/:id?wait= may block
const maxWait = 30 * time.Second

// MutationHandler reports the state of dispatched mutations
type MutationHandler struct {
	engine *mutation.Engine
}

// NewMutationHandler creates a new MutationHandler
func NewMutationHandler(engine *mutation.Engine) *MutationHandler {
	return &MutationHandler{engine: engine}
}

// GetMutation handles GET /api/v1/mutations/:id. With ?wait=<seconds> it
// blocks until the mutation settles or the wait runs out.
func (h *MutationHandler) GetMutation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return invalidID(c, "mutation")
	}

	handle, ok := h.engine.Lookup(id)
	if !ok {
		return NewNotFoundError(c, "Mutation not found")
	}

	if raw := c.QueryParam("wait"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			return NewValidationError(c, "Invalid wait", []ValidationError{
				{Field: "wait", Message: "Must be a non-negative number of seconds"},
			})
		}
		wait := min(time.Duration(secs)*time.Second, maxWait)
		ctx, cancel := context.WithTimeout(c.Request().Context(), wait)
		defer cancel()
		// The outcome is in the status either way
		_ = handle.Wait(ctx)
	}

	return c.JSON(http.StatusOK, handle.Status())
}
