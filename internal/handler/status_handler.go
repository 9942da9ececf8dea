package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ConnectivityReporter reports whether the remote API is reachable
type ConnectivityReporter interface {
	Online() bool
}

// PendingCounter reports how many mutations are unsettled
type PendingCounter interface {
	Pending() int
}

// ClientCounter reports connected views
type ClientCounter interface {
	ClientCount() int
}

// StatusHandler reports the health of the local client
type StatusHandler struct {
	connectivity ConnectivityReporter
	mutations    PendingCounter
	clients      ClientCounter
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(connectivity ConnectivityReporter, mutations PendingCounter, clients ClientCounter) *StatusHandler {
	return &StatusHandler{
		connectivity: connectivity,
		mutations:    mutations,
		clients:      clients,
	}
}

// StatusResponse represents the status API response
type StatusResponse struct {
	Online           bool `json:"online"`
	PendingMutations int  `json:"pendingMutations"`
	ConnectedViews   int  `json:"connectedViews"`
}

// GetStatus handles GET /api/v1/status
func (h *StatusHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Online:           h.connectivity.Online(),
		PendingMutations: h.mutations.Pending(),
		ConnectedViews:   h.clients.ClientCount(),
	})
}
