package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// anonymousSubject identifies views connected while auth is disabled
const anonymousSubject = "local"

// WebSocketHandler upgrades view connections and hands them to the hub
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator websocket.TokenValidator
	origins   map[string]struct{}
	upgrader  ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. A nil validator accepts
// every connection.
func NewWebSocketHandler(hub *websocket.Hub, validator websocket.TokenValidator, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:       hub,
		validator: validator,
		origins:   make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		h.origins[o] = struct{}{}
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  512,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits browsers from the CORS origins and any client that sends
// no Origin header
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	log.Warn().Str("origin", origin).Msg("View socket rejected: origin not allowed")
	return false
}

// subject resolves who is connecting. Browsers cannot set headers on a
// socket handshake, so the token travels as ?token=.
func (h *WebSocketHandler) subject(c echo.Context) (string, error) {
	if h.validator == nil {
		return anonymousSubject, nil
	}

	token := c.QueryParam("token")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	sub, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("View socket rejected: invalid token")
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return sub, nil
}

// HandleWS handles GET /ws
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	subject, err := h.subject(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("View socket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, subject, h.hub)
	h.hub.Register(client)
	go client.Serve()

	log.Info().Str("subject", subject).Str("client_id", client.ID()).Msg("View connected")
	return nil
}
