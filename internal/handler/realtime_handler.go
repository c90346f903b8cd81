package handler

import (
	"strings"

	"studyroom-be/internal/dto"
	"studyroom-be/internal/pkg/logger"
	"studyroom-be/internal/pkg/serverutils"
	"studyroom-be/internal/service"
	internalWS "studyroom-be/internal/websocket"
	"studyroom-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type RealtimeHandler struct {
	hub        *internalWS.Hub
	dispatcher internalWS.MessageHandler
	sessions   serverutils.SessionValidator
	cookieName string
	publisher  service.EventPublisher // nil when NATS is not configured
	logger     logger.ILogger
}

func NewRealtimeHandler(
	hub *internalWS.Hub,
	dispatcher internalWS.MessageHandler,
	sessions serverutils.SessionValidator,
	cookieName string,
	pub service.EventPublisher,
	log logger.ILogger,
) *RealtimeHandler {
	return &RealtimeHandler{
		hub:        hub,
		dispatcher: dispatcher,
		sessions:   sessions,
		cookieName: cookieName,
		publisher:  pub,
		logger:     log,
	}
}

// ServeWs checks the session cookie and upgrades the request. Connections
// without a valid session are refused before the upgrade.
func (h *RealtimeHandler) ServeWs(c *fiber.Ctx) error {
	ip := c.IP()
	if !serverutils.HasSession(c, h.sessions, h.cookieName) {
		h.logger.Warn("RealtimeHandler", "Unauthorized websocket connection attempt", map[string]interface{}{"ip": ip})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Not authenticated"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("RealtimeHandler", "Starting WebSocket session", map[string]interface{}{"ip": ip})
		internalWS.ServeWs(h.hub, conn, h.dispatcher, ip)
		h.logger.Info("RealtimeHandler", "WebSocket session ended", map[string]interface{}{"ip": ip})
	})(c)
}

// Announce sends an operator announcement to every client. With NATS it goes
// through events.ANNOUNCEMENT so every subscriber relays it.
func (h *RealtimeHandler) Announce(c *fiber.Ctx) error {
	type Request struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Message is required"))
	}

	evt := events.New(events.TypeAnnouncement, map[string]interface{}{
		"title":   req.Title,
		"message": req.Message,
	})

	if h.publisher != nil {
		if err := h.publisher.Publish(c.UserContext(), evt); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
		}
		return c.JSON(serverutils.SuccessResponse[any]("Announcement queued", nil))
	}

	if err := h.hub.Broadcast(dto.OutboundMessage{Type: dto.KindAnnouncement, Data: evt.Payload()}); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse[any]("Announcement sent", nil))
}

func (h *RealtimeHandler) RegisterRoutes(router fiber.Router, sessionRequired fiber.Handler) {
	router.Post("/api/announcements", sessionRequired, h.Announce)

	// WebSocket
	router.Get("/ws", h.ServeWs)
}
