package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/middleware"
	"github.com/noah-isme/gema-classroom/internal/service"
	"github.com/noah-isme/gema-classroom/internal/utils"
)

// ChatHandler wires room history and the room websocket.
type ChatHandler struct {
	service service.ChatService
	logger  zerolog.Logger
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(service service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Get("/rooms/:roomId/messages", middleware.WithAuth(h.history, middleware.AuthOptions{Role: middleware.AuthRoleAny}))
	router.Get("/rooms/:roomId/ws", h.upgrade, websocket.New(h.handleConnection))
}

// upgrade authorizes the caller before the handshake so rejected clients get a regular HTTP error.
func (h *ChatHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendErrorKind(c, fiber.StatusUnauthorized, kindForbidden, "authentication required")
	}
	roomID, err := parseUintParam(c, "roomId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := requestContext(c)
	if err := h.service.Authorize(ctx, roomID, userID); err != nil {
		return respondError(c, h.logger, err)
	}

	c.Locals("request_ctx", ctx)
	c.Locals("room_id", roomID)
	return c.Next()
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(uint)
	roomID, _ := conn.Locals("room_id").(uint)
	correlation, _ := conn.Locals("correlation_id").(string)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.ChatConnectionOptions{
		UserID:        userID,
		RoomID:        roomID,
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Uint("user_id", userID).Uint("room_id", roomID).Msg("chat websocket connected")
	h.service.ServeConnection(conn, opts)
	h.logger.Info().Uint("user_id", userID).Uint("room_id", roomID).Msg("chat websocket disconnected")
}

func (h *ChatHandler) history(c *fiber.Ctx) error {
	roomID, err := parseUintParam(c, "roomId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var beforePtr *time.Time
	if before := c.Query("before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return badRequest(c, "invalid before timestamp")
		}
		beforePtr = &parsed
	}

	limit := 0
	if limitRaw := c.Query("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = parsed
	}

	query := dto.ChatHistoryQuery{
		RoomID: roomID,
		Before: beforePtr,
		Limit:  limit,
	}

	messages, err := h.service.History(requestContext(c), query, userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	meta := dto.ChatHistoryMeta{Count: len(messages)}
	if len(messages) > 0 {
		oldest := messages[0].CreatedAt
		meta.NextBefore = &oldest
	}
	return utils.OK(c, messages, "chat history", meta)
}
