package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom/internal/dto"
	"github.com/noah-isme/gema-classroom/internal/middleware"
	"github.com/noah-isme/gema-classroom/internal/models"
	"github.com/noah-isme/gema-classroom/internal/observability"
	"github.com/noah-isme/gema-classroom/internal/repository"
)

const (
	chatRedisTTL     = 30 * time.Minute
	chatPingInterval = 30 * time.Second
	chatDefaultType  = "text"
	chatHistoryLimit = 50
)

// ErrNotRoomParticipant indicates the user is not a member of the chat room.
var ErrNotRoomParticipant = errors.New("user is not a participant of the room")

// ChatConn is the subset of a websocket connection used by the chat service.
type ChatConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// ChatConnectionOptions wraps metadata extracted during the HTTP upgrade.
type ChatConnectionOptions struct {
	UserID        uint
	RoomID        uint
	CorrelationID string
	Context       context.Context
}

// ChatService manages room websocket connections and message delivery.
type ChatService interface {
	Authorize(ctx context.Context, roomID, userID uint) error
	ServeConnection(conn ChatConn, opts ChatConnectionOptions)
	Send(ctx context.Context, roomID, senderID uint, payload dto.ChatSendRequest) (dto.ChatMessageResponse, error)
	History(ctx context.Context, query dto.ChatHistoryQuery, userID uint) ([]dto.ChatMessageResponse, error)
}

type chatService struct {
	repo       repository.ChatRepository
	fanout     RoomFanout
	redis      *redis.Client
	redisCache string
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	tracer     trace.Tracer
}

type chatClient struct {
	conn    ChatConn
	events  <-chan dto.RoomEvent
	cancel  func()
	options ChatConnectionOptions
	service *chatService
	closed  chan struct{}
	once    sync.Once
}

// NewChatService creates the room chat service on top of the room fan-out.
func NewChatService(repo repository.ChatRepository, fanout RoomFanout, redisClient *redis.Client, channelBase string, validate *validator.Validate, logger zerolog.Logger) ChatService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	cachePrefix := ""
	if channelBase != "" {
		cachePrefix = channelBase + ":chat:last"
	}

	return &chatService{
		repo:       repo,
		fanout:     fanout,
		redis:      redisClient,
		redisCache: cachePrefix,
		validator:  validate,
		sanitizer:  sanitizer,
		logger:     logger.With().Str("component", "chat_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gema-classroom/internal/service/chat"),
	}
}

func (s *chatService) Authorize(ctx context.Context, roomID, userID uint) error {
	if _, err := s.repo.GetRoom(ctx, roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChatRoomNotFound
		}
		return err
	}

	ok, err := s.repo.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotRoomParticipant
	}
	return nil
}

func (s *chatService) ServeConnection(conn ChatConn, opts ChatConnectionOptions) {
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	events, cancel := s.fanout.Subscribe(opts.RoomID)
	client := &chatClient{
		conn:    conn,
		events:  events,
		cancel:  cancel,
		options: opts,
		service: s,
		closed:  make(chan struct{}),
	}

	observability.ChatConnections().Inc()
	s.logger.Debug().Uint("room_id", opts.RoomID).Uint("user_id", opts.UserID).Msg("chat client connected")

	go client.writer(s.fetchLastMessage(opts.Context, opts.RoomID))
	client.reader()
}

func (s *chatService) Send(ctx context.Context, roomID, senderID uint, payload dto.ChatSendRequest) (dto.ChatMessageResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ChatMessageResponse{}, err
	}
	if err := s.Authorize(ctx, roomID, senderID); err != nil {
		return dto.ChatMessageResponse{}, err
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if clean == "" {
		return dto.ChatMessageResponse{}, ErrEmptyContent
	}

	messageType := payload.Type
	if messageType == "" {
		messageType = chatDefaultType
	}

	attrs := []attribute.KeyValue{
		attribute.Int("chat.room_id", int(roomID)),
		attribute.Int("chat.sender_id", int(senderID)),
		attribute.String("chat.type", messageType),
	}
	if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
		attrs = append(attrs, attribute.String("correlation_id", correlation))
	}

	spanCtx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(attrs...))
	defer span.End()

	model := models.ChatMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  clean,
		Type:     messageType,
	}
	if err := s.repo.Save(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.ChatMessageResponse{}, err
	}

	response := dto.NewChatMessageResponse(model)
	s.cacheLastMessage(spanCtx, response)
	s.fanout.Publish(spanCtx, roomID, dto.RoomEventMessage, response)

	observability.ChatMessages().WithLabelValues(messageType).Inc()
	return response, nil
}

func (s *chatService) History(ctx context.Context, query dto.ChatHistoryQuery, userID uint) ([]dto.ChatMessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, query.RoomID, userID); err != nil {
		return nil, err
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}
	limit := query.Limit
	if limit == 0 {
		limit = chatHistoryLimit
	}

	messages, err := s.repo.ListByRoom(ctx, query.RoomID, before, limit)
	if err != nil {
		return nil, err
	}
	return dto.NewChatMessageResponseSlice(messages), nil
}

func (s *chatService) cacheKey(roomID uint) string {
	return fmt.Sprintf("%s:%d", s.redisCache, roomID)
}

func (s *chatService) cacheLastMessage(ctx context.Context, message dto.ChatMessageResponse) {
	if s.redis == nil || s.redisCache == "" {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal chat message for cache")
		return
	}
	if err := s.redis.Set(ctx, s.cacheKey(message.RoomID), payload, chatRedisTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache chat message")
	}
}

func (s *chatService) fetchLastMessage(ctx context.Context, roomID uint) *dto.RoomEvent {
	if s.redis == nil || s.redisCache == "" {
		return nil
	}

	result, err := s.redis.Get(ctx, s.cacheKey(roomID)).Bytes()
	if err != nil {
		return nil
	}

	var message dto.ChatMessageResponse
	if err := json.Unmarshal(result, &message); err != nil {
		s.logger.Warn().Err(err).Msg("failed to unmarshal cached chat message")
		return nil
	}

	return &dto.RoomEvent{
		Event:  dto.RoomEventMessage,
		RoomID: roomID,
		Data:   json.RawMessage(result),
		SentAt: message.CreatedAt,
	}
}

func (c *chatClient) reader() {
	defer c.close()

	ctx := c.options.Context
	if c.options.CorrelationID != "" {
		ctx = middleware.ContextWithCorrelation(ctx, c.options.CorrelationID)
	}

	for {
		var payload dto.ChatSendRequest
		if err := c.conn.ReadJSON(&payload); err != nil {
			c.service.logger.Debug().Err(err).Msg("chat read loop ended")
			return
		}

		if _, err := c.service.Send(ctx, c.options.RoomID, c.options.UserID, payload); err != nil {
			c.service.logger.Warn().Err(err).Uint("room_id", c.options.RoomID).Uint("user_id", c.options.UserID).Msg("failed to process chat message")
			if errors.Is(err, ErrNotRoomParticipant) {
				return
			}
		}
	}
}

func (c *chatClient) writer(initial *dto.RoomEvent) {
	defer c.close()

	if initial != nil {
		if err := c.conn.WriteJSON(initial); err != nil {
			return
		}
	}

	ticker := time.NewTicker(chatPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *chatClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.cancel()
		_ = c.conn.Close()
		observability.ChatConnections().Dec()
		c.service.logger.Debug().Uint("room_id", c.options.RoomID).Uint("user_id", c.options.UserID).Msg("chat client disconnected")
	})
}
