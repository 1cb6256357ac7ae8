package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// Room event names delivered over the room websocket.
const (
	RoomEventMessage            = "message"
	RoomEventParticipantAdded   = "participantAdded"
	RoomEventParticipantRemoved = "participantRemoved"
	RoomEventAnnouncement       = "announcement"
)

// ChatSendRequest represents the payload sent from clients to post a chat message.
type ChatSendRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
	Type    string `json:"type" validate:"omitempty,oneof=text image file system"`
}

// ChatHistoryQuery represents query filters for retrieving chat history.
type ChatHistoryQuery struct {
	RoomID uint       `validate:"required"`
	Before *time.Time `query:"before"`
	Limit  int        `query:"limit" validate:"omitempty,min=1,max=100"`
}

// ChatMessageResponse is the serialized representation of a chat message.
type ChatMessageResponse struct {
	ID        uint      `json:"id"`
	RoomID    uint      `json:"room_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistoryMeta lets clients page backwards through a room's history.
type ChatHistoryMeta struct {
	Count      int        `json:"count"`
	NextBefore *time.Time `json:"next_before,omitempty"`
}

// NewChatMessageResponse converts a model into a DTO.
func NewChatMessageResponse(message models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        message.ID,
		RoomID:    message.RoomID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		Type:      message.Type,
		CreatedAt: message.CreatedAt,
	}
}

// NewChatMessageResponseSlice converts a slice of models into DTOs.
func NewChatMessageResponseSlice(messages []models.ChatMessage) []ChatMessageResponse {
	out := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewChatMessageResponse(message))
	}
	return out
}

// RoomEvent is the frame written to room websocket clients and relayed between nodes.
type RoomEvent struct {
	Event  string          `json:"event"`
	RoomID uint            `json:"room_id"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}
