package dto

import (
	"time"

	"github.com/noah-isme/gema-classroom/internal/models"
)

// AnnouncementCreateRequest posts an announcement to a course.
type AnnouncementCreateRequest struct {
	Title   string `json:"title" validate:"required,min=3,max=255"`
	Content string `json:"content" validate:"required,min=1,max=8000"`
}

// AnnouncementResponse is the serialized representation of an announcement.
type AnnouncementResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	AuthorID  uint      `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAnnouncementResponse converts the model into a DTO.
func NewAnnouncementResponse(model models.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		AuthorID:  model.AuthorID,
		Title:     model.Title,
		Content:   model.Content,
		CreatedAt: model.CreatedAt,
	}
}

// NewAnnouncementResponseSlice converts models into DTOs.
func NewAnnouncementResponseSlice(items []models.Announcement) []AnnouncementResponse {
	out := make([]AnnouncementResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAnnouncementResponse(item))
	}
	return out
}

// NoteCreateRequest adds a text note, or names an uploaded file note.
type NoteCreateRequest struct {
	Title   string `json:"title" form:"title" validate:"required,min=1,max=255"`
	Content string `json:"content" form:"content" validate:"omitempty,max=20000"`
}

// NoteResponse is the serialized representation of a note.
type NoteResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNoteResponse converts the model into a DTO.
func NewNoteResponse(model models.Note) NoteResponse {
	return NoteResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		Type:      model.Type,
		Title:     model.Title,
		Content:   model.Content,
		CreatedAt: model.CreatedAt,
	}
}

// NewNoteResponseSlice converts models into DTOs.
func NewNoteResponseSlice(items []models.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNoteResponse(item))
	}
	return out
}
