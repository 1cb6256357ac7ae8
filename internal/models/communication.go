package models

import "time"

// ChatRoom is the messaging channel of a course.
type ChatRoom struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  *uint     `gorm:"index" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatRoomParticipant is one member of a chat room. A user appears at most once per room.
type ChatRoomParticipant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;uniqueIndex:idx_room_participant" json:"room_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_room_participant;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage represents a single message posted in a room.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"index;not null" json:"room_id"`
	SenderID  uint      `gorm:"index;not null" json:"sender_id"`
	Content   string    `gorm:"type:text" json:"content"`
	Type      string    `gorm:"size:32;default:text" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
		&ChatRoom{},
		&ChatRoomParticipant{},
		&ChatMessage{},
		&Course{},
		&CourseMembership{},
		&Assessment{},
		&Question{},
		&Submission{},
		&Announcement{},
		&Note{},
	}
}
