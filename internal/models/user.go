package models

import "time"

// User types mirror the roles a person can hold across the platform.
const (
	UserTypeStudent   = "student"
	UserTypeTeacher   = "teacher"
	UserTypeVolunteer = "volunteer"
	UserTypeAdmin     = "admin"
)

// User represents any person known to the directory: learners, trainers and volunteers.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	UserType     string    `gorm:"size:32;not null;default:student" json:"user_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
