package models

import "time"

// Organization owns courses and the administrators that manage them.
type Organization struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Address      string    `gorm:"size:512" json:"address"`
	ContactEmail string    `gorm:"size:255;not null" json:"contact_email"`
	ContactPhone string    `gorm:"size:32" json:"contact_phone"`
	Website      string    `gorm:"size:512" json:"website"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
