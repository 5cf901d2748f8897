package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTutor, RoleStudent:
		return true
	default:
		return false
	}
}

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FullName   string    `gorm:"size:255;not null" json:"fullName"`
	Email      string    `gorm:"size:255;not null;unique" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	Role       Role      `gorm:"size:20;not null;default:'student'" json:"role"`
	CourseType *string   `gorm:"size:50" json:"courseType"`
	IsActive   bool      `gorm:"not null;default:true" json:"isActive"`

	// Google Calendar linkage. Tokens never leave the server.
	GoogleAccessToken  *string    `gorm:"type:text" json:"-"`
	GoogleRefreshToken *string    `gorm:"type:text" json:"-"`
	GoogleTokenExpiry  *time.Time `json:"-"`
	GoogleCalendarID   *string    `gorm:"size:255" json:"-"`
	CalendarLinkedAt   *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasCalendarLink reports whether the user completed the Google OAuth flow.
func (u *User) HasCalendarLink() bool {
	return u.GoogleRefreshToken != nil && *u.GoogleRefreshToken != ""
}

func (u *User) IsActiveTutor() bool {
	return u.Role == RoleTutor && u.IsActive
}
