package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "PENDING"
	SessionStatusAssigned  SessionStatus = "ASSIGNED"
	SessionStatusApproved  SessionStatus = "APPROVED"
	SessionStatusRejected  SessionStatus = "REJECTED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

func (s SessionStatus) String() string {
	return string(s)
}

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusPending, SessionStatusAssigned, SessionStatusApproved,
		SessionStatusRejected, SessionStatusCompleted, SessionStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition can leave the status.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusRejected, SessionStatusCompleted, SessionStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo returns true if the status can move to target.
//
//	PENDING  → ASSIGNED | APPROVED | REJECTED | CANCELLED
//	ASSIGNED → APPROVED | REJECTED | CANCELLED | COMPLETED
//	APPROVED → CANCELLED | COMPLETED
//
// REJECTED, COMPLETED and CANCELLED are terminal.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch s {
	case SessionStatusPending:
		return target == SessionStatusAssigned || target == SessionStatusApproved ||
			target == SessionStatusRejected || target == SessionStatusCancelled
	case SessionStatusAssigned:
		return target == SessionStatusApproved || target == SessionStatusRejected ||
			target == SessionStatusCancelled || target == SessionStatusCompleted
	case SessionStatusApproved:
		return target == SessionStatusCancelled || target == SessionStatusCompleted
	case SessionStatusRejected, SessionStatusCompleted, SessionStatusCancelled:
		return false
	default:
		return false
	}
}

type SessionRequest struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	StudentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"studentId"`
	TutorID   *uuid.UUID `gorm:"type:uuid;index" json:"tutorId"`

	PreferredDate     string     `gorm:"size:10;not null" json:"preferredDate"`
	PreferredTime     string     `gorm:"size:5;not null" json:"preferredTime"`
	Duration          int        `gorm:"not null" json:"duration"`
	ScheduledDateTime *time.Time `json:"scheduledDateTime"`

	Subject     string  `gorm:"size:255;not null" json:"subject"`
	Description *string `gorm:"type:text" json:"description"`

	Status             SessionStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	AdminNotes         *string       `gorm:"type:text" json:"adminNotes"`
	RejectionReason    *string       `gorm:"type:text" json:"rejectionReason"`
	CancellationReason *string       `gorm:"type:text" json:"cancellationReason"`

	TutorCalendarEventID   *string `gorm:"size:255" json:"tutorCalendarEventId"`
	StudentCalendarEventID *string `gorm:"size:255" json:"studentCalendarEventId"`
	MeetLink               *string `gorm:"size:255" json:"meetLink"`
	CalendarEventLink      *string `gorm:"size:512" json:"calendarEventLink"`

	// Version increments on every status transition and guards against lost updates.
	Version int `gorm:"not null;default:1" json:"version"`

	Student User  `gorm:"foreignkey:StudentID" json:"-"`
	Tutor   *User `gorm:"foreignkey:TutorID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *SessionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = SessionStatusPending
	}
	if r.Version == 0 {
		r.Version = 1
	}
	return nil
}

// EndTime is the scheduled end of the session, nil while unscheduled.
func (r *SessionRequest) EndTime() *time.Time {
	if r.ScheduledDateTime == nil {
		return nil
	}
	end := r.ScheduledDateTime.Add(time.Duration(r.Duration) * time.Minute)
	return &end
}

func (r *SessionRequest) HasCalendarEvents() bool {
	return r.TutorCalendarEventID != nil || r.StudentCalendarEventID != nil
}

// CalendarSide is the participant whose calendar holds an event.
type CalendarSide string

const (
	CalendarSideTutor   CalendarSide = "tutor"
	CalendarSideStudent CalendarSide = "student"
)

// CalendarSides lists both sides in the order events are created.
var CalendarSides = []CalendarSide{CalendarSideTutor, CalendarSideStudent}

// CalendarEventID returns the stored event id for side.
func (r *SessionRequest) CalendarEventID(side CalendarSide) *string {
	if side == CalendarSideTutor {
		return r.TutorCalendarEventID
	}
	return r.StudentCalendarEventID
}

// IsParticipant reports whether the user is the owning student or the assigned tutor.
func (r *SessionRequest) IsParticipant(userID uuid.UUID) bool {
	if r.StudentID == userID {
		return true
	}
	return r.TutorID != nil && *r.TutorID == userID
}

func (r *SessionRequest) IsAssignedTutor(userID uuid.UUID) bool {
	return r.TutorID != nil && *r.TutorID == userID
}

// SessionRequestFilter narrows down ListAll results. Zero values match everything.
type SessionRequestFilter struct {
	Status    SessionStatus
	TutorID   *uuid.UUID
	StudentID *uuid.UUID
}

// CheckInvariants verifies the status-dependent fields:
// a tutor is assigned exactly when the request left PENDING for an active or
// completed state, and each terminal reason only accompanies its own status.
func (r *SessionRequest) CheckInvariants() error {
	switch r.Status {
	case SessionStatusPending:
		if r.TutorID != nil {
			return fmt.Errorf("pending request %s has a tutor", r.ID)
		}
	case SessionStatusAssigned, SessionStatusApproved, SessionStatusCompleted:
		if r.TutorID == nil {
			return fmt.Errorf("%s request %s has no tutor", r.Status, r.ID)
		}
	}
	if r.RejectionReason != nil && r.Status != SessionStatusRejected {
		return fmt.Errorf("request %s has a rejection reason but status %s", r.ID, r.Status)
	}
	if r.CancellationReason != nil && r.Status != SessionStatusCancelled {
		return fmt.Errorf("request %s has a cancellation reason but status %s", r.ID, r.Status)
	}
	return nil
}

// CalendarSyncPending reports whether the stored event ids disagree with the
// status: an upcoming active session missing an event, or a closed request
// still holding one.
func (r *SessionRequest) CalendarSyncPending(now time.Time) bool {
	switch r.Status {
	case SessionStatusAssigned, SessionStatusApproved:
		if r.ScheduledDateTime == nil || !r.ScheduledDateTime.After(now) {
			return false
		}
		return r.TutorCalendarEventID == nil || r.StudentCalendarEventID == nil
	case SessionStatusCancelled, SessionStatusRejected:
		return r.HasCalendarEvents()
	default:
		return false
	}
}
