package handlers

import (
	"time"

	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/google/uuid"
)

// SessionRequestView is the API shape of a session request. Calendar event ids
// are only shown to whoever owns them.
type SessionRequestView struct {
	ID                 uuid.UUID            `json:"id"`
	StudentID          uuid.UUID            `json:"studentId"`
	TutorID            *uuid.UUID           `json:"tutorId"`
	PreferredDate      string               `json:"preferredDate"`
	PreferredTime      string               `json:"preferredTime"`
	Duration           int                  `json:"duration"`
	ScheduledDateTime  *time.Time           `json:"scheduledDateTime"`
	EndDateTime        *time.Time           `json:"endDateTime"`
	Subject            string               `json:"subject"`
	Description        *string              `json:"description"`
	Status             models.SessionStatus `json:"status"`
	AdminNotes         *string              `json:"adminNotes"`
	RejectionReason    *string              `json:"rejectionReason"`
	CancellationReason *string              `json:"cancellationReason"`
	MeetLink           *string              `json:"meetLink"`
	CalendarEventLink  *string              `json:"calendarEventLink"`

	TutorCalendarEventID   *string `json:"tutorCalendarEventId,omitempty"`
	StudentCalendarEventID *string `json:"studentCalendarEventId,omitempty"`
	CalendarSyncPending    bool    `json:"calendarSyncPending"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func present(req *models.SessionRequest, actor models.Actor, now time.Time) SessionRequestView {
	v := SessionRequestView{
		ID:                  req.ID,
		StudentID:           req.StudentID,
		TutorID:             req.TutorID,
		PreferredDate:       req.PreferredDate,
		PreferredTime:       req.PreferredTime,
		Duration:            req.Duration,
		ScheduledDateTime:   req.ScheduledDateTime,
		EndDateTime:         req.EndTime(),
		Subject:             req.Subject,
		Description:         req.Description,
		Status:              req.Status,
		AdminNotes:          req.AdminNotes,
		RejectionReason:     req.RejectionReason,
		CancellationReason:  req.CancellationReason,
		MeetLink:            req.MeetLink,
		CalendarEventLink:   req.CalendarEventLink,
		CalendarSyncPending: req.CalendarSyncPending(now),
		Version:             req.Version,
		CreatedAt:           req.CreatedAt,
		UpdatedAt:           req.UpdatedAt,
	}

	switch {
	case actor.IsAdmin():
		v.TutorCalendarEventID = req.TutorCalendarEventID
		v.StudentCalendarEventID = req.StudentCalendarEventID
	case actor.IsTutor() && req.IsAssignedTutor(actor.ID):
		v.TutorCalendarEventID = req.TutorCalendarEventID
	case actor.IsStudent() && req.StudentID == actor.ID:
		v.StudentCalendarEventID = req.StudentCalendarEventID
	}
	return v
}

func presentAll(reqs []models.SessionRequest, actor models.Actor, now time.Time) []SessionRequestView {
	out := make([]SessionRequestView, 0, len(reqs))
	for i := range reqs {
		out = append(out, present(&reqs[i], actor, now))
	}
	return out
}
