package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SHREYANK007/LMS-sub003/models"
	ical "github.com/arran4/golang-ical"
)

var ErrNotScheduled = errors.New("session request has no scheduled time")

const productID = "-//Tutoring LMS//Session Requests//EN"

// Participant is an attendee written into the exported event.
type Participant struct {
	Email string
}

// ExportICS renders a scheduled session request as a single VEVENT calendar.
func ExportICS(req *models.SessionRequest, attendees ...Participant) (string, error) {
	if req.ScheduledDateTime == nil {
		return "", ErrNotScheduled
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	ev := cal.AddEvent(req.ID.String() + "@session-requests")
	ev.SetDtStampTime(time.Now().UTC())
	ev.SetCreatedTime(req.CreatedAt.UTC())
	ev.SetModifiedAt(req.UpdatedAt.UTC())
	ev.SetStartAt(req.ScheduledDateTime.UTC())
	ev.SetEndAt(req.EndTime().UTC())
	ev.SetSummary(EventTitle(req))
	ev.SetDescription(EventDescription(req))
	ev.SetSequence(req.Version)
	ev.SetStatus(eventStatus(req.Status))

	if req.MeetLink != nil && *req.MeetLink != "" {
		ev.SetURL(*req.MeetLink)
		ev.SetLocation(*req.MeetLink)
	}
	for _, a := range attendees {
		if a.Email != "" {
			ev.AddAttendee(a.Email)
		}
	}

	return cal.Serialize(), nil
}

// EventTitle is the summary used for both the provider event and the ICS export.
func EventTitle(req *models.SessionRequest) string {
	return fmt.Sprintf("Tutoring session: %s", req.Subject)
}

func EventDescription(req *models.SessionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", req.Subject)
	fmt.Fprintf(&b, "Duration: %d minutes\n", req.Duration)
	if req.Description != nil && *req.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", *req.Description)
	}
	if req.AdminNotes != nil && *req.AdminNotes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", *req.AdminNotes)
	}
	return strings.TrimRight(b.String(), "\n")
}

func eventStatus(s models.SessionStatus) ical.ObjectStatus {
	switch s {
	case models.SessionStatusApproved, models.SessionStatusCompleted:
		return ical.ObjectStatusConfirmed
	case models.SessionStatusCancelled, models.SessionStatusRejected:
		return ical.ObjectStatusCancelled
	default:
		return ical.ObjectStatusTentative
	}
}
