package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SHREYANK007/LMS-sub003/calendar"
	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/models"
	"go.uber.org/zap"
)

const (
	opCreate = "create"
	opDelete = "delete"
)

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Checked  int
	Repaired int
	Failed   int
}

// Reconcile retries calendar work left behind by earlier transitions: missing
// events for upcoming sessions and leftover events on closed requests.
func (s *SessionRequestService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	if s.calendar == nil {
		return report, nil
	}

	pending, err := s.requests.ListNeedingCalendarSync(ctx, s.now())
	if err != nil {
		return report, err
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		req := &pending[i]
		report.Checked++

		student, tutor := s.participants(ctx, req)
		var issues []CalendarIssue
		switch req.Status {
		case models.SessionStatusAssigned, models.SessionStatusApproved:
			issues = s.syncCalendar(ctx, req, student, tutor)
		case models.SessionStatusCancelled, models.SessionStatusRejected:
			issues = s.removeCalendar(ctx, req, student, tutor)
		}

		if len(issues) > 0 {
			report.Failed++
		} else {
			report.Repaired++
		}
	}

	s.logger.Info("Calendar reconciliation finished",
		zap.Int("checked", report.Checked),
		zap.Int("repaired", report.Repaired),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// syncCalendar creates the events missing on either side. Sides are
// independent: one may succeed while the other fails. Each ref is attached only
// if the side is still empty; an event that loses that race is deleted again.
func (s *SessionRequestService) syncCalendar(ctx context.Context, req *models.SessionRequest, student, tutor *models.User) []CalendarIssue {
	if s.calendar == nil || req.ScheduledDateTime == nil {
		return nil
	}

	var issues []CalendarIssue
	for _, side := range models.CalendarSides {
		if req.CalendarEventID(side) != nil {
			continue
		}
		user := participantFor(side, student, tutor)
		if user == nil {
			issues = append(issues, s.calendarIssue(req, string(side), opCreate, errors.New("participant not found")))
			continue
		}

		owner, attendees, err := s.eventOwner(ctx, user)
		if err != nil {
			issues = append(issues, s.calendarIssue(req, string(side), opCreate, err))
			continue
		}

		in := calendar.EventInput{
			Title:          calendar.EventTitle(req),
			Description:    calendar.EventDescription(req),
			Start:          *req.ScheduledDateTime,
			End:            *req.EndTime(),
			AttendeeEmails: attendees,
			RequestID:      fmt.Sprintf("%s-%s", req.ID, side),
		}
		if req.MeetLink != nil {
			in.MeetLink = *req.MeetLink
		}

		ref, err := s.calendar.CreateEvent(ctx, owner, in)
		if err != nil {
			issues = append(issues, s.calendarIssue(req, string(side), opCreate, err))
			continue
		}

		attached, err := s.requests.AttachCalendarEvent(ctx, req, side, ref.EventID, ref.MeetLink, ref.HTMLLink)
		if err != nil {
			s.discardEvent(ctx, req, side, owner, ref.EventID)
			issues = append(issues, s.calendarIssue(req, string(side), opCreate, err))
			continue
		}
		if !attached {
			s.logger.Info("Calendar event already attached, discarding duplicate",
				zap.String("request_id", req.ID.String()),
				zap.String("side", string(side)),
				zap.String("event_id", ref.EventID),
			)
			s.discardEvent(ctx, req, side, owner, ref.EventID)
		}
	}
	return issues
}

// removeCalendar deletes stored events. Deleted sides lose their id; failed
// sides keep it so reconciliation can retry.
func (s *SessionRequestService) removeCalendar(ctx context.Context, req *models.SessionRequest, student, tutor *models.User) []CalendarIssue {
	if s.calendar == nil || !req.HasCalendarEvents() {
		return nil
	}

	var issues []CalendarIssue
	for _, side := range models.CalendarSides {
		eventID := req.CalendarEventID(side)
		if eventID == nil {
			continue
		}
		user := participantFor(side, student, tutor)
		if user == nil {
			issues = append(issues, s.calendarIssue(req, string(side), opDelete, errors.New("participant not found")))
			continue
		}

		owner, _, err := s.eventOwner(ctx, user)
		if err == nil {
			err = s.calendar.DeleteEvent(ctx, owner, *eventID)
		}
		if err != nil {
			issues = append(issues, s.calendarIssue(req, string(side), opDelete, err))
			continue
		}

		if _, err := s.requests.DetachCalendarEvent(ctx, req, side, *eventID); err != nil {
			s.logger.Error("Failed to clear calendar ref",
				zap.String("request_id", req.ID.String()),
				zap.String("side", string(side)),
				zap.Error(err),
			)
		}
	}
	return issues
}

func participantFor(side models.CalendarSide, student, tutor *models.User) *models.User {
	if side == models.CalendarSideTutor {
		return tutor
	}
	return student
}

// discardEvent deletes an event that no request references.
func (s *SessionRequestService) discardEvent(ctx context.Context, req *models.SessionRequest, side models.CalendarSide, owner calendar.Account, eventID string) {
	if err := s.calendar.DeleteEvent(ctx, owner, eventID); err != nil {
		s.metrics.CalendarFailure(string(side), opDelete)
		s.logger.Error("Failed to delete unreferenced calendar event",
			zap.String("request_id", req.ID.String()),
			zap.String("side", string(side)),
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}

// eventOwner picks the calendar that holds a participant's event: their own
// linked calendar, or else the organizer's with the participant as attendee.
func (s *SessionRequestService) eventOwner(ctx context.Context, user *models.User) (calendar.Account, []string, error) {
	if user.HasCalendarLink() {
		account := calendar.Account{UserID: user.ID, Email: user.Email}
		if user.GoogleCalendarID != nil {
			account.CalendarID = *user.GoogleCalendarID
		}
		return account, nil, nil
	}

	if s.organizerEmail == "" {
		return calendar.Account{}, nil, calendar.ErrNoLinkedCalendar
	}
	organizer, err := s.users.GetByEmail(ctx, s.organizerEmail)
	if errors.Is(err, database.ErrNotFound) {
		return calendar.Account{}, nil, calendar.ErrNoLinkedCalendar
	}
	if err != nil {
		return calendar.Account{}, nil, err
	}
	if !organizer.HasCalendarLink() {
		return calendar.Account{}, nil, calendar.ErrNoLinkedCalendar
	}

	account := calendar.Account{UserID: organizer.ID, Email: organizer.Email}
	if organizer.GoogleCalendarID != nil {
		account.CalendarID = *organizer.GoogleCalendarID
	}
	return account, []string{user.Email}, nil
}

func (s *SessionRequestService) calendarIssue(req *models.SessionRequest, side, op string, err error) CalendarIssue {
	s.metrics.CalendarFailure(side, op)

	reason, message := "provider", fmt.Sprintf("could not %s the %s calendar event, it will be retried", op, side)
	if calendar.IsAuthError(err) {
		reason = "auth"
		message = fmt.Sprintf("the %s calendar is not linked or its authorization expired", side)
	}

	s.logger.Warn("Calendar side effect failed",
		zap.String("request_id", req.ID.String()),
		zap.String("side", side),
		zap.String("operation", op),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return CalendarIssue{Side: side, Operation: op, Reason: reason, Message: message}
}
