package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SHREYANK007/LMS-sub003/calendar"
	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/metrics"
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/SHREYANK007/LMS-sub003/notifications"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier sends e-mails about workflow changes.
type Notifier interface {
	SessionRequestChanged(change notifications.Change)
}

// Publisher pushes live updates to connected participants.
type Publisher interface {
	PublishSessionRequest(req *models.SessionRequest)
}

type Options struct {
	Requests *database.SessionRequestStore
	Users    *database.UserStore
	// Calendar may be nil, in which case no calendar events are managed.
	Calendar       calendar.Gateway
	OrganizerEmail string
	Notifier       Notifier
	Publisher      Publisher
	Metrics        *metrics.Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// SessionRequestService runs the session request workflow. Status changes are
// authoritative; calendar side effects are best effort and reported back.
type SessionRequestService struct {
	requests       *database.SessionRequestStore
	users          *database.UserStore
	calendar       calendar.Gateway
	organizerEmail string
	notifier       Notifier
	publisher      Publisher
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

func NewSessionRequestService(opts Options) *SessionRequestService {
	s := &SessionRequestService{
		requests:       opts.Requests,
		users:          opts.Users,
		calendar:       opts.Calendar,
		organizerEmail: strings.ToLower(strings.TrimSpace(opts.OrganizerEmail)),
		notifier:       opts.Notifier,
		publisher:      opts.Publisher,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		now:            opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MaxSessionMinutes caps a single session at one working day.
const MaxSessionMinutes = 8 * 60

type CreateInput struct {
	PreferredDate string
	PreferredTime string
	Duration      int
	Subject       string
	Description   *string
}

// CalendarIssue is a calendar side effect that did not complete.
type CalendarIssue struct {
	Side      string `json:"side"`
	Operation string `json:"operation"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

type TransitionResult struct {
	Request        *models.SessionRequest
	CalendarIssues []CalendarIssue
}

// Create files a new PENDING request owned by the calling student.
func (s *SessionRequestService) Create(ctx context.Context, actor models.Actor, in CreateInput) (*models.SessionRequest, error) {
	if !actor.IsStudent() {
		return nil, fmt.Errorf("%w: only students can request sessions", ErrForbidden)
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, invalid("subject", "is required")
	}
	if _, err := time.Parse("2006-01-02", in.PreferredDate); err != nil {
		return nil, invalid("preferredDate", "must be a date formatted YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", in.PreferredTime); err != nil {
		return nil, invalid("preferredTime", "must be a time formatted HH:MM")
	}
	if in.Duration <= 0 {
		return nil, invalid("duration", "must be a positive number of minutes")
	}
	if in.Duration > MaxSessionMinutes {
		return nil, invalid("duration", fmt.Sprintf("must be at most %d minutes", MaxSessionMinutes))
	}

	req := &models.SessionRequest{
		StudentID:     actor.ID,
		PreferredDate: in.PreferredDate,
		PreferredTime: in.PreferredTime,
		Duration:      in.Duration,
		Subject:       subject,
		Description:   trimmed(in.Description),
		Status:        models.SessionStatusPending,
		Version:       1,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.metrics.Transition("create", string(req.Status))
	s.logger.Info("Session request created",
		zap.String("request_id", req.ID.String()),
		zap.String("student_id", actor.ID.String()),
	)

	student, _ := s.participants(ctx, req)
	s.announce(notifications.Change{Event: notifications.EventCreated, ActorID: actor.ID, Request: req, Student: student})
	return req, nil
}

// Get returns a request visible to the actor: admins see all, students their own,
// tutors the ones assigned to them.
func (s *SessionRequestService) Get(ctx context.Context, actor models.Actor, id uuid.UUID) (*models.SessionRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleStudent:
		if req.StudentID != actor.ID {
			return nil, ErrForbidden
		}
	case models.RoleTutor:
		if !req.IsAssignedTutor(actor.ID) {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	return req, nil
}

func (s *SessionRequestService) ListMine(ctx context.Context, actor models.Actor) ([]models.SessionRequest, error) {
	switch actor.Role {
	case models.RoleStudent:
		return s.requests.ListForStudent(ctx, actor.ID)
	case models.RoleTutor:
		return s.requests.ListForTutor(ctx, actor.ID)
	default:
		return nil, fmt.Errorf("%w: only students and tutors have own requests", ErrForbidden)
	}
}

// List returns every request for admins (filtered) and the assigned ones for tutors.
func (s *SessionRequestService) List(ctx context.Context, actor models.Actor, filter models.SessionRequestFilter) ([]models.SessionRequest, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, invalid("status", "unknown status "+string(filter.Status))
	}
	switch actor.Role {
	case models.RoleAdmin:
		return s.requests.ListAll(ctx, filter)
	case models.RoleTutor:
		return s.requests.ListAll(ctx, models.SessionRequestFilter{
			Status:    filter.Status,
			TutorID:   &actor.ID,
			StudentID: filter.StudentID,
		})
	default:
		return nil, ErrForbidden
	}
}

// ExportICS renders the request as an iCalendar file for a participant or admin.
func (s *SessionRequestService) ExportICS(ctx context.Context, actor models.Actor, id uuid.UUID) (string, error) {
	req, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	student, tutor := s.participants(ctx, req)

	var attendees []calendar.Participant
	for _, u := range []*models.User{student, tutor} {
		if u != nil {
			attendees = append(attendees, calendar.Participant{Email: u.Email})
		}
	}
	out, err := calendar.ExportICS(req, attendees...)
	if errors.Is(err, calendar.ErrNotScheduled) {
		return "", invalid("scheduledDateTime", "request has not been scheduled yet")
	}
	return out, err
}

// ApplyTransition is the only way a request changes status. The status write is
// guarded by the row version; calendar effects run afterwards and their failures
// are returned as issues rather than errors.
func (s *SessionRequestService) ApplyTransition(ctx context.Context, id uuid.UUID, t Transition, actor models.Actor, expectedVersion *int) (*TransitionResult, error) {
	if err := validateTransition(t); err != nil {
		return nil, err
	}

	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && *expectedVersion != req.Version {
		return nil, ErrConflict
	}
	readVersion := req.Version
	from := req.Status

	effect, err := s.guard(ctx, req, t, actor)
	if err != nil {
		return nil, err
	}
	if err := req.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("transition %s: %w", t.Event(), err)
	}

	if err := s.requests.SaveTransition(ctx, req, readVersion); err != nil {
		switch {
		case errors.Is(err, database.ErrStaleVersion):
			return nil, ErrConflict
		case errors.Is(err, database.ErrNotFound):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	s.metrics.Transition(t.Event(), string(req.Status))
	s.logger.Info("Session request transitioned",
		zap.String("request_id", req.ID.String()),
		zap.String("event", t.Event()),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)),
		zap.String("actor_id", actor.ID.String()),
		zap.Int("version", req.Version),
	)

	student, tutor := s.participants(ctx, req)

	var issues []CalendarIssue
	switch effect {
	case effectCreate:
		issues = s.syncCalendar(ctx, req, student, tutor)
	case effectDelete:
		issues = s.removeCalendar(ctx, req, student, tutor)
	}

	s.announce(notifications.Change{
		Event:   changeEvent(t),
		ActorID: actor.ID,
		Request: req,
		Student: student,
		Tutor:   tutor,
	})
	return &TransitionResult{Request: req, CalendarIssues: issues}, nil
}

// guard checks who may apply t to req in its current status and mutates req to
// the target state. It returns the calendar work the new state needs.
func (s *SessionRequestService) guard(ctx context.Context, req *models.SessionRequest, t Transition, actor models.Actor) (calendarEffect, error) {
	switch t := t.(type) {
	case Assign:
		if !actor.IsAdmin() {
			return effectNone, fmt.Errorf("%w: only admins can assign tutors", ErrForbidden)
		}
		if req.Status != models.SessionStatusPending {
			return effectNone, s.invalidTransition(t, req.Status)
		}
		if err := s.requireActiveTutor(ctx, t.TutorID); err != nil {
			return effectNone, err
		}
		if err := s.checkSchedule(t.ScheduledDateTime); err != nil {
			return effectNone, err
		}

		req.TutorID = &t.TutorID
		req.Status = models.SessionStatusAssigned
		if t.Approve {
			req.Status = models.SessionStatusApproved
		}
		if notes := trimmed(t.AdminNotes); notes != nil {
			req.AdminNotes = notes
		}
		if t.ScheduledDateTime != nil {
			at := t.ScheduledDateTime.UTC()
			req.ScheduledDateTime = &at
			return effectCreate, nil
		}
		return effectNone, nil

	case Approve:
		if !actor.IsAdmin() && !(actor.IsTutor() && req.IsAssignedTutor(actor.ID)) {
			return effectNone, fmt.Errorf("%w: only admins or the assigned tutor can approve", ErrForbidden)
		}
		if !req.Status.CanTransitionTo(models.SessionStatusApproved) {
			return effectNone, s.invalidTransition(t, req.Status)
		}

		if req.Status == models.SessionStatusPending {
			if t.TutorID == nil {
				return effectNone, invalid("tutorId", "is required to approve a pending request")
			}
			if err := s.requireActiveTutor(ctx, *t.TutorID); err != nil {
				return effectNone, err
			}
			tutorID := *t.TutorID
			req.TutorID = &tutorID
		} else if t.TutorID != nil && !req.IsAssignedTutor(*t.TutorID) {
			return effectNone, invalid("tutorId", "use a new request to change the assigned tutor")
		}

		if t.ScheduledDateTime != nil {
			if req.ScheduledDateTime != nil && !req.ScheduledDateTime.Equal(*t.ScheduledDateTime) {
				return effectNone, invalid("scheduledDateTime", "request is already scheduled")
			}
			if err := s.checkSchedule(t.ScheduledDateTime); err != nil {
				return effectNone, err
			}
			at := t.ScheduledDateTime.UTC()
			req.ScheduledDateTime = &at
		}
		if notes := trimmed(t.AdminNotes); notes != nil {
			req.AdminNotes = notes
		}
		req.Status = models.SessionStatusApproved
		if req.ScheduledDateTime != nil {
			return effectCreate, nil
		}
		return effectNone, nil

	case Reject:
		if !actor.IsAdmin() && !(actor.IsTutor() && req.IsAssignedTutor(actor.ID)) {
			return effectNone, fmt.Errorf("%w: only admins or the assigned tutor can reject", ErrForbidden)
		}
		if !req.Status.CanTransitionTo(models.SessionStatusRejected) {
			return effectNone, s.invalidTransition(t, req.Status)
		}
		reason := strings.TrimSpace(t.Reason)
		req.RejectionReason = &reason
		if notes := trimmed(t.AdminNotes); notes != nil {
			req.AdminNotes = notes
		}
		req.Status = models.SessionStatusRejected
		return effectDelete, nil

	case StudentCancel:
		if !actor.IsStudent() || req.StudentID != actor.ID {
			return effectNone, fmt.Errorf("%w: only the student who made the request can cancel it", ErrForbidden)
		}
		if req.Status != models.SessionStatusPending && req.Status != models.SessionStatusAssigned {
			return effectNone, s.invalidTransition(t, req.Status)
		}
		req.CancellationReason = trimmed(t.Reason)
		req.Status = models.SessionStatusCancelled
		return effectDelete, nil

	case AdminCancel:
		if !actor.IsAdmin() {
			return effectNone, fmt.Errorf("%w: only admins can force-cancel", ErrForbidden)
		}
		if !req.Status.CanTransitionTo(models.SessionStatusCancelled) {
			return effectNone, s.invalidTransition(t, req.Status)
		}
		reason := strings.TrimSpace(t.Reason)
		req.CancellationReason = &reason
		req.Status = models.SessionStatusCancelled
		return effectDelete, nil

	case Complete:
		isTutor := actor.IsTutor() && req.IsAssignedTutor(actor.ID)
		if !actor.IsAdmin() && !isTutor {
			return effectNone, fmt.Errorf("%w: only admins or the assigned tutor can complete", ErrForbidden)
		}
		if !req.Status.CanTransitionTo(models.SessionStatusCompleted) {
			return effectNone, s.invalidTransition(t, req.Status)
		}
		if !actor.IsAdmin() && (req.ScheduledDateTime == nil || req.ScheduledDateTime.After(s.now())) {
			return effectNone, fmt.Errorf("%w: the session has not taken place yet", ErrInvalidTransition)
		}
		req.Status = models.SessionStatusCompleted
		return effectNone, nil

	default:
		return effectNone, invalid("status", "unsupported transition")
	}
}

func (s *SessionRequestService) invalidTransition(t Transition, status models.SessionStatus) error {
	return fmt.Errorf("%w: cannot %s a %s request", ErrInvalidTransition, strings.ReplaceAll(t.Event(), "_", " "), status)
}

func (s *SessionRequestService) requireActiveTutor(ctx context.Context, tutorID uuid.UUID) error {
	tutor, err := s.users.GetByID(ctx, tutorID)
	if errors.Is(err, database.ErrNotFound) {
		return invalid("tutorId", "tutor not found")
	}
	if err != nil {
		return err
	}
	if !tutor.IsActiveTutor() {
		return invalid("tutorId", "must reference an active tutor")
	}
	return nil
}

func (s *SessionRequestService) checkSchedule(at *time.Time) error {
	if at == nil {
		return nil
	}
	if at.IsZero() {
		return invalid("scheduledDateTime", "must be a valid timestamp")
	}
	return nil
}

func (s *SessionRequestService) load(ctx context.Context, id uuid.UUID) (*models.SessionRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return req, err
}

// participants loads the student and tutor. Missing users are logged and returned as nil.
func (s *SessionRequestService) participants(ctx context.Context, req *models.SessionRequest) (*models.User, *models.User) {
	student, err := s.users.GetByID(ctx, req.StudentID)
	if err != nil {
		s.logger.Warn("Failed to load student", zap.String("request_id", req.ID.String()), zap.Error(err))
		student = nil
	}
	if req.TutorID == nil {
		return student, nil
	}
	tutor, err := s.users.GetByID(ctx, *req.TutorID)
	if err != nil {
		s.logger.Warn("Failed to load tutor", zap.String("request_id", req.ID.String()), zap.Error(err))
		tutor = nil
	}
	return student, tutor
}

func (s *SessionRequestService) announce(change notifications.Change) {
	if s.notifier != nil {
		s.notifier.SessionRequestChanged(change)
	}
	if s.publisher != nil {
		s.publisher.PublishSessionRequest(change.Request)
	}
}

func changeEvent(t Transition) notifications.Event {
	switch t := t.(type) {
	case Assign:
		if t.Approve {
			return notifications.EventApproved
		}
		return notifications.EventAssigned
	case Approve:
		return notifications.EventApproved
	case Reject:
		return notifications.EventRejected
	case StudentCancel, AdminCancel:
		return notifications.EventCancelled
	case Complete:
		return notifications.EventCompleted
	default:
		return ""
	}
}
