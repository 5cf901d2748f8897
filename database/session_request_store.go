package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRequestStore persists session requests. Status changes go through
// SaveTransition, which is guarded by the row version.
type SessionRequestStore struct {
	db *gorm.DB
}

func NewSessionRequestStore(db *gorm.DB) *SessionRequestStore {
	return &SessionRequestStore{db: db}
}

func (s *SessionRequestStore) Create(ctx context.Context, req *models.SessionRequest) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error; err != nil {
		return fmt.Errorf("create session request: %w", err)
	}
	return nil
}

func (s *SessionRequestStore) Get(ctx context.Context, id uuid.UUID) (*models.SessionRequest, error) {
	var req models.SessionRequest
	if err := s.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session request: %w", err)
	}
	return &req, nil
}

func (s *SessionRequestStore) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]models.SessionRequest, error) {
	var requests []models.SessionRequest
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list session requests for student: %w", err)
	}
	return requests, nil
}

func (s *SessionRequestStore) ListForTutor(ctx context.Context, tutorID uuid.UUID) ([]models.SessionRequest, error) {
	var requests []models.SessionRequest
	err := s.db.WithContext(ctx).
		Where("tutor_id = ?", tutorID).
		Order("created_at desc").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list session requests for tutor: %w", err)
	}
	return requests, nil
}

func (s *SessionRequestStore) ListAll(ctx context.Context, filter models.SessionRequestFilter) ([]models.SessionRequest, error) {
	query := s.db.WithContext(ctx).Model(&models.SessionRequest{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TutorID != nil {
		query = query.Where("tutor_id = ?", *filter.TutorID)
	}
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	var requests []models.SessionRequest
	if err := query.Order("created_at desc").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("list session requests: %w", err)
	}
	return requests, nil
}

// SaveTransition writes the workflow columns of req if the stored row still has
// readVersion. On success req.Version is bumped.
func (s *SessionRequestStore) SaveTransition(ctx context.Context, req *models.SessionRequest, readVersion int) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.SessionRequest{}).
		Where("id = ? AND version = ?", req.ID, readVersion).
		Updates(map[string]any{
			"status":              req.Status,
			"tutor_id":            req.TutorID,
			"scheduled_date_time": req.ScheduledDateTime,
			"admin_notes":         req.AdminNotes,
			"rejection_reason":    req.RejectionReason,
			"cancellation_reason": req.CancellationReason,
			"version":             readVersion + 1,
			"updated_at":          now,
		})
	if result.Error != nil {
		return fmt.Errorf("save session request transition: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.Get(ctx, req.ID); err != nil {
			return err
		}
		return ErrStaleVersion
	}

	req.Version = readVersion + 1
	req.UpdatedAt = now
	return nil
}

var eventColumns = map[models.CalendarSide]string{
	models.CalendarSideTutor:   "tutor_calendar_event_id",
	models.CalendarSideStudent: "student_calendar_event_id",
}

type calendarRefs struct {
	TutorCalendarEventID   *string
	StudentCalendarEventID *string
	MeetLink               *string
	CalendarEventLink      *string
}

// AttachCalendarEvent stores eventID for side only while that side references
// no event; the meet and event links are filled only when empty. It reports
// false when another writer attached an event first. Either way req is
// refreshed with the stored calendar refs. The version is not touched.
func (s *SessionRequestStore) AttachCalendarEvent(ctx context.Context, req *models.SessionRequest, side models.CalendarSide, eventID, meetLink, htmlLink string) (bool, error) {
	column, ok := eventColumns[side]
	if !ok {
		return false, fmt.Errorf("attach calendar event: unknown side %q", side)
	}

	var attached bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SessionRequest{}).
			Where("id = ? AND "+column+" IS NULL", req.ID).
			Updates(map[string]any{
				column:                eventID,
				"meet_link":           gorm.Expr("COALESCE(meet_link, ?)", nullable(meetLink)),
				"calendar_event_link": gorm.Expr("COALESCE(calendar_event_link, ?)", nullable(htmlLink)),
			})
		if result.Error != nil {
			return result.Error
		}
		attached = result.RowsAffected == 1
		return loadCalendarRefs(tx, req)
	})
	if err != nil {
		return false, fmt.Errorf("attach calendar event: %w", err)
	}
	return attached, nil
}

// DetachCalendarEvent clears side's event id if it still equals eventID. Once
// neither side references an event the links are cleared too. req is refreshed
// with the stored calendar refs.
func (s *SessionRequestStore) DetachCalendarEvent(ctx context.Context, req *models.SessionRequest, side models.CalendarSide, eventID string) (bool, error) {
	column, ok := eventColumns[side]
	if !ok {
		return false, fmt.Errorf("detach calendar event: unknown side %q", side)
	}

	var detached bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SessionRequest{}).
			Where("id = ? AND "+column+" = ?", req.ID, eventID).
			Update(column, nil)
		if result.Error != nil {
			return result.Error
		}
		detached = result.RowsAffected == 1

		err := tx.Model(&models.SessionRequest{}).
			Where("id = ? AND tutor_calendar_event_id IS NULL AND student_calendar_event_id IS NULL", req.ID).
			Updates(map[string]any{"meet_link": nil, "calendar_event_link": nil}).Error
		if err != nil {
			return err
		}
		return loadCalendarRefs(tx, req)
	})
	if err != nil {
		return false, fmt.Errorf("detach calendar event: %w", err)
	}
	return detached, nil
}

func loadCalendarRefs(tx *gorm.DB, req *models.SessionRequest) error {
	var refs calendarRefs
	err := tx.Model(&models.SessionRequest{}).
		Select("tutor_calendar_event_id", "student_calendar_event_id", "meet_link", "calendar_event_link").
		Where("id = ?", req.ID).
		Take(&refs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	req.TutorCalendarEventID = refs.TutorCalendarEventID
	req.StudentCalendarEventID = refs.StudentCalendarEventID
	req.MeetLink = refs.MeetLink
	req.CalendarEventLink = refs.CalendarEventLink
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListScheduledBetween returns active sessions starting in [from, to], with participants loaded.
func (s *SessionRequestStore) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]models.SessionRequest, error) {
	var requests []models.SessionRequest
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Tutor").
		Where("status IN ?", []models.SessionStatus{models.SessionStatusAssigned, models.SessionStatusApproved}).
		Where("scheduled_date_time BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("scheduled_date_time asc").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list scheduled session requests: %w", err)
	}
	return requests, nil
}

// ListNeedingCalendarSync returns requests whose stored calendar refs disagree
// with their status: active future sessions missing an event on either side, and
// closed requests that still reference events.
func (s *SessionRequestStore) ListNeedingCalendarSync(ctx context.Context, now time.Time) ([]models.SessionRequest, error) {
	active := []models.SessionStatus{models.SessionStatusAssigned, models.SessionStatusApproved}
	closed := []models.SessionStatus{models.SessionStatusCancelled, models.SessionStatusRejected}

	var requests []models.SessionRequest
	err := s.db.WithContext(ctx).
		Where(
			"(status IN ? AND scheduled_date_time > ? AND (tutor_calendar_event_id IS NULL OR student_calendar_event_id IS NULL))"+
				" OR (status IN ? AND (tutor_calendar_event_id IS NOT NULL OR student_calendar_event_id IS NOT NULL))",
			active, now.UTC(), closed,
		).
		Order("updated_at asc").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("list session requests needing calendar sync: %w", err)
	}
	return requests, nil
}
