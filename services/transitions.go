package services

import (
	"strings"
	"time"

	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/google/uuid"
)

// Transition is one workflow event. The set is closed: only the types below implement it.
type Transition interface {
	Event() string
	sealed()
}

// Assign binds a tutor to a pending request, optionally scheduling and approving it.
type Assign struct {
	TutorID           uuid.UUID
	AdminNotes        *string
	ScheduledDateTime *time.Time
	Approve           bool
}

// Approve confirms a request. On a pending request it also assigns TutorID.
type Approve struct {
	TutorID           *uuid.UUID
	AdminNotes        *string
	ScheduledDateTime *time.Time
}

type Reject struct {
	Reason     string
	AdminNotes *string
}

// StudentCancel is the owning student withdrawing a request.
type StudentCancel struct {
	Reason *string
}

type AdminCancel struct {
	Reason string
}

type Complete struct{}

func (Assign) Event() string        { return "assign" }
func (Approve) Event() string       { return "approve" }
func (Reject) Event() string        { return "reject" }
func (StudentCancel) Event() string { return "cancel" }
func (AdminCancel) Event() string   { return "admin_cancel" }
func (Complete) Event() string      { return "complete" }

func (Assign) sealed()        {}
func (Approve) sealed()       {}
func (Reject) sealed()        {}
func (StudentCancel) sealed() {}
func (AdminCancel) sealed()   {}
func (Complete) sealed()      {}

type calendarEffect int

const (
	effectNone calendarEffect = iota
	effectCreate
	effectDelete
)

// validateTransition checks the transition's own fields, independent of any stored state.
func validateTransition(t Transition) error {
	switch t := t.(type) {
	case Assign:
		if t.TutorID == uuid.Nil {
			return invalid("tutorId", "is required")
		}
	case Approve:
		if t.TutorID != nil && *t.TutorID == uuid.Nil {
			return invalid("tutorId", "must be a valid id")
		}
	case Reject:
		if strings.TrimSpace(t.Reason) == "" {
			return invalid("rejectionReason", "is required when rejecting a request")
		}
	case StudentCancel:
	case AdminCancel:
		if strings.TrimSpace(t.Reason) == "" {
			return invalid("cancellationReason", "is required")
		}
	case Complete:
	default:
		return invalid("status", "unsupported transition")
	}
	return nil
}

// TransitionForStatus maps a target status from the status endpoint to its transition.
// Cancellation has dedicated endpoints and is not accepted here.
func TransitionForStatus(status models.SessionStatus, reason string, tutorID *uuid.UUID, scheduled *time.Time, notes *string) (Transition, error) {
	switch status {
	case models.SessionStatusApproved:
		return Approve{TutorID: tutorID, ScheduledDateTime: scheduled, AdminNotes: notes}, nil
	case models.SessionStatusRejected:
		return Reject{Reason: reason, AdminNotes: notes}, nil
	case models.SessionStatusCompleted:
		return Complete{}, nil
	case models.SessionStatusCancelled:
		return nil, invalid("status", "use the cancel endpoints to cancel a request")
	case models.SessionStatusPending, models.SessionStatusAssigned:
		return nil, invalid("status", "must be one of APPROVED, REJECTED, COMPLETED")
	default:
		return nil, invalid("status", "unknown status "+string(status))
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
