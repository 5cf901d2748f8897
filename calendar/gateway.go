package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// ErrNoLinkedCalendar is returned when neither the participant nor the
// organizer account has a linked calendar to hold the event.
var ErrNoLinkedCalendar = errors.New("no linked calendar for participant")

// Account identifies the calendar an event lives in.
type Account struct {
	UserID     uuid.UUID
	Email      string
	CalendarID string
}

type EventInput struct {
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	AttendeeEmails []string
	// RequestID makes conference creation idempotent on the provider side.
	RequestID string
	// MeetLink reuses an existing conference instead of creating a new one.
	MeetLink string
}

// EventRef is what the provider hands back for one created event.
type EventRef struct {
	EventID  string
	MeetLink string
	HTMLLink string
}

// Gateway is the calendar provider as seen by the workflow.
type Gateway interface {
	CreateEvent(ctx context.Context, owner Account, in EventInput) (EventRef, error)
	// DeleteEvent treats an already deleted event as success.
	DeleteEvent(ctx context.Context, owner Account, eventID string) error
	RefreshCredentials(ctx context.Context, owner Account) (*oauth2.Token, error)
}

// TokenStore persists OAuth tokens per user.
type TokenStore interface {
	LoadToken(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error)
	SaveToken(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error
}

// AuthError means the account's credentials are missing, revoked or expired.
type AuthError struct {
	UserID uuid.UUID
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("calendar auth failed for user %s: %v", e.UserID, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProviderError is any other provider failure, usually transient.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is a credential problem, including a missing calendar link.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) || errors.Is(err, ErrNoLinkedCalendar)
}
