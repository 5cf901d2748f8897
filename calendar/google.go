package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	config "github.com/SHREYANK007/LMS-sub003/configs"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Google talks to Google Calendar on behalf of users whose tokens live in a TokenStore.
type Google struct {
	oauth           *oauth2.Config
	tokens          TokenStore
	defaultCalendar string
	timeZone        string
	logger          *zap.Logger

	// endpoint overrides the API base URL, used by tests.
	endpoint string
}

type GoogleOption func(*Google)

// WithEndpoint points the client at a different API base URL.
func WithEndpoint(url string) GoogleOption {
	return func(g *Google) { g.endpoint = url }
}

func NewGoogle(cfg config.GoogleConfig, tokens TokenStore, logger *zap.Logger, opts ...GoogleOption) *Google {
	g := &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
		tokens:          tokens,
		defaultCalendar: cfg.CalendarID,
		timeZone:        cfg.TimeZone,
		logger:          logger,
	}
	if g.defaultCalendar == "" {
		g.defaultCalendar = "primary"
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthCodeURL is the consent page a user is sent to when linking a calendar.
func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it for the user.
func (g *Google) Exchange(ctx context.Context, userID uuid.UUID, code string) error {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return &AuthError{UserID: userID, Err: err}
	}
	if err := g.tokens.SaveToken(ctx, userID, tok); err != nil {
		return fmt.Errorf("store calendar token: %w", err)
	}
	return nil
}

func (g *Google) CreateEvent(ctx context.Context, owner Account, in EventInput) (EventRef, error) {
	svc, err := g.service(ctx, owner)
	if err != nil {
		return EventRef{}, err
	}

	requestID := in.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	event := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Start: &gcal.EventDateTime{
			DateTime: in.Start.Format(time.RFC3339),
			TimeZone: g.timeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: in.End.Format(time.RFC3339),
			TimeZone: g.timeZone,
		},
	}
	if in.MeetLink != "" {
		event.Location = in.MeetLink
	} else {
		event.ConferenceData = &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             requestID,
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}
	for _, email := range in.AttendeeEmails {
		event.Attendees = append(event.Attendees, &gcal.EventAttendee{Email: email})
	}

	created, err := svc.Events.Insert(g.calendarID(owner), event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return EventRef{}, classify(owner.UserID, "create event", err)
	}

	g.logger.Debug("Calendar event created",
		zap.String("user_id", owner.UserID.String()),
		zap.String("event_id", created.Id),
	)
	meetLink := created.HangoutLink
	if meetLink == "" {
		meetLink = in.MeetLink
	}
	return EventRef{
		EventID:  created.Id,
		MeetLink: meetLink,
		HTMLLink: created.HtmlLink,
	}, nil
}

func (g *Google) DeleteEvent(ctx context.Context, owner Account, eventID string) error {
	svc, err := g.service(ctx, owner)
	if err != nil {
		return err
	}

	err = svc.Events.Delete(g.calendarID(owner), eventID).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			g.logger.Debug("Calendar event already gone", zap.String("event_id", eventID))
			return nil
		}
		return classify(owner.UserID, "delete event", err)
	}
	return nil
}

// RefreshCredentials forces a token refresh and stores the result.
func (g *Google) RefreshCredentials(ctx context.Context, owner Account) (*oauth2.Token, error) {
	stored, err := g.tokens.LoadToken(ctx, owner.UserID)
	if err != nil {
		return nil, &AuthError{UserID: owner.UserID, Err: err}
	}

	expired := &oauth2.Token{RefreshToken: stored.RefreshToken, Expiry: time.Now().Add(-time.Minute)}
	fresh, err := g.oauth.TokenSource(ctx, expired).Token()
	if err != nil {
		return nil, &AuthError{UserID: owner.UserID, Err: err}
	}
	if err := g.tokens.SaveToken(ctx, owner.UserID, fresh); err != nil {
		return nil, fmt.Errorf("store refreshed token: %w", err)
	}
	return fresh, nil
}

func (g *Google) calendarID(owner Account) string {
	if owner.CalendarID != "" {
		return owner.CalendarID
	}
	return g.defaultCalendar
}

func (g *Google) service(ctx context.Context, owner Account) (*gcal.Service, error) {
	tok, err := g.tokens.LoadToken(ctx, owner.UserID)
	if err != nil {
		return nil, &AuthError{UserID: owner.UserID, Err: err}
	}

	ts := &persistingTokenSource{
		ctx:    ctx,
		base:   g.oauth.TokenSource(ctx, tok),
		store:  g.tokens,
		userID: owner.UserID,
		last:   tok.AccessToken,
		logger: g.logger,
	}

	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, &ProviderError{Op: "init client", Err: err}
	}
	return svc, nil
}

// persistingTokenSource writes refreshed tokens back to the store.
type persistingTokenSource struct {
	ctx    context.Context
	base   oauth2.TokenSource
	store  TokenStore
	userID uuid.UUID
	last   string
	logger *zap.Logger
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.SaveToken(s.ctx, s.userID, tok); err != nil {
			s.logger.Warn("Failed to persist refreshed calendar token",
				zap.String("user_id", s.userID.String()),
				zap.Error(err),
			)
		}
	}
	return tok, nil
}

func classify(userID uuid.UUID, op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &AuthError{UserID: userID, Err: err}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return &AuthError{UserID: userID, Err: err}
	}
	return &ProviderError{Op: op, Err: err}
}
