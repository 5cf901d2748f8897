package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SHREYANK007/LMS-sub003/calendar"
	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/database/dbtest"
	"github.com/SHREYANK007/LMS-sub003/metrics"
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/SHREYANK007/LMS-sub003/notifications"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"
)

type fakeEvent struct {
	owner calendar.Account
	input calendar.EventInput
}

type fakeGateway struct {
	mu         sync.Mutex
	seq        int
	events     map[string]fakeEvent
	deleted    []string
	failCreate map[uuid.UUID]error
	failDelete map[uuid.UUID]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		events:     make(map[string]fakeEvent),
		failCreate: make(map[uuid.UUID]error),
		failDelete: make(map[uuid.UUID]error),
	}
}

func (g *fakeGateway) CreateEvent(_ context.Context, owner calendar.Account, in calendar.EventInput) (calendar.EventRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failCreate[owner.UserID]; err != nil {
		return calendar.EventRef{}, err
	}
	g.seq++
	id := fmt.Sprintf("evt-%d", g.seq)
	g.events[id] = fakeEvent{owner: owner, input: in}

	meet := in.MeetLink
	if meet == "" {
		meet = "https://meet.google.com/" + id
	}
	return calendar.EventRef{EventID: id, MeetLink: meet, HTMLLink: "https://calendar.google.com/" + id}, nil
}

// DeleteEvent succeeds for unknown ids, like the provider does for deleted events.
func (g *fakeGateway) DeleteEvent(_ context.Context, owner calendar.Account, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failDelete[owner.UserID]; err != nil {
		return err
	}
	delete(g.events, eventID)
	g.deleted = append(g.deleted, eventID)
	return nil
}

func (g *fakeGateway) RefreshCredentials(_ context.Context, owner calendar.Account) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "fresh-" + owner.UserID.String()}, nil
}

func (g *fakeGateway) live() map[string]fakeEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]fakeEvent, len(g.events))
	for k, v := range g.events {
		out[k] = v
	}
	return out
}

type fakeNotifier struct {
	mu      sync.Mutex
	changes []notifications.Change
}

func (n *fakeNotifier) SessionRequestChanged(change notifications.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

func (n *fakeNotifier) events() []notifications.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifications.Event, 0, len(n.changes))
	for _, c := range n.changes {
		out = append(out, c.Event)
	}
	return out
}

type fakePublisher struct {
	mu       sync.Mutex
	statuses []models.SessionStatus
}

func (p *fakePublisher) PublishSessionRequest(req *models.SessionRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, req.Status)
}

type fixture struct {
	svc       *SessionRequestService
	requests  *database.SessionRequestStore
	users     *database.UserStore
	gateway   *fakeGateway
	notifier  *fakeNotifier
	publisher *fakePublisher
	metrics   *metrics.Metrics
	now       time.Time

	admin, tutor, otherTutor, inactiveTutor, student, otherStudent, organizer *models.User
}

var scheduledAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{
		requests:  database.NewSessionRequestStore(db),
		users:     database.NewUserStore(db),
		gateway:   newFakeGateway(),
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		metrics:   metrics.New(prometheus.NewRegistry()),
		now:       time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC),
	}

	f.admin = f.user(t, "admin@example.com", models.RoleAdmin, false)
	f.tutor = f.user(t, "tutor@example.com", models.RoleTutor, true)
	f.otherTutor = f.user(t, "tutor2@example.com", models.RoleTutor, true)
	f.inactiveTutor = f.user(t, "gone@example.com", models.RoleTutor, false)
	require.NoError(t, f.users.SetActive(context.Background(), f.inactiveTutor.ID, false))
	f.student = f.user(t, "student@example.com", models.RoleStudent, true)
	f.otherStudent = f.user(t, "student2@example.com", models.RoleStudent, false)
	f.organizer = f.user(t, "organizer@example.com", models.RoleAdmin, true)

	f.svc = NewSessionRequestService(Options{
		Requests:       f.requests,
		Users:          f.users,
		Calendar:       f.gateway,
		OrganizerEmail: "organizer@example.com",
		Notifier:       f.notifier,
		Publisher:      f.publisher,
		Metrics:        f.metrics,
		Logger:         zaptest.NewLogger(t),
		Now:            func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) user(t *testing.T, email string, role models.Role, linked bool) *models.User {
	t.Helper()
	ctx := context.Background()
	u := &models.User{FullName: string(role) + " " + email, Email: email, Password: "x", Role: role, IsActive: true}
	require.NoError(t, f.users.Create(ctx, u))
	if linked {
		require.NoError(t, f.users.SaveToken(ctx, u.ID, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}))
	}
	got, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	return got
}

func actorOf(u *models.User) models.Actor {
	return models.Actor{ID: u.ID, Role: u.Role}
}

func (f *fixture) pending(t *testing.T) *models.SessionRequest {
	t.Helper()
	req, err := f.svc.Create(context.Background(), actorOf(f.student), CreateInput{
		Subject:       "PTE Speaking",
		PreferredDate: "2025-03-01",
		PreferredTime: "10:00",
		Duration:      60,
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) apply(t *testing.T, id uuid.UUID, tr Transition, actor *models.User) *TransitionResult {
	t.Helper()
	res, err := f.svc.ApplyTransition(context.Background(), id, tr, actorOf(actor), nil)
	require.NoError(t, err)
	return res
}

// inStatus walks a fresh request to status through the public transitions.
func (f *fixture) inStatus(t *testing.T, status models.SessionStatus) *models.SessionRequest {
	t.Helper()
	req := f.pending(t)
	at := scheduledAt
	assign := Assign{TutorID: f.tutor.ID, ScheduledDateTime: &at}

	switch status {
	case models.SessionStatusPending:
		return req
	case models.SessionStatusAssigned:
		return f.apply(t, req.ID, assign, f.admin).Request
	case models.SessionStatusApproved:
		assign.Approve = true
		return f.apply(t, req.ID, assign, f.admin).Request
	case models.SessionStatusRejected:
		f.apply(t, req.ID, assign, f.admin)
		return f.apply(t, req.ID, Reject{Reason: "tutor unavailable"}, f.admin).Request
	case models.SessionStatusCompleted:
		f.apply(t, req.ID, assign, f.admin)
		return f.apply(t, req.ID, Complete{}, f.admin).Request
	case models.SessionStatusCancelled:
		return f.apply(t, req.ID, AdminCancel{Reason: "duplicate"}, f.admin).Request
	default:
		t.Fatalf("unknown status %s", status)
		return nil
	}
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.SessionRequest {
	t.Helper()
	req, err := f.requests.Get(context.Background(), id)
	require.NoError(t, err)
	return req
}
