package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/SHREYANK007/LMS-sub003/calendar"
	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/database/dbtest"
	"github.com/SHREYANK007/LMS-sub003/handlers"
	"github.com/SHREYANK007/LMS-sub003/metrics"
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/SHREYANK007/LMS-sub003/routes"
	"github.com/SHREYANK007/LMS-sub003/services"
	"github.com/SHREYANK007/LMS-sub003/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

const jwtSecret = "handler-test-secret"

type stubGateway struct {
	mu      sync.Mutex
	seq     int
	failFor map[uuid.UUID]error
}

func (g *stubGateway) CreateEvent(_ context.Context, owner calendar.Account, in calendar.EventInput) (calendar.EventRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failFor[owner.UserID]; err != nil {
		return calendar.EventRef{}, err
	}
	g.seq++
	link := in.MeetLink
	if link == "" {
		link = fmt.Sprintf("https://meet.google.com/m-%d", g.seq)
	}
	return calendar.EventRef{EventID: fmt.Sprintf("evt-%d", g.seq), MeetLink: link}, nil
}

func (g *stubGateway) DeleteEvent(context.Context, calendar.Account, string) error { return nil }

func (g *stubGateway) RefreshCredentials(_ context.Context, owner calendar.Account) (*oauth2.Token, error) {
	if err := g.failFor[owner.UserID]; err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: "fresh", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

type stubLinker struct {
	exchanged map[uuid.UUID]string
}

func (l *stubLinker) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (l *stubLinker) Exchange(_ context.Context, userID uuid.UUID, code string) error {
	if code == "bad" {
		return errors.New("invalid_grant")
	}
	l.exchanged[userID] = code
	return nil
}

type env struct {
	app     *fiber.App
	users   *database.UserStore
	gateway *stubGateway
	linker  *stubLinker

	admin, tutor, student, otherStudent *models.User
}

type envOption func(*handlers.Deps)

func withoutCalendar() envOption {
	return func(d *handlers.Deps) {
		d.Calendar = nil
		d.Linker = nil
	}
}

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()
	db := dbtest.Open(t)
	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()

	e := &env{
		users:   database.NewUserStore(db),
		gateway: &stubGateway{failFor: map[uuid.UUID]error{}},
		linker:  &stubLinker{exchanged: map[uuid.UUID]string{}},
	}
	e.admin = e.user(t, "admin@example.com", models.RoleAdmin)
	e.tutor = e.user(t, "tutor@example.com", models.RoleTutor)
	e.student = e.user(t, "student@example.com", models.RoleStudent)
	e.otherStudent = e.user(t, "other@example.com", models.RoleStudent)
	for _, u := range []*models.User{e.tutor, e.student} {
		require.NoError(t, e.users.SaveToken(context.Background(), u.ID, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}))
	}

	svc := services.NewSessionRequestService(services.Options{
		Requests: database.NewSessionRequestStore(db),
		Users:    e.users,
		Calendar: e.gateway,
		Metrics:  metrics.New(reg),
		Logger:   logger,
	})
	deps := handlers.Deps{
		Users:       e.users,
		Requests:    svc,
		Calendar:    e.gateway,
		Linker:      e.linker,
		Hub:         websocket.NewHub(logger),
		JWTSecret:   jwtSecret,
		JWTExpiry:   time.Hour,
		FrontendURL: "https://app.example.com/",
		Logger:      logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	e.app = fiber.New()
	routes.Setup(e.app, handlers.New(deps), reg)
	return e
}

func (e *env) user(t *testing.T, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{FullName: "User " + email, Email: email, Password: string(hash), Role: role, IsActive: true}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func token(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := middleware.GenerateToken(jwtSecret, u, time.Hour)
	require.NoError(t, err)
	return tok
}

type response struct {
	status int
	header map[string]string
	body   map[string]any
	raw    string
}

func (e *env) do(t *testing.T, method, path string, as *models.User, body any) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, as))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, raw: string(raw), header: map[string]string{}}
	for k := range resp.Header {
		out.header[k] = resp.Header.Get(k)
	}
	_ = json.Unmarshal(raw, &out.body)
	return out
}

func (e *env) createRequest(t *testing.T) string {
	t.Helper()
	res := e.do(t, "POST", "/api/v1/session-requests", e.student, map[string]any{
		"subject":       "PTE Speaking",
		"preferredDate": "2025-03-01",
		"preferredTime": "10:00",
		"duration":      60,
	})
	require.Equal(t, fiber.StatusCreated, res.status, res.raw)
	return res.body["request"].(map[string]any)["id"].(string)
}

func requestOf(t *testing.T, res response) map[string]any {
	t.Helper()
	req, ok := res.body["request"].(map[string]any)
	require.True(t, ok, res.raw)
	return req
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)

	res := e.do(t, "POST", "/api/v1/auth/register", nil, map[string]any{
		"fullName": "New Student", "email": "New@Example.com", "password": "secret123", "courseType": "PTE",
	})
	require.Equal(t, fiber.StatusCreated, res.status, res.raw)
	user := res.body["user"].(map[string]any)
	assert.Equal(t, "new@example.com", user["email"])
	assert.Equal(t, "student", user["role"])
	assert.NotContains(t, res.raw, "password")

	res = e.do(t, "POST", "/api/v1/auth/register", nil, map[string]any{
		"fullName": "Again", "email": "new@example.com", "password": "secret123",
	})
	assert.Equal(t, fiber.StatusConflict, res.status)

	res = e.do(t, "POST", "/api/v1/auth/register", nil, map[string]any{"fullName": "X", "email": "not-an-email", "password": "1"})
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	res = e.do(t, "POST", "/api/v1/auth/login", nil, map[string]any{"email": "new@example.com", "password": "secret123"})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	tok, _ := res.body["token"].(string)
	actor, err := middleware.ParseToken(jwtSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, actor.Role)

	res = e.do(t, "POST", "/api/v1/auth/login", nil, map[string]any{"email": "new@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, res.status)

	res = e.do(t, "GET", "/api/v1/me", e.tutor, nil)
	require.Equal(t, fiber.StatusOK, res.status)
	me := res.body["user"].(map[string]any)
	assert.Equal(t, e.tutor.ID.String(), me["id"])
	assert.Equal(t, true, me["calendarLinked"])
}

func TestAdminUsers(t *testing.T) {
	e := newEnv(t)

	res := e.do(t, "POST", "/api/v1/admin/tutors", e.admin, map[string]any{
		"fullName": "Second Tutor", "email": "tutor2@example.com", "password": "secret123",
	})
	require.Equal(t, fiber.StatusCreated, res.status, res.raw)
	assert.Equal(t, "tutor", res.body["user"].(map[string]any)["role"])

	res = e.do(t, "POST", "/api/v1/admin/tutors", e.tutor, map[string]any{
		"fullName": "Nope", "email": "nope@example.com", "password": "secret123",
	})
	assert.Equal(t, fiber.StatusForbidden, res.status)

	res = e.do(t, "PUT", "/api/v1/admin/users/"+e.tutor.ID.String()+"/status", e.admin, map[string]any{"isActive": false})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	assert.Equal(t, false, res.body["user"].(map[string]any)["isActive"])

	res = e.do(t, "GET", "/api/v1/admin/tutors", e.admin, nil)
	require.Equal(t, fiber.StatusOK, res.status)
	tutors := res.body["tutors"].([]any)
	require.Len(t, tutors, 1)
	assert.Equal(t, "tutor2@example.com", tutors[0].(map[string]any)["email"])

	res = e.do(t, "POST", "/api/v1/auth/login", nil, map[string]any{"email": "tutor@example.com", "password": "secret123"})
	assert.Equal(t, fiber.StatusForbidden, res.status, "deactivated accounts cannot log in")

	res = e.do(t, "PUT", "/api/v1/admin/users/"+uuid.NewString()+"/status", e.admin, map[string]any{"isActive": true})
	assert.Equal(t, fiber.StatusNotFound, res.status)

	res = e.do(t, "PUT", "/api/v1/admin/users/"+e.admin.ID.String()+"/status", e.admin, map[string]any{"isActive": false})
	assert.Equal(t, fiber.StatusBadRequest, res.status)
}

func TestCreateSessionRequest(t *testing.T) {
	e := newEnv(t)
	id := e.createRequest(t)

	res := e.do(t, "GET", "/api/v1/session-requests/"+id, e.student, nil)
	require.Equal(t, fiber.StatusOK, res.status)
	req := requestOf(t, res)
	assert.Equal(t, "PTE Speaking", req["subject"])
	assert.Equal(t, "PENDING", req["status"])
	assert.Nil(t, req["tutorId"])
	assert.EqualValues(t, 1, req["version"])

	tests := []struct {
		name string
		as   *models.User
		body map[string]any
		want int
	}{
		{"bad time", e.student, map[string]any{"subject": "x", "preferredDate": "2025-03-01", "preferredTime": "25:99", "duration": 60}, fiber.StatusBadRequest},
		{"missing subject", e.student, map[string]any{"preferredDate": "2025-03-01", "preferredTime": "10:00", "duration": 60}, fiber.StatusBadRequest},
		{"zero duration", e.student, map[string]any{"subject": "x", "preferredDate": "2025-03-01", "preferredTime": "10:00", "duration": 0}, fiber.StatusBadRequest},
		{"duration too long", e.student, map[string]any{"subject": "x", "preferredDate": "2025-03-01", "preferredTime": "10:00", "duration": 481}, fiber.StatusBadRequest},
		{"tutor", e.tutor, map[string]any{"subject": "x", "preferredDate": "2025-03-01", "preferredTime": "10:00", "duration": 60}, fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.do(t, "POST", "/api/v1/session-requests", tt.as, tt.body)
			assert.Equal(t, tt.want, res.status, res.raw)
			assert.Equal(t, false, res.body["success"])
		})
	}

	res = e.do(t, "POST", "/api/v1/session-requests", nil, map[string]any{"subject": "x"})
	assert.Equal(t, fiber.StatusBadRequest, res.status, "missing JWT")
}

func TestSessionRequestLifecycle(t *testing.T) {
	e := newEnv(t)
	id := e.createRequest(t)
	base := "/api/v1/session-requests/" + id

	res := e.do(t, "PUT", base+"/assign", e.admin, map[string]any{
		"tutorId":           e.tutor.ID.String(),
		"adminNotes":        "Bring practice tests",
		"scheduledDateTime": "2030-03-01T10:00:00Z",
		"version":           1,
	})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	assert.Nil(t, res.body["warnings"])
	req := requestOf(t, res)
	assert.Equal(t, "ASSIGNED", req["status"])
	assert.Equal(t, e.tutor.ID.String(), req["tutorId"])
	assert.NotNil(t, req["meetLink"])
	assert.NotNil(t, req["tutorCalendarEventId"])
	assert.NotNil(t, req["studentCalendarEventId"])
	assert.Equal(t, "2030-03-01T11:00:00Z", req["endDateTime"])

	// each participant only sees their own event id
	res = e.do(t, "GET", base, e.student, nil)
	req = requestOf(t, res)
	assert.Equal(t, "Bring practice tests", req["adminNotes"])
	assert.NotContains(t, req, "tutorCalendarEventId")
	assert.Contains(t, req, "studentCalendarEventId")

	res = e.do(t, "GET", base, e.tutor, nil)
	req = requestOf(t, res)
	assert.Contains(t, req, "tutorCalendarEventId")
	assert.NotContains(t, req, "studentCalendarEventId")

	res = e.do(t, "GET", base, e.otherStudent, nil)
	assert.Equal(t, fiber.StatusForbidden, res.status)

	res = e.do(t, "PUT", base+"/status", e.tutor, map[string]any{"status": "APPROVED", "version": 1})
	assert.Equal(t, fiber.StatusConflict, res.status, "stale version")

	res = e.do(t, "PUT", base+"/status", e.tutor, map[string]any{"status": "APPROVED", "version": 2})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	assert.Equal(t, "APPROVED", requestOf(t, res)["status"])

	res = e.do(t, "PUT", base+"/cancel", e.student, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.status, "students cannot cancel approved sessions")

	res = e.do(t, "PUT", base+"/admin-cancel", e.admin, map[string]any{})
	assert.Equal(t, fiber.StatusBadRequest, res.status, "reason is required")

	res = e.do(t, "PUT", base+"/admin-cancel", e.admin, map[string]any{"cancellationReason": "schedule conflict"})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	req = requestOf(t, res)
	assert.Equal(t, "CANCELLED", req["status"])
	assert.Equal(t, "schedule conflict", req["cancellationReason"])
	assert.NotContains(t, req, "tutorCalendarEventId")
	assert.Nil(t, req["meetLink"])
}

func TestStatusEndpoint(t *testing.T) {
	e := newEnv(t)

	id := e.createRequest(t)
	res := e.do(t, "PUT", "/api/v1/session-requests/"+id+"/status", e.admin, map[string]any{"status": "REJECTED"})
	assert.Equal(t, fiber.StatusBadRequest, res.status, "rejection needs a reason")

	res = e.do(t, "PUT", "/api/v1/session-requests/"+id+"/status", e.admin, map[string]any{"status": "CANCELLED"})
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	res = e.do(t, "PUT", "/api/v1/session-requests/"+id+"/status", e.student, map[string]any{"status": "APPROVED"})
	assert.Equal(t, fiber.StatusForbidden, res.status)

	res = e.do(t, "PUT", "/api/v1/session-requests/"+id+"/status", e.admin, map[string]any{
		"status": "APPROVED", "tutorId": e.tutor.ID.String(),
	})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	assert.Equal(t, "APPROVED", requestOf(t, res)["status"])

	other := e.createRequest(t)
	res = e.do(t, "PUT", "/api/v1/session-requests/"+other+"/status", e.admin, map[string]any{
		"status": "REJECTED", "rejectionReason": "no tutor for this course",
	})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	req := requestOf(t, res)
	assert.Equal(t, "REJECTED", req["status"])
	assert.Equal(t, "no tutor for this course", req["rejectionReason"])
	assert.Nil(t, req["cancellationReason"])
}

func TestStudentCancel(t *testing.T) {
	e := newEnv(t)
	id := e.createRequest(t)

	res := e.do(t, "PUT", "/api/v1/session-requests/"+id+"/cancel", e.otherStudent, nil)
	assert.Equal(t, fiber.StatusForbidden, res.status)

	res = e.do(t, "PUT", "/api/v1/session-requests/"+id+"/cancel", e.student, map[string]any{"cancellationReason": "found a slot elsewhere"})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	assert.Equal(t, "CANCELLED", requestOf(t, res)["status"])

	res = e.do(t, "PUT", "/api/v1/session-requests/"+id+"/cancel", e.student, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.status)
}

func TestAssignReportsCalendarWarnings(t *testing.T) {
	e := newEnv(t)
	e.gateway.failFor[e.tutor.ID] = &calendar.AuthError{UserID: e.tutor.ID, Err: errors.New("revoked")}
	id := e.createRequest(t)

	res := e.do(t, "PUT", "/api/v1/session-requests/"+id+"/assign", e.admin, map[string]any{
		"tutorId": e.tutor.ID.String(), "scheduledDateTime": "2030-03-01T10:00:00Z",
	})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	req := requestOf(t, res)
	assert.Equal(t, "ASSIGNED", req["status"])
	assert.Equal(t, true, req["calendarSyncPending"])
	assert.NotContains(t, req, "tutorCalendarEventId")

	warnings, ok := res.body["warnings"].([]any)
	require.True(t, ok, res.raw)
	require.Len(t, warnings, 1)
	w := warnings[0].(map[string]any)
	assert.Equal(t, "tutor", w["side"])
	assert.Equal(t, "auth", w["reason"])
}

func TestListSessionRequests(t *testing.T) {
	e := newEnv(t)
	first := e.createRequest(t)
	e.createRequest(t)
	res := e.do(t, "PUT", "/api/v1/session-requests/"+first+"/assign", e.admin, map[string]any{"tutorId": e.tutor.ID.String()})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)

	tests := []struct {
		name  string
		as    *models.User
		path  string
		want  int
		count int
	}{
		{"admin all", e.admin, "/api/v1/session-requests", fiber.StatusOK, 2},
		{"admin by status", e.admin, "/api/v1/session-requests?status=PENDING", fiber.StatusOK, 1},
		{"admin by tutor", e.admin, "/api/v1/session-requests?tutorId=" + e.tutor.ID.String(), fiber.StatusOK, 1},
		{"admin by student", e.admin, "/api/v1/session-requests?studentId=" + e.otherStudent.ID.String(), fiber.StatusOK, 0},
		{"bad status", e.admin, "/api/v1/session-requests?status=DONE", fiber.StatusBadRequest, 0},
		{"bad tutor id", e.admin, "/api/v1/session-requests?tutorId=nope", fiber.StatusBadRequest, 0},
		{"tutor sees assigned", e.tutor, "/api/v1/session-requests", fiber.StatusOK, 1},
		{"student not allowed", e.student, "/api/v1/session-requests", fiber.StatusForbidden, 0},
		{"student own", e.student, "/api/v1/session-requests/my-requests", fiber.StatusOK, 2},
		{"tutor own", e.tutor, "/api/v1/session-requests/my-requests", fiber.StatusOK, 1},
		{"admin has no own", e.admin, "/api/v1/session-requests/my-requests", fiber.StatusForbidden, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.do(t, "GET", tt.path, tt.as, nil)
			require.Equal(t, tt.want, res.status, res.raw)
			if tt.want == fiber.StatusOK {
				assert.Len(t, res.body["requests"], tt.count)
			}
		})
	}
}

func TestGetSessionRequest_Errors(t *testing.T) {
	e := newEnv(t)

	res := e.do(t, "GET", "/api/v1/session-requests/not-a-uuid", e.admin, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	res = e.do(t, "GET", "/api/v1/session-requests/"+uuid.NewString(), e.admin, nil)
	assert.Equal(t, fiber.StatusNotFound, res.status)
}

func TestExportCalendar(t *testing.T) {
	e := newEnv(t)
	id := e.createRequest(t)

	res := e.do(t, "GET", "/api/v1/session-requests/"+id+"/calendar.ics", e.student, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.status, "unscheduled")

	res = e.do(t, "PUT", "/api/v1/session-requests/"+id+"/assign", e.admin, map[string]any{
		"tutorId": e.tutor.ID.String(), "scheduledDateTime": "2030-03-01T10:00:00Z",
	})
	require.Equal(t, fiber.StatusOK, res.status, res.raw)

	res = e.do(t, "GET", "/api/v1/session-requests/"+id+"/calendar.ics", e.student, nil)
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	assert.Contains(t, res.header["Content-Type"], "text/calendar")
	assert.Contains(t, res.header["Content-Disposition"], "session-"+id+".ics")
	assert.Contains(t, res.raw, "BEGIN:VCALENDAR")
	assert.Contains(t, res.raw, "DTSTART:20300301T100000Z")
}

func TestCalendarLinking(t *testing.T) {
	e := newEnv(t)

	res := e.do(t, "GET", "/api/v1/calendar/connect", e.otherStudent, nil)
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	consent, err := url.Parse(res.body["url"].(string))
	require.NoError(t, err)
	state := consent.Query().Get("state")
	require.NotEmpty(t, state)

	res = e.do(t, "GET", "/api/v1/calendar/callback?code=abc&state="+url.QueryEscape(state), nil, nil)
	assert.Equal(t, fiber.StatusFound, res.status)
	assert.Equal(t, "https://app.example.com/settings/calendar?result=linked", res.header["Location"])
	assert.Equal(t, "abc", e.linker.exchanged[e.otherStudent.ID])

	res = e.do(t, "GET", "/api/v1/calendar/callback?code=bad&state="+url.QueryEscape(state), nil, nil)
	assert.Equal(t, fiber.StatusFound, res.status)
	assert.Equal(t, "https://app.example.com/settings/calendar?result=failed", res.header["Location"])

	res = e.do(t, "GET", "/api/v1/calendar/callback?code=abc&state=forged", nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	res = e.do(t, "POST", "/api/v1/calendar/refresh", e.tutor, nil)
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	assert.Equal(t, "2030-01-01T00:00:00Z", res.body["expiry"])

	res = e.do(t, "POST", "/api/v1/calendar/refresh", e.otherStudent, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.status, "nothing linked in the store")

	e.gateway.failFor[e.tutor.ID] = &calendar.AuthError{UserID: e.tutor.ID, Err: errors.New("revoked")}
	res = e.do(t, "POST", "/api/v1/calendar/refresh", e.tutor, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	res = e.do(t, "DELETE", "/api/v1/calendar", e.tutor, nil)
	require.Equal(t, fiber.StatusOK, res.status, res.raw)
	res = e.do(t, "GET", "/api/v1/me", e.tutor, nil)
	assert.Equal(t, false, res.body["user"].(map[string]any)["calendarLinked"])
}

func TestCalendarDisabled(t *testing.T) {
	e := newEnv(t, withoutCalendar())

	res := e.do(t, "GET", "/api/v1/calendar/connect", e.tutor, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, res.status)

	res = e.do(t, "POST", "/api/v1/calendar/refresh", e.tutor, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, res.status)
}

func TestOperationalEndpoints(t *testing.T) {
	e := newEnv(t)
	e.createRequest(t)

	res := e.do(t, "GET", "/health", nil, nil)
	assert.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, "ok", res.body["status"])

	res = e.do(t, "GET", "/metrics", nil, nil)
	require.Equal(t, fiber.StatusOK, res.status)
	assert.Contains(t, res.raw, `lms_session_request_transitions_total{event="create",to="PENDING"} 1`)

	res = e.do(t, "GET", "/api/v1/ws", nil, nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, res.status)
}
