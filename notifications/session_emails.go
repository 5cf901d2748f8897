package notifications

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/google/uuid"
)

type Event string

const (
	EventCreated   Event = "created"
	EventAssigned  Event = "assigned"
	EventApproved  Event = "approved"
	EventRejected  Event = "rejected"
	EventCancelled Event = "cancelled"
	EventCompleted Event = "completed"
)

// Change describes a session request after a workflow step.
type Change struct {
	Event   Event
	ActorID uuid.UUID
	Request *models.SessionRequest
	Student *models.User
	Tutor   *models.User
}

// Notifier turns workflow changes into e-mails.
type Notifier struct {
	mailer      Mailer
	frontendURL string
}

func NewNotifier(mailer Mailer, frontendURL string) *Notifier {
	return &Notifier{mailer: mailer, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (n *Notifier) SessionRequestChanged(change Change) {
	if msgs := n.Messages(change); len(msgs) > 0 {
		n.mailer.Send(msgs...)
	}
}

func (n *Notifier) SessionReminder(req *models.SessionRequest, student, tutor *models.User) {
	if msgs := n.ReminderMessages(req, student, tutor); len(msgs) > 0 {
		n.mailer.Send(msgs...)
	}
}

// Messages builds the e-mails for change. Participants other than the actor are
// notified; a new request only sends the student a confirmation.
func (n *Notifier) Messages(change Change) []Message {
	req := change.Request
	if change.Event == EventCreated {
		if change.Student == nil {
			return nil
		}
		return []Message{n.message(change.Student, "We received your session request",
			fmt.Sprintf("<p>Your request for a <b>%s</b> session on %s at %s has been received. We will let you know once a tutor is assigned.</p>",
				html.EscapeString(req.Subject), req.PreferredDate, req.PreferredTime),
			req)}
	}

	subject, body := n.content(change.Event, req)
	if subject == "" {
		return nil
	}

	var msgs []Message
	for _, user := range []*models.User{change.Student, change.Tutor} {
		if user == nil || user.ID == change.ActorID {
			continue
		}
		msgs = append(msgs, n.message(user, subject, body, req))
	}
	return msgs
}

func (n *Notifier) ReminderMessages(req *models.SessionRequest, student, tutor *models.User) []Message {
	if req.ScheduledDateTime == nil {
		return nil
	}
	body := fmt.Sprintf("<p>This is a friendly reminder that your <b>%s</b> session starts in one hour, at %s.</p>%s",
		html.EscapeString(req.Subject), formatWhen(*req.ScheduledDateTime), meetParagraph(req))

	var msgs []Message
	for _, user := range []*models.User{student, tutor} {
		if user != nil {
			msgs = append(msgs, n.message(user, "Reminder: your session starts in 1 hour", body, req))
		}
	}
	return msgs
}

func (n *Notifier) content(event Event, req *models.SessionRequest) (string, string) {
	subject := html.EscapeString(req.Subject)
	switch event {
	case EventAssigned:
		body := fmt.Sprintf("<p>A tutor has been assigned to the <b>%s</b> session.</p>", subject)
		if req.ScheduledDateTime != nil {
			body += fmt.Sprintf("<p><b>When:</b> %s (%d minutes)</p>%s", formatWhen(*req.ScheduledDateTime), req.Duration, meetParagraph(req))
		}
		return "Your session has been assigned", body + notesParagraph(req)
	case EventApproved:
		body := fmt.Sprintf("<p>The <b>%s</b> session has been approved.</p>", subject)
		if req.ScheduledDateTime != nil {
			body += fmt.Sprintf("<p><b>When:</b> %s (%d minutes)</p>%s", formatWhen(*req.ScheduledDateTime), req.Duration, meetParagraph(req))
		}
		return "Your session is confirmed", body + notesParagraph(req)
	case EventRejected:
		body := fmt.Sprintf("<p>The request for a <b>%s</b> session was not approved.</p>", subject)
		if req.RejectionReason != nil {
			body += fmt.Sprintf("<p><b>Reason:</b> %s</p>", html.EscapeString(*req.RejectionReason))
		}
		return "Your session request was rejected", body
	case EventCancelled:
		body := fmt.Sprintf("<p>The <b>%s</b> session has been cancelled.</p>", subject)
		if req.CancellationReason != nil {
			body += fmt.Sprintf("<p><b>Reason:</b> %s</p>", html.EscapeString(*req.CancellationReason))
		}
		return "Session cancelled", body
	case EventCompleted:
		return "Session completed", fmt.Sprintf("<p>The <b>%s</b> session has been marked as completed.</p>", subject)
	default:
		return "", ""
	}
}

func (n *Notifier) message(to *models.User, subject, body string, req *models.SessionRequest) Message {
	link := fmt.Sprintf("%s/session-requests/%s", n.frontendURL, req.ID)
	return Message{
		ToName:  to.FullName,
		ToEmail: to.Email,
		Subject: subject,
		HTML: fmt.Sprintf("<h1>%s</h1><p>Hi %s,</p>%s<p><a href='%s'>View request</a></p>",
			subject, html.EscapeString(to.FullName), body, link),
	}
}

func meetParagraph(req *models.SessionRequest) string {
	if req.MeetLink == nil || *req.MeetLink == "" {
		return ""
	}
	return fmt.Sprintf("<p><b>Meeting Link:</b> <a href='%s'>Join Session</a></p>", html.EscapeString(*req.MeetLink))
}

func notesParagraph(req *models.SessionRequest) string {
	if req.AdminNotes == nil || *req.AdminNotes == "" {
		return ""
	}
	return fmt.Sprintf("<p><b>Notes:</b> %s</p>", html.EscapeString(*req.AdminNotes))
}

func formatWhen(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
}
