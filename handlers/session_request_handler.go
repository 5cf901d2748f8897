package handlers

import (
	"fmt"
	"time"

	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/SHREYANK007/LMS-sub003/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateSessionRequestRequest struct {
	PreferredDate string  `json:"preferredDate" validate:"required,datetime=2006-01-02"`
	PreferredTime string  `json:"preferredTime" validate:"required,datetime=15:04"`
	Duration      int     `json:"duration" validate:"required,gt=0"`
	Subject       string  `json:"subject" validate:"required,max=255"`
	Description   *string `json:"description,omitempty"`
}

type AssignRequest struct {
	TutorID           string     `json:"tutorId" validate:"required,uuid"`
	AdminNotes        *string    `json:"adminNotes,omitempty"`
	ScheduledDateTime *time.Time `json:"scheduledDateTime,omitempty"`
	Approve           bool       `json:"approve,omitempty"`
	Version           *int       `json:"version,omitempty"`
}

type StatusRequest struct {
	Status            string     `json:"status" validate:"required"`
	RejectionReason   string     `json:"rejectionReason,omitempty"`
	TutorID           *string    `json:"tutorId,omitempty" validate:"omitempty,uuid"`
	ScheduledDateTime *time.Time `json:"scheduledDateTime,omitempty"`
	AdminNotes        *string    `json:"adminNotes,omitempty"`
	Version           *int       `json:"version,omitempty"`
}

type CancelRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
	Version            *int    `json:"version,omitempty"`
}

type AdminCancelRequest struct {
	CancellationReason string `json:"cancellationReason" validate:"required"`
	Version            *int   `json:"version,omitempty"`
}

func (h *Handler) CreateSessionRequest(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var req CreateSessionRequestRequest
	if err := parseBody(c, &req, false); err != nil {
		return h.writeError(c, err)
	}

	created, err := h.requests.Create(c.UserContext(), actor, services.CreateInput{
		PreferredDate: req.PreferredDate,
		PreferredTime: req.PreferredTime,
		Duration:      req.Duration,
		Subject:       req.Subject,
		Description:   req.Description,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"request": present(created, actor, h.now()),
	})
}

func (h *Handler) MySessionRequests(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	requests, err := h.requests.ListMine(c.UserContext(), actor)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "requests": presentAll(requests, actor, h.now())})
}

func (h *Handler) ListSessionRequests(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}

	filter := models.SessionRequestFilter{Status: models.SessionStatus(c.Query("status"))}
	for name, dst := range map[string]**uuid.UUID{"tutorId": &filter.TutorID, "studentId": &filter.StudentID} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name))
		}
		*dst = &id
	}

	requests, err := h.requests.List(c.UserContext(), actor, filter)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "requests": presentAll(requests, actor, h.now())})
}

func (h *Handler) GetSessionRequest(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	req, err := h.requests.Get(c.UserContext(), actor, id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "request": present(req, actor, h.now())})
}

func (h *Handler) AssignSessionRequest(c *fiber.Ctx) error {
	var req AssignRequest
	if err := parseBody(c, &req, false); err != nil {
		return h.writeError(c, err)
	}
	tutorID, _ := uuid.Parse(req.TutorID)
	return h.transition(c, services.Assign{
		TutorID:           tutorID,
		AdminNotes:        req.AdminNotes,
		ScheduledDateTime: req.ScheduledDateTime,
		Approve:           req.Approve,
	}, req.Version)
}

func (h *Handler) UpdateSessionRequestStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := parseBody(c, &req, false); err != nil {
		return h.writeError(c, err)
	}

	var tutorID *uuid.UUID
	if req.TutorID != nil {
		id, _ := uuid.Parse(*req.TutorID)
		tutorID = &id
	}
	t, err := services.TransitionForStatus(models.SessionStatus(req.Status), req.RejectionReason, tutorID, req.ScheduledDateTime, req.AdminNotes)
	if err != nil {
		return h.writeError(c, err)
	}
	return h.transition(c, t, req.Version)
}

func (h *Handler) CancelSessionRequest(c *fiber.Ctx) error {
	var req CancelRequest
	if err := parseBody(c, &req, true); err != nil {
		return h.writeError(c, err)
	}
	return h.transition(c, services.StudentCancel{Reason: req.CancellationReason}, req.Version)
}

func (h *Handler) AdminCancelSessionRequest(c *fiber.Ctx) error {
	var req AdminCancelRequest
	if err := parseBody(c, &req, false); err != nil {
		return h.writeError(c, err)
	}
	return h.transition(c, services.AdminCancel{Reason: req.CancellationReason}, req.Version)
}

func (h *Handler) transition(c *fiber.Ctx, t services.Transition, version *int) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}

	res, err := h.requests.ApplyTransition(c.UserContext(), id, t, actor, version)
	if err != nil {
		return h.writeError(c, err)
	}

	body := fiber.Map{"success": true, "request": present(res.Request, actor, h.now())}
	if len(res.CalendarIssues) > 0 {
		body["warnings"] = res.CalendarIssues
	}
	return c.JSON(body)
}

// ExportCalendar serves the scheduled session as an .ics attachment.
func (h *Handler) ExportCalendar(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	ics, err := h.requests.ExportICS(c.UserContext(), actor, id)
	if err != nil {
		return h.writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="session-%s.ics"`, id))
	return c.SendString(ics)
}
