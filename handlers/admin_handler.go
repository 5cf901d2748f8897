package handlers

import (
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

func (h *Handler) CreateTutor(c *fiber.Ctx) error {
	user, err := h.createUser(c, models.RoleTutor)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "user": newUserResponse(user)})
}

// ListTutors returns the active tutors requests can be assigned to.
func (h *Handler) ListTutors(c *fiber.Ctx) error {
	tutors, err := h.users.ListByRole(c.UserContext(), models.RoleTutor, true)
	if err != nil {
		return h.writeError(c, err)
	}
	out := make([]UserResponse, 0, len(tutors))
	for i := range tutors {
		out = append(out, newUserResponse(&tutors[i]))
	}
	return c.JSON(fiber.Map{"success": true, "tutors": out})
}

func (h *Handler) SetUserStatus(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return h.writeError(c, err)
	}
	var req UserStatusRequest
	if err := parseBody(c, &req, false); err != nil {
		return h.writeError(c, err)
	}
	if userID == actor.ID && !*req.IsActive {
		return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "Admins cannot deactivate themselves"))
	}

	if err := h.users.SetActive(c.UserContext(), userID, *req.IsActive); err != nil {
		return h.writeError(c, err)
	}
	h.logger.Info("User status changed",
		zap.String("user_id", userID.String()),
		zap.Bool("is_active", *req.IsActive),
		zap.String("admin_id", actor.ID.String()),
	)

	user, err := h.users.GetByID(c.UserContext(), userID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": newUserResponse(user)})
}
