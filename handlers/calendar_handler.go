package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/SHREYANK007/LMS-sub003/calendar"
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const stateTTL = 10 * time.Minute

var errCalendarDisabled = fiber.NewError(fiber.StatusServiceUnavailable, "Calendar integration is not configured")

// ConnectCalendar returns the Google consent URL for the caller.
func (h *Handler) ConnectCalendar(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if h.linker == nil {
		return h.writeError(c, errCalendarDisabled)
	}
	state, err := middleware.GenerateStateToken(h.jwtSecret, actor.ID, stateTTL)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "url": h.linker.AuthCodeURL(state)})
}

// CalendarCallback is where Google redirects after consent. The user is
// identified by the signed state, not by a bearer token.
func (h *Handler) CalendarCallback(c *fiber.Ctx) error {
	if h.linker == nil {
		return h.writeError(c, errCalendarDisabled)
	}
	if denied := c.Query("error"); denied != "" {
		return c.Redirect(h.settingsURL("denied"), fiber.StatusFound)
	}

	userID, err := middleware.ParseStateToken(h.jwtSecret, c.Query("state"))
	if err != nil {
		return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "Invalid or expired state"))
	}
	code := c.Query("code")
	if code == "" {
		return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "Missing authorization code"))
	}

	if err := h.linker.Exchange(c.UserContext(), userID, code); err != nil {
		h.logger.Warn("Calendar link failed", zap.String("user_id", userID.String()), zap.Error(err))
		return c.Redirect(h.settingsURL("failed"), fiber.StatusFound)
	}
	h.logger.Info("Calendar linked", zap.String("user_id", userID.String()))
	return c.Redirect(h.settingsURL("linked"), fiber.StatusFound)
}

func (h *Handler) settingsURL(result string) string {
	return strings.TrimRight(h.frontendURL, "/") + "/settings/calendar?result=" + result
}

// RefreshCalendar forces a token refresh so users can check their link is healthy.
func (h *Handler) RefreshCalendar(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if h.calendar == nil {
		return h.writeError(c, errCalendarDisabled)
	}
	user, err := h.users.GetByID(c.UserContext(), actor.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	if !user.HasCalendarLink() {
		return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "No calendar linked"))
	}

	tok, err := h.calendar.RefreshCredentials(c.UserContext(), calendar.Account{UserID: user.ID, Email: user.Email})
	var authErr *calendar.AuthError
	if errors.As(err, &authErr) {
		return h.writeError(c, fiber.NewError(fiber.StatusBadRequest, "Calendar authorization expired, connect the calendar again"))
	}
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "expiry": tok.Expiry})
}

func (h *Handler) UnlinkCalendar(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	if err := h.users.ClearToken(c.UserContext(), actor.ID); err != nil {
		return h.writeError(c, err)
	}
	h.logger.Info("Calendar unlinked", zap.String("user_id", actor.ID.String()))
	return c.JSON(fiber.Map{"success": true})
}
