package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/SHREYANK007/LMS-sub003/calendar"
	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/SHREYANK007/LMS-sub003/services"
	"github.com/SHREYANK007/LMS-sub003/websocket"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

// CalendarLinker runs the OAuth consent flow that links a user's calendar.
type CalendarLinker interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, userID uuid.UUID, code string) error
}

type Deps struct {
	Users    *database.UserStore
	Requests *services.SessionRequestService
	// Calendar and Linker are nil when Google credentials are not configured.
	Calendar    calendar.Gateway
	Linker      CalendarLinker
	Hub         *websocket.Hub
	JWTSecret   string
	JWTExpiry   time.Duration
	FrontendURL string
	Logger      *zap.Logger
	Now         func() time.Time
}

type Handler struct {
	users       *database.UserStore
	requests    *services.SessionRequestService
	calendar    calendar.Gateway
	linker      CalendarLinker
	hub         *websocket.Hub
	jwtSecret   string
	jwtExpiry   time.Duration
	frontendURL string
	logger      *zap.Logger
	now         func() time.Time
}

func New(d Deps) *Handler {
	h := &Handler{
		users:       d.Users,
		requests:    d.Requests,
		calendar:    d.Calendar,
		linker:      d.Linker,
		hub:         d.Hub,
		jwtSecret:   d.JWTSecret,
		jwtExpiry:   d.JWTExpiry,
		frontendURL: d.FrontendURL,
		logger:      d.Logger,
		now:         d.Now,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.jwtExpiry == 0 {
		h.jwtExpiry = 72 * time.Hour
	}
	return h
}

// Secret is the JWT signing key, used by routes to build the auth middleware.
func (h *Handler) Secret() string {
	return h.jwtSecret
}

func (h *Handler) actor(c *fiber.Ctx) (models.Actor, error) {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return models.Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired JWT")
	}
	return actor, nil
}

// parseBody decodes and validates a JSON body. An empty body is accepted when
// optional is true and leaves dst untouched.
func parseBody(c *fiber.Ctx, dst any, optional bool) error {
	if optional && len(c.Body()) == 0 {
		return validate.Struct(dst)
	}
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	return validate.Struct(dst)
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// writeError maps domain errors onto HTTP status codes.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fiberErr):
		status, message = fiberErr.Code, fiberErr.Message
	case errors.As(err, &validationErrs):
		status, message = fiber.StatusBadRequest, err.Error()
	case services.IsValidation(err), errors.Is(err, services.ErrInvalidTransition):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrForbidden):
		status, message = fiber.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrNotFound), errors.Is(err, database.ErrNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrConflict):
		status, message = fiber.StatusConflict, err.Error()
	case errors.Is(err, database.ErrDuplicate):
		status, message = fiber.StatusConflict, "Email already exists"
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}
