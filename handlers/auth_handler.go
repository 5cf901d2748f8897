package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/SHREYANK007/LMS-sub003/database"
	"github.com/SHREYANK007/LMS-sub003/middleware"
	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	FullName   string  `json:"fullName" validate:"required,min=2,max=255"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	CourseType *string `json:"courseType,omitempty" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	CourseType     *string   `json:"courseType"`
	IsActive       bool      `json:"isActive"`
	CalendarLinked bool      `json:"calendarLinked"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:             u.ID.String(),
		FullName:       u.FullName,
		Email:          u.Email,
		Role:           string(u.Role),
		CourseType:     u.CourseType,
		IsActive:       u.IsActive,
		CalendarLinked: u.HasCalendarLink(),
		CreatedAt:      u.CreatedAt,
	}
}

// Register creates a student account.
func (h *Handler) Register(c *fiber.Ctx) error {
	user, err := h.createUser(c, models.RoleStudent)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "user": newUserResponse(user)})
}

func (h *Handler) createUser(c *fiber.Ctx, role models.Role) (*models.User, error) {
	var req RegisterRequest
	if err := parseBody(c, &req, false); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:   strings.TrimSpace(req.FullName),
		Email:      req.Email,
		Password:   string(hashedPassword),
		Role:       role,
		CourseType: req.CourseType,
		IsActive:   true,
	}
	if err := h.users.Create(c.UserContext(), user); err != nil {
		return nil, err
	}

	h.logger.Info("User created", zap.String("user_id", user.ID.String()), zap.String("role", string(role)))
	return user, nil
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req, false); err != nil {
		return h.writeError(c, err)
	}

	invalid := fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	user, err := h.users.GetByEmail(c.UserContext(), req.Email)
	if errors.Is(err, database.ErrNotFound) {
		return h.writeError(c, invalid)
	}
	if err != nil {
		return h.writeError(c, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return h.writeError(c, invalid)
	}
	if !user.IsActive {
		return h.writeError(c, fiber.NewError(fiber.StatusForbidden, "Account is deactivated"))
	}

	token, err := middleware.GenerateToken(h.jwtSecret, user, h.jwtExpiry)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "token": token, "user": newUserResponse(user)})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	user, err := h.users.GetByID(c.UserContext(), actor.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": newUserResponse(user)})
}
