package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const tokenKey = "user"

var ErrInvalidToken = errors.New("invalid token")

func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ContextKey:   tokenKey,
		ErrorHandler: jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"success": false, "error": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"success": false, "error": "Invalid or expired JWT"})
}

// RoleRequired lets the request through only when the caller holds one of roles.
func RoleRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := CurrentActor(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid or expired JWT"})
		}
		for _, role := range roles {
			if actor.Role == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Forbidden: insufficient role",
		})
	}
}

// CurrentActor reads the caller from the token Protected stored on the context.
func CurrentActor(c *fiber.Ctx) (models.Actor, error) {
	token, ok := c.Locals(tokenKey).(*jwt.Token)
	if !ok {
		return models.Actor{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, ErrInvalidToken
	}
	return actorFromClaims(claims)
}

func actorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	rawID, _ := claims["user_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return models.Actor{}, ErrInvalidToken
	}
	rawRole, _ := claims["role"].(string)
	role := models.Role(rawRole)
	if !role.IsValid() {
		return models.Actor{}, ErrInvalidToken
	}
	return models.Actor{ID: id, Role: role}, nil
}

// GenerateToken signs an HS256 access token for the user.
func GenerateToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates an access token outside the HTTP middleware, e.g. on websocket auth.
func ParseToken(secret, tokenString string) (models.Actor, error) {
	claims, err := parse(secret, tokenString)
	if err != nil {
		return models.Actor{}, err
	}
	return actorFromClaims(claims)
}

// GenerateStateToken signs the OAuth state carried through the calendar consent screen.
func GenerateStateToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"purpose": "calendar_connect",
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseStateToken(secret, state string) (uuid.UUID, error) {
	claims, err := parse(secret, state)
	if err != nil {
		return uuid.Nil, err
	}
	if purpose, _ := claims["purpose"].(string); purpose != "calendar_connect" {
		return uuid.Nil, ErrInvalidToken
	}
	rawID, _ := claims["user_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func parse(secret, tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
