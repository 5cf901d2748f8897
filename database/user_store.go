package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SHREYANK007/LMS-sub003/models"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// ErrNoToken is returned by LoadToken when the user never linked a calendar.
var ErrNoToken = errors.New("no calendar token stored for user")

// UserStore is the identity store. It also persists Google OAuth tokens.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return ErrDuplicate
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (s *UserStore) ListByRole(ctx context.Context, role models.Role, activeOnly bool) ([]models.User, error) {
	query := s.db.WithContext(ctx).Where("role = ?", role)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var users []models.User
	if err := query.Order("full_name asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return users, nil
}

func (s *UserStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("set user active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) LoadToken(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasCalendarLink() {
		return nil, ErrNoToken
	}

	tok := &oauth2.Token{
		RefreshToken: *user.GoogleRefreshToken,
		TokenType:    "Bearer",
	}
	if user.GoogleAccessToken != nil {
		tok.AccessToken = *user.GoogleAccessToken
	}
	if user.GoogleTokenExpiry != nil {
		tok.Expiry = *user.GoogleTokenExpiry
	}
	return tok, nil
}

// SaveToken stores tok for the user. An empty refresh token keeps the stored one,
// since Google only returns it on the first consent.
func (s *UserStore) SaveToken(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error {
	updates := map[string]any{
		"google_access_token": tok.AccessToken,
	}
	if !tok.Expiry.IsZero() {
		updates["google_token_expiry"] = tok.Expiry
	}
	if tok.RefreshToken != "" {
		updates["google_refresh_token"] = tok.RefreshToken
		updates["calendar_linked_at"] = time.Now()
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("save calendar token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) SetCalendarID(ctx context.Context, userID uuid.UUID, calendarID string) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("google_calendar_id", calendarID)
	if result.Error != nil {
		return fmt.Errorf("set calendar id: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) ClearToken(ctx context.Context, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"google_access_token":  nil,
		"google_refresh_token": nil,
		"google_token_expiry":  nil,
		"google_calendar_id":   nil,
		"calendar_linked_at":   nil,
	})
	if result.Error != nil {
		return fmt.Errorf("clear calendar token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
