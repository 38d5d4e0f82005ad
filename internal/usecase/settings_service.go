package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fridge/backend/internal/domain"
)

// Settings is the user-facing settings view.
type Settings struct {
	Language string  `json:"language"`
	Email    *string `json:"email"`
}

// supportedLanguages lists the UI languages the apps ship with.
var supportedLanguages = map[string]bool{
	"en": true,
	"pl": true,
}

// SettingsService manages per-user preferences and the email change flow.
type SettingsService struct {
	users        domain.UserRepository
	emailUpdater domain.EmailUpdater
}

// NewSettingsService creates a settings service.
func NewSettingsService(users domain.UserRepository, emailUpdater domain.EmailUpdater) *SettingsService {
	return &SettingsService{
		users:        users,
		emailUpdater: emailUpdater,
	}
}

// Get returns the user's settings, defaulting language to "en" when the
// local row is missing.
func (s *SettingsService) Get(ctx context.Context, userID string) (*Settings, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return &Settings{Language: "en"}, nil
	}
	if err != nil {
		return nil, err
	}

	settings := &Settings{Language: user.Language}
	if user.Email != "" {
		settings.Email = &user.Email
	}
	if settings.Language == "" {
		settings.Language = "en"
	}
	return settings, nil
}

// UpdateLanguage stores a supported language preference.
func (s *SettingsService) UpdateLanguage(ctx context.Context, userID, language string) (*Settings, error) {
	if !supportedLanguages[language] {
		return nil, fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidRequest, language)
	}
	if err := s.users.UpdateLanguage(ctx, userID, language); err != nil {
		return nil, err
	}
	return &Settings{Language: language}, nil
}

// UpdateEmail changes the account email at the identity provider first
// (which sends its verification mail) and mirrors the new address locally
// on success.
func (s *SettingsService) UpdateEmail(ctx context.Context, userID, token, newEmail string) error {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" || !strings.Contains(newEmail, "@") {
		return fmt.Errorf("%w: a valid email is required", domain.ErrInvalidRequest)
	}

	if err := s.emailUpdater.UpdateEmail(ctx, token, newEmail); err != nil {
		return err
	}

	return s.users.UpdateEmail(ctx, userID, newEmail)
}
