package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"substack/internal/auth"
	"substack/internal/core"
	"substack/internal/storage"
)

var ErrEmailRegistered = &ConflictError{Msg: "Email already registered"}

type (
	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	UserSummary struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}

	AuthResult struct {
		User        UserSummary `json:"user"`
		AccessToken string      `json:"access_token"`
		TokenType   string      `json:"token_type"`
	}

	NotificationPreferences struct {
		EmailNotificationsEnabled bool   `json:"email_notifications_enabled"`
		PushNotificationsEnabled  bool   `json:"push_notifications_enabled"`
		Timezone                  string `json:"timezone"`
	}

	UpdateNotificationsInput struct {
		EmailNotificationsEnabled *bool   `json:"email_notifications_enabled"`
		PushNotificationsEnabled  *bool   `json:"push_notifications_enabled"`
		Timezone                  *string `json:"timezone"`
	}

	ReminderHistory struct {
		Items      []core.ReminderLog `json:"items"`
		TotalCount int                `json:"total_count"`
		Offset     int                `json:"offset"`
		Limit      int                `json:"limit"`
	}
)

// AccountService covers registration, login, profile settings and the
// reminder history of a user.
type AccountService struct {
	store  storage.Store
	tokens *auth.TokenManager
	clock  Clock
}

func NewAccountService(store storage.Store, tokens *auth.TokenManager, clock Clock) *AccountService {
	if clock == nil {
		clock = SystemClock
	}
	return &AccountService{store: store, tokens: tokens, clock: clock}
}

func (s *AccountService) issue(u core.User) (AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{
		User:        UserSummary{ID: u.ID, Email: u.Email},
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// Register creates a user with notifications enabled and returns a token.
func (s *AccountService) Register(ctx context.Context, in Credentials) (AuthResult, error) {
	email, err := core.NormalizeEmail(in.Email)
	if err != nil {
		return AuthResult{}, err
	}
	if err := core.ValidatePassword(in.Password); err != nil {
		return AuthResult{}, err
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrEmailRegistered
	} else if !errors.Is(err, storage.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("look up user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, err
	}
	u := core.User{
		Email:                     email,
		HashedPassword:            hash,
		CreatedAt:                 s.clock(),
		EmailNotificationsEnabled: true,
		PushNotificationsEnabled:  true,
		Timezone:                  core.DefaultTimezone,
	}
	if err := s.store.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return AuthResult{}, ErrEmailRegistered
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", u.ID)
	return s.issue(u)
}

// Login verifies credentials. Unknown emails and wrong passwords fail alike.
func (s *AccountService) Login(ctx context.Context, in Credentials) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return AuthResult{}, auth.ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("look up user: %w", err)
	}
	if !auth.CheckPassword(u.HashedPassword, in.Password) {
		return AuthResult{}, auth.ErrInvalidCredentials
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to an existing user id.
func (s *AccountService) Authenticate(ctx context.Context, token string) (int64, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, auth.ErrInvalidToken
		}
		return 0, fmt.Errorf("look up user: %w", err)
	}
	return userID, nil
}

func (s *AccountService) Profile(ctx context.Context, userID int64) (core.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateNotifications applies a partial update of the notification settings.
func (s *AccountService) UpdateNotifications(ctx context.Context, userID int64, in UpdateNotificationsInput) (NotificationPreferences, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return NotificationPreferences{}, err
	}
	if in.Timezone != nil {
		if err := core.ValidateTimezone(*in.Timezone); err != nil {
			return NotificationPreferences{}, fmt.Errorf("%w: %s", err, *in.Timezone)
		}
		u.Timezone = *in.Timezone
	}
	if in.EmailNotificationsEnabled != nil {
		u.EmailNotificationsEnabled = *in.EmailNotificationsEnabled
	}
	if in.PushNotificationsEnabled != nil {
		u.PushNotificationsEnabled = *in.PushNotificationsEnabled
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return NotificationPreferences{}, fmt.Errorf("update user: %w", err)
	}
	return NotificationPreferences{
		EmailNotificationsEnabled: u.EmailNotificationsEnabled,
		PushNotificationsEnabled:  u.PushNotificationsEnabled,
		Timezone:                  u.Timezone,
	}, nil
}

// ReminderHistory pages through the user's reminder logs, newest first.
func (s *AccountService) ReminderHistory(ctx context.Context, userID int64, limit, offset int) (ReminderHistory, error) {
	limit, offset = pageBounds(limit, offset)
	logs, err := s.store.ListReminderLogs(ctx, userID, limit, offset)
	if err != nil {
		return ReminderHistory{}, fmt.Errorf("list reminder logs: %w", err)
	}
	total, err := s.store.CountReminderLogs(ctx, userID)
	if err != nil {
		return ReminderHistory{}, fmt.Errorf("count reminder logs: %w", err)
	}
	return ReminderHistory{Items: logs, TotalCount: total, Offset: offset, Limit: limit}, nil
}
