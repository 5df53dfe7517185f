package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitalmed/staff-registry/internal/core/domain"
	"github.com/vitalmed/staff-registry/internal/core/ports"
)

const (
	maxPageSize   = 100
	resetTokenTTL = 24 * time.Hour
)

// LoginThrottle abstracts the failed-attempt counter (Redis).
type LoginThrottle interface {
	TooManyFailures(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	ClearFailures(ctx context.Context, email string) error
}

// AuthService implements account registration, login and administration.
// The throttle and audit trail are optional; a nil value disables the
// feature, which the maintenance worker relies on.
type AuthService struct {
	repo     ports.AuthRepository
	sessions ports.SessionRegistry
	tokens   *TokenManager
	throttle LoginThrottle
	audit    ports.AuditTrail
	logger   zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, sessions ports.SessionRegistry, tokens *TokenManager, throttle LoginThrottle, audit ports.AuditTrail, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, sessions: sessions, tokens: tokens, throttle: throttle, audit: audit, logger: logger}
}

func (s *AuthService) recordAudit(account, action, note string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuditEvent{Account: account, Action: action, Note: note})
}

// noteLoginFailure counts a bad-credential attempt toward the throttle and
// records it in the trail.
func (s *AuthService) noteLoginFailure(ctx context.Context, email string) {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			s.logger.Warn().Err(err).Msg("record login failure")
		}
	}
	s.recordAudit(email, domain.AuditLoginFailed, "")
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.ErrInvalidRole
	}
	if input.Role == domain.RoleDoctor && (input.LicenseNumber == "" || input.Specialty == "") {
		return nil, domain.ErrDoctorFieldsRequired
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:          input.Name,
		Email:         input.Email,
		PasswordHash:  string(hash),
		Role:          input.Role,
		LicenseNumber: input.LicenseNumber,
		Specialty:     input.Specialty,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordAudit(created.ID, domain.AuditRegistered, created.Role)
	s.logger.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("account registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	// A throttle outage must not lock everyone out, so a failed check only
	// logs and lets the attempt through.
	if s.throttle != nil {
		locked, err := s.throttle.TooManyFailures(ctx, email)
		if err != nil {
			s.logger.Warn().Err(err).Msg("throttle check failed, allowing attempt")
		} else if locked {
			s.recordAudit(email, domain.AuditLoginThrottled, "")
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.noteLoginFailure(ctx, email)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.noteLoginFailure(ctx, email)
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active {
		// The password was right, so this does not count toward the
		// guessing throttle.
		s.recordAudit(user.ID, domain.AuditLoginFailed, "account inactive")
		return nil, domain.ErrUserInactive
	}

	token, session, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Register(ctx, session); err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.ClearFailures(ctx, email); err != nil {
			s.logger.Warn().Err(err).Msg("clear login failures")
		}
	}
	s.recordAudit(user.ID, domain.AuditLoginSucceeded, "")

	s.logger.Info().Str("user_id", user.ID).Str("session_id", session.ID).Msg("login")
	return &ports.LoginResult{Token: token, User: user}, nil
}

// Logout drops the session from the registry. The bearer token keeps its
// signature until expiry, so removal here is what actually ends access.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.recordAudit(userID, domain.AuditLogout, "")
	s.logger.Info().Str("user_id", userID).Str("session_id", sessionID).Msg("logout")
	return nil
}

// Me resolves the account behind an authenticated request. The account is
// re-fetched so role or profile changes take effect without reissuing the
// token.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, domain.ErrUserInactive
	}
	return user, nil
}

func (s *AuthService) Status(ctx context.Context, userID string) (*ports.AuthStatus, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ports.AuthStatus{
		Authenticated: true,
		User:          user,
		Permissions:   domain.PermissionsForRole(user.Role),
	}, nil
}

func (s *AuthService) SetUserActive(ctx context.Context, userID string, active bool) error {
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return err
	}
	if active {
		s.recordAudit(userID, domain.AuditActivated, "")
		return nil
	}

	revoked, err := s.sessions.RevokeUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.recordAudit(userID, domain.AuditDeactivated, "")
	s.logger.Info().Str("user_id", userID).Int64("sessions_revoked", revoked).Msg("account deactivated")
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context, input ports.ListUsersInput) (*ports.ListUsersResult, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 20
	}
	if input.Limit > maxPageSize {
		input.Limit = maxPageSize
	}

	users, total, err := s.repo.List(ctx, ports.ListUsersFilter{
		Role:  input.Role,
		Page:  input.Page,
		Limit: input.Limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}
	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, input ports.ChangePasswordInput) error {
	user, err := s.repo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)) != nil {
		return domain.ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	s.recordAudit(user.ID, domain.AuditPasswordChanged, "")
	return nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := generateResetToken()
	if err != nil {
		return "", err
	}
	expires := time.Now().UTC().Add(resetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return "", err
	}

	s.recordAudit(user.ID, domain.AuditResetRequested, "")
	s.logger.Info().Str("user_id", user.ID).Time("expires", expires).Msg("password reset requested")
	return token, nil
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, input ports.ConfirmResetInput) error {
	user, err := s.repo.FindByResetToken(ctx, input.Token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	// A reset proves control of the account, so drop any sessions issued
	// before the credential changed.
	if _, err := s.sessions.RevokeUser(ctx, user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.recordAudit(user.ID, domain.AuditResetConfirmed, "")
	s.logger.Info().Str("user_id", user.ID).Msg("password reset confirmed")
	return nil
}

func (s *AuthService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	purged, err := s.repo.PurgeExpiredResetTokens(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.logger.Info().Int64("purged", purged).Msg("expired reset tokens cleared")
	}
	return purged, nil
}

// generateResetToken returns a URL-safe random token.
func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
