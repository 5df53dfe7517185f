package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vitalmed/staff-registry/internal/core/domain"
	"github.com/vitalmed/staff-registry/internal/core/ports"
)

type stubAuthRepo struct {
	users map[string]*domain.User
	order []string
	seq   int
}

func newStubAuthRepo() *stubAuthRepo {
	return &stubAuthRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubAuthRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	copy := cloneUser(user)
	r.seq++
	copy.ID = fmt.Sprintf("u%d", r.seq)
	r.users[copy.ID] = cloneUser(copy)
	r.order = append(r.order, copy.ID)
	return copy, nil
}

func (r *stubAuthRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAuthRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubAuthRepo) List(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	var matched []*domain.User
	for _, id := range r.order {
		u := r.users[id]
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubAuthRepo) SetActive(_ context.Context, id string, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Active = active
	return nil
}

func (r *stubAuthRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = ""
	u.ResetTokenExpires = time.Time{}
	return nil
}

func (r *stubAuthRepo) SetResetToken(_ context.Context, id string, token string, expires time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetToken = token
	u.ResetTokenExpires = expires
	return nil
}

func (r *stubAuthRepo) FindByResetToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ResetToken == token && u.ResetTokenExpires.After(time.Now()) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrInvalidResetToken
}

func (r *stubAuthRepo) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	for _, u := range r.users {
		if u.ResetToken != "" && u.ResetTokenExpires.Before(now) {
			u.ResetToken = ""
			u.ResetTokenExpires = time.Time{}
			purged++
		}
	}
	return purged, nil
}

type stubSessionRegistry struct {
	sessions map[string]domain.Session
}

func newStubSessionRegistry() *stubSessionRegistry {
	return &stubSessionRegistry{sessions: make(map[string]domain.Session)}
}

func (r *stubSessionRegistry) Register(_ context.Context, s domain.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *stubSessionRegistry) Get(_ context.Context, id string) (*domain.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *stubSessionRegistry) Revoke(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func (r *stubSessionRegistry) RevokeUser(_ context.Context, userID string) (int64, error) {
	var revoked int64
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
			revoked++
		}
	}
	return revoked, nil
}

func newTestAuthService(repo *stubAuthRepo, sessions *stubSessionRegistry) *AuthService {
	return NewAuthService(repo, sessions, NewTokenManager("test-secret", time.Hour), nil, nil, zerolog.Nop())
}

func registerUser(t *testing.T, svc *AuthService, email, password, role string) *domain.User {
	t.Helper()
	input := ports.RegisterInput{Name: "Test User", Email: email, Password: password, Role: role}
	if role == domain.RoleDoctor {
		input.LicenseNumber = "CRM-1234"
		input.Specialty = "Cardiology"
	}
	user, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return user
}

func TestAuthService_Register_Success(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name:          "Alice Chen",
		Email:         "alice@hospital.org",
		Password:      "pass123",
		Role:          domain.RoleDoctor,
		LicenseNumber: "CRM-9001",
		Specialty:     "Neurology",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !user.Active {
		t.Fatalf("expected new account to be active")
	}
	if user.LicenseNumber != "CRM-9001" || user.Specialty != "Neurology" {
		t.Fatalf("doctor fields not kept: %+v", user)
	}
}

func TestAuthService_Register_DefaultRole(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Bob", Email: "bob@hospital.org", Password: "pass123",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role %q, got %q", domain.RoleUser, user.Role)
	}
}

func TestAuthService_Register_InvalidRole(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Eve", Email: "eve@hospital.org", Password: "pass123", Role: "superuser",
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestAuthService_Register_DoctorFieldsRequired(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Dr. No License", Email: "dr@hospital.org", Password: "pass123",
		Role: domain.RoleDoctor, Specialty: "Cardiology",
	})
	if !errors.Is(err, domain.ErrDoctorFieldsRequired) {
		t.Fatalf("expected ErrDoctorFieldsRequired, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())

	registerUser(t, svc, "bob@hospital.org", "pass123", domain.RoleNurse)
	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Bob Again", Email: "bob@hospital.org", Password: "other", Role: domain.RoleUser,
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	sessions := newStubSessionRegistry()
	svc := newTestAuthService(newStubAuthRepo(), sessions)
	registerUser(t, svc, "carol@hospital.org", "s3cret", domain.RoleAdmin)

	result, err := svc.Login(context.Background(), "carol@hospital.org", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if result.User == nil || result.User.Email != "carol@hospital.org" {
		t.Fatalf("unexpected user: %+v", result.User)
	}

	claims, err := NewTokenManager("test-secret", time.Hour).Parse(result.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if claims.Role != domain.RoleAdmin {
		t.Fatalf("expected role %s, got %s", domain.RoleAdmin, claims.Role)
	}
	if claims.UserID != result.User.ID {
		t.Fatalf("claims user %s does not match %s", claims.UserID, result.User.ID)
	}

	if len(sessions.sessions) != 1 {
		t.Fatalf("expected 1 registered session, got %d", len(sessions.sessions))
	}
	if _, err := sessions.Get(context.Background(), claims.ID); err != nil {
		t.Fatalf("session not registered under jti: %v", err)
	}
}

func TestAuthService_Login_InvalidPassword(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())
	registerUser(t, svc, "dave@hospital.org", "goodpass", domain.RoleUser)

	_, err := svc.Login(context.Background(), "dave@hospital.org", "badpass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())

	// Unknown accounts look exactly like a wrong password.
	_, err := svc.Login(context.Background(), "ghost@hospital.org", "pass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo, newStubSessionRegistry())
	user := registerUser(t, svc, "off@hospital.org", "pass123", domain.RoleUser)

	if err := repo.SetActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	_, err := svc.Login(context.Background(), "off@hospital.org", "pass123")
	if !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestAuthService_Me(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo, newStubSessionRegistry())
	user := registerUser(t, svc, "me@hospital.org", "pass123", domain.RoleNurse)

	got, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Me returned error: %v", err)
	}
	if got.Email != "me@hospital.org" {
		t.Fatalf("unexpected user: %+v", got)
	}

	repo.users[user.ID].Active = false
	if _, err := svc.Me(context.Background(), user.ID); !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_Logout(t *testing.T) {
	sessions := newStubSessionRegistry()
	svc := newTestAuthService(newStubAuthRepo(), sessions)
	user := registerUser(t, svc, "bye@hospital.org", "pass123", domain.RoleUser)

	result, err := svc.Login(context.Background(), "bye@hospital.org", "pass123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := NewTokenManager("test-secret", time.Hour).Parse(result.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}

	if err := svc.Logout(context.Background(), user.ID, claims.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := sessions.Get(context.Background(), claims.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}

	// A second logout is a no-op.
	if err := svc.Logout(context.Background(), user.ID, claims.ID); err != nil {
		t.Fatalf("repeated logout failed: %v", err)
	}
}

func TestAuthService_Status(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo, newStubSessionRegistry())
	user := registerUser(t, svc, "status@hospital.org", "pass123", domain.RoleNurse)

	status, err := svc.Status(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.Authenticated {
		t.Fatalf("expected authenticated status")
	}
	if status.User == nil || status.User.ID != user.ID {
		t.Fatalf("unexpected user: %+v", status.User)
	}

	perms := make(map[string]bool, len(status.Permissions))
	for _, p := range status.Permissions {
		perms[p] = true
	}
	if !perms["patient:read"] || perms["user:update"] {
		t.Fatalf("unexpected permission set for nurse: %v", status.Permissions)
	}

	repo.users[user.ID].Active = false
	if _, err := svc.Status(context.Background(), user.ID); !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
}

func TestAuthService_SetUserActive_DeactivateRevokesSessions(t *testing.T) {
	repo := newStubAuthRepo()
	sessions := newStubSessionRegistry()
	svc := newTestAuthService(repo, sessions)
	user := registerUser(t, svc, "revoke@hospital.org", "pass123", domain.RoleDoctor)

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(context.Background(), "revoke@hospital.org", "pass123"); err != nil {
			t.Fatalf("login %d failed: %v", i, err)
		}
	}
	if len(sessions.sessions) != 2 {
		t.Fatalf("expected 2 live sessions, got %d", len(sessions.sessions))
	}

	if err := svc.SetUserActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if repo.users[user.ID].Active {
		t.Fatalf("expected account to be inactive")
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("expected all sessions revoked, %d left", len(sessions.sessions))
	}

	// Reactivation must not touch sessions.
	if err := svc.SetUserActive(context.Background(), user.ID, true); err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if !repo.users[user.ID].Active {
		t.Fatalf("expected account to be active again")
	}
}

func TestAuthService_SetUserActive_UnknownUser(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())

	if err := svc.SetUserActive(context.Background(), "missing", false); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_ListUsers_Pagination(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())
	for i := 0; i < 5; i++ {
		registerUser(t, svc, fmt.Sprintf("u%d@hospital.org", i), "pass123", domain.RoleNurse)
	}
	registerUser(t, svc, "adm@hospital.org", "pass123", domain.RoleAdmin)

	result, err := svc.ListUsers(context.Background(), ports.ListUsersInput{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if result.Total != 6 || len(result.Items) != 2 || result.TotalPages != 3 {
		t.Fatalf("unexpected page: total=%d items=%d pages=%d", result.Total, len(result.Items), result.TotalPages)
	}

	byRole, err := svc.ListUsers(context.Background(), ports.ListUsersInput{Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("ListUsers by role returned error: %v", err)
	}
	if byRole.Total != 1 || byRole.Items[0].Role != domain.RoleAdmin {
		t.Fatalf("unexpected role filter result: %+v", byRole)
	}

	// Out-of-range values are normalized rather than rejected.
	norm, err := svc.ListUsers(context.Background(), ports.ListUsersInput{Page: -3, Limit: 5000})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if norm.Page != 1 || norm.Limit != maxPageSize {
		t.Fatalf("expected normalized page/limit, got %d/%d", norm.Page, norm.Limit)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo, newStubSessionRegistry())
	user := registerUser(t, svc, "pw@hospital.org", "oldpass", domain.RoleUser)

	err := svc.ChangePassword(context.Background(), ports.ChangePasswordInput{
		UserID: user.ID, CurrentPassword: "wrong", NewPassword: "newpass",
	})
	if !errors.Is(err, domain.ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	err = svc.ChangePassword(context.Background(), ports.ChangePasswordInput{
		UserID: user.ID, CurrentPassword: "oldpass", NewPassword: "newpass",
	})
	if err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if _, err := svc.Login(context.Background(), "pw@hospital.org", "newpass"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := svc.Login(context.Background(), "pw@hospital.org", "oldpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
}

func TestAuthService_PasswordReset_Flow(t *testing.T) {
	repo := newStubAuthRepo()
	sessions := newStubSessionRegistry()
	svc := newTestAuthService(repo, sessions)
	user := registerUser(t, svc, "reset@hospital.org", "oldpass", domain.RoleUser)

	if _, err := svc.Login(context.Background(), "reset@hospital.org", "oldpass"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	token, err := svc.RequestPasswordReset(context.Background(), "reset@hospital.org")
	if err != nil {
		t.Fatalf("RequestPasswordReset returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected reset token")
	}
	if repo.users[user.ID].ResetToken != token {
		t.Fatalf("token not stored")
	}

	err = svc.ConfirmPasswordReset(context.Background(), ports.ConfirmResetInput{Token: token, NewPassword: "newpass"})
	if err != nil {
		t.Fatalf("ConfirmPasswordReset returned error: %v", err)
	}
	if repo.users[user.ID].ResetToken != "" {
		t.Fatalf("reset token not cleared after use")
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("expected sessions revoked after reset, %d left", len(sessions.sessions))
	}
	if _, err := svc.Login(context.Background(), "reset@hospital.org", "newpass"); err != nil {
		t.Fatalf("login with reset password failed: %v", err)
	}

	// A used token cannot be replayed.
	err = svc.ConfirmPasswordReset(context.Background(), ports.ConfirmResetInput{Token: token, NewPassword: "again"})
	if !errors.Is(err, domain.ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(newStubAuthRepo(), newStubSessionRegistry())

	token, err := svc.RequestPasswordReset(context.Background(), "nobody@hospital.org")
	if err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if token != "" {
		t.Fatalf("expected empty token for unknown email, got %q", token)
	}
}

func TestAuthService_PurgeExpiredResetTokens(t *testing.T) {
	repo := newStubAuthRepo()
	svc := newTestAuthService(repo, newStubSessionRegistry())
	expired := registerUser(t, svc, "old@hospital.org", "pass123", domain.RoleUser)
	fresh := registerUser(t, svc, "new@hospital.org", "pass123", domain.RoleUser)

	repo.users[expired.ID].ResetToken = "expired-token"
	repo.users[expired.ID].ResetTokenExpires = time.Now().Add(-time.Hour)
	repo.users[fresh.ID].ResetToken = "fresh-token"
	repo.users[fresh.ID].ResetTokenExpires = time.Now().Add(time.Hour)

	purged, err := svc.PurgeExpiredResetTokens(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpiredResetTokens returned error: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged token, got %d", purged)
	}
	if repo.users[expired.ID].ResetToken != "" {
		t.Fatalf("expired token not cleared")
	}
	if repo.users[fresh.ID].ResetToken != "fresh-token" {
		t.Fatalf("fresh token should survive the purge")
	}
}

type stubThrottle struct {
	locked   bool
	checkErr error
	failures map[string]int
}

func newStubThrottle() *stubThrottle {
	return &stubThrottle{failures: make(map[string]int)}
}

func (s *stubThrottle) TooManyFailures(_ context.Context, _ string) (bool, error) {
	return s.locked, s.checkErr
}

func (s *stubThrottle) RecordFailure(_ context.Context, email string) error {
	s.failures[email]++
	return nil
}

func (s *stubThrottle) ClearFailures(_ context.Context, email string) error {
	delete(s.failures, email)
	return nil
}

type stubAuditTrail struct {
	events []domain.AuditEvent
}

func (s *stubAuditTrail) Record(event domain.AuditEvent) {
	s.events = append(s.events, event)
}

func (s *stubAuditTrail) actions() []string {
	actions := make([]string, 0, len(s.events))
	for _, e := range s.events {
		actions = append(actions, e.Action)
	}
	return actions
}

func newThrottledAuthService(repo *stubAuthRepo, throttle *stubThrottle, trail *stubAuditTrail) *AuthService {
	var audit ports.AuditTrail
	if trail != nil {
		audit = trail
	}
	return NewAuthService(repo, newStubSessionRegistry(), NewTokenManager("test-secret", time.Hour), throttle, audit, zerolog.Nop())
}

func TestAuthService_Login_Throttled(t *testing.T) {
	throttle := newStubThrottle()
	trail := &stubAuditTrail{}
	svc := newThrottledAuthService(newStubAuthRepo(), throttle, trail)
	registerUser(t, svc, "locked@hospital.org", "pass123", domain.RoleUser)

	throttle.locked = true
	if _, err := svc.Login(context.Background(), "locked@hospital.org", "pass123"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	last := trail.events[len(trail.events)-1]
	if last.Action != domain.AuditLoginThrottled || last.Account != "locked@hospital.org" {
		t.Fatalf("unexpected trail entry: %+v", last)
	}
}

func TestAuthService_Login_ThrottleOutageFailsOpen(t *testing.T) {
	throttle := newStubThrottle()
	throttle.locked = true
	throttle.checkErr = errors.New("redis down")
	svc := newThrottledAuthService(newStubAuthRepo(), throttle, nil)
	registerUser(t, svc, "open@hospital.org", "pass123", domain.RoleUser)

	if _, err := svc.Login(context.Background(), "open@hospital.org", "pass123"); err != nil {
		t.Fatalf("expected login to proceed during throttle outage, got %v", err)
	}
}

func TestAuthService_Login_CountsOnlyBadCredentials(t *testing.T) {
	repo := newStubAuthRepo()
	throttle := newStubThrottle()
	svc := newThrottledAuthService(repo, throttle, nil)
	user := registerUser(t, svc, "count@hospital.org", "pass123", domain.RoleUser)

	if _, err := svc.Login(context.Background(), "count@hospital.org", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@hospital.org", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if throttle.failures["count@hospital.org"] != 1 || throttle.failures["ghost@hospital.org"] != 1 {
		t.Fatalf("unexpected failure counts: %v", throttle.failures)
	}

	// A correct password against an inactive account does not count toward
	// the throttle.
	repo.users[user.ID].Active = false
	if _, err := svc.Login(context.Background(), "count@hospital.org", "pass123"); !errors.Is(err, domain.ErrUserInactive) {
		t.Fatalf("expected ErrUserInactive, got %v", err)
	}
	if throttle.failures["count@hospital.org"] != 1 {
		t.Fatalf("inactive login must not count, got %d", throttle.failures["count@hospital.org"])
	}

	repo.users[user.ID].Active = true
	if _, err := svc.Login(context.Background(), "count@hospital.org", "pass123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, ok := throttle.failures["count@hospital.org"]; ok {
		t.Fatalf("expected counter cleared after successful login")
	}
}

func TestAuthService_AuditTrail(t *testing.T) {
	repo := newStubAuthRepo()
	trail := &stubAuditTrail{}
	svc := newThrottledAuthService(repo, newStubThrottle(), trail)

	user := registerUser(t, svc, "trail@hospital.org", "pass123", domain.RoleNurse)
	if _, err := svc.Login(context.Background(), "trail@hospital.org", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	result, err := svc.Login(context.Background(), "trail@hospital.org", "pass123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := NewTokenManager("test-secret", time.Hour).Parse(result.Token)
	if err != nil {
		t.Fatalf("token invalid: %v", err)
	}
	if err := svc.Logout(context.Background(), user.ID, claims.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if err := svc.SetUserActive(context.Background(), user.ID, false); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	want := []string{
		domain.AuditRegistered,
		domain.AuditLoginFailed,
		domain.AuditLoginSucceeded,
		domain.AuditLogout,
		domain.AuditDeactivated,
	}
	got := trail.actions()
	if len(got) != len(want) {
		t.Fatalf("expected actions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// Bad-credential entries key by the submitted address, the rest by
	// account id.
	if trail.events[1].Account != "trail@hospital.org" {
		t.Fatalf("failed login keyed by %q", trail.events[1].Account)
	}
	if trail.events[2].Account != user.ID {
		t.Fatalf("successful login keyed by %q", trail.events[2].Account)
	}
	if trail.events[0].Note != domain.RoleNurse {
		t.Fatalf("register note = %q", trail.events[0].Note)
	}
}
