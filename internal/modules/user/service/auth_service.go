package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/modules/user/dto"
	"anoa.com/akademika/internal/modules/user/repository"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/internal/ratelimit"
	"anoa.com/akademika/pkg/apperror"
	"anoa.com/akademika/pkg/mailer"
	"anoa.com/akademika/pkg/validator"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const actionPasswordReset = "password_reset"

// SessionManager is the part of the session layer the auth flow drives.
type SessionManager interface {
	Issue(ctx context.Context, user *entity.User) (string, time.Time, error)
	Revoke(ctx context.Context, token string) error
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

type AuthService interface {
	Register(ctx context.Context, actor *policy.Actor, input dto.RegisterInput) (*dto.UserResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	RequestPasswordReset(ctx context.Context, input dto.ForgotPasswordInput) (*dto.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error
	PurgeExpiredResets(ctx context.Context) (int64, error)
}

type Options struct {
	ResetTTL         time.Duration
	ResetCooldown    time.Duration
	ExposeResetToken bool
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

type authService struct {
	repo     repository.UserRepository
	sessions SessionManager
	mail     mailer.Mailer
	limiter  *ratelimit.Cooldown
	opts     Options
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(repo repository.UserRepository, sessions SessionManager, mail mailer.Mailer, limiter *ratelimit.Cooldown, opts Options) AuthService {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if mail == nil {
		mail = mailer.NewLogMailer()
	}
	return &authService{
		repo:     repo,
		sessions: sessions,
		mail:     mail,
		limiter:  limiter,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, actor *policy.Actor, input dto.RegisterInput) (*dto.UserResponse, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.PhoneNumber != nil {
		phone := strings.TrimSpace(*input.PhoneNumber)
		if phone == "" {
			input.PhoneNumber = nil
		} else {
			input.PhoneNumber = &phone
		}
	}

	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	role := entity.RoleStudent
	if input.Role != "" {
		role = entity.Role(input.Role)
	}
	if role == entity.RoleAdmin && (actor == nil || actor.Role != entity.RoleAdmin) {
		return nil, fmt.Errorf("only admins can create admin accounts: %w", apperror.ErrForbidden)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.opts.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		PasswordHash: string(hashed),
		Role:         role,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return dto.NewUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Compare anyway so a missing user costs the same as a wrong password.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(input.Password))
		return nil, apperror.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        dto.NewUserResponse(user),
	}, nil
}

func (s *authService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("akademika-dummy-password"), s.opts.HashCost)
		if err != nil {
			panic(fmt.Sprintf("generate dummy hash: %v", err))
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperror.ErrUnauthorized
	}
	return s.sessions.Revoke(ctx, token)
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, input dto.ForgotPasswordInput) (*dto.ForgotPasswordResponse, error) {
	input.Identifier = strings.TrimSpace(input.Identifier)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	allowed, err := s.limiter.Acquire(ctx, actionPasswordReset, strings.ToLower(input.Identifier), s.opts.ResetCooldown)
	if err != nil {
		slog.Warn("password reset rate limit unavailable", "error", err)
	} else if !allowed {
		return nil, apperror.ErrRateLimitExceeded
	}

	res := &dto.ForgotPasswordResponse{
		Message: "if an account matches, password reset instructions have been sent",
	}

	user, err := s.repo.FindByEmailOrPhone(ctx, input.Identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return res, nil
	}

	now := s.now()
	if err := s.repo.InvalidatePasswordResets(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("invalidate previous reset tokens: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return nil, err
	}
	reset := &entity.PasswordReset{
		UserID:    user.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: now.Add(s.opts.ResetTTL),
	}
	if err := s.repo.CreatePasswordReset(ctx, reset); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mail.Send(ctx, user.Email, "Reset your Akademika password", resetMailBody(user, token, s.opts.ResetTTL)); err != nil {
		slog.Error("failed to deliver password reset mail", "user_id", user.ID, "error", err)
	}

	if s.opts.ExposeResetToken {
		res.Token = token
		res.ExpiresAt = &reset.ExpiresAt
	}
	return res, nil
}

func (s *authService) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error {
	if err := validator.Struct(input); err != nil {
		return err
	}

	reset, err := s.repo.FindPasswordResetByHash(ctx, hashResetToken(strings.TrimSpace(input.Token)))
	if err != nil {
		return err
	}
	if reset == nil {
		return apperror.ErrTokenNotFound
	}
	if reset.Used {
		return apperror.ErrTokenUsed
	}
	now := s.now()
	if reset.Expired(now) {
		return apperror.ErrTokenExpired
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.opts.HashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.RedeemPasswordReset(ctx, reset.ID, reset.UserID, string(hashed), now); err != nil {
		return err
	}

	if err := s.sessions.RevokeUser(ctx, reset.UserID); err != nil {
		slog.Error("failed to revoke sessions after password reset", "user_id", reset.UserID, "error", err)
	}
	slog.Info("password reset", "user_id", reset.UserID)
	return nil
}

func (s *authService) PurgeExpiredResets(ctx context.Context) (int64, error) {
	// keep a day of history so a late click still gets TokenExpired instead of TokenNotFound
	n, err := s.repo.DeleteExpiredPasswordResets(ctx, s.now().Add(-24*time.Hour))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("purged expired password resets", "count", n)
	}
	return n, nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func resetMailBody(user *entity.User, token string, ttl time.Duration) string {
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>Use the code below to reset your password. It expires in %s.</p><p><strong>%s</strong></p><p>If you did not ask for this, ignore this mail.</p>",
		html.EscapeString(user.FirstName), ttl, token,
	)
}

