package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mishael-2584/odel-portal/domain"
)

// AuthServiceImpl implements domain.AuthService: passwordless student login
// through emailed magic codes, password login for admins, and session
// validation for both.
type AuthServiceImpl struct {
	moodle      domain.MoodleClient
	codeRepo    domain.MagicCodeRepository
	studentRepo domain.StudentSessionRepository
	adminSessRepo domain.AdminSessionRepository
	adminRepo   domain.AdminRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	mailer      domain.MailerService
	config      AuthConfig
	log         zerolog.Logger
}

type AuthConfig struct {
	CodeLength  int
	CodeTTL     time.Duration
	MaxAttempts int
	SessionTTL  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	moodle domain.MoodleClient,
	codeRepo domain.MagicCodeRepository,
	studentRepo domain.StudentSessionRepository,
	adminSessRepo domain.AdminSessionRepository,
	adminRepo domain.AdminRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	mailer domain.MailerService,
	config AuthConfig,
	log zerolog.Logger,
) domain.AuthService {
	return &AuthServiceImpl{
		moodle:        moodle,
		codeRepo:      codeRepo,
		studentRepo:   studentRepo,
		adminSessRepo: adminSessRepo,
		adminRepo:     adminRepo,
		passwordSvc:   passwordSvc,
		tokenSvc:      tokenSvc,
		mailer:        mailer,
		config:        config,
		log:           log,
	}
}

// RequestMagicCode issues a fresh code for email and dispatches it through
// the mailer. Previously issued unused codes stay outstanding. A mailer
// failure is reported to the caller but the issued row is NOT rolled back:
// the code stays valid even if the email never arrives.
func (s *AuthServiceImpl) RequestMagicCode(ctx context.Context, email string) error {
	user, err := s.moodle.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up student: %w", err)
	}
	if user == nil {
		return domain.ErrStudentNotFound
	}

	code, err := s.generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate login code: %w", err)
	}

	magicCode := &domain.MagicCode{
		Email:          email,
		Code:           code,
		MoodleUserID:   user.ID,
		ExpiresAt:      time.Now().Add(s.config.CodeTTL),
		IsUsed:         false,
		AttemptedCount: 0,
	}
	if err := s.codeRepo.Create(ctx, magicCode); err != nil {
		return fmt.Errorf("failed to store login code: %w", err)
	}

	name := user.FullName
	if name == "" {
		name = user.FirstName
	}
	expiryMinutes := int(s.config.CodeTTL.Minutes())
	if err := s.mailer.SendMagicCode(ctx, email, name, code, expiryMinutes); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("magic code email dispatch failed")
		return fmt.Errorf("failed to send login code email: %w", err)
	}

	s.log.Info().Str("email", email).Int("moodle_user_id", user.ID).Msg("magic code issued")
	return nil
}

// VerifyMagicCode validates a submitted code against the latest outstanding
// one for email. Order of checks: no outstanding code -> invalid; expired;
// attempt limit reached (regardless of whether the submitted code is now
// correct); mismatch counts an attempt; a match consumes the row through a
// conditional update so concurrent verifications succeed at most once.
func (s *AuthServiceImpl) VerifyMagicCode(ctx context.Context, email, code, ip, userAgent string) (*domain.AuthResult, error) {
	active, err := s.codeRepo.FindLatestActive(ctx, email)
	if err != nil {
		return nil, err
	}

	if time.Now().After(active.ExpiresAt) {
		return nil, domain.ErrCodeExpired
	}
	if active.AttemptedCount >= s.config.MaxAttempts {
		return nil, domain.ErrCodeAttemptsExhausted
	}
	if active.Code != code {
		if err := s.codeRepo.IncrementAttempts(ctx, active.ID); err != nil {
			s.log.Error().Err(err).Str("email", email).Msg("failed to record code attempt")
		}
		return nil, domain.ErrCodeInvalid
	}

	consumed, err := s.codeRepo.ConsumeByID(ctx, active.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume login code: %w", err)
	}
	if !consumed {
		// Lost the race against a concurrent verification.
		return nil, domain.ErrCodeInvalid
	}

	return s.mintStudentSession(ctx, email, active.MoodleUserID, ip, userAgent)
}

func (s *AuthServiceImpl) mintStudentSession(ctx context.Context, email string, moodleUserID int, ip, userAgent string) (*domain.AuthResult, error) {
	claims := &domain.StudentClaims{
		Email:        email,
		MoodleUserID: moodleUserID,
		Roles:        []string{"student"},
		SessionID:    uuid.NewString(),
	}

	// Best effort enrichment from the LMS; login still works when the LMS
	// is unreachable, just with sparser claims.
	if user, err := s.moodle.GetUserByID(ctx, moodleUserID); err != nil {
		s.log.Warn().Err(err).Int("moodle_user_id", moodleUserID).Msg("could not enrich session claims from LMS")
	} else if user != nil {
		claims.MoodleUsername = user.Username
		claims.StudentName = user.FullName
	}

	token, err := s.tokenSvc.GenerateStudentToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &domain.StudentSession{
		ID:             claims.SessionID,
		Email:          email,
		MoodleUserID:   moodleUserID,
		MoodleUsername: claims.MoodleUsername,
		StudentName:    claims.StudentName,
		Token:          token,
		ExpiresAt:      time.Now().Add(s.config.SessionTTL),
		IPAddress:      ip,
		UserAgent:      userAgent,
		IsActive:       true,
	}
	if err := s.studentRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.log.Info().Str("email", email).Str("session_id", session.ID).Msg("student session created")
	return &domain.AuthResult{
		Token:     token,
		SessionID: session.ID,
		ExpiresIn: int64(s.config.SessionTTL.Seconds()),
		Student:   claims,
	}, nil
}

// AdminLogin verifies an admin password and mints an admin session.
func (s *AuthServiceImpl) AdminLogin(ctx context.Context, email, password, ip, userAgent string) (*domain.AuthResult, error) {
	admin, err := s.adminRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, domain.ErrAccountInactive
	}
	if !s.passwordSvc.Verify(admin.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	claims := &domain.AdminClaims{
		AdminID:   admin.ID,
		Email:     admin.Email,
		Name:      admin.Name,
		Role:      admin.Role,
		SessionID: uuid.NewString(),
	}
	token, err := s.tokenSvc.GenerateAdminToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin token: %w", err)
	}

	session := &domain.AdminSession{
		ID:        claims.SessionID,
		AdminID:   admin.ID,
		Email:     admin.Email,
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.SessionTTL),
		IPAddress: ip,
		UserAgent: userAgent,
		IsActive:  true,
	}
	if err := s.adminSessRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist admin session: %w", err)
	}

	s.log.Info().Str("email", email).Str("session_id", session.ID).Msg("admin session created")
	return &domain.AuthResult{
		Token:     token,
		SessionID: session.ID,
		ExpiresIn: int64(s.config.SessionTTL.Seconds()),
		Admin:     claims,
	}, nil
}

// ValidateStudentSession checks both the token's own signature/expiry and
// the persisted session row. A cryptographically valid token whose row was
// deactivated by logout does not pass.
func (s *AuthServiceImpl) ValidateStudentSession(ctx context.Context, token string) (*domain.StudentClaims, error) {
	claims, err := s.tokenSvc.ValidateStudentToken(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("student token rejected")
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, domain.ErrTokenMalformed
	}
	session, err := s.studentRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		s.log.Debug().Err(err).Str("session_id", claims.SessionID).Msg("student session rejected")
		return nil, err
	}
	if session.Email != claims.Email {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// ValidateAdminSession is the admin counterpart of ValidateStudentSession.
func (s *AuthServiceImpl) ValidateAdminSession(ctx context.Context, token string) (*domain.AdminClaims, error) {
	claims, err := s.tokenSvc.ValidateAdminToken(token)
	if err != nil {
		s.log.Debug().Err(err).Msg("admin token rejected")
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, domain.ErrTokenMalformed
	}
	session, err := s.adminSessRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		s.log.Debug().Err(err).Str("session_id", claims.SessionID).Msg("admin session rejected")
		return nil, err
	}
	if session.AdminID != claims.AdminID {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// Logout deactivates a student session row. The signed token itself is not
// blacklisted; validation paths reject it through the row check.
func (s *AuthServiceImpl) Logout(ctx context.Context, sessionID string) error {
	return s.studentRepo.Deactivate(ctx, sessionID)
}

// AdminLogout deactivates an admin session row.
func (s *AuthServiceImpl) AdminLogout(ctx context.Context, sessionID string) error {
	return s.adminSessRepo.Deactivate(ctx, sessionID)
}

// generateCode produces a numeric code in [10^(n-1), 10^n - 1], so a 6-digit
// configuration yields 100000..999999 with no leading zeros.
func (s *AuthServiceImpl) generateCode() (string, error) {
	length := s.config.CodeLength
	if length < 4 {
		length = 6
	}
	low := int64(1)
	for i := 1; i < length; i++ {
		low *= 10
	}
	span := big.NewInt(9 * low)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+low), nil
}
