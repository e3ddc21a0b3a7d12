package taskauth

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// VerificationCodeLength is the number of digits in verification and reset
// codes. Each digit is drawn independently and uniformly, so codes keep
// leading zeros and are not unique across users.
const VerificationCodeLength = 6

// AuthService orchestrates login validation, token issuance and verification,
// verification/reset code matching, and token invalidation.
//
// Expected negative outcomes (bad credentials, expired or superseded tokens,
// mismatched codes) come back as categorized auth errors; infrastructure
// failures are wrapped with CategoryInternal and propagate to the caller.
type AuthService struct {
	repo      RepositoryManager
	codec     *TokenCodec
	cfg       Config
	passwords PasswordAuthenticator
	logger    Logger
}

// NewAuthService returns a new AuthService
func NewAuthService(repo RepositoryManager, cfg Config) *AuthService {
	return &AuthService{
		repo:      repo,
		cfg:       cfg,
		codec:     NewTokenCodec([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), defLogger{}),
		passwords: BcryptAuthenticator{},
		logger:    defLogger{},
	}
}

func (s *AuthService) WithLogger(logger Logger) *AuthService {
	if logger != nil {
		s.logger = logger
		s.codec = NewTokenCodec([]byte(s.cfg.GetSigningKey()), s.cfg.GetIssuer(), logger)
	}
	return s
}

// WithPasswordAuthenticator overrides the password hashing implementation.
func (s *AuthService) WithPasswordAuthenticator(p PasswordAuthenticator) *AuthService {
	if p != nil {
		s.passwords = p
	}
	return s
}

// Codec exposes the TokenCodec used by this service.
func (s *AuthService) Codec() *TokenCodec {
	return s.codec
}

// ValidateLogin checks the credentials of a user. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials, callers cannot tell which
// check failed.
func (s *AuthService) ValidateLogin(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, normalizeEmail(email))
	if err != nil {
		if isRecordNotFound(err) {
			s.logger.Warn("login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login user lookup failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up user for login")
	}

	if err := s.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Warn("login password mismatch for user %s", user.ID)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GenerateAccessToken issues a stateless bearer token. Nothing is persisted.
func (s *AuthService) GenerateAccessToken(userID uuid.UUID) (string, error) {
	token, err := s.codec.Encode(userID.String(), s.cfg.GetAccessTokenTTL())
	if err != nil {
		s.logger.Error("access token encode failed: %v", err)
		return "", err
	}
	return token, nil
}

// GenerateRefreshToken issues a refresh token and overwrites the user's
// stored refresh_token slot, superseding any prior token.
func (s *AuthService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := s.codec.Encode(userID.String(), s.cfg.GetRefreshTokenTTL())
	if err != nil {
		s.logger.Error("refresh token encode failed: %v", err)
		return "", err
	}

	if err := s.repo.Tokens().SaveRefreshToken(ctx, userID, token); err != nil {
		s.logger.Error("refresh token save failed: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}

	return token, nil
}

// VerifyAccessToken decodes a bearer token and returns its subject id.
func (s *AuthService) VerifyAccessToken(token string) (uuid.UUID, error) {
	return s.subjectFromToken(token, "access")
}

// VerifyRefreshToken decodes a refresh token and accepts it only when it
// matches the stored slot verbatim. A token with a valid signature that has
// since been superseded is rejected.
func (s *AuthService) VerifyRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	userID, err := s.subjectFromToken(token, "refresh")
	if err != nil {
		return uuid.Nil, err
	}

	record, err := s.repo.Tokens().Get(ctx, userID)
	if err != nil {
		if isRecordNotFound(err) {
			s.logger.Warn("refresh token presented for user %s without token record", userID)
			return uuid.Nil, ErrTokenInvalid
		}
		s.logger.Error("refresh token record lookup failed: %v", err)
		return uuid.Nil, errors.Wrap(err, errors.CategoryInternal, "failed to load token record")
	}

	if record.RefreshToken != token {
		s.logger.Warn("superseded or unknown refresh token for user %s", userID)
		return uuid.Nil, ErrTokenInvalid
	}

	return userID, nil
}

// InvalidateRefreshToken clears the stored refresh token. It reports whether
// a token record existed to clear.
func (s *AuthService) InvalidateRefreshToken(ctx context.Context, userID uuid.UUID) (bool, error) {
	cleared, err := s.repo.Tokens().DeleteRefreshToken(ctx, userID)
	if err != nil {
		s.logger.Error("refresh token invalidation failed: %v", err)
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to invalidate refresh token")
	}
	return cleared, nil
}

// GenerateVerificationCode draws a fresh email verification code and persists
// it with its expiration against the user's token record.
func (s *AuthService) GenerateVerificationCode(ctx context.Context, email string) (string, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := generateDigitCode(VerificationCodeLength)
	if err != nil {
		s.logger.Error("verification code generation failed: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate verification code")
	}

	expiresAt := time.Now().Add(s.cfg.GetCodeTTL())
	if err := s.repo.Tokens().SaveVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		s.logger.Error("verification code save failed: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist verification code")
	}

	return code, nil
}

// GenerateConfirmToken issues the signed token that accompanies a
// verification code and persists it against the user.
func (s *AuthService) GenerateConfirmToken(ctx context.Context, email string) (string, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := s.codec.Encode(user.ID.String(), s.cfg.GetConfirmTokenTTL())
	if err != nil {
		s.logger.Error("confirm token encode failed: %v", err)
		return "", err
	}

	if err := s.repo.Tokens().SaveConfirmToken(ctx, user.ID, token); err != nil {
		s.logger.Error("confirm token save failed: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist confirm token")
	}

	return token, nil
}

// VerifyVerificationCode checks a confirm token and verification code pair.
// Both must match the stored values and the code must be unexpired; there is
// no partial credit and no reason disclosure. On success the full user is
// returned.
func (s *AuthService) VerifyVerificationCode(ctx context.Context, confirmToken, code string) (*User, error) {
	return s.verifyCodePair(ctx, confirmToken, code, func(record *TokenRecord) (string, string, *time.Time) {
		return record.ConfirmToken, record.Code, record.CodeExpiresAt
	})
}

// VerifyUserEmail flips the user's verified flag. It reports whether a row
// was updated.
func (s *AuthService) VerifyUserEmail(ctx context.Context, email string) (bool, error) {
	updated, err := s.repo.Users().UpdateVerifiedStatus(ctx, email, true)
	if err != nil {
		s.logger.Error("verified status update failed: %v", err)
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to update verified status")
	}
	return updated, nil
}

// GenerateResetCode mirrors GenerateVerificationCode for password resets.
func (s *AuthService) GenerateResetCode(ctx context.Context, email string) (string, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	code, err := generateDigitCode(VerificationCodeLength)
	if err != nil {
		s.logger.Error("reset code generation failed: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate reset code")
	}

	expiresAt := time.Now().Add(s.cfg.GetCodeTTL())
	if err := s.repo.Tokens().SaveResetCode(ctx, user.ID, code, expiresAt); err != nil {
		s.logger.Error("reset code save failed: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist reset code")
	}

	return code, nil
}

// GenerateResetToken mirrors GenerateConfirmToken for password resets.
func (s *AuthService) GenerateResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := s.codec.Encode(user.ID.String(), s.cfg.GetResetTokenTTL())
	if err != nil {
		s.logger.Error("reset token encode failed: %v", err)
		return "", err
	}

	if err := s.repo.Tokens().SaveResetToken(ctx, user.ID, token); err != nil {
		s.logger.Error("reset token save failed: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist reset token")
	}

	return token, nil
}

// VerifyResetCode checks a reset token and reset code pair, mirroring
// VerifyVerificationCode against the reset field group.
func (s *AuthService) VerifyResetCode(ctx context.Context, resetToken, code string) (*User, error) {
	return s.verifyCodePair(ctx, resetToken, code, func(record *TokenRecord) (string, string, *time.Time) {
		return record.ResetToken, record.ResetCode, record.ResetExpires
	})
}

// SetPassword hashes and overwrites the user's password. It reports false
// when the user does not exist. The stored refresh and reset tokens are left
// in place, matching the upstream behavior.
func (s *AuthService) SetPassword(ctx context.Context, userID uuid.UUID, newPassword string) (bool, error) {
	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
	}

	if err := s.repo.Users().SetPassword(ctx, userID, hash); err != nil {
		if isRecordNotFound(err) {
			return false, nil
		}
		s.logger.Error("password update failed: %v", err)
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to update password")
	}

	return true, nil
}

func (s *AuthService) subjectFromToken(token, kind string) (uuid.UUID, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		if IsTokenExpiredError(err) || IsMalformedError(err) || IsTokenInvalidError(err) {
			s.logger.Warn("%s token rejected: %v", kind, err)
			return uuid.Nil, err
		}
		s.logger.Error("%s token decode failed: %v", kind, err)
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		s.logger.Warn("%s token subject is not a valid user id", kind)
		return uuid.Nil, ErrTokenInvalid
	}

	return userID, nil
}

func (s *AuthService) lookupByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.Users().GetByIdentifier(ctx, normalizeEmail(email))
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		s.logger.Error("user lookup failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up user")
	}
	return user, nil
}

func (s *AuthService) verifyCodePair(ctx context.Context, token, code string, groupOf func(*TokenRecord) (string, string, *time.Time)) (*User, error) {
	userID, err := s.subjectFromToken(token, "confirm")
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Tokens().Get(ctx, userID)
	if err != nil {
		if isRecordNotFound(err) {
			s.logger.Warn("code check for user %s without token record", userID)
			return nil, ErrCodeMismatch
		}
		s.logger.Error("token record lookup failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load token record")
	}

	storedToken, storedCode, expiresAt := groupOf(record)
	if storedToken != token || storedCode != code ||
		expiresAt == nil || !time.Now().Before(*expiresAt) {
		s.logger.Warn("code check failed for user %s", userID)
		return nil, ErrCodeMismatch
	}

	user, err := s.repo.Users().GetByID(ctx, userID.String())
	if err != nil {
		if isRecordNotFound(err) {
			s.logger.Warn("code check matched token record but user %s is gone", userID)
			return nil, ErrCodeMismatch
		}
		s.logger.Error("user lookup failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user")
	}

	return user, nil
}

// generateDigitCode draws n digits, each uniform over 0-9.
func generateDigitCode(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}
