package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/notify"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/cryptox"
	"github.com/DSAshv/urbanAssist/pkg/idx"
	"github.com/DSAshv/urbanAssist/pkg/jwtx"
)

// Notifier is the dispatch side of the notification pipeline. Implementations
// never block and never surface delivery errors to the caller.
type Notifier interface {
	Dispatch(n notify.Notification)
}

// AuthService owns registration, credential login with the MFA gate, and the
// refresh-token rotation scheme: the SHA-256 fingerprint of the most recently
// issued refresh token is stored on the user, so a rotated-away token fails
// even while its signature and expiry are still valid.
type AuthService struct {
	Store    store.Store
	Access   *jwtx.Signer
	Refresh  *jwtx.Signer
	Notifier Notifier

	// Now is a clock override for tests; nil means time.Now.
	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Address   string
}

func (in *RegisterInput) validate() error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	switch {
	case in.FirstName == "" || in.LastName == "":
		return invalidf("first and last name are required")
	case !strings.Contains(in.Email, "@"):
		return invalidf("a valid email is required")
	case len(in.Password) < 8:
		return invalidf("password must be at least 8 characters")
	}
	return nil
}

// Register creates an account and logs it in immediately.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, domain.TokenPair, error) {
	if err := in.validate(); err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, domain.TokenPair{}, ErrEmailTaken
		}
		return domain.User{}, domain.TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issueTokens(ctx, u.ID)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	s.Notifier.Dispatch(notify.Notification{
		Email:   u.Email,
		Subject: "Welcome to UrbanAssist",
		Body:    "Hi " + u.FirstName + ", your account is ready. You can now report and track civic issues.",
	})

	return u, pair, nil
}

// LoginResult is either a full login (Tokens set) or an MFA challenge
// (MFARequired true, no tokens issued).
type LoginResult struct {
	User        domain.User
	Tokens      domain.TokenPair
	MFARequired bool
}

// Login checks credentials and, when the account has MFA enabled, gates on a
// TOTP code. The caller resubmits credentials together with the code.
func (s *AuthService) Login(ctx context.Context, email, password, mfaToken string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !u.Active {
		return LoginResult{}, ErrAccountSuspended
	}

	if u.MFAEnabled {
		if mfaToken == "" {
			return LoginResult{MFARequired: true}, nil
		}
		if !totp.Validate(mfaToken, u.MFASecret) {
			return LoginResult{}, ErrInvalidMFAToken
		}
	}

	pair, err := s.issueTokens(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, Tokens: pair}, nil
}

// RefreshTokens exchanges a refresh token for a new pair. The presented token
// must verify AND fingerprint-match the single stored value; both checks are
// required so rotated-away tokens die immediately.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.Refresh.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidRefreshToken
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	fp := cryptox.Fingerprint(refreshToken)
	if u.RefreshTokenHash == "" ||
		subtle.ConstantTimeCompare([]byte(fp), []byte(u.RefreshTokenHash)) != 1 {
		return domain.TokenPair{}, ErrInvalidRefreshToken
	}

	if !u.Active {
		return domain.TokenPair{}, ErrAccountSuspended
	}

	return s.issueTokens(ctx, u.ID)
}

// Logout clears the stored refresh token fingerprint. Idempotent.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	err := s.Store.Users().UpdateRefreshTokenHash(ctx, userID, "")
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (s *AuthService) issueTokens(ctx context.Context, userID string) (domain.TokenPair, error) {
	now := s.now()

	access, err := s.Access.Sign(userID, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.Refresh.Sign(userID, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.Store.Users().UpdateRefreshTokenHash(ctx, userID, cryptox.Fingerprint(refresh)); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
