package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/pquerna/otp/totp"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/cryptox"
)

// MFAService handles the TOTP enrollment lifecycle. A secret is stored
// unconfirmed at setup and only counts once the user proves possession by
// submitting a valid code; disabling requires both the password and a code.
type MFAService struct {
	Store store.Store

	// Issuer is the label shown in authenticator apps.
	Issuer string
}

// MFASetup is returned from Setup: the base32 secret for manual entry plus a
// provisioning QR rendered as a PNG data URL.
type MFASetup struct {
	Secret string `json:"secret"`
	QRCode string `json:"qrCode"`
}

// Setup generates and stores a fresh, unconfirmed TOTP secret for the user.
func (s *MFAService) Setup(ctx context.Context, u domain.User) (MFASetup, error) {
	if u.MFAEnabled {
		return MFASetup{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
	})
	if err != nil {
		return MFASetup{}, fmt.Errorf("generate totp secret: %w", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return MFASetup{}, fmt.Errorf("render qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return MFASetup{}, fmt.Errorf("encode qr: %w", err)
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, u.ID, key.Secret()); err != nil {
		return MFASetup{}, fmt.Errorf("store mfa secret: %w", err)
	}

	return MFASetup{
		Secret: key.Secret(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// VerifyAndEnable confirms the pending secret with a current code and flips
// the enabled flag.
func (s *MFAService) VerifyAndEnable(ctx context.Context, u domain.User, token string) error {
	if u.MFAEnabled {
		return ErrMFAAlreadyEnabled
	}
	if u.MFASecret == "" {
		return ErrMFANotConfigured
	}
	if !totp.Validate(token, u.MFASecret) {
		return ErrInvalidMFAToken
	}
	return s.Store.Users().EnableMFA(ctx, u.ID)
}

// Disable turns MFA off. It demands the current password and a valid code;
// either alone is not enough to remove the second factor.
func (s *MFAService) Disable(ctx context.Context, u domain.User, token, password string) error {
	if !u.MFAEnabled {
		return ErrMFANotEnabled
	}
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	if !totp.Validate(token, u.MFASecret) {
		return ErrInvalidMFAToken
	}
	return s.Store.Users().DisableMFA(ctx, u.ID)
}
