package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/DSAshv/urbanAssist/internal/domain"
)

func TestRegisterIssuesTokensAndWelcome(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	capture := &captureNotifier{}
	auth.Notifier = capture

	u, pair, err := auth.Register(context.Background(), RegisterInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "Ada@Example.com",
		Password:  "long-enough",
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", u.Email)
	require.Equal(t, domain.RoleUser, u.Role)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, 1, capture.count())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)

	registerUser(t, auth, "dup@example.com")
	_, _, err := auth.Register(context.Background(), RegisterInput{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "dup@example.com",
		Password:  "long-enough",
	})
	require.ErrorIs(t, err, ErrEmailTaken)

	users, err := st.Users().ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestRegisterValidation(t *testing.T) {
	auth := newAuthService(newTestStore(t))

	cases := []RegisterInput{
		{LastName: "X", Email: "a@b.c", Password: "long-enough"},
		{FirstName: "X", LastName: "Y", Email: "not-an-email", Password: "long-enough"},
		{FirstName: "X", LastName: "Y", Email: "a@b.c", Password: "short"},
	}
	for _, in := range cases {
		_, _, err := auth.Register(context.Background(), in)
		require.True(t, IsValidation(err), "input %+v should fail validation", in)
	}
}

func TestLoginWrongPasswordAndUnknownEmailLookTheSame(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	registerUser(t, auth, "citizen@example.com")

	_, err1 := auth.Login(context.Background(), "citizen@example.com", "wrong-password", "")
	_, err2 := auth.Login(context.Background(), "ghost@example.com", "correct-horse", "")
	require.ErrorIs(t, err1, ErrInvalidCredentials)
	require.ErrorIs(t, err2, ErrInvalidCredentials)
}

func TestLoginRotatesRefreshToken(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	u := registerUser(t, auth, "citizen@example.com")

	before, err := st.Users().GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)

	res, err := auth.Login(context.Background(), "citizen@example.com", "correct-horse", "")
	require.NoError(t, err)
	require.False(t, res.MFARequired)
	require.NotEmpty(t, res.Tokens.AccessToken)

	after, err := st.Users().GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotEqual(t, before.RefreshTokenHash, after.RefreshTokenHash)
}

func TestLoginSuspendedAccount(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	u := registerUser(t, auth, "citizen@example.com")
	require.NoError(t, st.Users().SetSuspension(context.Background(), u.ID, true, "abuse"))

	_, err := auth.Login(context.Background(), "citizen@example.com", "correct-horse", "")
	require.ErrorIs(t, err, ErrAccountSuspended)
}

func TestLoginMFAGate(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	mfa := &MFAService{Store: st, Issuer: "UrbanAssist"}
	u := registerUser(t, auth, "citizen@example.com")

	setup, err := mfa.Setup(context.Background(), u)
	require.NoError(t, err)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	u.MFASecret = setup.Secret
	require.NoError(t, mfa.VerifyAndEnable(context.Background(), u, code))

	// No code: challenge, no tokens.
	res, err := auth.Login(context.Background(), "citizen@example.com", "correct-horse", "")
	require.NoError(t, err)
	require.True(t, res.MFARequired)
	require.Empty(t, res.Tokens.AccessToken)

	// Code from far outside the allowed skew fails.
	stale, err := totp.GenerateCode(setup.Secret, time.Now().Add(-5*time.Minute))
	require.NoError(t, err)
	_, err = auth.Login(context.Background(), "citizen@example.com", "correct-horse", stale)
	require.ErrorIs(t, err, ErrInvalidMFAToken)

	// Current code succeeds.
	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	res, err = auth.Login(context.Background(), "citizen@example.com", "correct-horse", code)
	require.NoError(t, err)
	require.False(t, res.MFARequired)
	require.NotEmpty(t, res.Tokens.AccessToken)
}

func TestRefreshRotationInvalidatesOldToken(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)

	_, pair1, err := auth.Register(context.Background(), RegisterInput{
		FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "long-enough",
	})
	require.NoError(t, err)

	pair2, err := auth.RefreshTokens(context.Background(), pair1.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair1.RefreshToken, pair2.RefreshToken)

	// The rotated-away token is dead even though it is still within expiry.
	_, err = auth.RefreshTokens(context.Background(), pair1.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = auth.RefreshTokens(context.Background(), pair2.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)

	_, pair, err := auth.Register(context.Background(), RegisterInput{
		FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "long-enough",
	})
	require.NoError(t, err)

	_, err = auth.RefreshTokens(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogoutClearsRefreshTokenAndIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)

	u, pair, err := auth.Register(context.Background(), RegisterInput{
		FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "long-enough",
	})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background(), u.ID))
	require.NoError(t, auth.Logout(context.Background(), u.ID))

	_, err = auth.RefreshTokens(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestMFADisableRequiresPasswordAndCode(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	mfa := &MFAService{Store: st, Issuer: "UrbanAssist"}
	u := registerUser(t, auth, "citizen@example.com")

	setup, err := mfa.Setup(context.Background(), u)
	require.NoError(t, err)
	u.MFASecret = setup.Secret

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, mfa.VerifyAndEnable(context.Background(), u, code))

	u, err = st.Users().GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, u.MFAEnabled)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	require.ErrorIs(t, mfa.Disable(context.Background(), u, code, "wrong-password"), ErrInvalidCredentials)
	require.ErrorIs(t, mfa.Disable(context.Background(), u, "000000", "correct-horse"), ErrInvalidMFAToken)

	require.NoError(t, mfa.Disable(context.Background(), u, code, "correct-horse"))

	u, err = st.Users().GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.False(t, u.MFAEnabled)
	require.Empty(t, u.MFASecret)
}

func TestMFASetupRejectedWhenAlreadyEnabled(t *testing.T) {
	st := newTestStore(t)
	mfa := &MFAService{Store: st, Issuer: "UrbanAssist"}

	_, err := mfa.Setup(context.Background(), domain.User{ID: "u1", Email: "x@y.z", MFAEnabled: true})
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
}
