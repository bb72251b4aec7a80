package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/notify"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/internal/store/drivers/sqlite"
	"github.com/DSAshv/urbanAssist/pkg/jwtx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

// captureNotifier records dispatched notifications for assertions.
type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (c *captureNotifier) Dispatch(n notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func newAuthService(st store.Store) *AuthService {
	return &AuthService{
		Store:    st,
		Access:   jwtx.NewSigner([]byte("test-access-secret"), "urbanassist-test", jwtx.UseAccess, time.Hour),
		Refresh:  jwtx.NewSigner([]byte("test-refresh-secret"), "urbanassist-test", jwtx.UseRefresh, 24*time.Hour),
		Notifier: &captureNotifier{},
	}
}

func registerUser(t *testing.T, auth *AuthService, email string) domain.User {
	t.Helper()
	u, _, err := auth.Register(context.Background(), RegisterInput{
		FirstName: "Test",
		LastName:  "Citizen",
		Email:     email,
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	return u
}

func promoteToAdmin(t *testing.T, st store.Store, u domain.User) domain.User {
	t.Helper()
	require.NoError(t, st.Users().UpdateRole(context.Background(), u.ID, domain.RoleAdmin))
	u.Role = domain.RoleAdmin
	return u
}
