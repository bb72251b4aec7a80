package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/pkg/idx"
)

func newComplaintService(st store.Store) *ComplaintService {
	return &ComplaintService{Store: st, Notifier: &captureNotifier{}}
}

func fileComplaint(t *testing.T, svc *ComplaintService, actor domain.User, title string) domain.Complaint {
	t.Helper()
	c, err := svc.Create(context.Background(), actor, CreateComplaintInput{
		Title:       title,
		Description: "There is a problem that needs attention.",
		Category:    domain.CategoryRoad,
		Location: domain.Location{
			Latitude:  40.0,
			Longitude: -74.0,
			Address:   "123 Main St",
		},
	})
	require.NoError(t, err)
	return c
}

func TestCreateComplaintDefaults(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")

	c, err := svc.Create(context.Background(), u, CreateComplaintInput{
		Title:       "Pothole",
		Description: "Deep pothole near the intersection.",
		Location:    domain.Location{Latitude: 40.0, Longitude: -74.0, Address: "Main St"},
	})
	require.NoError(t, err)

	require.Equal(t, domain.StatusPending, c.Status)
	require.Equal(t, domain.CategoryOther, c.Category)
	require.Equal(t, domain.PriorityMedium, c.Priority)
	require.Equal(t, "other", c.AssignedDepartment)
	require.Len(t, c.Code, idx.CodeLength)
	require.Nil(t, c.Resolution)
}

func TestCreateComplaintValidation(t *testing.T) {
	st := newTestStore(t)
	svc := newComplaintService(st)
	u := registerUser(t, newAuthService(st), "citizen@example.com")

	longTitle := make([]byte, maxTitleLen+1)
	for i := range longTitle {
		longTitle[i] = 'a'
	}

	cases := []CreateComplaintInput{
		{Description: "d", Location: domain.Location{Latitude: 0, Longitude: 0, Address: "a"}},
		{Title: string(longTitle), Description: "d", Location: domain.Location{Address: "a"}},
		{Title: "t", Description: "d", Category: "bogus", Location: domain.Location{Address: "a"}},
		{Title: "t", Description: "d", Location: domain.Location{Latitude: 91, Address: "a"}},
		{Title: "t", Description: "d", Location: domain.Location{Longitude: -181, Address: "a"}},
		{Title: "t", Description: "d", Location: domain.Location{Latitude: 40, Longitude: -74}},
	}
	for i, in := range cases {
		_, err := svc.Create(context.Background(), u, in)
		require.Truef(t, IsValidation(err), "case %d should fail validation, got %v", i, err)
	}
}

func TestListScopesNonAdminsToOwnComplaints(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)

	alice := registerUser(t, auth, "alice@example.com")
	bob := registerUser(t, auth, "bob@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	fileComplaint(t, svc, alice, "Alice's pothole")
	fileComplaint(t, svc, bob, "Bob's streetlight")

	own, total, _, err := svc.List(context.Background(), alice, store.ComplaintFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, own, 1)
	require.Equal(t, alice.ID, own[0].UserID)

	all, total, _, err := svc.List(context.Background(), admin, store.ComplaintFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, all, 2)
}

func TestListPagination(t *testing.T) {
	st := newTestStore(t)
	svc := newComplaintService(st)
	u := registerUser(t, newAuthService(st), "citizen@example.com")

	for i := 0; i < 15; i++ {
		fileComplaint(t, svc, u, fmt.Sprintf("Issue %02d", i))
	}

	page1, total, _, err := svc.List(context.Background(), u, store.ComplaintFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 15, total)
	require.Len(t, page1, 10)

	page2, total, _, err := svc.List(context.Background(), u, store.ComplaintFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 15, total)
	require.Len(t, page2, 5)

	// No overlap between pages.
	seen := map[string]bool{}
	for _, c := range page1 {
		seen[c.ID] = true
	}
	for _, c := range page2 {
		require.False(t, seen[c.ID])
	}
}

func TestListReturnsNormalizedPagination(t *testing.T) {
	st := newTestStore(t)
	svc := newComplaintService(st)
	u := registerUser(t, newAuthService(st), "citizen@example.com")

	_, _, applied, err := svc.List(context.Background(), u, store.ComplaintFilter{Page: 0, Limit: 500})
	require.NoError(t, err)
	require.Equal(t, 1, applied.Page)
	require.Equal(t, 100, applied.Limit)

	_, _, applied, err = svc.List(context.Background(), u, store.ComplaintFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, applied.Page)
	require.Equal(t, 10, applied.Limit)
}

func TestListFilterByStatus(t *testing.T) {
	st := newTestStore(t)
	svc := newComplaintService(st)
	auth := newAuthService(st)
	u := registerUser(t, auth, "citizen@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	c := fileComplaint(t, svc, u, "Pothole")
	fileComplaint(t, svc, u, "Streetlight out")

	_, err := svc.UpdateStatus(context.Background(), admin, c.ID, domain.StatusResolved, "")
	require.NoError(t, err)

	resolved, total, _, err := svc.List(context.Background(), admin, store.ComplaintFilter{Status: domain.StatusResolved})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, resolved, 1)
	require.Equal(t, c.ID, resolved[0].ID)
}

func TestGetByIDOwnership(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)

	alice := registerUser(t, auth, "alice@example.com")
	bob := registerUser(t, auth, "bob@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	c := fileComplaint(t, svc, alice, "Alice's pothole")

	_, _, err := svc.GetByID(context.Background(), bob, c.ID)
	require.ErrorIs(t, err, ErrForbidden)

	got, _, err := svc.GetByID(context.Background(), alice, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	_, _, err = svc.GetByID(context.Background(), admin, c.ID)
	require.NoError(t, err)

	_, _, err = svc.GetByID(context.Background(), admin, "no-such-id")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAssignAutoAdvancesPendingOnly(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	c := fileComplaint(t, svc, u, "Pothole")

	got, err := svc.Assign(context.Background(), admin, c.ID, "roads", "", "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, got.Status)
	require.Equal(t, "roads", got.AssignedDepartment)

	// Resolving then re-assigning must not regress the status.
	_, err = svc.UpdateStatus(context.Background(), admin, c.ID, domain.StatusResolved, "Fixed")
	require.NoError(t, err)

	got, err = svc.Assign(context.Background(), admin, c.ID, "water", "", "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusResolved, got.Status)
	require.Equal(t, "water", got.AssignedDepartment)
}

func TestAssignWithAssigneeAndNote(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	c := fileComplaint(t, svc, u, "Pothole")

	got, err := svc.Assign(context.Background(), admin, c.ID, "roads", admin.ID, "Taking this one")
	require.NoError(t, err)
	require.Equal(t, admin.ID, got.AssignedTo)

	_, comments, err := svc.GetByID(context.Background(), admin, c.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "Taking this one", comments[0].Body)

	_, err = svc.Assign(context.Background(), admin, c.ID, "roads", "ghost-user", "")
	require.True(t, IsValidation(err))
}

func TestUpdateStatusResolvedStampsResolution(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	c := fileComplaint(t, svc, u, "Pothole")

	got, err := svc.UpdateStatus(context.Background(), admin, c.ID, domain.StatusResolved, "Fixed")
	require.NoError(t, err)
	require.Equal(t, domain.StatusResolved, got.Status)
	require.NotNil(t, got.Resolution)
	require.Equal(t, "Fixed", got.Resolution.Text)
	require.Equal(t, admin.ID, got.Resolution.ResolvedBy)
	require.False(t, got.Resolution.ResolvedAt.Before(got.CreatedAt.Add(-2*time.Second)))

	// The comment was appended too.
	_, comments, err := svc.GetByID(context.Background(), admin, c.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Equal(t, "Fixed", comments[0].Body)
}

func TestUpdateStatusResolvedDefaultsText(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	c := fileComplaint(t, svc, u, "Pothole")

	got, err := svc.UpdateStatus(context.Background(), admin, c.ID, domain.StatusResolved, "")
	require.NoError(t, err)
	require.NotNil(t, got.Resolution)
	require.Equal(t, "Issue resolved", got.Resolution.Text)
}

func TestResolutionSurvivesLeavingResolved(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	c := fileComplaint(t, svc, u, "Pothole")

	_, err := svc.UpdateStatus(context.Background(), admin, c.ID, domain.StatusResolved, "Fixed")
	require.NoError(t, err)

	got, err := svc.UpdateStatus(context.Background(), admin, c.ID, domain.StatusInProgress, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, got.Status)
	require.NotNil(t, got.Resolution)
	require.Equal(t, "Fixed", got.Resolution.Text)
}

func TestUpdateStatusNotifiesOwner(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	capture := &captureNotifier{}
	svc.Notifier = capture

	u := registerUser(t, auth, "citizen@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	c := fileComplaint(t, svc, u, "Pothole")
	before := capture.count()

	_, err := svc.UpdateStatus(context.Background(), admin, c.ID, domain.StatusInProgress, "")
	require.NoError(t, err)
	require.Equal(t, before+1, capture.count())
	require.Equal(t, "citizen@example.com", capture.sent[before].Email)
	require.Contains(t, capture.sent[before].Body, "Hi Test Citizen,")
}

func TestAddCommentReturnsResolvedAuthor(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")

	c := fileComplaint(t, svc, u, "Pothole")

	cwa, err := svc.AddComment(context.Background(), u, c.ID, "Any update?")
	require.NoError(t, err)
	require.Equal(t, "Any update?", cwa.Body)
	require.Equal(t, u.ID, cwa.Author.ID)
	require.Equal(t, "Test", cwa.Author.FirstName)

	other := registerUser(t, auth, "other@example.com")
	_, err = svc.AddComment(context.Background(), other, c.ID, "Drive-by")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestNearbyFiltersByExactDistance(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")

	mk := func(title string, lat, lon float64) {
		_, err := svc.Create(context.Background(), u, CreateComplaintInput{
			Title:       title,
			Description: "desc",
			Location:    domain.Location{Latitude: lat, Longitude: lon, Address: "addr"},
		})
		require.NoError(t, err)
	}

	// ~1.1km and ~111km north of the query point.
	mk("near", 40.01, -74.0)
	mk("far", 41.0, -74.0)

	got, err := svc.Nearby(context.Background(), 40.0, -74.0, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "near", got[0].Title)
	require.LessOrEqual(t, got[0].DistanceKm, 5.0)
}

func TestNearbyCrossesAntimeridian(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")

	// Just west of 180°; the query point sits just east of -180°. They are
	// ~2.2km apart on the sphere even though their longitudes differ by
	// nearly 360.
	_, err := svc.Create(context.Background(), u, CreateComplaintInput{
		Title:       "across the line",
		Description: "desc",
		Location:    domain.Location{Latitude: 0, Longitude: 179.99, Address: "addr"},
	})
	require.NoError(t, err)

	got, err := svc.Nearby(context.Background(), 0, -179.99, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "across the line", got[0].Title)
	require.InDelta(t, 2.224, got[0].DistanceKm, 0.01)

	// And from the other side.
	got, err = svc.Nearby(context.Background(), 0, 179.99, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestNearbyCapAndDefaultRadius(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")

	for i := 0; i < nearbyResultCap+5; i++ {
		_, err := svc.Create(context.Background(), u, CreateComplaintInput{
			Title:       fmt.Sprintf("cluster %d", i),
			Description: "desc",
			Location:    domain.Location{Latitude: 40.0, Longitude: -74.0, Address: "addr"},
		})
		require.NoError(t, err)
	}

	got, err := svc.Nearby(context.Background(), 40.0, -74.0, 0)
	require.NoError(t, err)
	require.Len(t, got, nearbyResultCap)
}

func TestStats(t *testing.T) {
	st := newTestStore(t)
	auth := newAuthService(st)
	svc := newComplaintService(st)
	u := registerUser(t, auth, "citizen@example.com")
	admin := promoteToAdmin(t, st, registerUser(t, auth, "admin@example.com"))

	a := fileComplaint(t, svc, u, "Pothole one")
	fileComplaint(t, svc, u, "Pothole two")

	_, err := svc.UpdateStatus(context.Background(), admin, a.ID, domain.StatusResolved, "Fixed")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, stats.Total)
	require.Equal(t, 1, stats.ByStatus["resolved"])
	require.Equal(t, 1, stats.ByStatus["pending"])
	require.Equal(t, 2, stats.ByCategory["road"])
	require.Equal(t, 1, stats.Resolution.Count)
	require.GreaterOrEqual(t, stats.Resolution.MaxDays, stats.Resolution.MinDays)
}
