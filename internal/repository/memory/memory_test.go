package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint/backend/internal/domain"
)

var _ domain.DataRepository = (*Repository)(nil)

func TestThresholds(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()

	_, err := r.GetThresholds(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cfg := domain.NewThresholdConfig(0.1, 0.2, 0.3, 0.4)
	require.NoError(t, r.SaveThresholds(ctx, cfg))

	got, err := r.GetThresholds(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	require.NoError(t, r.DeleteThresholds(ctx))
	_, err = r.GetThresholds(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDetections_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.SaveDetection(ctx, domain.DetectionResult{ID: id, Timestamp: base.Add(time.Duration(i) * time.Minute)}))
	}

	all, err := r.ListDetections(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	two, err := r.ListDetections(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	now := time.Now()

	require.NoError(t, r.CreateAccount(ctx, domain.Account{ID: "1", Email: "doc@example.com", UserType: domain.UserTypeDoctor, CreatedAt: now}))
	require.NoError(t, r.CreateAccount(ctx, domain.Account{ID: "2", Email: "pat@example.com", UserType: domain.UserTypePatient, CreatedAt: now}))

	err := r.CreateAccount(ctx, domain.Account{ID: "3", Email: "doc@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	a, err := r.GetAccountByEmail(ctx, "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, "2", a.ID)

	_, err = r.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	doctors, err := r.ListAccountsByType(ctx, domain.UserTypeDoctor)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	assert.Equal(t, "doc@example.com", doctors[0].Email)
}

func TestServiceRequestsAndNotifications(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	now := time.Now()

	req := domain.ServiceRequest{ID: "r1", UserID: "u1", Status: domain.RequestPending, CreatedAt: now}
	require.NoError(t, r.SaveServiceRequest(ctx, req))

	req.Status = domain.RequestAssigned
	req.DoctorID = "d1"
	require.NoError(t, r.SaveServiceRequest(ctx, req))

	byUser, err := r.ListRequestsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, domain.RequestAssigned, byUser[0].Status)

	byDoctor, err := r.ListRequestsByDoctor(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, byDoctor, 1)

	require.NoError(t, r.SaveNotification(ctx, domain.Notification{ID: "n1", DoctorID: "d1", CreatedAt: now}))
	require.NoError(t, r.SaveNotification(ctx, domain.Notification{ID: "n2", DoctorID: "d1", CreatedAt: now.Add(time.Second)}))

	list, err := r.ListNotifications(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)

	require.NoError(t, r.MarkNotificationRead(ctx, "d1", "n1"))
	assert.ErrorIs(t, r.MarkNotificationRead(ctx, "d2", "n1"), domain.ErrNotFound)

	list, err = r.ListNotifications(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, list[1].Read)
	assert.False(t, list[0].Read)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.SaveThresholds(ctx, domain.NewThresholdConfig(float64(i)/50, 0, 0, 0))
			_ = r.SaveDetection(ctx, domain.DetectionResult{Timestamp: time.Now()})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = r.GetThresholds(ctx)
			_, _ = r.ListDetections(ctx, 5)
		}()
	}
	wg.Wait()

	all, err := r.ListDetections(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}
