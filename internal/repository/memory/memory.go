// Package memory provides an in-process domain.DataRepository used in tests
// and when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/carepoint/backend/internal/domain"
)

// Repository implements domain.DataRepository for testing/demo mode
type Repository struct {
	mu            sync.RWMutex
	thresholds    *domain.ThresholdConfig
	detections    []domain.DetectionResult
	accounts      map[string]domain.Account
	emails        map[string]string
	requests      map[string]domain.ServiceRequest
	notifications map[string][]domain.Notification
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	return &Repository{
		accounts:      make(map[string]domain.Account),
		emails:        make(map[string]string),
		requests:      make(map[string]domain.ServiceRequest),
		notifications: make(map[string][]domain.Notification),
	}
}

// Health always returns nil in memory mode
func (r *Repository) Health(ctx context.Context) error {
	return nil
}

func (r *Repository) GetThresholds(ctx context.Context) (domain.ThresholdConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.thresholds == nil {
		return domain.ThresholdConfig{}, domain.ErrNotFound
	}
	return *r.thresholds, nil
}

func (r *Repository) SaveThresholds(ctx context.Context, cfg domain.ThresholdConfig) error {
	r.mu.Lock()
	r.thresholds = &cfg
	r.mu.Unlock()
	return nil
}

func (r *Repository) DeleteThresholds(ctx context.Context) error {
	r.mu.Lock()
	r.thresholds = nil
	r.mu.Unlock()
	return nil
}

func (r *Repository) SaveDetection(ctx context.Context, d domain.DetectionResult) error {
	r.mu.Lock()
	r.detections = append(r.detections, d)
	r.mu.Unlock()
	return nil
}

// ListDetections returns up to limit results, newest first
func (r *Repository) ListDetections(ctx context.Context, limit int) ([]domain.DetectionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.DetectionResult, len(r.detections))
	copy(out, r.detections)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.emails[a.Email]; taken {
		return domain.ErrDuplicate
	}
	r.accounts[a.ID] = a
	r.emails[a.Email] = a.ID
	return nil
}

func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.emails[email]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return r.accounts[id], nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, nil
}

// ListAccountsByType returns matching accounts in creation order
func (r *Repository) ListAccountsByType(ctx context.Context, userType domain.UserType) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Account
	for _, a := range r.accounts {
		if a.UserType == userType {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *Repository) SaveServiceRequest(ctx context.Context, req domain.ServiceRequest) error {
	r.mu.Lock()
	r.requests[req.ID] = req
	r.mu.Unlock()
	return nil
}

func (r *Repository) ListRequestsByUser(ctx context.Context, userID string) ([]domain.ServiceRequest, error) {
	return r.filterRequests(func(req domain.ServiceRequest) bool { return req.UserID == userID }), nil
}

func (r *Repository) ListRequestsByDoctor(ctx context.Context, doctorID string) ([]domain.ServiceRequest, error) {
	return r.filterRequests(func(req domain.ServiceRequest) bool { return req.DoctorID == doctorID }), nil
}

func (r *Repository) filterRequests(keep func(domain.ServiceRequest) bool) []domain.ServiceRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.ServiceRequest
	for _, req := range r.requests {
		if keep(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Repository) SaveNotification(ctx context.Context, n domain.Notification) error {
	r.mu.Lock()
	r.notifications[n.DoctorID] = append(r.notifications[n.DoctorID], n)
	r.mu.Unlock()
	return nil
}

// ListNotifications returns a doctor's notifications, newest first
func (r *Repository) ListNotifications(ctx context.Context, doctorID string) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.notifications[doctorID]
	out := make([]domain.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (r *Repository) MarkNotificationRead(ctx context.Context, doctorID, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.notifications[doctorID]
	for i := range list {
		if list[i].ID == notificationID {
			list[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}
