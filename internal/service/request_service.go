package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/logger"
	"github.com/carepoint/backend/internal/metrics"
	"github.com/carepoint/backend/internal/notify"
)

// CreateRequestInput is a patient's new service request.
type CreateRequestInput struct {
	UserID      string `json:"user_id"`
	UserEmail   string `json:"user_email"`
	Description string `json:"description"`
}

// RequestService routes service requests to a random doctor
type RequestService struct {
	repo     DataRepository
	notifier notify.Notifier
	logger   logger.Logger
	now      func() time.Time

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// RequestOption configures a RequestService.
type RequestOption func(*RequestService)

// WithRequestRand injects the random source used to pick doctors.
func WithRequestRand(r *rand.Rand) RequestOption {
	return func(s *RequestService) { s.rnd = r }
}

// WithRequestClock overrides the timestamp source.
func WithRequestClock(now func() time.Time) RequestOption {
	return func(s *RequestService) { s.now = now }
}

// NewRequestService creates a new request service
func NewRequestService(repo DataRepository, notifier notify.Notifier, log logger.Logger, opts ...RequestOption) *RequestService {
	s := &RequestService{
		repo:     repo,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.notifier == nil {
		s.notifier = notify.Noop{}
	}
	return s
}

// CreateRequest stores a pending request and, when any doctor is registered,
// assigns it to a random one and notifies them.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (domain.ServiceRequest, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return domain.ServiceRequest{}, apperror.NewInputError("user_id is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return domain.ServiceRequest{}, apperror.NewInputError("description is required")
	}

	req := domain.ServiceRequest{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		UserEmail:   strings.TrimSpace(in.UserEmail),
		Description: strings.TrimSpace(in.Description),
		Status:      domain.RequestPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.SaveServiceRequest(ctx, req); err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("service: failed to save service request: %w", err)
	}

	doctors, err := s.repo.ListAccountsByType(ctx, domain.UserTypeDoctor)
	if err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("service: failed to list doctors: %w", err)
	}
	if len(doctors) == 0 {
		s.logger.Warn("no doctors available, request left pending", map[string]interface{}{"request_id": req.ID})
		metrics.ServiceRequestsTotal.WithLabelValues(string(req.Status)).Inc()
		return req, nil
	}

	doctor := doctors[s.pick(len(doctors))]
	notification := domain.Notification{
		ID:        uuid.NewString(),
		DoctorID:  doctor.ID,
		Type:      domain.NotificationServiceRequest,
		RequestID: req.ID,
		UserEmail: req.UserEmail,
		Message:   notify.Message(req),
		Read:      false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.SaveNotification(ctx, notification); err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("service: failed to save notification: %w", err)
	}

	assignedAt := s.now().UTC()
	req.DoctorID = doctor.ID
	req.DoctorEmail = doctor.Email
	req.AssignedAt = &assignedAt
	req.Status = domain.RequestAssigned
	if err := s.repo.SaveServiceRequest(ctx, req); err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("service: failed to assign service request: %w", err)
	}
	metrics.ServiceRequestsTotal.WithLabelValues(string(req.Status)).Inc()

	// Delivery failures do not undo the assignment.
	if err := s.notifier.NotifyDoctor(ctx, doctor, req); err != nil {
		s.logger.Warn("doctor notification not delivered", map[string]interface{}{
			"request_id": req.ID,
			"doctor_id":  doctor.ID,
			"error":      err.Error(),
		})
	}

	s.logger.Info("service request assigned", map[string]interface{}{
		"request_id": req.ID,
		"doctor_id":  doctor.ID,
	})
	return req, nil
}

func (s *RequestService) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

func (s *RequestService) ListUserRequests(ctx context.Context, userID string) ([]domain.ServiceRequest, error) {
	requests, err := s.repo.ListRequestsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list user requests: %w", err)
	}
	return requests, nil
}

func (s *RequestService) ListDoctorRequests(ctx context.Context, doctorID string) ([]domain.ServiceRequest, error) {
	requests, err := s.repo.ListRequestsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list doctor requests: %w", err)
	}
	return requests, nil
}

func (s *RequestService) DoctorNotifications(ctx context.Context, doctorID string) ([]domain.Notification, error) {
	notifications, err := s.repo.ListNotifications(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *RequestService) MarkNotificationRead(ctx context.Context, doctorID, notificationID string) error {
	err := s.repo.MarkNotificationRead(ctx, doctorID, notificationID)
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.NewNotFoundError("notification", notificationID)
	}
	if err != nil {
		return fmt.Errorf("service: failed to mark notification read: %w", err)
	}
	return nil
}
