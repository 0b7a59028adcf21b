package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique key is already taken.
var ErrDuplicate = errors.New("duplicate record")

// DataRepository defines the interface for data persistence.
// The domain owns the interface; postgres and memory implement it.
type DataRepository interface {
	ThresholdRepository
	DetectionRepository
	AccountRepository
	ServiceRequestRepository

	// Health checks storage connectivity
	Health(ctx context.Context) error
}

// ThresholdRepository stores the active threshold configuration.
type ThresholdRepository interface {
	// GetThresholds returns ErrNotFound when nothing has been stored yet
	GetThresholds(ctx context.Context) (ThresholdConfig, error)
	SaveThresholds(ctx context.Context, cfg ThresholdConfig) error
	DeleteThresholds(ctx context.Context) error
}

// DetectionRepository keeps a log of detection results.
type DetectionRepository interface {
	SaveDetection(ctx context.Context, result DetectionResult) error
	// ListDetections returns the newest results first
	ListDetections(ctx context.Context, limit int) ([]DetectionResult, error)
}

type AccountRepository interface {
	CreateAccount(ctx context.Context, account Account) error
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	GetAccount(ctx context.Context, id string) (Account, error)
	ListAccountsByType(ctx context.Context, userType UserType) ([]Account, error)
}

type ServiceRequestRepository interface {
	SaveServiceRequest(ctx context.Context, req ServiceRequest) error
	ListRequestsByUser(ctx context.Context, userID string) ([]ServiceRequest, error)
	ListRequestsByDoctor(ctx context.Context, doctorID string) ([]ServiceRequest, error)

	SaveNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, doctorID string) ([]Notification, error)
	// MarkNotificationRead returns ErrNotFound for an unknown doctor/notification pair
	MarkNotificationRead(ctx context.Context, doctorID, notificationID string) error
}
