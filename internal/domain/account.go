package domain

import "time"

// UserType distinguishes patients from doctors.
type UserType string

const (
	UserTypePatient UserType = "user"
	UserTypeDoctor  UserType = "doctor"
)

// Account is a registered user or doctor.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	UserType     UserType  `json:"user_type"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RequestStatus is the lifecycle state of a service request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAssigned  RequestStatus = "assigned"
	RequestCompleted RequestStatus = "completed"
)

// ServiceRequest is a patient's request routed to a doctor.
type ServiceRequest struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	UserEmail   string        `json:"user_email"`
	Description string        `json:"description"`
	Status      RequestStatus `json:"status"`
	DoctorID    string        `json:"doctor_id,omitempty"`
	DoctorEmail string        `json:"doctor_email,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	AssignedAt  *time.Time    `json:"assigned_at,omitempty"`
}

// Notification is a message addressed to a doctor.
type Notification struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctor_id"`
	Type      string    `json:"type"`
	RequestID string    `json:"request_id"`
	UserEmail string    `json:"user_email"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

const NotificationServiceRequest = "service_request"
