package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepoint/backend/internal/domain"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates missing tables and indexes.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// ==========================
// Thresholds
// ==========================

func (r *PostgresRepository) GetThresholds(ctx context.Context) (domain.ThresholdConfig, error) {
	query := `SELECT asymmetry, border, color, diameter FROM threshold_config WHERE id = 1`

	var cfg domain.ThresholdConfig
	err := r.pool.QueryRow(ctx, query).Scan(&cfg.Asymmetry, &cfg.Border, &cfg.Color, &cfg.Diameter)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ThresholdConfig{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ThresholdConfig{}, fmt.Errorf("postgres: failed to get thresholds: %w", err)
	}
	return cfg, nil
}

func (r *PostgresRepository) SaveThresholds(ctx context.Context, cfg domain.ThresholdConfig) error {
	query := `
		INSERT INTO threshold_config (id, asymmetry, border, color, diameter, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			asymmetry = EXCLUDED.asymmetry,
			border = EXCLUDED.border,
			color = EXCLUDED.color,
			diameter = EXCLUDED.diameter,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query, cfg.Asymmetry, cfg.Border, cfg.Color, cfg.Diameter); err != nil {
		return fmt.Errorf("postgres: failed to save thresholds: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteThresholds(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM threshold_config`); err != nil {
		return fmt.Errorf("postgres: failed to delete thresholds: %w", err)
	}
	return nil
}

// ==========================
// Detections
// ==========================

// SaveDetection persists a detection result
func (r *PostgresRepository) SaveDetection(ctx context.Context, d domain.DetectionResult) error {
	query := `
		INSERT INTO detections (
			id, mode, prediction, confidence, score, metrics, source, degraded, error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		d.ID, string(d.Mode), d.Prediction, d.Confidence, d.Score, d.Metrics,
		d.Source, d.Degraded, d.Error, d.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save detection: %w", err)
	}
	return nil
}

// ListDetections retrieves the most recent detections
func (r *PostgresRepository) ListDetections(ctx context.Context, limit int) ([]domain.DetectionResult, error) {
	query := `
		SELECT id, mode, prediction, confidence, score, metrics, source, degraded, error, created_at
		FROM detections
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query detections: %w", err)
	}
	defer rows.Close()

	results := make([]domain.DetectionResult, 0, limit)
	for rows.Next() {
		var d domain.DetectionResult
		var mode string
		err := rows.Scan(
			&d.ID, &mode, &d.Prediction, &d.Confidence, &d.Score, &d.Metrics,
			&d.Source, &d.Degraded, &d.Error, &d.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan detection row: %w", err)
		}
		d.Mode = domain.Mode(mode)
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read detections: %w", err)
	}

	return results, nil
}

// ==========================
// Accounts
// ==========================

const accountColumns = `id, email, password_hash, user_type, phone, created_at`

func (r *PostgresRepository) CreateAccount(ctx context.Context, a domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, a.ID, a.Email, a.PasswordHash, string(a.UserType), a.Phone, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("postgres: failed to create account: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (r *PostgresRepository) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	return r.getAccount(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id::text = $1`, id)
}

func (r *PostgresRepository) getAccount(ctx context.Context, query string, arg string) (domain.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("postgres: failed to get account: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListAccountsByType(ctx context.Context, userType domain.UserType) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_type = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, string(userType))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query accounts: %w", err)
	}
	defer rows.Close()

	var results []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan account row: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read accounts: %w", err)
	}
	return results, nil
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	var userType string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &userType, &a.Phone, &a.CreatedAt); err != nil {
		return domain.Account{}, err
	}
	a.UserType = domain.UserType(userType)
	return a, nil
}

// ==========================
// Service requests
// ==========================

const requestColumns = `id, user_id, user_email, description, status, doctor_id, doctor_email, created_at, assigned_at`

// SaveServiceRequest inserts the request or updates its assignment.
func (r *PostgresRepository) SaveServiceRequest(ctx context.Context, req domain.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			doctor_id = EXCLUDED.doctor_id,
			doctor_email = EXCLUDED.doctor_email,
			assigned_at = EXCLUDED.assigned_at
	`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.UserID, req.UserEmail, req.Description, string(req.Status),
		req.DoctorID, req.DoctorEmail, req.CreatedAt, req.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save service request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListRequestsByUser(ctx context.Context, userID string) ([]domain.ServiceRequest, error) {
	return r.listRequests(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) ListRequestsByDoctor(ctx context.Context, doctorID string) ([]domain.ServiceRequest, error) {
	return r.listRequests(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE doctor_id = $1 ORDER BY created_at DESC`, doctorID)
}

func (r *PostgresRepository) listRequests(ctx context.Context, query, arg string) ([]domain.ServiceRequest, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query service requests: %w", err)
	}
	defer rows.Close()

	var results []domain.ServiceRequest
	for rows.Next() {
		var req domain.ServiceRequest
		var status string
		err := rows.Scan(
			&req.ID, &req.UserID, &req.UserEmail, &req.Description, &status,
			&req.DoctorID, &req.DoctorEmail, &req.CreatedAt, &req.AssignedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan service request row: %w", err)
		}
		req.Status = domain.RequestStatus(status)
		results = append(results, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read service requests: %w", err)
	}
	return results, nil
}

// ==========================
// Notifications
// ==========================

func (r *PostgresRepository) SaveNotification(ctx context.Context, n domain.Notification) error {
	query := `
		INSERT INTO notifications (id, doctor_id, type, request_id, user_email, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		n.ID, n.DoctorID, n.Type, n.RequestID, n.UserEmail, n.Message, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save notification: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListNotifications(ctx context.Context, doctorID string) ([]domain.Notification, error) {
	query := `
		SELECT id, doctor_id, type, request_id, user_email, message, read, created_at
		FROM notifications
		WHERE doctor_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query notifications: %w", err)
	}
	defer rows.Close()

	var results []domain.Notification
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.DoctorID, &n.Type, &n.RequestID, &n.UserEmail, &n.Message, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan notification row: %w", err)
		}
		results = append(results, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read notifications: %w", err)
	}
	return results, nil
}

func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, doctorID, notificationID string) error {
	query := `UPDATE notifications SET read = TRUE WHERE doctor_id = $1 AND id::text = $2`

	tag, err := r.pool.Exec(ctx, query, doctorID, notificationID)
	if err != nil {
		return fmt.Errorf("postgres: failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
