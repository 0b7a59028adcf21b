package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carepoint/backend/internal/apperror"
	"github.com/carepoint/backend/internal/domain"
	"github.com/carepoint/backend/internal/logger"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	UserType domain.UserType `json:"user_type"`
	Phone    string          `json:"phone"`
}

// AccountService registers and authenticates patients and doctors
type AccountService struct {
	repo       domain.AccountRepository
	bcryptCost int
	now        func() time.Time
	logger     logger.Logger
}

// NewAccountService creates a new account service
func NewAccountService(repo domain.AccountRepository, log logger.Logger) *AccountService {
	return &AccountService{
		repo:       repo,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		logger:     log,
	}
}

// Register creates an account. Emails are unique and compared lower-cased.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (domain.Account, error) {
	email := normalizeEmail(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return domain.Account{}, apperror.NewInputError("email is not valid")
	}
	if len(in.Password) < MinPasswordLength {
		return domain.Account{}, apperror.NewInputError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	userType := in.UserType
	if userType == "" {
		userType = domain.UserTypePatient
	}
	if userType != domain.UserTypePatient && userType != domain.UserTypeDoctor {
		return domain.Account{}, apperror.NewInputError(fmt.Sprintf("unknown user type %q", in.UserType))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return domain.Account{}, fmt.Errorf("service: failed to hash password: %w", err)
	}

	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		UserType:     userType,
		Phone:        strings.TrimSpace(in.Phone),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.Account{}, apperror.NewConflictError("email already registered")
		}
		return domain.Account{}, fmt.Errorf("service: failed to create account: %w", err)
	}

	s.logger.Info("account registered", map[string]interface{}{
		"id":        account.ID,
		"user_type": string(account.UserType),
	})
	return account, nil
}

// Authenticate checks the credentials. Unknown emails and wrong passwords
// yield the same error.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	account, err := s.repo.GetAccountByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, apperror.NewAuthenticationError()
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("service: failed to load account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return domain.Account{}, apperror.NewAuthenticationError()
	}
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.repo.GetAccount(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Account{}, apperror.NewNotFoundError("account", id)
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("service: failed to load account: %w", err)
	}
	return account, nil
}

func (s *AccountService) ListDoctors(ctx context.Context) ([]domain.Account, error) {
	doctors, err := s.repo.ListAccountsByType(ctx, domain.UserTypeDoctor)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list doctors: %w", err)
	}
	return doctors, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
