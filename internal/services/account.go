package services

import (
	"context"
	"errors"

	"github.com/citetrack/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidEmail is returned when an email is empty or malformed.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrWeakPassword is returned when a password does not satisfy the
	// strength policy.
	ErrWeakPassword = errors.New("password does not comply with requirements")

	// ErrBadCredentials is returned when a password does not match the
	// stored hash.
	ErrBadCredentials = errors.New("invalid credentials")
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	ListByRole(ctx context.Context, role types.Role, offset, limit int) ([]types.Account, int, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	Update(ctx context.Context, account types.Account) (types.Account, error)
	Delete(ctx context.Context, id int) error
}

// AccountService owns the account credential and creation rules.
type AccountService struct {
	repo AccountRepository
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// NewAccountInput carries the caller-supplied fields for account
// creation. Badge is only consulted for officers.
type NewAccountInput struct {
	Email    string
	Password string
	Name     string
	Agency   string
	Badge    *int
}

// CreateClerk validates the input and persists a clerk account.
// Clerks are staff so they can use administrative tooling.
func (s *AccountService) CreateClerk(ctx context.Context, input NewAccountInput) (types.Account, error) {
	return s.create(ctx, input, types.Account{
		Role:    types.RoleClerk,
		IsStaff: true,
	})
}

// CreateOfficer validates the input and persists an officer account
// with their badge number.
func (s *AccountService) CreateOfficer(ctx context.Context, input NewAccountInput) (types.Account, error) {
	return s.create(ctx, input, types.Account{
		Role:  types.RoleOfficer,
		Badge: input.Badge,
	})
}

// CreateSuperuser validates the input and persists an admin account
// with staff and superuser capability.
func (s *AccountService) CreateSuperuser(ctx context.Context, input NewAccountInput) (types.Account, error) {
	return s.create(ctx, input, types.Account{
		Role:        types.RoleAdmin,
		IsStaff:     true,
		IsSuperuser: true,
	})
}

// create runs the shared validation path: email format, then password
// strength, then hash. Email uniqueness is left to the database
// constraint so concurrent duplicates surface as store.ErrDuplicate.
func (s *AccountService) create(ctx context.Context, input NewAccountInput, account types.Account) (types.Account, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || !ValidEmail(email) {
		return types.Account{}, ErrInvalidEmail
	}
	if input.Password == "" || !ValidPassword(input.Password) {
		return types.Account{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.Account{}, err
	}

	account.Email = email
	account.Name = input.Name
	account.Agency = input.Agency
	account.IsActive = true
	account.PasswordHash = string(hash)

	return s.repo.Create(ctx, account)
}

// Authenticate looks up an account by email and verifies the password
// against the stored hash. A lookup miss propagates store.ErrNotFound;
// a hash mismatch returns ErrBadCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (types.Account, error) {
	account, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return types.Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return types.Account{}, ErrBadCredentials
	}
	return account, nil
}

func (s *AccountService) GetByID(ctx context.Context, id int) (types.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

func (s *AccountService) ListByRole(ctx context.Context, role types.Role, offset, limit int) ([]types.Account, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByRole(ctx, role, offset, limit)
}

// UpdateAccountInput carries the caller-supplied fields for an account
// update. A nil Password leaves the stored hash untouched.
type UpdateAccountInput struct {
	Email    string
	Name     string
	Agency   string
	Badge    *int
	Password *string
}

// Update overwrites an account's mutable fields. The email and
// password policies apply at creation time only and are not re-run
// here; a supplied password is still hashed before storage.
func (s *AccountService) Update(ctx context.Context, id int, input UpdateAccountInput) (types.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Account{}, err
	}

	account.Email = NormalizeEmail(input.Email)
	account.Name = input.Name
	account.Agency = input.Agency
	account.Badge = input.Badge

	if input.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return types.Account{}, err
		}
		account.PasswordHash = string(hash)
	}

	return s.repo.Update(ctx, account)
}

func (s *AccountService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
