// Package account implements the user lifecycle: self-registration into an
// inactive state, approval by an administrator, and login.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator"

	"clinic-booking/internal/auth"
	"clinic-booking/internal/lib/sl"
	"clinic-booking/internal/lib/validate"
	"clinic-booking/internal/model"
)

var (
	ErrBadCredentials = errors.New("invalid email or password")
	ErrNotApproved    = errors.New("your account is awaiting administrator approval")
	ErrSelfDelete     = errors.New("you cannot delete yourself")
)

type Repository interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserExists(ctx context.Context, email, username string) (bool, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, active bool) ([]model.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
	DeleteUser(ctx context.Context, id int64) error
}

type RegisterInput struct {
	Username string `form:"username" validate:"required,max=80"`
	Email    string `form:"email" validate:"required,max=120"`
	Password string `form:"password" validate:"required,max=72"`
}

type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Messages, ", ") }

type Service struct {
	log      *slog.Logger
	repo     Repository
	validate *validator.Validate
}

func New(log *slog.Logger, repo Repository) *Service {
	return &Service{log: log, repo: repo, validate: validate.New()}
}

// Register creates an inactive account. The existence pre-check gives the
// common case a clean answer; the unique constraints settle races.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	const op = "account.Register"

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return nil, &ValidationError{Messages: validate.Messages(err)}
	}

	exists, err := s.repo.UserExists(ctx, in.Email, in.Username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: %w", op, model.ErrDuplicateUser)
	}

	hash, err := auth.HashPassword(in.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		// max counts characters, bcrypt counts bytes
		return nil, &ValidationError{Messages: []string{"field password is too long"}}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u := &model.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.Int64("user_id", u.ID), slog.String("username", u.Username))
	return u, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.UserByEmail(ctx, strings.TrimSpace(email))
}

func (s *Service) Verify(u *model.User, password string) bool {
	return auth.CheckPassword(u.PasswordHash, password)
}

// Authenticate returns the user behind a correct email/password pair. An
// unknown email still pays for one bcrypt comparison.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	const op = "account.Authenticate"

	u, err := s.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		auth.BurnCompare(password)
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !s.Verify(u, password) {
		return nil, ErrBadCredentials
	}
	if !u.IsActive {
		return nil, ErrNotApproved
	}
	return u, nil
}

func (s *Service) Approve(ctx context.Context, id int64) error {
	const op = "account.Approve"
	if err := s.repo.SetUserActive(ctx, id, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user approved", slog.Int64("user_id", id))
	return nil
}

// Delete removes a user on behalf of actorID, who may not remove themselves.
func (s *Service) Delete(ctx context.Context, actorID, id int64) error {
	const op = "account.Delete"
	if actorID == id {
		return ErrSelfDelete
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted", slog.Int64("user_id", id), slog.Int64("by", actorID))
	return nil
}

func (s *Service) Pending(ctx context.Context) ([]model.User, error) {
	return s.list(ctx, false)
}

func (s *Service) Active(ctx context.Context) ([]model.User, error) {
	return s.list(ctx, true)
}

func (s *Service) list(ctx context.Context, active bool) ([]model.User, error) {
	const op = "account.list"
	users, err := s.repo.ListUsers(ctx, active)
	if err != nil {
		s.log.Error("failed to list users", slog.Bool("active", active), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}
