package service

import (
	"context"
	"strings"
	"time"

	"github.com/deppfellow/go-absl/accessor"
	"github.com/deppfellow/go-absl/internal/app"
	"github.com/deppfellow/go-absl/internal/errs"
	"github.com/deppfellow/go-absl/internal/repository"
	"github.com/deppfellow/go-absl/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegisterInput is the data needed to create a user.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
}

// Validate rejects passwords that contain the username.
func (in RegisterInput) Validate() error {
	if in.Username != "" && strings.Contains(strings.ToLower(in.Password), strings.ToLower(in.Username)) {
		return validation.CustomValidationErrors{
			{Field: "password", Message: "must not contain the username"},
		}
	}
	return nil
}

// LoginInput is a username and password pair.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserService struct {
	users  *repository.UserRepository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewUserService(a *app.App, users *repository.UserRepository) *UserService {
	return &UserService{
		users:  users,
		logger: a.Logger,
		now:    time.Now,
	}
}

// Register validates in, rejects taken usernames and emails, and stores
// the user with a bcrypt password hash and a random UUID.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*repository.User, error) {
	const op = "service.users.register"

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(op, in); err != nil {
		return nil, err
	}

	var taken []errs.FieldError
	if dup, err := s.users.UsernameTaken(ctx, in.Username); err != nil {
		return nil, err
	} else if dup {
		taken = append(taken, errs.FieldError{Field: "username", Error: "is already taken"})
	}
	if dup, err := s.users.EmailTaken(ctx, in.Email); err != nil {
		return nil, err
	} else if dup {
		taken = append(taken, errs.FieldError{Field: "email", Error: "is already registered"})
	}
	if len(taken) > 0 {
		err := errs.NewValidationError(op, "user already exists", taken)
		err.Code = "USER_ALREADY_EXISTS"
		return nil, err
	}

	hash, err := accessor.HashSecret(in.Password)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if err := s.users.Insert(ctx, repository.NewUser{
		ID:           id,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		CreatedAt:    s.now(),
	}); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", id).Str("username", in.Username).Msg("user registered")

	return s.users.FindByID(ctx, id)
}

// Login returns the user when the password verifies. Unknown users and
// wrong passwords fail the same way.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*repository.User, error) {
	const op = "service.users.login"

	if err := validation.Struct(op, in); err != nil {
		return nil, err
	}

	ok, err := s.users.VerifyPassword(ctx, in.Username, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn().Str("username", in.Username).Msg("login failed")
		err := errs.NewValidationError(op, "invalid username or password", nil)
		err.Code = "INVALID_CREDENTIALS"
		return nil, err
	}

	return s.users.FindByUsername(ctx, in.Username)
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id string) (*repository.User, error) {
	if err := checkID("service.users.get", id); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

// Rename changes the display name of a user.
func (s *UserService) Rename(ctx context.Context, id, displayName string) (*repository.User, error) {
	const op = "service.users.rename"

	if err := checkID(op, id); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errs.NewValidationError(op, "display name is required", []errs.FieldError{{Field: "display_name", Error: "is required"}})
	}

	n, err := s.users.UpdateDisplayName(ctx, id, displayName)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errs.NewNotFoundError(op, "user not found")
	}
	return s.users.FindByID(ctx, id)
}

// Remove deletes a user.
func (s *UserService) Remove(ctx context.Context, id string) error {
	const op = "service.users.remove"

	if err := checkID(op, id); err != nil {
		return err
	}
	n, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NewNotFoundError(op, "user not found")
	}

	s.logger.Info().Str("user_id", id).Msg("user removed")
	return nil
}

// List returns one page of users.
func (s *UserService) List(ctx context.Context, page, size int) (*repository.UserPage, error) {
	return s.users.Page(ctx, page, size)
}

// Search returns users whose username starts with prefix.
func (s *UserService) Search(ctx context.Context, prefix string) ([]repository.User, error) {
	return s.users.SearchByUsername(ctx, prefix)
}

func checkID(op, id string) error {
	if !validation.IsValidUUID(id) {
		return errs.NewValidationError(op, "invalid user id", []errs.FieldError{{Field: "id", Error: "must be a valid UUID"}})
	}
	return nil
}
