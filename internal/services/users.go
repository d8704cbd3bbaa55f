package services

import (
	"context"
	"errors"

	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/models"
)

// ErrUserNotFound is returned when no user exists for the given id.
var ErrUserNotFound = errors.New("user not found")

// UserLister defines the read operations needed by the users resource.
type UserLister interface {
	GetAll(ctx context.Context) ([]models.UserDB, error)
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
}

// UserDeleter defines the delete operation needed by the users resource.
type UserDeleter interface {
	Delete(ctx context.Context, id int64) (int64, error)
}

// UserService exposes the users resource: list, get, delete.
// Creation goes through AuthService.Register.
type UserService struct {
	reader UserLister
	writer UserDeleter
}

// NewUserService creates a new UserService.
func NewUserService(reader UserLister, writer UserDeleter) *UserService {
	return &UserService{reader: reader, writer: writer}
}

// List returns all users without credentials.
func (s *UserService) List(ctx context.Context) ([]models.UserDB, error) {
	users, err := s.reader.GetAll(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.UserDB, error) {
	user, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user", "id", id, "error", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Delete removes a user by id.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	affected, err := s.writer.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete user", "id", id, "error", err)
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
