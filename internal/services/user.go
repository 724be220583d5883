package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fleetops/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	List(ctx context.Context, scope types.Scope, role string) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context, scope types.Scope, role string) ([]types.User, error) {
	if role != "" && !types.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}
	return s.repo.List(ctx, scope, role)
}

// Create validates and persists a new account. The caller supplies the
// already-hashed password.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.Fullname = strings.TrimSpace(user.Fullname)
	if user.Username == "" {
		return types.User{}, fmt.Errorf("username is required: %w", ErrValidation)
	}
	if user.Fullname == "" {
		return types.User{}, fmt.Errorf("fullname is required: %w", ErrValidation)
	}
	if !types.ValidRole(user.Role) {
		return types.User{}, fmt.Errorf("unknown role %q: %w", user.Role, ErrValidation)
	}
	if user.Role != types.RoleSuperAdmin && user.EntityID == nil {
		return types.User{}, fmt.Errorf("entity is required for role %s: %w", user.Role, ErrValidation)
	}
	if user.PasswordHash == "" {
		return types.User{}, fmt.Errorf("password is required: %w", ErrValidation)
	}
	return s.repo.Create(ctx, user)
}

func (s *UserService) Update(ctx context.Context, user types.User) (types.User, error) {
	if !types.ValidRole(user.Role) {
		return types.User{}, fmt.Errorf("unknown role %q: %w", user.Role, ErrValidation)
	}
	return s.repo.Update(ctx, user)
}

// Delete removes a user. The store refuses to orphan history: a user still
// referenced by trips, events, or fuel logs comes back as a conflict.
func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}
