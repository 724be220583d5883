package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/fleetops/apiserver/types"
)

// EntityRepository defines persistence operations for entities.
type EntityRepository interface {
	GetByID(ctx context.Context, id int) (types.Entity, error)
	List(ctx context.Context) ([]types.Entity, error)
	Create(ctx context.Context, entity types.Entity) (types.Entity, error)
	Update(ctx context.Context, entity types.Entity) (types.Entity, error)
}

// EntityService encapsulates entity use-cases.
type EntityService struct {
	repo EntityRepository
}

func NewEntityService(repo EntityRepository) *EntityService {
	return &EntityService{repo: repo}
}

func (s *EntityService) GetByID(ctx context.Context, id int) (types.Entity, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *EntityService) List(ctx context.Context) ([]types.Entity, error) {
	return s.repo.List(ctx)
}

func (s *EntityService) Create(ctx context.Context, entity types.Entity) (types.Entity, error) {
	entity.Name = strings.TrimSpace(entity.Name)
	if entity.Name == "" {
		return types.Entity{}, fmt.Errorf("name is required: %w", ErrValidation)
	}
	return s.repo.Create(ctx, entity)
}

func (s *EntityService) Update(ctx context.Context, entity types.Entity) (types.Entity, error) {
	entity.Name = strings.TrimSpace(entity.Name)
	if entity.Name == "" {
		return types.Entity{}, fmt.Errorf("name is required: %w", ErrValidation)
	}
	return s.repo.Update(ctx, entity)
}
