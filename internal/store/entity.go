package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fleetops/apiserver/types"
)

// EntityRepository handles persistence for organizational entities.
type EntityRepository struct {
	db *sql.DB
}

func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

func (r *EntityRepository) GetByID(ctx context.Context, id int) (types.Entity, error) {
	const query = `
		SELECT id, name, description, created_at
		FROM entities
		WHERE id = $1`
	var entity types.Entity
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entity.ID,
		&entity.Name,
		&entity.Description,
		&entity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Entity{}, ErrNotFound
		}
		return types.Entity{}, err
	}
	return entity, nil
}

func (r *EntityRepository) List(ctx context.Context) ([]types.Entity, error) {
	const query = `
		SELECT id, name, description, created_at
		FROM entities
		ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		var entity types.Entity
		if err := rows.Scan(&entity.ID, &entity.Name, &entity.Description, &entity.CreatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

func (r *EntityRepository) Create(ctx context.Context, entity types.Entity) (types.Entity, error) {
	const query = `
		INSERT INTO entities (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, entity.Name, entity.Description).
		Scan(&entity.ID, &entity.CreatedAt)
	if err != nil {
		return types.Entity{}, mapConstraintErr(err)
	}
	return entity, nil
}

func (r *EntityRepository) Update(ctx context.Context, entity types.Entity) (types.Entity, error) {
	const query = `
		UPDATE entities
		SET name = $1,
			description = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, entity.Name, entity.Description, entity.ID)
	if err != nil {
		return types.Entity{}, mapConstraintErr(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Entity{}, err
	}
	if affected == 0 {
		return types.Entity{}, ErrNotFound
	}
	return entity, nil
}
