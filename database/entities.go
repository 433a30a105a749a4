package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	"github.com/siherrmann/kgdial/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	InsertEntity(ctx context.Context, entity *model.Entity) error
	DeleteEntity(ctx context.Context, id string) error
	SelectEntity(ctx context.Context, id string) (*model.Entity, error)
	SelectEntities(ctx context.Context, ids []string) ([]*model.Entity, error)
	SelectEntitiesByLabel(ctx context.Context, label string, limit int) ([]*model.Entity, error)
	SelectLabels(ctx context.Context, ids []string) (map[string]string, error)
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := sql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'kg_entities' table in the database.
// If the table already exists, it does not create it again.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table kg_entities")

	return nil
}

// InsertEntity inserts a new entity or updates label and metadata of an existing one
func (h *EntitiesDBHandler) InsertEntity(ctx context.Context, entity *model.Entity) error {
	if entity.Metadata == nil {
		entity.Metadata = model.Metadata{}
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_entity($1, $2, $3)`,
		entity.ID,
		entity.Label,
		entity.Metadata,
	)

	err := row.Scan(
		&entity.ID,
		&entity.Label,
		&entity.Metadata,
		&entity.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteEntity deletes an entity by ID
func (h *EntitiesDBHandler) DeleteEntity(ctx context.Context, id string) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectEntity retrieves an entity by ID
func (h *EntitiesDBHandler) SelectEntity(ctx context.Context, id string) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_entity($1)`,
		id,
	)

	err := row.Scan(
		&entity.ID,
		&entity.Label,
		&entity.Metadata,
		&entity.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectEntities retrieves all entities with the given IDs ordered by ID
func (h *EntitiesDBHandler) SelectEntities(ctx context.Context, ids []string) ([]*model.Entity, error) {
	return h.selectEntities(ctx, `SELECT * FROM select_entities($1)`, pq.Array(ids))
}

// SelectEntitiesByLabel searches entities by label.
// Exact (case-insensitive) matches come first, then substring matches.
func (h *EntitiesDBHandler) SelectEntitiesByLabel(ctx context.Context, label string, limit int) ([]*model.Entity, error) {
	return h.selectEntities(ctx, `SELECT * FROM select_entities_by_label($1, $2)`, label, limit)
}

// SelectLabels returns the label per entity ID.
// IDs without a stored entity are missing from the map.
func (h *EntitiesDBHandler) SelectLabels(ctx context.Context, ids []string) (map[string]string, error) {
	labels := map[string]string{}
	if len(ids) == 0 {
		return labels, nil
	}

	entities, err := h.SelectEntities(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, entity := range entities {
		labels[entity.ID] = entity.Label
	}

	return labels, nil
}

func (h *EntitiesDBHandler) selectEntities(ctx context.Context, query string, args ...interface{}) ([]*model.Entity, error) {
	rows, err := h.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.ID,
			&entity.Label,
			&entity.Metadata,
			&entity.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}
