package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	"github.com/siherrmann/kgdial/sql"
)

// RelationsDBHandlerFunctions defines the interface for Relations database operations.
type RelationsDBHandlerFunctions interface {
	InsertRelation(ctx context.Context, relation *model.Relation) error
	DeleteRelation(ctx context.Context, id string) error
	SelectRelation(ctx context.Context, id string) (*model.Relation, error)
	SelectLabels(ctx context.Context, ids []string) (map[string]string, error)
	SelectRelationSimilarities(ctx context.Context, embedding []float32, ids []string) (map[string]float64, error)
}

// RelationsDBHandler handles relation-related database operations
type RelationsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewRelationsDBHandler creates a new relations database handler.
// It initializes the database connection and loads relation-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationsDBHandler(db *helper.Database, embeddingDim int, force bool) (*RelationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	relationsDbHandler := &RelationsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := sql.LoadRelationsSql(relationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relations sql", err)
	}

	err = relationsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationsDBHandler")

	return relationsDbHandler, nil
}

// CreateTable creates the 'kg_relations' table in the database.
// If the table already exists, it does not create it again.
func (h *RelationsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relations($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing relations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table kg_relations")

	return nil
}

// InsertRelation inserts a new relation or updates label and embedding of an existing one.
// A relation without embedding is stored with a NULL vector.
func (h *RelationsDBHandler) InsertRelation(ctx context.Context, relation *model.Relation) error {
	var embedding interface{}
	if len(relation.Embedding) > 0 {
		if len(relation.Embedding) != h.embeddingDim {
			return helper.NewError("embedding validation", fmt.Errorf("expected embedding of dimension %d, got %d", h.embeddingDim, len(relation.Embedding)))
		}
		embedding = pgvector.NewVector(relation.Embedding)
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_relation($1, $2, $3)`,
		relation.ID,
		relation.Label,
		embedding,
	)

	var stored *pgvector.Vector
	err := row.Scan(
		&relation.ID,
		&relation.Label,
		&stored,
		&relation.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	if stored != nil {
		relation.Embedding = stored.Slice()
	}

	return nil
}

// DeleteRelation deletes a relation by ID
func (h *RelationsDBHandler) DeleteRelation(ctx context.Context, id string) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_relation($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectRelation retrieves a relation by ID
func (h *RelationsDBHandler) SelectRelation(ctx context.Context, id string) (*model.Relation, error) {
	relation := &model.Relation{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_relation($1)`,
		id,
	)

	var stored *pgvector.Vector
	err := row.Scan(
		&relation.ID,
		&relation.Label,
		&stored,
		&relation.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	if stored != nil {
		relation.Embedding = stored.Slice()
	}

	return relation, nil
}

// SelectLabels returns the label per relation ID.
// IDs without a stored relation are missing from the map.
func (h *RelationsDBHandler) SelectLabels(ctx context.Context, ids []string) (map[string]string, error) {
	labels := map[string]string{}
	if len(ids) == 0 {
		return labels, nil
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_relation_labels($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, label string
		err := rows.Scan(&id, &label)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		labels[id] = label
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return labels, nil
}

// SelectRelationSimilarities returns the cosine similarity between the
// embedding and each stored relation label embedding. Relations that are
// unknown or have no embedding are missing from the map.
func (h *RelationsDBHandler) SelectRelationSimilarities(ctx context.Context, embedding []float32, ids []string) (map[string]float64, error) {
	similarities := map[string]float64{}
	if len(ids) == 0 {
		return similarities, nil
	}
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding validation", fmt.Errorf("expected embedding of dimension %d, got %d", h.embeddingDim, len(embedding)))
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_relations_by_similarity($1, $2)`,
		pgvector.NewVector(embedding),
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, label string
		var similarity float64
		err := rows.Scan(&id, &label, &similarity)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		similarities[id] = similarity
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return similarities, nil
}
