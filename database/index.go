package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/kgdial/helper"
)

// IndexType is an approximate nearest neighbour index method of pgvector
type IndexType string

const (
	IndexHNSW    IndexType = "hnsw"
	IndexIVFFlat IndexType = "ivfflat"
)

const relationEmbeddingIndex = "idx_kg_relations_embedding"

// Relation similarity uses the cosine distance operator <=>,
// an index only serves it with the matching operator class.
const relationEmbeddingOps = "vector_cosine_ops"

// IndexOptions holds the build parameters of a relation embedding index.
// Zero values take the pgvector defaults.
type IndexOptions struct {
	M              int `json:"m"`
	EfConstruction int `json:"ef_construction"`
	Lists          int `json:"lists"`
}

// DefaultIndexOptions returns the pgvector defaults
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{M: 16, EfConstruction: 64, Lists: 100}
}

func (o IndexOptions) withDefaults() IndexOptions {
	d := DefaultIndexOptions()
	if o.M == 0 {
		o.M = d.M
	}
	if o.EfConstruction == 0 {
		o.EfConstruction = d.EfConstruction
	}
	if o.Lists == 0 {
		o.Lists = d.Lists
	}
	return o
}

// indexStatement builds the CREATE INDEX statement for the relation embeddings
func indexStatement(indexType IndexType, options IndexOptions) (string, error) {
	options = options.withDefaults()

	switch indexType {
	case IndexHNSW:
		if options.M < 2 || options.EfConstruction < 2*options.M {
			return "", fmt.Errorf("hnsw needs m >= 2 and ef_construction >= 2*m, got m=%d ef_construction=%d", options.M, options.EfConstruction)
		}
		return fmt.Sprintf(
			`CREATE INDEX %s ON kg_relations USING hnsw (embedding %s) WITH (m = %d, ef_construction = %d);`,
			relationEmbeddingIndex, relationEmbeddingOps, options.M, options.EfConstruction,
		), nil
	case IndexIVFFlat:
		if options.Lists < 1 {
			return "", fmt.Errorf("ivfflat needs lists >= 1, got %d", options.Lists)
		}
		return fmt.Sprintf(
			`CREATE INDEX %s ON kg_relations USING ivfflat (embedding %s) WITH (lists = %d);`,
			relationEmbeddingIndex, relationEmbeddingOps, options.Lists,
		), nil
	default:
		return "", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType)
	}
}

// ChangeIndexType rebuilds the relation label embedding index.
// The old index is only dropped if the new one can be created.
func (h *RelationsDBHandler) ChangeIndexType(ctx context.Context, indexType IndexType, options IndexOptions) error {
	statement, err := indexStatement(indexType, options)
	if err != nil {
		return helper.NewError("change index type", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DROP INDEX IF EXISTS `+relationEmbeddingIndex+`;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = tx.ExecContext(ctx, statement)
	if err != nil {
		return helper.NewError("create index", err)
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit index change", err)
	}

	h.db.Logger.Info("Rebuilt relation embedding index", "type", indexType, "dim", h.embeddingDim)

	return nil
}
