package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
	"github.com/siherrmann/kgdial/sql"
)

// TriplesDBHandlerFunctions defines the interface for Triples database operations.
type TriplesDBHandlerFunctions interface {
	InsertTriple(ctx context.Context, fact *model.Fact) error
	DeleteTriple(ctx context.Context, id uuid.UUID) error
	SelectTriplesBySubject(ctx context.Context, subject string) ([]*model.Fact, error)
	SelectObjects(ctx context.Context, subjects []string, relation string) (map[string][]string, error)
	SelectSubjects(ctx context.Context, objects []string, relation string) (map[string][]string, error)
	CountTriplesByRelation(ctx context.Context) (map[string]int64, error)
}

// TriplesDBHandler handles triple-related database operations
type TriplesDBHandler struct {
	db *helper.Database
}

// NewTriplesDBHandler creates a new triples database handler.
// It initializes the database connection and loads triple-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTriplesDBHandler(db *helper.Database, force bool) (*TriplesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	triplesDbHandler := &TriplesDBHandler{
		db: db,
	}

	err := sql.LoadTriplesSql(triplesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load triples sql", err)
	}

	err = triplesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TriplesDBHandler")

	return triplesDbHandler, nil
}

// CreateTable creates the 'kg_triples' table in the database.
// If the table already exists, it does not create it again.
// It also creates the lookup indexes for both directions.
func (h *TriplesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_triples();`)
	if err != nil {
		log.Panicf("error initializing triples table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table kg_triples")

	return nil
}

// InsertTriple inserts a new triple. Inserting an existing
// (subject, relation, object) returns the stored row.
func (h *TriplesDBHandler) InsertTriple(ctx context.Context, fact *model.Fact) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_triple($1, $2, $3)`,
		fact.Subject,
		fact.Relation,
		fact.Object,
	)

	err := row.Scan(
		&fact.ID,
		&fact.Subject,
		&fact.Relation,
		&fact.Object,
		&fact.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteTriple deletes a triple by ID
func (h *TriplesDBHandler) DeleteTriple(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_triple($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectTriplesBySubject retrieves all triples of a subject
func (h *TriplesDBHandler) SelectTriplesBySubject(ctx context.Context, subject string) ([]*model.Fact, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_triples_by_subject($1)`,
		subject,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var facts []*model.Fact
	for rows.Next() {
		fact := &model.Fact{}
		err := rows.Scan(
			&fact.ID,
			&fact.Subject,
			&fact.Relation,
			&fact.Object,
			&fact.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		facts = append(facts, fact)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return facts, nil
}

// SelectObjects returns the objects reachable from each subject over relation.
// Subjects without a match are missing from the map.
func (h *TriplesDBHandler) SelectObjects(ctx context.Context, subjects []string, relation string) (map[string][]string, error) {
	return h.selectNeighbours(ctx, `SELECT * FROM select_objects($1, $2)`, subjects, relation)
}

// SelectSubjects returns the subjects pointing to each object over relation.
// Objects without a match are missing from the map.
func (h *TriplesDBHandler) SelectSubjects(ctx context.Context, objects []string, relation string) (map[string][]string, error) {
	return h.selectNeighbours(ctx, `SELECT * FROM select_subjects($1, $2)`, objects, relation)
}

// CountTriplesByRelation returns the number of stored triples per relation
func (h *TriplesDBHandler) CountTriplesByRelation(ctx context.Context) (map[string]int64, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM count_triples_by_relation()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var relation string
		var count int64
		err := rows.Scan(&relation, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		counts[relation] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return counts, nil
}

func (h *TriplesDBHandler) selectNeighbours(ctx context.Context, query string, nodes []string, relation string) (map[string][]string, error) {
	neighbours := map[string][]string{}
	if len(nodes) == 0 {
		return neighbours, nil
	}

	rows, err := h.db.Instance.QueryContext(ctx, query, pq.Array(nodes), relation)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	for rows.Next() {
		var node, neighbour string
		err := rows.Scan(&node, &neighbour)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		neighbours[node] = append(neighbours[node], neighbour)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return neighbours, nil
}
