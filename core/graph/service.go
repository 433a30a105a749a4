package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/siherrmann/kgdial/helper"
	"github.com/siherrmann/kgdial/model"
)

// KnowledgeGraph answers typed queries against an entity-relation graph
type KnowledgeGraph interface {
	FindTypes(ctx context.Context, entity string) ([]string, error)
	FindObjects(ctx context.Context, subjects []string, relation string, dir model.Direction) ([][]string, error)
	RetrievePaths(ctx context.Context, entity string, paths []model.Path) ([]model.RetrievedPath, error)
}

// TripleStore defines the triple lookups needed for traversal
type TripleStore interface {
	SelectObjects(ctx context.Context, subjects []string, relation string) (map[string][]string, error)
	SelectSubjects(ctx context.Context, objects []string, relation string) (map[string][]string, error)
}

// Labeler resolves ids to human readable labels
type Labeler interface {
	SelectLabels(ctx context.Context, ids []string) (map[string]string, error)
}

// ServiceConfig bounds the traversal of RetrievePaths
type ServiceConfig struct {
	// Maximum number of partial walks kept per hop
	MaxBranching int `json:"max_branching"`
	// Stop after this many confirmed paths
	MaxRetrieved int `json:"max_retrieved"`
}

// DefaultServiceConfig returns the traversal bounds used by the CLI and server
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxBranching: 10,
		MaxRetrieved: 5,
	}
}

// Service implements KnowledgeGraph over a TripleStore
type Service struct {
	store          TripleStore
	entityLabels   Labeler
	relationLabels Labeler
	config         ServiceConfig
	logger         *slog.Logger
}

// NewService creates a graph service. The labelers are optional,
// without them triplets carry ids only.
func NewService(store TripleStore, entityLabels Labeler, relationLabels Labeler, config ServiceConfig, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, helper.NewError("triple store validation", fmt.Errorf("triple store is nil"))
	}
	if config.MaxBranching < 1 || config.MaxRetrieved < 1 {
		return nil, helper.NewError("config validation", fmt.Errorf("%w: max_branching and max_retrieved must be at least 1", model.ErrInvalidConfig))
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:          store,
		entityLabels:   entityLabels,
		relationLabels: relationLabels,
		config:         config,
		logger:         logger,
	}, nil
}

// FindTypes returns the types (objects of "instance of") of an entity
func (s *Service) FindTypes(ctx context.Context, entity string) ([]string, error) {
	objects, err := s.store.SelectObjects(ctx, []string{entity}, model.RelationInstanceOf)
	if err != nil {
		return nil, helper.NewError("find types", err)
	}
	return unique(objects[entity]), nil
}

// FindObjects follows relation from every subject. Forward returns objects,
// backward returns subjects pointing to the given node. The result is
// parallel to subjects.
func (s *Service) FindObjects(ctx context.Context, subjects []string, relation string, dir model.Direction) ([][]string, error) {
	var neighbours map[string][]string
	var err error
	switch dir {
	case model.DirectionForward:
		neighbours, err = s.store.SelectObjects(ctx, subjects, relation)
	case model.DirectionBackward:
		neighbours, err = s.store.SelectSubjects(ctx, subjects, relation)
	default:
		return nil, helper.NewError("find objects", fmt.Errorf("unknown direction %q", dir))
	}
	if err != nil {
		return nil, helper.NewError("find objects", err)
	}

	results := make([][]string, len(subjects))
	for i, subject := range subjects {
		results[i] = unique(neighbours[subject])
	}
	return results, nil
}

// walk is a partial traversal of one candidate path
type walk struct {
	node     string
	triplets []model.Triplet
}

// RetrievePaths materializes candidate paths for entity. Candidates are
// tried in order and the result keeps that order. Candidates that cannot
// be walked to the end are skipped.
func (s *Service) RetrievePaths(ctx context.Context, entity string, paths []model.Path) ([]model.RetrievedPath, error) {
	retrieved := []model.RetrievedPath{}
	for _, path := range paths {
		if len(retrieved) >= s.config.MaxRetrieved {
			break
		}
		if len(path) == 0 {
			continue
		}

		triplets, err := s.walkPath(ctx, entity, path)
		if err != nil {
			return nil, helper.NewError("retrieve paths", err)
		}
		if triplets == nil {
			s.logger.Debug("path not found in graph", slog.String("entity", entity), slog.String("path", path.String()))
			continue
		}

		retrieved = append(retrieved, model.RetrievedPath{
			Triplets:  triplets,
			Relations: path.Clone(),
		})
	}

	err := s.label(ctx, retrieved)
	if err != nil {
		return nil, helper.NewError("label paths", err)
	}

	return retrieved, nil
}

// walkPath does a breadth-first walk along path and returns the triplets
// of the first complete walk, or nil if none reaches the last hop.
func (s *Service) walkPath(ctx context.Context, entity string, path model.Path) ([]model.Triplet, error) {
	queue := []walk{{node: entity}}

	for _, relation := range path {
		nodes := make([]string, 0, len(queue))
		for _, w := range queue {
			nodes = append(nodes, w.node)
		}

		neighbours, err := s.store.SelectObjects(ctx, unique(nodes), relation)
		if err != nil {
			return nil, err
		}

		next := []walk{}
		for _, w := range queue {
			for _, object := range neighbours[w.node] {
				if len(next) >= s.config.MaxBranching {
					break
				}

				triplets := make([]model.Triplet, len(w.triplets), len(w.triplets)+1)
				copy(triplets, w.triplets)
				triplets = append(triplets, model.Triplet{
					Subject:  w.node,
					Relation: relation,
					Object:   object,
				})

				next = append(next, walk{node: object, triplets: triplets})
			}
		}

		if len(next) == 0 {
			return nil, nil
		}
		queue = next
	}

	return queue[0].triplets, nil
}

// label fills in entity and relation labels of all retrieved triplets
func (s *Service) label(ctx context.Context, retrieved []model.RetrievedPath) error {
	if len(retrieved) == 0 {
		return nil
	}

	var entityIDs, relationIDs []string
	for _, r := range retrieved {
		for _, t := range r.Triplets {
			entityIDs = append(entityIDs, t.Subject, t.Object)
			relationIDs = append(relationIDs, t.Relation)
		}
	}

	entityLabels := map[string]string{}
	if s.entityLabels != nil {
		labels, err := s.entityLabels.SelectLabels(ctx, unique(entityIDs))
		if err != nil {
			return err
		}
		entityLabels = labels
	}

	relationLabels := map[string]string{}
	if s.relationLabels != nil {
		labels, err := s.relationLabels.SelectLabels(ctx, unique(relationIDs))
		if err != nil {
			return err
		}
		relationLabels = labels
	}

	for i := range retrieved {
		for j := range retrieved[i].Triplets {
			t := &retrieved[i].Triplets[j]
			t.SubjectLabel = entityLabels[t.Subject]
			t.RelationLabel = relationLabels[t.Relation]
			t.ObjectLabel = entityLabels[t.Object]
		}
	}

	return nil
}

// unique removes duplicates keeping the first occurrence
func unique(values []string) []string {
	seen := make(map[string]bool, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}
