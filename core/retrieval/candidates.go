package retrieval

import (
	"context"

	"github.com/siherrmann/kgdial/core/graph"
	"github.com/siherrmann/kgdial/model"
)

// candidatesForTypes unions the table paths of all types
func candidatesForTypes(tables *model.Tables, types []string) *model.CandidateSet {
	candidates := model.NewCandidateSet()
	for _, entityType := range types {
		for _, scored := range tables.PathsForType(entityType) {
			candidates.Add(scored)
		}
	}
	return candidates
}

// expandTypes looks up the subclasses of every type. Each subclass whose
// type group shares a type with types contributes the rest of its group.
// The returned slice holds types followed by the added types.
func expandTypes(ctx context.Context, kg graph.KnowledgeGraph, tables *model.Tables, types []string) ([]string, error) {
	if len(types) == 0 {
		return types, nil
	}

	subclasses, err := kg.FindObjects(ctx, types, model.RelationSubclassOf, model.DirectionForward)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(types))
	for _, t := range types {
		known[t] = true
	}

	expanded := append([]string(nil), types...)
	for _, perType := range subclasses {
		for _, subclass := range perType {
			group := tables.GroupForType(subclass)
			if !intersects(group, types) {
				continue
			}
			for _, related := range group {
				if known[related] {
					continue
				}
				known[related] = true
				expanded = append(expanded, related)
			}
		}
	}

	return expanded, nil
}

func intersects(group []string, types []string) bool {
	for _, g := range group {
		for _, t := range types {
			if g == t {
				return true
			}
		}
	}
	return false
}
