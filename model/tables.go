package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// TypePathTable maps an entity type to its applicable paths with scores
type TypePathTable map[string][]ScoredPath

// TypeGroupTable maps an entity type to related entity types
type TypeGroupTable map[string][]string

// RelationFrequencyTable maps a relation to its frequency statistics.
// The first element of each entry is the count used for confidence scoring.
type RelationFrequencyTable map[string][]float64

// TableFiles names the JSON files the lookup tables are read from
type TableFiles struct {
	TypePaths  string `json:"type_paths_file"`
	TypeGroups string `json:"type_groups_file"`
	RelFreq    string `json:"rel_freq_file"`
}

// Tables holds the immutable lookup tables used by the path ranker.
// All accessors return copies, there is no way to mutate a loaded Tables.
type Tables struct {
	typePaths  TypePathTable
	typeGroups TypeGroupTable
	relFreq    RelationFrequencyTable
}

// NewTables creates Tables from in-memory maps. The maps are copied.
func NewTables(typePaths TypePathTable, typeGroups TypeGroupTable, relFreq RelationFrequencyTable) *Tables {
	t := &Tables{
		typePaths:  make(TypePathTable, len(typePaths)),
		typeGroups: make(TypeGroupTable, len(typeGroups)),
		relFreq:    make(RelationFrequencyTable, len(relFreq)),
	}

	for k, v := range typePaths {
		paths := make([]ScoredPath, len(v))
		for i, sp := range v {
			paths[i] = ScoredPath{Path: sp.Path.Clone(), Score: sp.Score}
		}
		t.typePaths[k] = paths
	}
	for k, v := range typeGroups {
		t.typeGroups[k] = append([]string(nil), v...)
	}
	for k, v := range relFreq {
		t.relFreq[k] = append([]float64(nil), v...)
	}

	return t
}

// LoadTables reads the three JSON tables
func LoadTables(files TableFiles) (*Tables, error) {
	var typePaths TypePathTable
	if err := readJSON(files.TypePaths, &typePaths); err != nil {
		return nil, fmt.Errorf("failed to load type paths: %w", err)
	}

	var typeGroups TypeGroupTable
	if err := readJSON(files.TypeGroups, &typeGroups); err != nil {
		return nil, fmt.Errorf("failed to load type groups: %w", err)
	}

	var relFreq RelationFrequencyTable
	if err := readJSON(files.RelFreq, &relFreq); err != nil {
		return nil, fmt.Errorf("failed to load relation frequencies: %w", err)
	}

	return &Tables{
		typePaths:  typePaths,
		typeGroups: typeGroups,
		relFreq:    relFreq,
	}, nil
}

// PathsForType returns the scored paths for an entity type
func (t *Tables) PathsForType(entityType string) []ScoredPath {
	entries := t.typePaths[entityType]
	paths := make([]ScoredPath, len(entries))
	for i, sp := range entries {
		paths[i] = ScoredPath{Path: sp.Path.Clone(), Score: sp.Score}
	}
	return paths
}

// GroupForType returns the related types of an entity type
func (t *Tables) GroupForType(entityType string) []string {
	return append([]string(nil), t.typeGroups[entityType]...)
}

// Frequency returns the count of a relation. Missing relations and
// entries without values report false.
func (t *Tables) Frequency(relation string) (float64, bool) {
	entry, exists := t.relFreq[relation]
	if !exists || len(entry) == 0 {
		return 0, false
	}
	return entry[0], true
}

// Sizes returns the number of entries per table, for logging
func (t *Tables) Sizes() (typePaths int, typeGroups int, relFreq int) {
	return len(t.typePaths), len(t.typeGroups), len(t.relFreq)
}

func readJSON(path string, v interface{}) error {
	if path == "" {
		return fmt.Errorf("no file configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
