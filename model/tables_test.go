package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTableFiles(t *testing.T, typePaths, typeGroups, relFreq string) TableFiles {
	dir := t.TempDir()
	files := TableFiles{
		TypePaths:  filepath.Join(dir, "type_paths.json"),
		TypeGroups: filepath.Join(dir, "type_groups.json"),
		RelFreq:    filepath.Join(dir, "rel_freq.json"),
	}
	require.NoError(t, os.WriteFile(files.TypePaths, []byte(typePaths), 0600))
	require.NoError(t, os.WriteFile(files.TypeGroups, []byte(typeGroups), 0600))
	require.NoError(t, os.WriteFile(files.RelFreq, []byte(relFreq), 0600))
	return files
}

func TestLoadTables(t *testing.T) {
	t.Run("Loads all three tables", func(t *testing.T) {
		files := writeTableFiles(t,
			`{"Q5": [[["P19", "P17"], 0.83], [["P106"], 0.6]]}`,
			`{"Q215627": ["Q5", "Q15632617"]}`,
			`{"P106": [1500, 42], "P19": [800]}`,
		)

		tables, err := LoadTables(files)
		require.NoError(t, err)

		paths := tables.PathsForType("Q5")
		require.Len(t, paths, 2)
		assert.Equal(t, Path{"P19", "P17"}, paths[0].Path)
		assert.Equal(t, 0.83, paths[0].Score)

		assert.Equal(t, []string{"Q5", "Q15632617"}, tables.GroupForType("Q215627"))

		freq, ok := tables.Frequency("P106")
		assert.True(t, ok)
		assert.Equal(t, 1500.0, freq)

		tp, tg, rf := tables.Sizes()
		assert.Equal(t, 1, tp)
		assert.Equal(t, 1, tg)
		assert.Equal(t, 2, rf)
	})

	t.Run("Missing file returns error", func(t *testing.T) {
		files := writeTableFiles(t, `{}`, `{}`, `{}`)
		files.RelFreq = filepath.Join(t.TempDir(), "missing.json")

		_, err := LoadTables(files)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "relation frequencies")
	})

	t.Run("Malformed path entry returns error", func(t *testing.T) {
		files := writeTableFiles(t, `{"Q5": [["P19", 0.8]]}`, `{}`, `{}`)

		_, err := LoadTables(files)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type paths")
	})
}

func TestTables(t *testing.T) {
	tables := NewTables(
		TypePathTable{"Q5": {{Path: Path{"P106"}, Score: 0.6}}},
		TypeGroupTable{"Q215627": {"Q5"}},
		RelationFrequencyTable{"P106": {1500}, "P999": {}},
	)

	t.Run("Unknown keys return empty values", func(t *testing.T) {
		assert.Empty(t, tables.PathsForType("Q515"))
		assert.Empty(t, tables.GroupForType("Q515"))

		_, ok := tables.Frequency("P17")
		assert.False(t, ok)
	})

	t.Run("Entries without values have no frequency", func(t *testing.T) {
		_, ok := tables.Frequency("P999")
		assert.False(t, ok)
	})

	t.Run("Accessors cannot mutate the tables", func(t *testing.T) {
		paths := tables.PathsForType("Q5")
		paths[0].Path[0] = "P27"
		paths[0].Score = 0

		group := tables.GroupForType("Q215627")
		group[0] = "Q6256"

		fresh := tables.PathsForType("Q5")
		assert.Equal(t, Path{"P106"}, fresh[0].Path)
		assert.Equal(t, 0.6, fresh[0].Score)
		assert.Equal(t, []string{"Q5"}, tables.GroupForType("Q215627"))
	})

	t.Run("NewTables copies its input", func(t *testing.T) {
		input := TypeGroupTable{"Q1": {"Q2"}}
		copied := NewTables(nil, input, nil)
		input["Q1"][0] = "Q3"

		assert.Equal(t, []string{"Q2"}, copied.GroupForType("Q1"))
	})
}
