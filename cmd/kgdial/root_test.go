package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Flags override the environment", func(t *testing.T) {
		t.Setenv("KGDIAL_MAX_LOG_FREQ", "10")
		t.Setenv("KGDIAL_CONF_THRES", "0.5")
		t.Setenv("KGDIAL_TYPE_PATHS_FILE", "/env/type_paths.json")

		err := rankCmd.ParseFlags([]string{"--max-log-freq", "6", "--use-path-stat", "--rel-freq", "/flag/rel_freq.json"})
		require.NoError(t, err)

		config, err := loadConfig(rankCmd, nil)
		require.NoError(t, err)
		assert.Equal(t, 6.0, config.Ranker.MaxLogFreq, "Expected the flag to win")
		assert.True(t, config.Ranker.UsePathStat)
		assert.Equal(t, "/flag/rel_freq.json", config.Tables.RelFreq)
		assert.Equal(t, 0.5, config.Generator.ConfThres, "Expected the environment without flag")
		assert.Equal(t, "/env/type_paths.json", config.Tables.TypePaths)
	})

	t.Run("Malformed environment is an error", func(t *testing.T) {
		t.Setenv("KGDIAL_PARALLELISM", "four")

		_, err := loadConfig(generateCmd, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "KGDIAL_PARALLELISM")
	})

	t.Run("Commands are registered", func(t *testing.T) {
		names := []string{}
		for _, cmd := range rootCmd.Commands() {
			names = append(names, cmd.Name())
		}
		assert.Subset(t, names, []string{"serve", "rank", "generate", "load"})
	})
}
