package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/paveg/tidy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultValues(t *testing.T) {
	cfg := config.NewConfig()

	assert.Equal(t, 0, cfg.MaxCombinations)        // 0 means unlimited
	assert.Equal(t, 0, cfg.ParallelGroupThreshold) // 0 means sequential
	assert.Equal(t, 0, cfg.WorkerPoolSize)         // 0 means auto-detect
	assert.False(t, cfg.VerboseLogging)
	assert.Equal(t, "text", cfg.LogFormat)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		config        config.Config
		expectedError string
	}{
		{
			name: "valid config",
			config: config.Config{
				MaxCombinations:        1000,
				ParallelGroupThreshold: 4,
				WorkerPoolSize:         2,
				LogFormat:              "json",
			},
		},
		{
			name:          "negative max combinations",
			config:        config.Config{MaxCombinations: -1, LogFormat: "text"},
			expectedError: "MaxCombinations must be non-negative, got -1",
		},
		{
			name:          "negative parallel group threshold",
			config:        config.Config{ParallelGroupThreshold: -2, LogFormat: "text"},
			expectedError: "ParallelGroupThreshold must be non-negative, got -2",
		},
		{
			name:          "negative worker pool size",
			config:        config.Config{WorkerPoolSize: -1, LogFormat: "text"},
			expectedError: "WorkerPoolSize must be non-negative, got -1",
		},
		{
			name:          "unknown log format",
			config:        config.Config{LogFormat: "xml"},
			expectedError: `LogFormat must be "text" or "json", got "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedError)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := config.Config{MaxCombinations: 50}.WithDefaults()

	assert.Equal(t, 50, cfg.MaxCombinations)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestConfig_Workers(t *testing.T) {
	assert.Equal(t, 3, config.Config{WorkerPoolSize: 3}.Workers())
	assert.Equal(t, runtime.NumCPU(), config.Config{}.Workers())
}

func TestConfig_LoadFromJSON(t *testing.T) {
	jsonData := `{
		"max_combinations": 2000,
		"parallel_group_threshold": 8,
		"verbose_logging": true
	}`

	cfg, err := config.LoadFromJSON([]byte(jsonData))
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.MaxCombinations)
	assert.Equal(t, 8, cfg.ParallelGroupThreshold)
	assert.True(t, cfg.VerboseLogging)
	assert.Equal(t, "text", cfg.LogFormat)

	_, err = config.LoadFromJSON([]byte(`{"max_combinations": "many"}`))
	require.Error(t, err)

	_, err = config.LoadFromJSON([]byte(`{"max_combinations": -5}`))
	require.Error(t, err)
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "tidy.yaml")
		content := "max_combinations: 100\nworker_pool_size: 2\nlog_format: json\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.MaxCombinations)
		assert.Equal(t, 2, cfg.WorkerPoolSize)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "tidy.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"parallel_group_threshold": 3}`), 0o600))

		cfg, err := config.LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.ParallelGroupThreshold)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "tidy.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

		_, err := config.LoadFromFile(path)
		assert.EqualError(t, err, "unsupported config file format: .toml")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFromFile(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yml")
		require.NoError(t, os.WriteFile(path, []byte("log_format: xml\n"), 0o600))

		_, err := config.LoadFromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LogFormat")
	})
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv(config.EnvMaxCombinations, "500")
	t.Setenv(config.EnvParallelGroupThreshold, "not-a-number")
	t.Setenv(config.EnvWorkerPoolSize, "6")
	t.Setenv(config.EnvVerboseLogging, "true")
	t.Setenv(config.EnvLogFormat, "JSON")

	cfg := config.LoadFromEnv()

	assert.Equal(t, 500, cfg.MaxCombinations)
	assert.Equal(t, 0, cfg.ParallelGroupThreshold)
	assert.Equal(t, 6, cfg.WorkerPoolSize)
	assert.True(t, cfg.VerboseLogging)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestConfig_GlobalConfig(t *testing.T) {
	original := config.GetGlobalConfig()
	defer config.SetGlobalConfig(original)

	updated := config.NewConfig()
	updated.MaxCombinations = 42
	config.SetGlobalConfig(updated)

	assert.Equal(t, 42, config.GetGlobalConfig().MaxCombinations)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = config.GetGlobalConfig()
		}()
	}
	wg.Wait()
}
