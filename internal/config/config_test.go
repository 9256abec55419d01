package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "admitcli/internal/errors"
)

// chdir moves into an empty directory so no stray config or .env is found.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	dir := chdir(t)

	yamlPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
server:
  port: 9000
engine:
  chunk_size: 250
  workers: 3
references:
  school_file: refs/schools.xlsx
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("ADMIT_REFERENCES_MAJOR_FILE=refs/majors.xlsx\n"), 0o644))
	t.Setenv("ADMIT_ENGINE_WORKERS", "8")
	t.Setenv("ADMIT_SERVER_READ_TIMEOUT", "45s")
	t.Cleanup(func() { os.Unsetenv("ADMIT_REFERENCES_MAJOR_FILE") })

	cfg, err := Load(yamlPath)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 250, cfg.Engine.ChunkSize)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "refs/schools.xlsx", cfg.References.SchoolFile)
	assert.Equal(t, "refs/majors.xlsx", cfg.References.MajorFile)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
}

func TestLoad_ConfigFromEnvPath(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  driver: postgres\n  dsn: postgres://localhost/admit\n"), 0o644))
	t.Setenv("ADMIT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad port", env: map[string]string{"ADMIT_SERVER_PORT": "70000"}},
		{name: "bad driver", env: map[string]string{"ADMIT_LEDGER_DRIVER": "mysql"}},
		{name: "bad duration", env: map[string]string{"ADMIT_SERVER_READ_TIMEOUT": "soon"}},
		{name: "zero chunk", env: map[string]string{"ADMIT_ENGINE_CHUNK_SIZE": "0"}},
		{name: "file output without path", file: "logging:\n  output: file\n  file_path: \"\"\n"},
		{name: "malformed yaml", file: "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := chdir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = filepath.Join(dir, "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
