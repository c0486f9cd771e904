package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "DB_DRIVER", "DATABASE_URL", "OBJECT_STORE", "OPENAI_TIMEOUT_SECONDS", "LLM_MODEL", "MAX_UPLOAD_MB"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	cfg := Load()

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, DriverMemory, cfg.DBDriver)
	require.Equal(t, StoreLocal, cfg.ObjectStoreType)
	require.Equal(t, 120*time.Second, cfg.OpenAITimeout)
	require.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	require.EqualValues(t, 10<<20, cfg.MaxUploadBytes)
	require.True(t, cfg.IsDevLike())
}

func TestLoadDriverSelection(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/x")
	require.Equal(t, DriverPostgres, Load().DBDriver)

	t.Setenv("DB_DRIVER", "SQLite")
	require.Equal(t, DriverSQLite, Load().DBDriver)
}

func TestLoadReadsDotEnvWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PERSONA_FILE=/etc/fee.yaml\nPORT=9999\n"), 0o644))
	t.Setenv("PORT", "7000")
	t.Setenv("PERSONA_FILE", "")
	os.Unsetenv("PERSONA_FILE")

	cfg := Load()

	require.Equal(t, "/etc/fee.yaml", cfg.PersonaFile)
	require.Equal(t, "7000", cfg.Port)
}

func TestSplitAndTrim(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b ,"))
	require.Nil(t, splitAndTrim(""))
}
