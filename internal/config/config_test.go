package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML(t *testing.T) {
	content := `
server:
  port: "9090"
database:
  dsn: "host=localhost user=bot dbname=videos"
bot:
  token: "123:abc"
import:
  videos_json_path: "/data/videos.json"
  auto: true
llm:
  api_key: "key"
  model: "deepseek/deepseek-chat"
  fallback_model: "qwen/qwen-2.5-72b-instruct"
  timeout_seconds: 30
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "host=localhost user=bot dbname=videos", cfg.Database.DSN)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, "/data/videos.json", cfg.Import.VideosJSONPath)
	assert.True(t, cfg.Import.Auto)
	assert.Equal(t, "deepseek/deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, 30, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLM.BaseURL)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "нет-такого.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultLLMBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, 120, cfg.LLM.TimeoutSeconds)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	content := `
server:
  port: "9090"
bot:
  token: "из-файла"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PORT", "7070")
	t.Setenv("BOT_TOKEN", "из-окружения")
	t.Setenv("DATABASE_URL", "host=db")
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	t.Setenv("AUTO_IMPORT", "true")
	t.Setenv("OPENROUTER_TIMEOUT_SECONDS", "45")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "из-окружения", cfg.Bot.Token)
	assert.Equal(t, "host=db", cfg.Database.DSN)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.True(t, cfg.Import.Auto)
	assert.Equal(t, 45, cfg.LLM.TimeoutSeconds)
}

func TestLoadBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [не мапа"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
