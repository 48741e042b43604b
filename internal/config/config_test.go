package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
afriwork:
  init_data: "user=%7B%22id%22%3A1%7D"
  request_timeout: 5s
telegram:
  chat_id: 42
  channel_id: "1234567890"
filter:
  keywords: [golang, backend]
  minimum_matches: 2
auto_apply: false
store:
  driver: redis
  redis_addr: localhost:6379
ai:
  expertise:
    skills: [Go]
    education: BSc
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Afriwork.RequestTimeout)
	assert.Equal(t, "BOT", cfg.Afriwork.PlatformName)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, 2, cfg.Filter.MinimumMatches)
	assert.False(t, cfg.AutoApplyEnabled())
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, []string{"Go"}, cfg.AI.Expertise.Skills)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.NoError(t, cfg.ValidateApply())
}

func TestLoadFile_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_INIT_DATA", "")
	t.Setenv("AUTO_APPLY", "")
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 20*time.Second, cfg.Afriwork.RequestTimeout)
	assert.Equal(t, 3, cfg.Filter.MinimumMatches)
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AutoApplyEnabled())
	assert.Error(t, cfg.ValidateApply())
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_INIT_DATA", "from-env")
	t.Setenv("TELEGRAM_CHAT_ID", "99")
	t.Setenv("AUTO_APPLY", "true")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/autoapply")
	t.Setenv("PORT", "9090")

	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Afriwork.InitData)
	assert.Equal(t, int64(99), cfg.Telegram.ChatID)
	assert.True(t, cfg.AutoApplyEnabled())
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/autoapply", cfg.Store.DatabaseURL)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "afriwork: ["))
		assert.Error(t, err)
	})

	t.Run("bad chat id", func(t *testing.T) {
		t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")
		_, err := LoadFile(writeConfig(t, sampleYAML))
		assert.ErrorContains(t, err, "TELEGRAM_CHAT_ID")
	})

	t.Run("bad auto apply", func(t *testing.T) {
		t.Setenv("AUTO_APPLY", "sometimes")
		_, err := LoadFile(writeConfig(t, sampleYAML))
		assert.ErrorContains(t, err, "AUTO_APPLY")
	})
}

func TestValidateWatch(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	cfg, err := LoadFile(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.ErrorContains(t, cfg.ValidateWatch(), "TELEGRAM_BOT_TOKEN")

	cfg.Telegram.BotToken = "token"
	assert.NoError(t, cfg.ValidateWatch())

	cfg.Filter.Keywords = nil
	assert.Error(t, cfg.ValidateWatch())
}
