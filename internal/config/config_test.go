package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_AUTO_MIGRATE", "yes")
	t.Setenv("DB_LOG_SQL", "nope")

	cfg := LoadConfig()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.DBAutoMigrate)
	assert.False(t, cfg.DBLogSQL)
	assert.NotEmpty(t, cfg.Port)
}

func TestGetBool(t *testing.T) {
	for _, v := range []string{"true", "1", "YES", " on "} {
		t.Setenv("FLAG", v)
		assert.True(t, getBool("FLAG", false), v)
	}
	t.Setenv("FLAG", "0")
	assert.False(t, getBool("FLAG", true))
	assert.True(t, getBool("UNSET_FLAG_FOR_TEST", true))
}
