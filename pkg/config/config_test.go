package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("botToken", "test-token")
	t.Setenv("PORT", "3001")
	t.Setenv("enviroment", "test")

	resetForTesting()

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", config.BotToken)
	assert.Equal(t, "3001", config.Port)
	assert.Equal(t, "test", config.Environment)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	assert.Equal(t, "test-value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT_VAR", "default"))
}

func TestIsProd(t *testing.T) {
	resetForTesting()
	t.Setenv("enviroment", "prod")
	config, _ := Load()
	assert.True(t, config.IsProd())

	resetForTesting()
	t.Setenv("enviroment", "dev")
	config, _ = Load()
	assert.False(t, config.IsProd())
}

func TestGet(t *testing.T) {
	resetForTesting()

	config := Get()
	require.NotNil(t, config)
	assert.Same(t, config, Get(), "Get() should return the same config on subsequent calls")
}

func TestDefaultValues(t *testing.T) {
	for _, key := range []string{
		"botToken", "mongodbUrl", "dbName", "dataDir", "redisUrl", "MQTT_Host", "MQTT_Port",
		"PORT", "enviroment", "flushInterval", "sweepInterval", "lookupTimeout",
		"sweepRate", "sweepConcurrency", "defaultKeyword", "defaultKeywordRole", "robloxRate",
	} {
		t.Setenv(key, "")
	}

	resetForTesting()
	config, _ := Load()

	assert.Equal(t, "", config.MongoDBURL)
	assert.False(t, config.UsesMongo())
	assert.Equal(t, "XLZRBot", config.DBName)
	assert.Equal(t, "data", config.DataDir)
	assert.Equal(t, "localhost", config.MQTTHost)
	assert.Equal(t, "1883", config.MQTTPort)
	assert.Equal(t, "3000", config.Port)
	assert.Equal(t, "dev", config.Environment)
	assert.Equal(t, "https://users.roblox.com", config.RobloxUsersAPI)
	assert.Equal(t, 5*time.Minute, config.FlushInterval)
	assert.Equal(t, 24*time.Hour, config.SweepInterval)
	assert.Equal(t, 10*time.Second, config.LookupTimeout)
	assert.Equal(t, 2.0, config.SweepRate)
	assert.Equal(t, 2, config.SweepConcurrency)
	assert.Equal(t, 5.0, config.RobloxRate)
	assert.Equal(t, "OG", config.DefaultKeyword)
	assert.Equal(t, "OG member", config.DefaultKeywordRole)
	assert.Empty(t, config.InvalidKeys())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("flushInterval", "soon")
	t.Setenv("sweepConcurrency", "-3")
	t.Setenv("sweepInterval", "12h")

	resetForTesting()
	config, _ := Load()

	assert.Equal(t, 5*time.Minute, config.FlushInterval)
	assert.Equal(t, 2, config.SweepConcurrency)
	assert.Equal(t, 12*time.Hour, config.SweepInterval)
	assert.ElementsMatch(t, []string{"flushInterval", "sweepConcurrency"}, config.InvalidKeys())
}
