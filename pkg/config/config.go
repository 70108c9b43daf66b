// Package config provides configuration management for the bot.
// It loads environment variables (and an optional .env file) once and makes
// them available throughout the application.
package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken      string
	DevGuildID    string
	CommandPrefix string

	// Persistence. An empty MongoDBURL selects the JSON file backend.
	MongoDBURL string
	DBName     string
	DataDir    string

	// Redis is optional; it backs the cross-process sweep lock.
	RedisURL string

	// MQTT
	MQTTHost     string
	MQTTPort     string
	MQTTUser     string
	MQTTPassword string

	// Web Server. An empty APIToken disables the mutating endpoints.
	Port           string
	WebHostPattern string
	APIToken       string

	// Environment
	Environment string

	// Webhooks
	ErrorWebhook string
	LogsWebhook  string

	// External profile lookup
	RobloxUsersAPI string
	RobloxRate     float64
	LookupTimeout  time.Duration

	// Scheduler
	FlushInterval    time.Duration
	SweepInterval    time.Duration
	SweepRate        float64
	SweepConcurrency int

	// Keyword role fallback used when a guild has no keyword configuration
	DefaultKeyword     string
	DefaultKeywordRole string

	// invalid collects keys whose values could not be parsed
	invalid []string
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	c := &Config{
		// Discord
		BotToken:      getEnv("botToken", ""),
		DevGuildID:    getEnv("devGuildId", ""),
		CommandPrefix: getEnv("commandPrefix", "!"),

		// Persistence
		MongoDBURL: getEnv("mongodbUrl", ""),
		DBName:     getEnv("dbName", "XLZRBot"),
		DataDir:    getEnv("dataDir", "data"),
		RedisURL:   getEnv("redisUrl", ""),

		// MQTT
		MQTTHost:     getEnv("MQTT_Host", "localhost"),
		MQTTPort:     getEnv("MQTT_Port", "1883"),
		MQTTUser:     getEnv("MQTT_User", ""),
		MQTTPassword: getEnv("MQTT_Password", ""),

		// Web Server
		Port:           getEnv("PORT", "3000"),
		WebHostPattern: getEnv("webHostPattern", ""),
		APIToken:       getEnv("apiToken", ""),

		// Environment
		Environment: getEnv("enviroment", "dev"),

		// Webhooks
		ErrorWebhook: getEnv("errorWebhook", ""),
		LogsWebhook:  getEnv("logsWebhook", ""),

		RobloxUsersAPI: getEnv("robloxUsersApi", "https://users.roblox.com"),

		DefaultKeyword:     getEnv("defaultKeyword", "OG"),
		DefaultKeywordRole: getEnv("defaultKeywordRole", "OG member"),
	}

	c.LookupTimeout = c.getDuration("lookupTimeout", 10*time.Second)
	c.RobloxRate = c.getFloat("robloxRate", 5)
	c.FlushInterval = c.getDuration("flushInterval", 5*time.Minute)
	c.SweepInterval = c.getDuration("sweepInterval", 24*time.Hour)
	c.SweepRate = c.getFloat("sweepRate", 2)
	c.SweepConcurrency = c.getInt("sweepConcurrency", 2)

	cfg = c
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	// Use sync.Once to ensure thread-safe initialization if Load wasn't called
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.invalid = append(c.invalid, key)
		return defaultValue
	}
	return d
}

func (c *Config) getFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		c.invalid = append(c.invalid, key)
		return defaultValue
	}
	return f
}

func (c *Config) getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.invalid = append(c.invalid, key)
		return defaultValue
	}
	return n
}

// InvalidKeys returns the environment keys that held unparseable values and
// were replaced by their defaults. The caller logs them once the logger exists.
func (c *Config) InvalidKeys() []string {
	return append([]string(nil), c.invalid...)
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// UsesMongo reports whether state is persisted to MongoDB instead of JSON files
func (c *Config) UsesMongo() bool {
	return c.MongoDBURL != ""
}
