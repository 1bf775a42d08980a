package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Engine     EngineConfig
	Gateway    GatewayConfig
	AI         AIConfig
	Agents     AgentsConfig
	WorkerPool WorkerPoolConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	CorsAllowedOrigins []string
	ServerID           string
}

type PathsConfig struct {
	Storages     string
	AgentCatalog string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB name for Postgres

	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type EngineConfig struct {
	// TickCadenceMinutes is the expected external invocation period and the
	// eligibility window width. Changing it without retuning the reminder
	// buckets will skip or double-match windows.
	TickCadenceMinutes int
	// InternalTick runs the cron driver inside serve instead of relying on
	// an external scheduler hitting the tick action.
	InternalTick bool
	TickCron     string
	// QueueBatchSize bounds how many pending jobs one tick processes.
	QueueBatchSize int
	// LogRetentionDays must exceed the 7-day weekly dedup lookback.
	LogRetentionDays int
}

type GatewayConfig struct {
	// Driver selects the delivery transport: "http" for the WhatsApp REST
	// gateway, "log" to print messages instead of sending.
	Driver        string
	URL           string
	BasicAuth     string // "user:password"
	RatePerSecond int
	Burst         int
}

type AIConfig struct {
	// Provider selects the content generator: "" or "template" for the
	// deterministic composer, "gemini" or "openai" for model-backed text.
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
}

type AgentsConfig struct {
	// RunnerURL receives agent invocations; empty logs them instead.
	RunnerURL string
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	storages := getEnv("APP_STORAGES_DIR", "storages")

	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	} else if v := os.Getenv("DEBUG"); v == "true" || v == "1" {
		debug = true
	}

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.4.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		Storages:     storages,
		AgentCatalog: getEnv("AGENT_CATALOG_PATH", filepath.Join(storages, "agents.yaml")),
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", filepath.Join(storages, "olive.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "olive:"),
	}

	engineCfg := EngineConfig{
		TickCadenceMinutes: getEnvInt("ENGINE_TICK_CADENCE_MINUTES", 15),
		InternalTick:       getEnvBool("ENGINE_INTERNAL_TICK", true),
		TickCron:           getEnv("ENGINE_TICK_CRON", "*/15 * * * *"),
		QueueBatchSize:     getEnvInt("ENGINE_QUEUE_BATCH_SIZE", 50),
		LogRetentionDays:   getEnvInt("ENGINE_LOG_RETENTION_DAYS", 30),
	}
	if engineCfg.LogRetentionDays < 8 {
		// The weekly dedup looks back 7 days; pruning closer than that would
		// re-open closed periods.
		engineCfg.LogRetentionDays = 8
	}

	gatewayCfg := GatewayConfig{
		Driver:        getEnv("GATEWAY_DRIVER", "http"),
		URL:           getEnv("GATEWAY_URL", ""),
		BasicAuth:     getEnv("GATEWAY_BASIC_AUTH", ""),
		RatePerSecond: getEnvInt("GATEWAY_RATE_PER_SECOND", 5),
		Burst:         getEnvInt("GATEWAY_BURST", 10),
	}
	if gatewayCfg.URL == "" {
		gatewayCfg.Driver = "log"
	}

	cfg := &Config{
		App:      appCfg,
		Paths:    pathsCfg,
		Database: dbCfg,
		Engine:   engineCfg,
		Gateway:  gatewayCfg,
		AI: AIConfig{
			Provider:     getEnv("AI_PROVIDER", ""),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Agents: AgentsConfig{
			RunnerURL: getEnv("AGENT_RUNNER_URL", ""),
		},
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("AGENT_WORKER_POOL_SIZE", 8),
			QueueSize: getEnvInt("AGENT_WORKER_QUEUE_SIZE", 256),
		},
	}

	Global = cfg
	return cfg, nil
}
