package config

import (
	"os"
	"strconv"
	"strings"
)

// GetAllSettings returns a map of the effective runtime settings, used by the
// health endpoint for debugging deployments.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":            Global.App.Version,
		"app_debug":              Global.App.Debug,
		"db_driver":              Global.Database.Driver,
		"engine_tick_cadence":    Global.Engine.TickCadenceMinutes,
		"engine_internal_tick":   Global.Engine.InternalTick,
		"engine_queue_batch":     Global.Engine.QueueBatchSize,
		"engine_log_retention_d": Global.Engine.LogRetentionDays,
		"gateway_driver":         Global.Gateway.Driver,
		"ai_provider":            Global.AI.Provider,
		"valkey_enabled":         Global.Database.ValkeyEnabled,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}
