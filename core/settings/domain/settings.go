package domain

import "context"

// Setting represents one engine-state value stored in the database.
type Setting struct {
	Key   string
	Value string
}

// ISettingsRepository defines the contract for persisting engine state.
type ISettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error

	// InitSchema creates the necessary tables
	InitSchema(ctx context.Context) error
}

// Keys tracked by the engine. Health and dashboards read these back.
const (
	KeyLastTickAt           = "last_tick_at"
	KeyLastTickReport       = "last_tick_report"
	KeyLastRetentionSweepAt = "last_retention_sweep_at"
	KeySchemaVersion        = "schema_version"
)
