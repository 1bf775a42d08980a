package health

import (
	"context"
	"time"
)

type EntityType string

const (
	EntityDatabase EntityType = "database"
	EntityCache    EntityType = "cache"
	EntityGateway  EntityType = "gateway"
	EntityCatalog  EntityType = "agent_catalog"
	EntityTicker   EntityType = "ticker"
)

type Status string

const (
	StatusOk      Status = "OK"
	StatusError   Status = "ERROR"
	StatusUnknown Status = "UNKNOWN"
)

// Record is one dependency's most recent check outcome.
type Record struct {
	EntityType  EntityType `json:"entity_type"`
	Status      Status     `json:"status"`
	LastMessage string     `json:"last_message,omitempty"`
	LastChecked time.Time  `json:"last_checked"`
}

type IHealthUsecase interface {
	// CheckAll probes every dependency and returns the fresh records.
	CheckAll(ctx context.Context) []Record
	// GetStatus returns the last known records without re-probing.
	GetStatus(ctx context.Context) []Record
}
