package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	settingsApp "github.com/ganga90/olive-couple-sync-sub002/core/settings/application"
	domainAgent "github.com/ganga90/olive-couple-sync-sub002/domains/agent"
	"github.com/ganga90/olive-couple-sync-sub002/domains/health"
	"github.com/ganga90/olive-couple-sync-sub002/infrastructure/valkey"
	"gorm.io/gorm"
)

// tickStaleAfter is how long without a recorded tick before the ticker is
// reported unhealthy. Three missed 15-minute cadences is clearly stuck, not
// jitter.
const tickStaleAfter = 45 * time.Minute

type healthService struct {
	db      *gorm.DB
	cache   *valkey.Client // nil when valkey is disabled
	catalog domainAgent.ICatalog
	state   *settingsApp.StateService

	mu   sync.RWMutex
	last []health.Record
}

func NewHealthService(db *gorm.DB, cache *valkey.Client, catalog domainAgent.ICatalog, state *settingsApp.StateService) health.IHealthUsecase {
	return &healthService{db: db, cache: cache, catalog: catalog, state: state}
}

func (s *healthService) CheckAll(ctx context.Context) []health.Record {
	now := time.Now().UTC()
	records := []health.Record{
		s.checkDatabase(ctx, now),
		s.checkCatalog(now),
		s.checkTicker(ctx, now),
	}
	if s.cache != nil {
		records = append(records, s.checkCache(ctx, now))
	}

	s.mu.Lock()
	s.last = records
	s.mu.Unlock()
	return records
}

func (s *healthService) GetStatus(ctx context.Context) []health.Record {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()
	if last == nil {
		return s.CheckAll(ctx)
	}
	return last
}

func (s *healthService) checkDatabase(ctx context.Context, now time.Time) health.Record {
	record := health.Record{EntityType: health.EntityDatabase, Status: health.StatusOk, LastChecked: now}
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		record.Status = health.StatusError
		record.LastMessage = err.Error()
	}
	return record
}

func (s *healthService) checkCache(ctx context.Context, now time.Time) health.Record {
	record := health.Record{EntityType: health.EntityCache, Status: health.StatusOk, LastChecked: now}
	if err := s.cache.Ping(ctx); err != nil {
		record.Status = health.StatusError
		record.LastMessage = err.Error()
	}
	return record
}

func (s *healthService) checkCatalog(now time.Time) health.Record {
	record := health.Record{EntityType: health.EntityCatalog, Status: health.StatusOk, LastChecked: now}
	record.LastMessage = fmt.Sprintf("%d agent(s) loaded", len(s.catalog.Entries()))
	return record
}

func (s *healthService) checkTicker(ctx context.Context, now time.Time) health.Record {
	record := health.Record{EntityType: health.EntityTicker, Status: health.StatusOk, LastChecked: now}

	lastTick, err := s.state.LastTickAt(ctx)
	switch {
	case err != nil:
		record.Status = health.StatusError
		record.LastMessage = err.Error()
	case lastTick.IsZero():
		record.Status = health.StatusUnknown
		record.LastMessage = "no tick recorded yet"
	case now.Sub(lastTick) > tickStaleAfter:
		record.Status = health.StatusError
		record.LastMessage = fmt.Sprintf("last tick %s", lastTick.Format(time.RFC3339))
	default:
		record.LastMessage = fmt.Sprintf("last tick %s", lastTick.Format(time.RFC3339))
	}
	return record
}
