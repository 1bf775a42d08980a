package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ganga90/olive-couple-sync-sub002/core/settings/domain"
	"github.com/ganga90/olive-couple-sync-sub002/core/settings/infrastructure"
	"gorm.io/gorm"
)

// StateService persists engine runtime state (last tick, last sweep) so a
// restarted process and the health endpoint can see what the scheduler last
// did.
type StateService struct {
	repo domain.ISettingsRepository
}

func NewStateService(db *gorm.DB) *StateService {
	return &StateService{
		repo: infrastructure.NewEngineStateGormRepository(db),
	}
}

func (s *StateService) InitSchema(ctx context.Context) error {
	return s.repo.InitSchema(ctx)
}

// RecordTick stores the tick instant and its report snapshot.
func (s *StateService) RecordTick(ctx context.Context, at time.Time, report any) error {
	if err := s.repo.Set(ctx, domain.KeyLastTickAt, at.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, domain.KeyLastTickReport, string(raw))
}

// LastTickAt returns the recorded instant of the last tick, zero if none yet.
func (s *StateService) LastTickAt(ctx context.Context) (time.Time, error) {
	val, err := s.repo.Get(ctx, domain.KeyLastTickAt)
	if err != nil || val == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}

// LastTickReport returns the raw JSON of the last tick report, empty if none.
func (s *StateService) LastTickReport(ctx context.Context) (string, error) {
	return s.repo.Get(ctx, domain.KeyLastTickReport)
}

func (s *StateService) RecordRetentionSweep(ctx context.Context, at time.Time) error {
	return s.repo.Set(ctx, domain.KeyLastRetentionSweepAt, at.UTC().Format(time.RFC3339))
}

func (s *StateService) LastRetentionSweepAt(ctx context.Context) (time.Time, error) {
	val, err := s.repo.Get(ctx, domain.KeyLastRetentionSweepAt)
	if err != nil || val == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}
