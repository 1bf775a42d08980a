package usecase

import (
	"context"
	"time"

	domainAgent "github.com/ganga90/olive-couple-sync-sub002/domains/agent"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/timeutils"
	"github.com/sirupsen/logrus"
)

// invokeBackgroundAgents walks every enabled (user, agent) activation and
// fires the ones whose schedule window is open and cooldown has elapsed. The
// run row is written before dispatch so an overlapping tick already sees it;
// the invocation itself is fire-and-forget.
func (service serviceEngine) invokeBackgroundAgents(ctx context.Context, now time.Time) (int, error) {
	activations, err := service.agents.ListEnabledActivations(ctx)
	if err != nil {
		return 0, err
	}

	invoked := 0
	for _, activation := range activations {
		ok, err := service.maybeInvokeAgent(ctx, now, activation)
		if err != nil {
			logrus.WithError(err).Warnf("[AGENT] skipping %s for user %s", activation.AgentID, activation.UserID)
			continue
		}
		if ok {
			invoked++
		}
	}
	return invoked, nil
}

func (service serviceEngine) maybeInvokeAgent(ctx context.Context, now time.Time, activation *domainAgent.Activation) (bool, error) {
	entry, ok := service.catalog.Get(activation.AgentID)
	if !ok {
		logrus.Debugf("[AGENT] %s is not in the catalog, skipping", activation.AgentID)
		return false, nil
	}
	if !entry.Background {
		return false, nil
	}

	pref := service.preferenceFor(ctx, activation.UserID)
	local := timeutils.ResolveLocal(now, pref.Timezone)
	if timeutils.InQuietHours(pref.QuietHoursStart, pref.QuietHoursEnd, local.Hour) {
		return false, nil
	}

	if entry.RequiresConnection != "" {
		active, err := service.conns.HasActive(ctx, activation.UserID, entry.RequiresConnection)
		if err != nil {
			return false, err
		}
		if !active {
			return false, nil
		}
	}

	if !agentWindowOpen(entry, local, service.cadence) {
		return false, nil
	}

	last, err := service.agents.LatestRun(ctx, activation.UserID, activation.AgentID)
	if err != nil {
		return false, err
	}
	if last != nil && now.Sub(last.StartedAt) < entry.Class.Cooldown() {
		return false, nil
	}

	run := &domainAgent.Run{
		AgentID:   activation.AgentID,
		UserID:    activation.UserID,
		StartedAt: now,
		Status:    domainAgent.RunStatusTriggered,
	}
	if err := service.agents.InsertRun(ctx, run); err != nil {
		return false, err
	}

	service.runner.Invoke(activation.AgentID, activation.UserID)
	logrus.Infof("[AGENT] triggered %s for user %s", activation.AgentID, activation.UserID)
	return true, nil
}

// agentWindowOpen evaluates the schedule class against the user's local
// clock. Every-tick agents are always in window; daily and weekly agents use
// the same eligibility window as the recurring scheduler.
func agentWindowOpen(entry domainAgent.CatalogEntry, local timeutils.LocalClock, cadence int) bool {
	switch entry.Class {
	case domainAgent.ClassEveryTick:
		return true
	case domainAgent.ClassDaily:
		hour, minute, err := timeutils.ParseClock(entry.Time)
		if err != nil {
			return false
		}
		return timeutils.InWindow(local.MinutesOfDay(), hour*60+minute, cadence)
	case domainAgent.ClassWeekly:
		if local.Weekday != entry.Weekday {
			return false
		}
		hour, minute, err := timeutils.ParseClock(entry.Time)
		if err != nil {
			return false
		}
		return timeutils.InWindow(local.MinutesOfDay(), hour*60+minute, cadence)
	}
	return false
}
