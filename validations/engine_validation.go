package validations

import (
	"context"
	"fmt"
	"time"

	domainJob "github.com/ganga90/olive-couple-sync-sub002/domains/job"
	domainPreference "github.com/ganga90/olive-couple-sync-sub002/domains/preference"
	domainProactive "github.com/ganga90/olive-couple-sync-sub002/domains/proactive"
	pkgError "github.com/ganga90/olive-couple-sync-sub002/pkg/error"
	"github.com/ganga90/olive-couple-sync-sub002/pkg/timeutils"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateEngineRequest checks the action-specific required fields before any
// work starts. Structural problems reject the whole request.
func ValidateEngineRequest(ctx context.Context, action domainProactive.Action, request domainProactive.EngineRequest) error {
	var err error

	switch action {
	case domainProactive.ActionScheduleJob:
		err = validation.ValidateStructWithContext(ctx, &request,
			validation.Field(&request.UserID, validation.Required),
			validation.Field(&request.JobType, validation.Required, validation.By(validJobType)),
			validation.Field(&request.ScheduledFor, validation.Date(time.RFC3339)),
		)
	case domainProactive.ActionGenerateBriefing:
		err = validation.ValidateStructWithContext(ctx, &request,
			validation.Field(&request.UserID, validation.Required),
		)
	case domainProactive.ActionTestBriefing:
		err = validation.ValidateStructWithContext(ctx, &request,
			validation.Field(&request.Phone, validation.Required),
		)
	case domainProactive.ActionTick, domainProactive.ActionCheckReminders:
		// No inputs beyond the action itself.
	}

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

// ValidateScheduleJob guards the usecase entrypoint; the wire layer may have
// validated already, but ad-hoc jobs can also be created programmatically.
func ValidateScheduleJob(ctx context.Context, request domainProactive.ScheduleJobRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.UserID, validation.Required),
		validation.Field(&request.JobType, validation.Required, validation.By(validJobType)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

// ValidatePreference checks a settings write. Scheduling fields must parse,
// otherwise the engines would silently skip the user on every tick.
func ValidatePreference(ctx context.Context, pref domainPreference.Preference) error {
	err := validation.ValidateStructWithContext(ctx, &pref,
		validation.Field(&pref.UserID, validation.Required),
		validation.Field(&pref.Timezone, validation.By(validTimezone)),
		validation.Field(&pref.QuietHoursStart, validation.By(validClock)),
		validation.Field(&pref.QuietHoursEnd, validation.By(validClock)),
		validation.Field(&pref.MorningBriefingTime, validation.By(validClock)),
		validation.Field(&pref.EveningReviewTime, validation.By(validClock)),
		validation.Field(&pref.WeeklySummaryTime, validation.By(validClock)),
		validation.Field(&pref.MaxDailyMessages, validation.Min(1), validation.Max(100)),
		validation.Field(&pref.WeeklySummaryDay, validation.Min(0), validation.Max(6)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func validJobType(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !domainJob.Type(s).Valid() {
		return fmt.Errorf("unknown job type %q", s)
	}
	return nil
}

func validClock(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, _, err := timeutils.ParseClock(s)
	return err
}

func validTimezone(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := time.LoadLocation(s)
	return err
}
