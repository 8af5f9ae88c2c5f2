package challenge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/app/engagement"
	"github.com/Poolchaos/personalfit/internal/domain"
	"github.com/Poolchaos/personalfit/internal/infra/metrics"
	"github.com/Poolchaos/personalfit/internal/logger"
)

// Store persists daily challenge sets.
type Store interface {
	// GetSet returns the user's set for the date, or (nil, nil) when absent.
	GetSet(ctx context.Context, userID uuid.UUID, date string) (*domain.DailyChallengeSet, error)
	// CreateSet inserts the set if missing. Concurrent calls for the
	// same (user, date) are safe; the first insert wins.
	CreateSet(ctx context.Context, set *domain.DailyChallengeSet) error
	// SetProgress records non-completing progress on one instance.
	SetProgress(ctx context.Context, instanceID string, progress int) error
	// CompleteInstance marks the instance completed and bumps the set's
	// gems-earned counter in one transaction. The update is conditional
	// on the instance not already being completed; won reports whether
	// this call performed the transition.
	CompleteInstance(ctx context.Context, instanceID string, progress int, at time.Time, gems int64) (won bool, err error)
}

// Rewarder is the atomic-credit path challenge rewards go through.
type Rewarder interface {
	AwardChallengeReward(ctx context.Context, userID uuid.UUID, key string, xp, gems int64, at time.Time) (*engagement.CreditResult, error)
}

// ProgressResult reports the outcome of one progress update.
type ProgressResult struct {
	Challenge     domain.ChallengeInstance `json:"challenge"`
	JustCompleted bool                     `json:"just_completed"`
	Credit        *engagement.CreditResult `json:"credit,omitempty"`
}

// Tracker lazily materializes daily challenge sets and applies progress
// increments. Completion is one-way; the reward for crossing the target
// is credited exactly once, keyed on the instance ID in the ledger's
// idempotency table.
type Tracker struct {
	store    Store
	rewarder Rewarder
	loc      *time.Location
	log      *logger.Logger
}

// NewTracker creates a tracker. loc decides which calendar date "today" is.
func NewTracker(store Store, rewarder Rewarder, loc *time.Location, log *logger.Logger) *Tracker {
	return &Tracker{
		store:    store,
		rewarder: rewarder,
		loc:      loc,
		log:      log.With("component", "challenge_tracker"),
	}
}

// TodaySet returns the user's challenge set for now's calendar date,
// creating it on first access. A lost insert race is resolved by
// re-reading; the selection is deterministic so both racers computed
// the same set anyway.
func (t *Tracker) TodaySet(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.DailyChallengeSet, error) {
	date := now.In(t.loc).Format("2006-01-02")
	return t.setFor(ctx, userID, date)
}

// SetFor returns the user's challenge set for an ISO date (YYYY-MM-DD),
// creating it if absent.
func (t *Tracker) SetFor(ctx context.Context, userID uuid.UUID, date string) (*domain.DailyChallengeSet, error) {
	return t.setFor(ctx, userID, date)
}

func (t *Tracker) setFor(ctx context.Context, userID uuid.UUID, date string) (*domain.DailyChallengeSet, error) {
	set, err := t.store.GetSet(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("get challenge set: %w", err)
	}
	if set != nil {
		return set, nil
	}

	fresh := &domain.DailyChallengeSet{
		UserID:     userID,
		Date:       date,
		Challenges: SelectDaily(userID, date),
	}
	if err := t.store.CreateSet(ctx, fresh); err != nil {
		return nil, fmt.Errorf("create challenge set: %w", err)
	}
	metrics.ChallengeSetsGenerated.Inc()

	set, err = t.store.GetSet(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("reload challenge set: %w", err)
	}
	if set == nil {
		return nil, fmt.Errorf("challenge set for %s/%s: %w", userID, date, domain.ErrChallengeNotFound)
	}
	return set, nil
}

// UpdateProgress adds inc to the named challenge in today's set.
// Progress clamps to the target. An already-completed challenge is a
// no-reward no-op. Crossing the target credits the reward through the
// ledger exactly once, then completes the instance.
func (t *Tracker) UpdateProgress(ctx context.Context, userID uuid.UUID, challengeID string, inc int, now time.Time) (*ProgressResult, error) {
	set, err := t.TodaySet(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	var inst *domain.ChallengeInstance
	for i := range set.Challenges {
		if set.Challenges[i].ID == challengeID || set.Challenges[i].TemplateID == challengeID {
			inst = &set.Challenges[i]
			break
		}
	}
	if inst == nil {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, domain.ErrChallengeNotFound)
	}

	if inst.Completed {
		return &ProgressResult{Challenge: *inst}, nil
	}

	progress := inst.Progress + inc
	if progress > inst.Target {
		progress = inst.Target
	}
	if progress < 0 {
		progress = 0
	}

	if progress < inst.Target {
		if err := t.store.SetProgress(ctx, inst.ID, progress); err != nil {
			return nil, fmt.Errorf("save progress: %w", err)
		}
		inst.Progress = progress
		return &ProgressResult{Challenge: *inst}, nil
	}

	// Credit before flipping the flag. The credit is idempotent on the
	// instance key, so an interruption between the two steps converges
	// on the next progress update instead of stranding an uncredited
	// completed instance.
	credit, err := t.rewarder.AwardChallengeReward(ctx, userID, "challenge:"+inst.ID, inst.XPReward, inst.GemsReward, now)
	if err != nil {
		return nil, fmt.Errorf("credit challenge reward: %w", err)
	}

	won, err := t.store.CompleteInstance(ctx, inst.ID, progress, now, inst.GemsReward)
	if err != nil {
		return nil, fmt.Errorf("complete challenge: %w", err)
	}

	inst.Progress = progress
	inst.Completed = true
	if won {
		inst.CompletedAt = now
		metrics.ChallengesCompleted.WithLabelValues(string(inst.Category)).Inc()
	}
	if credit.AlreadyProcessed {
		// Another call owns the reward; this one may still have
		// performed the flag flip after an interrupted run.
		return &ProgressResult{Challenge: *inst}, nil
	}

	t.log.Info("challenge completed",
		"user_id", userID.String(), "challenge", inst.TemplateID, "xp", inst.XPReward, "gems", inst.GemsReward)

	return &ProgressResult{Challenge: *inst, JustCompleted: true, Credit: credit}, nil
}
