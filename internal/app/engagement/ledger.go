package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Poolchaos/personalfit/internal/domain"
	"github.com/Poolchaos/personalfit/internal/infra/metrics"
	"github.com/Poolchaos/personalfit/internal/logger"
)

// maxCreditAttempts bounds the optimistic-update retry loop. Sustained
// contention past this surfaces ErrRetryExhausted instead of spinning.
const maxCreditAttempts = 3

// Store is the atomic-update port the ledger writes through. The
// implementation must make ApplyCredit a single transaction: the
// idempotency-key insert and the version-checked state update commit or
// roll back together.
type Store interface {
	// GetState returns the user's state, or (nil, nil) when absent.
	GetState(ctx context.Context, userID uuid.UUID) (*domain.GamificationState, error)
	// EnsureState creates the state row if missing. Concurrent calls are safe.
	EnsureState(ctx context.Context, st *domain.GamificationState) error
	// ApplyCredit persists st under the event's idempotency key,
	// asserting the stored version still equals expectedVersion.
	// duplicate reports the event was already credited; applied reports
	// the version check passed and the mutation committed.
	ApplyCredit(ctx context.Context, eventID string, st *domain.GamificationState, expectedVersion int64) (applied bool, duplicate bool, err error)
}

// CreditResult reports what one completion event earned.
type CreditResult struct {
	AlreadyProcessed bool                      `json:"already_processed"`
	Reward           domain.RewardResult       `json:"reward"`
	Streak           int                       `json:"streak"`
	StreakBroken     bool                      `json:"streak_broken"`
	FreezeUsed       bool                      `json:"freeze_used"`
	LeveledUp        bool                      `json:"leveled_up"`
	Level            int                       `json:"level"`
	NewAchievements  []string                  `json:"new_achievements"`
	State            *domain.GamificationState `json:"state"`
}

// Ledger applies XP, gem, streak and achievement mutations to a user's
// gamification state. It is the only writer of that state. Every
// completion event is credited at most once, guarded by the event's
// idempotency key and a versioned conditional update with bounded retry.
type Ledger struct {
	store           Store
	cfg             RewardConfig
	loc             *time.Location
	freezeAllowance int
	log             *logger.Logger
}

// NewLedger creates a ledger over the given store. loc is the reference
// time zone for all day-boundary math.
func NewLedger(store Store, cfg RewardConfig, loc *time.Location, freezeAllowance int, log *logger.Logger) *Ledger {
	return &Ledger{
		store:           store,
		cfg:             cfg,
		loc:             loc,
		freezeAllowance: freezeAllowance,
		log:             log.With("component", "ledger"),
	}
}

// State returns the user's current state, lazily creating a fresh one.
func (l *Ledger) State(ctx context.Context, userID uuid.UUID) (*domain.GamificationState, error) {
	st, err := l.store.GetState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	if st == nil {
		st = domain.NewGamificationState(userID, l.freezeAllowance)
	}
	return st, nil
}

// Credit applies one completion event. Duplicate event IDs return a
// successful no-op result. On version conflict the read-compute-apply
// cycle is retried up to maxCreditAttempts, then ErrRetryExhausted.
func (l *Ledger) Credit(ctx context.Context, ev domain.CompletionEvent) (*CreditResult, error) {
	for attempt := 1; attempt <= maxCreditAttempts; attempt++ {
		st, err := l.store.GetState(ctx, ev.UserID)
		if err != nil {
			return nil, fmt.Errorf("read state: %w", err)
		}
		if st == nil {
			fresh := domain.NewGamificationState(ev.UserID, l.freezeAllowance)
			if err := l.store.EnsureState(ctx, fresh); err != nil {
				return nil, fmt.Errorf("create state: %w", err)
			}
			st, err = l.store.GetState(ctx, ev.UserID)
			if err != nil || st == nil {
				return nil, fmt.Errorf("reload created state: %w", err)
			}
		}

		next := *st
		res := l.applyEvent(&next, ev)

		applied, duplicate, err := l.store.ApplyCredit(ctx, ev.EventID, &next, st.Version)
		if err != nil {
			return nil, fmt.Errorf("apply credit: %w", err)
		}
		if duplicate {
			metrics.CreditsDuplicate.Inc()
			return &CreditResult{AlreadyProcessed: true, Level: st.Level, Streak: st.CurrentStreak, State: st}, nil
		}
		if applied {
			metrics.CreditsApplied.Inc()
			if res.LeveledUp {
				metrics.LevelUps.Inc()
			}
			// The store bumped the stored version; keep the returned
			// state usable for a chained conditional update.
			next.Version = st.Version + 1
			res.State = &next
			return res, nil
		}

		metrics.CreditConflicts.Inc()
		l.log.Warn("credit conflict, retrying",
			"event_id", ev.EventID, "user_id", ev.UserID.String(), "attempt", attempt)
	}

	metrics.CreditRetriesExhausted.Inc()
	l.log.Error("credit retries exhausted",
		"event_id", ev.EventID, "user_id", ev.UserID.String(), "attempts", maxCreditAttempts)
	return nil, fmt.Errorf("credit event %s: %w", ev.EventID, domain.ErrRetryExhausted)
}

// applyEvent mutates next in place with everything one completion earns
// and returns the user-facing result. Pure except for the passed state.
func (l *Ledger) applyEvent(next *domain.GamificationState, ev domain.CompletionEvent) *CreditResult {
	// A new calendar month restores the freeze allowance and resets the
	// monthly usage counter before the streak math runs.
	if !next.LastStreakFreezeDate.IsZero() && !sameMonth(next.LastStreakFreezeDate, ev.OccurredAt, l.loc) {
		next.StreakFreezesAvailable = l.freezeAllowance
		next.StreakFreezesUsedThisMonth = 0
	}

	streak := UpdateStreakWithFreeze(
		next.LastActivityDate, ev.OccurredAt, next.CurrentStreak, next.StreakFreezesAvailable, l.loc)

	if !streak.SameDay {
		next.CurrentStreak = streak.Streak
		next.LastActivityDate = ev.OccurredAt
	}
	if next.CurrentStreak > next.LongestStreak {
		next.LongestStreak = next.CurrentStreak
	}
	if streak.FreezeUsed {
		next.StreakFreezesAvailable--
		next.StreakFreezesUsedThisMonth++
		next.LastStreakFreezeDate = ev.OccurredAt
		metrics.StreakFreezesConsumed.Inc()
	}
	if streak.Broken {
		next.Comebacks++
	}

	reward := CalculateWorkoutXP(RewardContext{
		IsFirstCompletion: ev.IsFirstCompletion,
		CurrentStreak:     next.CurrentStreak,
		HadPersonalRecord: ev.HadPersonalRecord,
	}, l.cfg)

	oldLevel := next.Level
	next.XP += reward.Total
	next.Level = LevelForXP(next.XP)
	next.TotalCompletions++
	if ev.HadPersonalRecord {
		next.TotalPersonalRecords++
		// Rolling day and ISO-week PR counters. A PR outside the
		// previous counter's window restarts it at 1.
		if !next.LastPRDate.IsZero() && sameDay(next.LastPRDate, ev.OccurredAt, l.loc) {
			next.PRsToday++
		} else {
			next.PRsToday = 1
		}
		if !next.LastPRDate.IsZero() && sameISOWeek(next.LastPRDate, ev.OccurredAt, l.loc) {
			next.PRsThisWeek++
		} else {
			next.PRsThisWeek = 1
		}
		next.LastPRDate = ev.OccurredAt
	}

	hour := ev.OccurredAt.In(l.loc).Hour()
	switch {
	case hour >= 5 && hour <= 11:
		next.MorningCompletions++
	case hour >= 12 && hour <= 16:
		next.AfternoonCompletions++
	case hour >= 17 && hour <= 21:
		next.EveningCompletions++
	default:
		next.NightCompletions++
	}
	if wd := ev.OccurredAt.In(l.loc).Weekday(); wd == time.Saturday || wd == time.Sunday {
		next.WeekendCompletions++
	}

	newIDs := CheckAchievements(unlockedSet(next.Achievements), l.snapshotOf(next))
	for _, id := range newIDs {
		next.Achievements = append(next.Achievements, id)
		if def := CatalogByID(id); def != nil {
			next.XP += def.XPReward
			next.Gems += def.GemsReward
			next.TotalGemsEarned += def.GemsReward
		}
		metrics.AchievementsUnlocked.Inc()
	}
	// Achievement XP can itself push a level boundary.
	next.Level = LevelForXP(next.XP)
	next.UpdatedAt = ev.OccurredAt

	return &CreditResult{
		Reward:          reward,
		Streak:          next.CurrentStreak,
		StreakBroken:    streak.Broken,
		FreezeUsed:      streak.FreezeUsed,
		LeveledUp:       next.Level > oldLevel,
		Level:           next.Level,
		NewAchievements: newIDs,
	}
}

// AwardChallengeReward credits a completed daily challenge through the
// same atomic path as workout completions. key must uniquely identify
// the challenge instance so the credit lands at most once.
func (l *Ledger) AwardChallengeReward(ctx context.Context, userID uuid.UUID, key string, xp, gems int64, at time.Time) (*CreditResult, error) {
	for attempt := 1; attempt <= maxCreditAttempts; attempt++ {
		st, err := l.store.GetState(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("read state: %w", err)
		}
		if st == nil {
			fresh := domain.NewGamificationState(userID, l.freezeAllowance)
			if err := l.store.EnsureState(ctx, fresh); err != nil {
				return nil, fmt.Errorf("create state: %w", err)
			}
			st, err = l.store.GetState(ctx, userID)
			if err != nil || st == nil {
				return nil, fmt.Errorf("reload created state: %w", err)
			}
		}

		next := *st
		oldLevel := next.Level
		next.XP += xp
		next.Gems += gems
		next.TotalGemsEarned += gems
		next.ChallengesCompleted++
		next.Level = LevelForXP(next.XP)

		newIDs := CheckAchievements(unlockedSet(next.Achievements), l.snapshotOf(&next))
		for _, id := range newIDs {
			next.Achievements = append(next.Achievements, id)
			if def := CatalogByID(id); def != nil {
				next.XP += def.XPReward
				next.Gems += def.GemsReward
				next.TotalGemsEarned += def.GemsReward
			}
			metrics.AchievementsUnlocked.Inc()
		}
		next.Level = LevelForXP(next.XP)
		next.UpdatedAt = at

		applied, duplicate, err := l.store.ApplyCredit(ctx, key, &next, st.Version)
		if err != nil {
			return nil, fmt.Errorf("apply challenge reward: %w", err)
		}
		if duplicate {
			metrics.CreditsDuplicate.Inc()
			return &CreditResult{AlreadyProcessed: true, Level: st.Level, Streak: st.CurrentStreak, State: st}, nil
		}
		if applied {
			metrics.CreditsApplied.Inc()
			next.Version = st.Version + 1
			return &CreditResult{
				Reward:          domain.RewardResult{Total: xp},
				Streak:          next.CurrentStreak,
				LeveledUp:       next.Level > oldLevel,
				Level:           next.Level,
				NewAchievements: newIDs,
				State:           &next,
			}, nil
		}

		metrics.CreditConflicts.Inc()
		l.log.Warn("challenge reward conflict, retrying",
			"event_id", key, "user_id", userID.String(), "attempt", attempt)
	}

	metrics.CreditRetriesExhausted.Inc()
	l.log.Error("challenge reward retries exhausted",
		"event_id", key, "user_id", userID.String(), "attempts", maxCreditAttempts)
	return nil, fmt.Errorf("award challenge %s: %w", key, domain.ErrRetryExhausted)
}

// SyncAdherenceStats folds adherence-derived perfect-day counters into
// the account and unlocks any achievements they satisfy. The counters
// are monotonic: a sync can only raise them. key deduplicates repeated
// syncs, so at most one credit lands per key.
func (l *Ledger) SyncAdherenceStats(ctx context.Context, userID uuid.UUID, key string, perfectDays, perfectWeeks int, at time.Time) error {
	for attempt := 1; attempt <= maxCreditAttempts; attempt++ {
		st, err := l.store.GetState(ctx, userID)
		if err != nil {
			return fmt.Errorf("read state: %w", err)
		}
		if st == nil {
			if perfectDays == 0 && perfectWeeks == 0 {
				return nil
			}
			fresh := domain.NewGamificationState(userID, l.freezeAllowance)
			if err := l.store.EnsureState(ctx, fresh); err != nil {
				return fmt.Errorf("create state: %w", err)
			}
			st, err = l.store.GetState(ctx, userID)
			if err != nil || st == nil {
				return fmt.Errorf("reload created state: %w", err)
			}
		}

		next := *st
		if perfectDays > next.PerfectDays {
			next.PerfectDays = perfectDays
		}
		if perfectWeeks > next.PerfectWeeks {
			next.PerfectWeeks = perfectWeeks
		}

		newIDs := CheckAchievements(unlockedSet(next.Achievements), l.snapshotOf(&next))
		if next.PerfectDays == st.PerfectDays && next.PerfectWeeks == st.PerfectWeeks && len(newIDs) == 0 {
			return nil
		}
		for _, id := range newIDs {
			next.Achievements = append(next.Achievements, id)
			if def := CatalogByID(id); def != nil {
				next.XP += def.XPReward
				next.Gems += def.GemsReward
				next.TotalGemsEarned += def.GemsReward
			}
			metrics.AchievementsUnlocked.Inc()
		}
		next.Level = LevelForXP(next.XP)
		next.UpdatedAt = at

		applied, duplicate, err := l.store.ApplyCredit(ctx, key, &next, st.Version)
		if err != nil {
			return fmt.Errorf("apply adherence sync: %w", err)
		}
		if duplicate {
			metrics.CreditsDuplicate.Inc()
			return nil
		}
		if applied {
			metrics.CreditsApplied.Inc()
			return nil
		}

		metrics.CreditConflicts.Inc()
		l.log.Warn("adherence sync conflict, retrying",
			"event_id", key, "user_id", userID.String(), "attempt", attempt)
	}

	metrics.CreditRetriesExhausted.Inc()
	l.log.Error("adherence sync retries exhausted",
		"event_id", key, "user_id", userID.String(), "attempts", maxCreditAttempts)
	return fmt.Errorf("sync adherence %s: %w", key, domain.ErrRetryExhausted)
}

// snapshotOf projects the post-update state into the achievement
// predicate snapshot. Adherence-derived counters (perfect days/weeks)
// arrive through SyncAdherenceStats and are read from the state like
// every other field.
func (l *Ledger) snapshotOf(st *domain.GamificationState) domain.StatsSnapshot {
	return domain.StatsSnapshot{
		TotalCompletions:     st.TotalCompletions,
		CurrentStreak:        st.CurrentStreak,
		LongestStreak:        st.LongestStreak,
		TotalPersonalRecords: st.TotalPersonalRecords,
		Level:                st.Level,
		TotalXP:              st.XP,
		PRsToday:             st.PRsToday,
		PRsThisWeek:          st.PRsThisWeek,
		ChallengesCompleted:  st.ChallengesCompleted,
		PerfectDays:          st.PerfectDays,
		PerfectWeeks:         st.PerfectWeeks,
		MorningCompletions:   st.MorningCompletions,
		AfternoonCompletions: st.AfternoonCompletions,
		EveningCompletions:   st.EveningCompletions,
		NightCompletions:     st.NightCompletions,
		WeekendCompletions:   st.WeekendCompletions,
		Comebacks:            st.Comebacks,
		TotalGems:            st.TotalGemsEarned,
	}
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	return dayNumber(a, loc) == dayNumber(b, loc)
}

func sameMonth(a, b time.Time, loc *time.Location) bool {
	ay, am, _ := a.In(loc).Date()
	by, bm, _ := b.In(loc).Date()
	return ay == by && am == bm
}

func sameISOWeek(a, b time.Time, loc *time.Location) bool {
	ay, aw := a.In(loc).ISOWeek()
	by, bw := b.In(loc).ISOWeek()
	return ay == by && aw == bw
}

func unlockedSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
