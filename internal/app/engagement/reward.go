package engagement

import "github.com/Poolchaos/personalfit/internal/domain"

// RewardConfig holds the XP reward constants. They come from the TOML
// config, never hardcoded at the call site.
type RewardConfig struct {
	BaseCompletion int64
	FirstWorkout   int64
	StreakPerDay   int64
	PersonalRecord int64
}

// DefaultRewardConfig returns the stock reward constants.
func DefaultRewardConfig() RewardConfig {
	return RewardConfig{
		BaseCompletion: 100,
		FirstWorkout:   200,
		StreakPerDay:   25,
		PersonalRecord: 50,
	}
}

// RewardContext describes the completion being rewarded.
type RewardContext struct {
	IsFirstCompletion bool
	CurrentStreak     int
	HadPersonalRecord bool
}

// CalculateWorkoutXP computes the itemized XP award for one completion.
// The streak bonus is linear and unbounded: a 100-day streak pays 100
// times the per-day constant. The breakdown order is stable: base,
// first workout, streak, personal record.
func CalculateWorkoutXP(rc RewardContext, cfg RewardConfig) domain.RewardResult {
	result := domain.RewardResult{
		Breakdown: []domain.RewardLine{
			{Source: domain.RewardBase, Amount: cfg.BaseCompletion},
		},
	}

	if rc.IsFirstCompletion {
		result.Breakdown = append(result.Breakdown, domain.RewardLine{
			Source: domain.RewardFirstWorkout, Amount: cfg.FirstWorkout,
		})
	}
	if rc.CurrentStreak > 0 {
		result.Breakdown = append(result.Breakdown, domain.RewardLine{
			Source: domain.RewardStreakBonus, Amount: cfg.StreakPerDay * int64(rc.CurrentStreak),
		})
	}
	if rc.HadPersonalRecord {
		result.Breakdown = append(result.Breakdown, domain.RewardLine{
			Source: domain.RewardPersonalRecord, Amount: cfg.PersonalRecord,
		})
	}

	for _, line := range result.Breakdown {
		result.Total += line.Amount
	}
	return result
}
