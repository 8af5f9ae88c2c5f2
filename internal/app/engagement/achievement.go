package engagement

import "github.com/Poolchaos/personalfit/internal/domain"

// CheckAchievements evaluates the catalog against a stats snapshot and
// returns the IDs of newly satisfied achievements, in catalog order.
// Already-unlocked IDs are skipped; a panicking predicate counts as not
// satisfied. Idempotent: the caller merges results into the persisted
// set via union, never removal.
func CheckAchievements(unlocked map[string]bool, s domain.StatsSnapshot) []string {
	var newly []string
	for _, def := range Catalog() {
		if unlocked[def.ID] {
			continue
		}
		if def.Predicate == nil {
			continue
		}
		if safeEval(def.Predicate, s) {
			newly = append(newly, def.ID)
		}
	}
	return newly
}

// safeEval runs a predicate, treating a panic as false. Predicates are
// trusted catalog code, but a bad one must not sink the whole credit.
func safeEval(p func(domain.StatsSnapshot) bool, s domain.StatsSnapshot) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return p(s)
}

// CatalogByID returns the definition for an achievement ID, or nil.
func CatalogByID(id string) *domain.AchievementDef {
	for i, def := range catalog {
		if def.ID == id {
			return &catalog[i]
		}
	}
	return nil
}

// Catalog returns the full static achievement catalog.
func Catalog() []domain.AchievementDef {
	return catalog
}

// ─── Achievement Catalog ────────────────────────────────────────────────────
// 40 achievements across 5 categories. Each has a stat-based predicate.

var catalog = []domain.AchievementDef{
	// ── Getting Started (8) ────────────────────────────────────────
	{
		ID: "first_workout", Name: "First Step", Category: domain.CatGettingStarted,
		Description: "Complete your first workout", XPReward: 50, GemsReward: 10,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalCompletions >= 1 },
	},
	{
		ID: "workouts_5", Name: "Warming Up", Category: domain.CatGettingStarted,
		Description: "Complete 5 workouts", XPReward: 75, GemsReward: 15,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalCompletions >= 5 },
	},
	{
		ID: "weekend_first", Name: "Saturday Starter", Category: domain.CatGettingStarted,
		Description: "Complete a weekend workout", XPReward: 30, GemsReward: 5,
		Predicate: func(s domain.StatsSnapshot) bool { return s.WeekendCompletions >= 1 },
	},
	{
		ID: "first_challenge", Name: "Challenger", Category: domain.CatGettingStarted,
		Description: "Complete a daily challenge", XPReward: 50, GemsReward: 10,
		Predicate: func(s domain.StatsSnapshot) bool { return s.ChallengesCompleted >= 1 },
	},
	{
		ID: "first_pr", Name: "Record Breaker", Category: domain.CatGettingStarted,
		Description: "Set your first personal record", XPReward: 75, GemsReward: 15,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalPersonalRecords >= 1 },
	},
	{
		ID: "level_2", Name: "Moving Up", Category: domain.CatGettingStarted,
		Description: "Reach level 2", XPReward: 25, GemsReward: 5,
		Predicate: func(s domain.StatsSnapshot) bool { return s.Level >= 2 },
	},
	{
		ID: "early_bird", Name: "Early Bird", Category: domain.CatGettingStarted,
		Description: "Complete a workout before 8am", XPReward: 50, GemsReward: 10,
		Predicate: func(s domain.StatsSnapshot) bool { return s.MorningCompletions >= 1 },
	},
	{
		ID: "night_owl", Name: "Night Owl", Category: domain.CatGettingStarted,
		Description: "Complete a workout after 10pm", XPReward: 50, GemsReward: 10,
		Predicate: func(s domain.StatsSnapshot) bool { return s.NightCompletions >= 1 },
	},

	// ── Consistency (8) ────────────────────────────────────────────
	{
		ID: "streak_3", Name: "Habit Forming", Category: domain.CatConsistency,
		Description: "Hold a 3-day streak", XPReward: 75, GemsReward: 15,
		Predicate: func(s domain.StatsSnapshot) bool { return s.CurrentStreak >= 3 },
	},
	{
		ID: "streak_7", Name: "Week Warrior", Category: domain.CatConsistency,
		Description: "Hold a 7-day streak", XPReward: 200, GemsReward: 40,
		Predicate: func(s domain.StatsSnapshot) bool { return s.CurrentStreak >= 7 },
	},
	{
		ID: "streak_30", Name: "Monthly Machine", Category: domain.CatConsistency,
		Description: "Hold a 30-day streak", XPReward: 1000, GemsReward: 150,
		Predicate: func(s domain.StatsSnapshot) bool { return s.CurrentStreak >= 30 },
	},
	{
		ID: "streak_100", Name: "Centurion", Category: domain.CatConsistency,
		Description: "Hold a 100-day streak", XPReward: 5000, GemsReward: 500,
		Predicate: func(s domain.StatsSnapshot) bool { return s.CurrentStreak >= 100 },
	},
	{
		ID: "streak_longest_14", Name: "Fortnight Force", Category: domain.CatConsistency,
		Description: "Reach a longest streak of 14 days", XPReward: 300, GemsReward: 60,
		Predicate: func(s domain.StatsSnapshot) bool { return s.LongestStreak >= 14 },
	},
	{
		ID: "perfect_day", Name: "Perfect Day", Category: domain.CatConsistency,
		Description: "Hit every scheduled dose in one day", XPReward: 100, GemsReward: 20,
		Predicate: func(s domain.StatsSnapshot) bool { return s.PerfectDays >= 1 },
	},
	{
		ID: "perfect_week", Name: "Flawless Week", Category: domain.CatConsistency,
		Description: "String seven perfect days together", XPReward: 500, GemsReward: 100,
		Predicate: func(s domain.StatsSnapshot) bool { return s.PerfectWeeks >= 1 },
	},
	{
		ID: "comeback", Name: "Comeback Kid", Category: domain.CatConsistency,
		Description: "Return after a broken streak", XPReward: 75, GemsReward: 15,
		Predicate: func(s domain.StatsSnapshot) bool { return s.Comebacks >= 1 },
	},

	// ── Milestones (8) ─────────────────────────────────────────────
	{
		ID: "workouts_25", Name: "Quarter Century", Category: domain.CatMilestones,
		Description: "Complete 25 workouts", XPReward: 250, GemsReward: 50,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalCompletions >= 25 },
	},
	{
		ID: "workouts_100", Name: "Century Club", Category: domain.CatMilestones,
		Description: "Complete 100 workouts", XPReward: 1000, GemsReward: 200,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalCompletions >= 100 },
	},
	{
		ID: "workouts_365", Name: "Year of Iron", Category: domain.CatMilestones,
		Description: "Complete 365 workouts", XPReward: 5000, GemsReward: 750,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalCompletions >= 365 },
	},
	{
		ID: "level_5", Name: "Rising Star", Category: domain.CatMilestones,
		Description: "Reach level 5", XPReward: 200, GemsReward: 40,
		Predicate: func(s domain.StatsSnapshot) bool { return s.Level >= 5 },
	},
	{
		ID: "level_10", Name: "Double Digits", Category: domain.CatMilestones,
		Description: "Reach level 10", XPReward: 500, GemsReward: 100,
		Predicate: func(s domain.StatsSnapshot) bool { return s.Level >= 10 },
	},
	{
		ID: "level_20", Name: "Summit", Category: domain.CatMilestones,
		Description: "Reach the level cap", XPReward: 5000, GemsReward: 1000,
		Predicate: func(s domain.StatsSnapshot) bool { return s.Level >= MaxLevel },
	},
	{
		ID: "xp_10000", Name: "XP Hoarder", Category: domain.CatMilestones,
		Description: "Accumulate 10,000 XP", XPReward: 300, GemsReward: 60,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalXP >= 10000 },
	},
	{
		ID: "gems_1000", Name: "Gem Collector", Category: domain.CatMilestones,
		Description: "Earn 1,000 gems all-time", XPReward: 300, GemsReward: 0,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalGems >= 1000 },
	},

	// ── Strength (8) ───────────────────────────────────────────────
	{
		ID: "prs_5", Name: "Stronger", Category: domain.CatStrength,
		Description: "Set 5 personal records", XPReward: 200, GemsReward: 40,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalPersonalRecords >= 5 },
	},
	{
		ID: "prs_25", Name: "Powerhouse", Category: domain.CatStrength,
		Description: "Set 25 personal records", XPReward: 750, GemsReward: 150,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalPersonalRecords >= 25 },
	},
	{
		ID: "prs_100", Name: "Limit Breaker", Category: domain.CatStrength,
		Description: "Set 100 personal records", XPReward: 2500, GemsReward: 500,
		Predicate: func(s domain.StatsSnapshot) bool { return s.TotalPersonalRecords >= 100 },
	},
	{
		ID: "pr_week_3", Name: "Hot Streak", Category: domain.CatStrength,
		Description: "Set 3 personal records in one week", XPReward: 300, GemsReward: 60,
		Predicate: func(s domain.StatsSnapshot) bool { return s.PRsThisWeek >= 3 },
	},
	{
		ID: "pr_day_2", Name: "Double Trouble", Category: domain.CatStrength,
		Description: "Set 2 personal records in one day", XPReward: 200, GemsReward: 40,
		Predicate: func(s domain.StatsSnapshot) bool { return s.PRsToday >= 2 },
	},
	{
		ID: "challenges_10", Name: "Task Force", Category: domain.CatStrength,
		Description: "Complete 10 daily challenges", XPReward: 250, GemsReward: 50,
		Predicate: func(s domain.StatsSnapshot) bool { return s.ChallengesCompleted >= 10 },
	},
	{
		ID: "challenges_50", Name: "Challenge Champion", Category: domain.CatStrength,
		Description: "Complete 50 daily challenges", XPReward: 1000, GemsReward: 200,
		Predicate: func(s domain.StatsSnapshot) bool { return s.ChallengesCompleted >= 50 },
	},
	{
		ID: "challenges_200", Name: "Relentless", Category: domain.CatStrength,
		Description: "Complete 200 daily challenges", XPReward: 3000, GemsReward: 600,
		Predicate: func(s domain.StatsSnapshot) bool { return s.ChallengesCompleted >= 200 },
	},

	// ── Dedication (8) ─────────────────────────────────────────────
	{
		ID: "mornings_10", Name: "Dawn Patrol", Category: domain.CatDedication,
		Description: "Complete 10 morning workouts", XPReward: 200, GemsReward: 40,
		Predicate: func(s domain.StatsSnapshot) bool { return s.MorningCompletions >= 10 },
	},
	{
		ID: "evenings_10", Name: "Twilight Trainer", Category: domain.CatDedication,
		Description: "Complete 10 evening workouts", XPReward: 200, GemsReward: 40,
		Predicate: func(s domain.StatsSnapshot) bool { return s.EveningCompletions >= 10 },
	},
	{
		ID: "afternoons_10", Name: "Midday Mover", Category: domain.CatDedication,
		Description: "Complete 10 afternoon workouts", XPReward: 200, GemsReward: 40,
		Predicate: func(s domain.StatsSnapshot) bool { return s.AfternoonCompletions >= 10 },
	},
	{
		ID: "weekends_10", Name: "Weekend Warrior", Category: domain.CatDedication,
		Description: "Complete 10 weekend workouts", XPReward: 250, GemsReward: 50,
		Predicate: func(s domain.StatsSnapshot) bool { return s.WeekendCompletions >= 10 },
	},
	{
		ID: "weekends_50", Name: "No Days Off", Category: domain.CatDedication,
		Description: "Complete 50 weekend workouts", XPReward: 1000, GemsReward: 200,
		Predicate: func(s domain.StatsSnapshot) bool { return s.WeekendCompletions >= 50 },
	},
	{
		ID: "comebacks_3", Name: "Unbreakable", Category: domain.CatDedication,
		Description: "Come back from 3 broken streaks", XPReward: 300, GemsReward: 60,
		Predicate: func(s domain.StatsSnapshot) bool { return s.Comebacks >= 3 },
	},
	{
		ID: "perfect_days_30", Name: "Clockwork", Category: domain.CatDedication,
		Description: "Record 30 perfect adherence days", XPReward: 1500, GemsReward: 300,
		Predicate: func(s domain.StatsSnapshot) bool { return s.PerfectDays >= 30 },
	},
	{
		ID: "nights_10", Name: "Midnight Shift", Category: domain.CatDedication,
		Description: "Complete 10 late-night workouts", XPReward: 200, GemsReward: 40,
		Predicate: func(s domain.StatsSnapshot) bool { return s.NightCompletions >= 10 },
	},
}
