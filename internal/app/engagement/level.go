package engagement

import "math"

// MaxLevel is the level cap. XP beyond the level-20 threshold keeps
// accumulating but does not raise the level further.
const MaxLevel = 20

// levelThresholds[i] is the cumulative XP required to reach level i+1.
// Level 1 costs nothing; each step up costs 250 XP more than the last
// (500, 750, 1000, ...). The table is the contract, not the formula:
// clients display these exact numbers.
var levelThresholds = [MaxLevel]int64{
	0,     // L1
	500,   // L2
	1250,  // L3
	2250,  // L4
	3500,  // L5
	5000,  // L6
	6750,  // L7
	8750,  // L8
	11000, // L9
	13500, // L10
	16250, // L11
	19250, // L12
	22500, // L13
	26000, // L14
	29750, // L15
	33750, // L16
	38000, // L17
	42500, // L18
	47250, // L19
	52250, // L20
}

// XPForLevel returns the cumulative XP required to reach a level.
// Levels below 1 cost 0; levels above the cap cost the L20 threshold.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return levelThresholds[level-1]
}

// LevelForXP returns the highest level whose threshold is at most xp,
// capped at MaxLevel. Negative XP is clamped to 0.
func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	level := 1
	for level < MaxLevel && xp >= levelThresholds[level] {
		level++
	}
	return level
}

// XPForNextLevel returns the threshold of level+1, or the L20 threshold
// when already at the cap.
func XPForNextLevel(level int) int64 {
	if level >= MaxLevel {
		return levelThresholds[MaxLevel-1]
	}
	return XPForLevel(level + 1)
}

// LevelProgressPct returns progress toward the next level as a rounded
// integer percentage. At the cap it is always 100.
func LevelProgressPct(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 100
	}
	floor := XPForLevel(level)
	ceil := XPForLevel(level + 1)
	span := ceil - floor
	if span <= 0 {
		return 100
	}
	return int(math.Round(float64(xp-floor) / float64(span) * 100.0))
}
