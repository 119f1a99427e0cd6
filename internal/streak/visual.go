package streak

import "github.com/stepworks/streakd/internal/models"

var stageThresholds = []int{1, 7, 30, 90, 180, 365}

type unlock struct {
	streak  int
	element string
}

var unlockBreakpoints = []unlock{
	{3, "seedling"},
	{7, "sprout"},
	{14, "first_bloom"},
	{30, "sapling"},
	{60, "blossom_trail"},
	{90, "young_tree"},
	{180, "grove"},
	{365, "ancient_oak"},
}

// MapVisualProgress derives the garden stage, path position and unlocked
// elements for a streak length. Nothing carries over between calls.
func MapVisualProgress(current int) models.VisualProgress {
	idx := 0
	for i, threshold := range stageThresholds {
		if current >= threshold {
			idx = i
		}
	}

	position := 100
	if idx < len(stageThresholds)-1 {
		lower, upper := stageThresholds[idx], stageThresholds[idx+1]
		position = clamp((current-lower)*100/(upper-lower), 0, 100)
	}

	unlocked := []string{}
	for _, b := range unlockBreakpoints {
		if current >= b.streak {
			unlocked = append(unlocked, b.element)
		}
	}

	return models.VisualProgress{
		Stage:            idx + 1,
		PathPosition:     position,
		UnlockedElements: unlocked,
	}
}

// StageCount is the number of garden stages.
func StageCount() int {
	return len(stageThresholds)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
