package streak

import (
	"time"

	"github.com/stepworks/streakd/internal/models"
)

var (
	StreakThresholds = []int{3, 7, 14, 30, 60, 90, 180, 365}
	EntryThresholds  = []int{10, 25, 50, 100, 250, 500, 1000}
)

type milestoneCopy struct {
	title       string
	description string
}

var milestoneText = map[models.MilestoneType]map[int]milestoneCopy{
	models.MilestoneStreak: {
		3:   {"Three Days Strong", "You journaled three days in a row."},
		7:   {"One Week", "A full week of daily reflection."},
		14:  {"Two Weeks", "Fourteen days of showing up for yourself."},
		30:  {"One Month", "Thirty consecutive days of journaling."},
		60:  {"Two Months", "Sixty days. This is becoming who you are."},
		90:  {"Ninety Days", "Ninety days of steady practice."},
		180: {"Half a Year", "Six months of daily reflection."},
		365: {"One Year", "A full year, one day at a time."},
	},
	models.MilestoneEntries: {
		10:   {"First Ten", "Ten journal entries written."},
		25:   {"Twenty-Five Entries", "Twenty-five entries and counting."},
		50:   {"Fifty Entries", "Fifty honest looks at your day."},
		100:  {"Century", "One hundred journal entries."},
		250:  {"Two Fifty", "Two hundred fifty entries written."},
		500:  {"Five Hundred", "Five hundred entries of reflection."},
		1000: {"One Thousand", "A thousand entries. Remarkable commitment."},
	},
}

// EvaluateMilestones returns milestones newly reached by current and total that
// are not yet recorded on rec. The record itself is not modified.
func EvaluateMilestones(rec models.StreakRecord, current, total int, now time.Time) []models.Milestone {
	var out []models.Milestone
	out = appendReached(out, rec, models.MilestoneStreak, StreakThresholds, current, now)
	out = appendReached(out, rec, models.MilestoneEntries, EntryThresholds, total, now)
	return out
}

func appendReached(out []models.Milestone, rec models.StreakRecord, t models.MilestoneType, ladder []int, value int, now time.Time) []models.Milestone {
	for _, threshold := range ladder {
		if value < threshold {
			break
		}
		if rec.HasMilestone(t, threshold) {
			continue
		}
		text := milestoneText[t][threshold]
		out = append(out, models.Milestone{
			Type:        t,
			Threshold:   threshold,
			AchievedAt:  now,
			Title:       text.title,
			Description: text.description,
		})
	}
	return out
}

// MarkMilestonesViewed flags every unviewed milestone as viewed and returns how
// many changed.
func MarkMilestonesViewed(rec *models.StreakRecord) int {
	if rec == nil {
		return 0
	}
	n := 0
	for i := range rec.Milestones {
		if !rec.Milestones[i].Viewed {
			rec.Milestones[i].Viewed = true
			n++
		}
	}
	return n
}
