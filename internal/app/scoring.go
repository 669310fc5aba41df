package app

import (
	"math"
	"time"

	"heritage-quiz-service/internal/domain"
)

// PerfectBonus is added when every question was answered correctly.
const PerfectBonus = 50

var baseXP = map[domain.Difficulty]int{
	domain.DifficultyEasy:   8,
	domain.DifficultyMedium: 12,
	domain.DifficultyHard:   18,
}

// BaseXP returns the experience awarded per correct answer.
func BaseXP(d domain.Difficulty) int {
	return baseXP[d]
}

// Percent is round(100 * correct / total), 0 for an empty quiz.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// ExperienceFor computes the XP for a graded quiz.
func ExperienceFor(d domain.Difficulty, correct, total int) int {
	xp := correct * BaseXP(d)
	if total > 0 && Percent(correct, total) == 100 {
		xp += PerfectBonus
	}
	return xp
}

// ComputeStreak decides how a completion at now changes the daily streak.
// Days are compared as calendar dates in loc.
func ComputeStreak(last *time.Time, now time.Time, loc *time.Location) domain.StreakUpdate {
	if last == nil {
		return domain.StreakUpdate{Action: domain.StreakReset, At: now}
	}
	today := calendarDay(now, loc)
	lastDay := calendarDay(*last, loc)
	if lastDay >= today {
		return domain.StreakUpdate{Action: domain.StreakKeep}
	}
	y, m, d := now.In(loc).Date()
	yesterday := calendarDay(time.Date(y, m, d-1, 12, 0, 0, 0, loc), loc)
	if lastDay == yesterday {
		return domain.StreakUpdate{Action: domain.StreakIncrement, At: now}
	}
	return domain.StreakUpdate{Action: domain.StreakReset, At: now}
}

// ApplyStreak returns the streak value after u.
func ApplyStreak(current int, u domain.StreakUpdate) int {
	switch u.Action {
	case domain.StreakIncrement:
		return current + 1
	case domain.StreakReset:
		return 1
	}
	return current
}

func calendarDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
