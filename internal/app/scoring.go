package app

import (
	"math"

	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

const (
	maxQuestionPoints = 1000
	minSpeedRatio     = 0.5
	streakBonusStep   = 100
	streakBonusCap    = 500
)

// SpeedPoints converts answer latency into points, Kahoot-style: 1000 for an
// instantaneous answer, scaling down linearly, floored at 500. The floor also
// absorbs negative ratios, so a correct answer submitted after the time limit
// still earns 500.
func SpeedPoints(timeTakenMs, timeLimitSeconds int) int {
	ratio := 1 - float64(timeTakenMs)/(float64(timeLimitSeconds)*1000)
	return int(math.Round(maxQuestionPoints * math.Max(minSpeedRatio, ratio)))
}

// StreakBonus awards min(streak*100, 500) starting from the second
// consecutive correct answer.
func StreakBonus(streak int) int {
	if streak < 2 {
		return 0
	}
	bonus := streak * streakBonusStep
	if bonus > streakBonusCap {
		return streakBonusCap
	}
	return bonus
}

// ApplyAnswer mutates the player's score, streak and counters for one
// submitted answer and returns the points and streak bonus earned. An
// incorrect answer resets the streak and increments total_answered only.
func ApplyAnswer(p *domain.Player, correct bool, timeTakenMs, timeLimitSeconds int) (points, bonus int) {
	p.TotalAnswered++
	if !correct {
		p.Streak = 0
		return 0, 0
	}

	points = SpeedPoints(timeTakenMs, timeLimitSeconds)
	p.Streak++
	bonus = StreakBonus(p.Streak)
	p.Score += points + bonus
	if p.Streak > p.BestStreak {
		p.BestStreak = p.Streak
	}
	p.CorrectCount++
	return points, bonus
}
