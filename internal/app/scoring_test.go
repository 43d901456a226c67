package app_test

import (
	"testing"

	"github.com/cupertitieus-ctrl/notesareboring/internal/app"
	"github.com/cupertitieus-ctrl/notesareboring/internal/domain"
)

func TestSpeedPointsBounds(t *testing.T) {
	cases := []struct {
		name        string
		timeTakenMs int
		limitSec    int
		want        int
	}{
		{"instant answer", 0, 20, 1000},
		{"quarter of the limit", 5000, 20, 750},
		{"half the limit", 10000, 20, 500},
		{"exactly at the limit", 20000, 20, 500},
		{"way past the limit", 60000, 20, 500},
		{"short limit instant", 0, 5, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := app.SpeedPoints(tc.timeTakenMs, tc.limitSec); got != tc.want {
				t.Fatalf("SpeedPoints(%d, %d) = %d, want %d", tc.timeTakenMs, tc.limitSec, got, tc.want)
			}
		})
	}
}

func TestSpeedPointsAlwaysWithinRange(t *testing.T) {
	for _, limit := range []int{5, 10, 20, 60} {
		for taken := 0; taken <= limit*1000*2; taken += 777 {
			got := app.SpeedPoints(taken, limit)
			if got < 500 || got > 1000 {
				t.Fatalf("SpeedPoints(%d, %d) = %d, outside [500, 1000]", taken, limit, got)
			}
		}
	}
}

func TestStreakBonus(t *testing.T) {
	cases := []struct {
		streak, want int
	}{
		{0, 0},
		{1, 0},
		{2, 200},
		{3, 300},
		{5, 500},
		{6, 500},
		{10, 500},
	}
	for _, tc := range cases {
		if got := app.StreakBonus(tc.streak); got != tc.want {
			t.Fatalf("StreakBonus(%d) = %d, want %d", tc.streak, got, tc.want)
		}
	}
}

func TestApplyAnswerCorrectWithStreak(t *testing.T) {
	// Answered at 5s of a 20s limit with a one-answer streak going:
	// 750 speed points plus the 200 bonus for reaching streak 2.
	p := domain.Player{Score: 600, Streak: 1, BestStreak: 1, CorrectCount: 1, TotalAnswered: 1}

	points, bonus := app.ApplyAnswer(&p, true, 5000, 20)

	if points != 750 || bonus != 200 {
		t.Fatalf("got points=%d bonus=%d, want 750/200", points, bonus)
	}
	if p.Score != 600+950 {
		t.Fatalf("score = %d, want %d", p.Score, 600+950)
	}
	if p.Streak != 2 || p.BestStreak != 2 {
		t.Fatalf("streak=%d best=%d, want 2/2", p.Streak, p.BestStreak)
	}
	if p.CorrectCount != 2 || p.TotalAnswered != 2 {
		t.Fatalf("correct=%d total=%d, want 2/2", p.CorrectCount, p.TotalAnswered)
	}
}

func TestApplyAnswerIncorrectResetsStreak(t *testing.T) {
	p := domain.Player{Score: 1200, Streak: 4, BestStreak: 4, CorrectCount: 4, TotalAnswered: 4}

	points, bonus := app.ApplyAnswer(&p, false, 3000, 20)

	if points != 0 || bonus != 0 {
		t.Fatalf("got points=%d bonus=%d, want 0/0", points, bonus)
	}
	if p.Score != 1200 {
		t.Fatalf("score changed on wrong answer: %d", p.Score)
	}
	if p.Streak != 0 {
		t.Fatalf("streak = %d, want 0", p.Streak)
	}
	if p.BestStreak != 4 {
		t.Fatalf("best streak = %d, want 4", p.BestStreak)
	}
	if p.CorrectCount != 4 {
		t.Fatalf("correct count changed on wrong answer: %d", p.CorrectCount)
	}
	if p.TotalAnswered != 5 {
		t.Fatalf("total answered = %d, want 5", p.TotalAnswered)
	}
}

func TestApplyAnswerBestStreakSticks(t *testing.T) {
	p := domain.Player{Streak: 0, BestStreak: 7}
	app.ApplyAnswer(&p, true, 0, 20)
	if p.Streak != 1 || p.BestStreak != 7 {
		t.Fatalf("streak=%d best=%d, want 1/7", p.Streak, p.BestStreak)
	}
}

func TestApplyAnswerLateCorrectStillScoresFloor(t *testing.T) {
	p := domain.Player{}
	points, bonus := app.ApplyAnswer(&p, true, 25000, 20)
	if points != 500 || bonus != 0 {
		t.Fatalf("late correct answer: points=%d bonus=%d, want 500/0", points, bonus)
	}
}
