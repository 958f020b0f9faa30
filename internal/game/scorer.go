package game

import "math"

// ScoreResult is the pure output of Score: the points to award, the
// participant's streak and multiplier after this question, and the
// multiplier that was in effect when the question was scored (reported
// back so clients can render "×2" against the points that used it).
type ScoreResult struct {
	Points         int
	NewStreak      int
	NewMultiplier  float64
	AppliedMultiplier float64
}

// streakMultiplier implements spec.md §4.4's streak_mul step function.
func streakMultiplier(newStreak int) float64 {
	switch {
	case newStreak >= 5:
		return 2.0
	case newStreak >= 3:
		return 1.5
	default:
		return 1.0
	}
}

// Score is the pure function C5 of spec.md §4.4: given correctness, a
// latency fraction in [0,1], the player's streak and multiplier going
// into the question, and whether the question is a bonus round, it
// returns the points to award and the participant's new streak and
// multiplier. It touches no room state, clock, or I/O.
func Score(correct bool, latencyFraction float64, oldStreak int, playerMultiplier float64, bonus bool) ScoreResult {
	if latencyFraction < 0 {
		latencyFraction = 0
	}
	if latencyFraction > 1 {
		latencyFraction = 1
	}

	if !correct {
		return ScoreResult{
			Points:            0,
			NewStreak:         0,
			NewMultiplier:     1.0,
			AppliedMultiplier: playerMultiplier,
		}
	}

	newStreak := oldStreak + 1
	base := roundHalfAwayFromZero(1000 * (1 - 0.5*latencyFraction))
	bonusMul := 1.0
	if bonus {
		bonusMul = 2.0
	}
	points := roundHalfAwayFromZero(float64(base) * playerMultiplier * streakMultiplier(newStreak) * bonusMul)

	return ScoreResult{
		Points:            points,
		NewStreak:         newStreak,
		NewMultiplier:     1.0,
		AppliedMultiplier: playerMultiplier,
	}
}

// LatencyFraction computes the clamped (now-start)/limit ratio used as
// the latency term in Score. A timeout (no answer) never calls this —
// per spec.md §4.3 a timeout counts as no answer, not latency=1.
func LatencyFraction(elapsed, limit float64) float64 {
	if limit <= 0 {
		return 1
	}
	f := elapsed / limit
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return -int(math.Floor(-v + 0.5))
}
