// Package confidence models the 0-100 verdict confidence score shared by all
// field validators, with an ordinal level and a contributing-factor trace so
// consumers can threshold on score instead of trusting a bare boolean
package confidence

// Score is a clamped 0-100 confidence value
type Score int

// Clamp bounds s to the valid range
func Clamp(s int) Score {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return Score(s)
}

// Level is the ordinal bucket derived from a Score
type Level string

// Levels in ascending order of trust
const (
	LevelNone     Level = "none"
	LevelVeryLow  Level = "very_low"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very_high"
)

// bucket boundaries; inclusive lower edges
const (
	veryLowFloor  = 1
	lowFloor      = 25
	mediumFloor   = 45
	highFloor     = 65
	veryHighFloor = 85
)

// LevelOf maps a score to its ordinal level
func LevelOf(s Score) Level {
	switch {
	case s >= veryHighFloor:
		return LevelVeryHigh
	case s >= highFloor:
		return LevelHigh
	case s >= mediumFloor:
		return LevelMedium
	case s >= lowFloor:
		return LevelLow
	case s >= veryLowFloor:
		return LevelVeryLow
	default:
		return LevelNone
	}
}

// rank orders levels for AtLeast comparisons
func rank(l Level) int {
	switch l {
	case LevelVeryHigh:
		return 5
	case LevelHigh:
		return 4
	case LevelMedium:
		return 3
	case LevelLow:
		return 2
	case LevelVeryLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether l meets or exceeds min
func AtLeast(l, min Level) bool { return rank(l) >= rank(min) }

// Factor records one contribution to a score
// Points may be negative for penalties
type Factor struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Detail string `json:"detail,omitempty"`
}

// Tally accumulates factors into a final score
type Tally struct {
	factors []Factor
	total   int
}

// Add records a contribution and returns the tally for chaining
func (t *Tally) Add(name string, points int, detail string) *Tally {
	t.factors = append(t.factors, Factor{Name: name, Points: points, Detail: detail})
	t.total += points
	return t
}

// Score returns the clamped running total
func (t *Tally) Score() Score { return Clamp(t.total) }

// Level returns the level of the running total
func (t *Tally) Level() Level { return LevelOf(t.Score()) }

// Factors returns the recorded contributions in insertion order
func (t *Tally) Factors() []Factor { return t.factors }
