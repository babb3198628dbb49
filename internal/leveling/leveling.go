// Package leveling implements the XP-to-level curve used across the game
// layer. Levels follow a fixed power law: reaching level n (for n > 1)
// requires floor(n^1.5 * 100) cumulative XP, and level 1 starts at 0.
//
// The functions here are pure and allocation-free; every writer that touches
// a user's XP recomputes the level through LevelFromXP inside the same
// transaction so the denormalized (xp, level) pair can never drift apart.
package leveling

import "math"

// baseXP is the multiplier of the power-law curve (level^1.5 * baseXP).
const baseXP = 100

// XPForLevel returns the cumulative XP required to reach the given level.
// Level 1 (and anything below) costs 0 XP. The result is strictly increasing
// for level >= 1.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(math.Floor(math.Pow(float64(level), 1.5) * baseXP))
}

// LevelFromXP returns the largest level whose XP requirement does not exceed
// xp. Negative XP is treated as 0; the minimum level is always 1.
//
// The closed-form inverse ((xp/100)^(2/3)) is only an estimate because of the
// floor in XPForLevel, so the estimate is corrected by stepping until the
// round-trip property holds exactly:
//
//	XPForLevel(LevelFromXP(xp)) <= xp < XPForLevel(LevelFromXP(xp)+1)
func LevelFromXP(xp int) int {
	if xp < baseXP {
		return 1
	}
	level := int(math.Cbrt(float64(xp) / baseXP * float64(xp) / baseXP))
	if level < 1 {
		level = 1
	}
	for XPForLevel(level+1) <= xp {
		level++
	}
	for level > 1 && XPForLevel(level) > xp {
		level--
	}
	return level
}

// Progress describes where a cumulative XP total sits within its level band.
type Progress struct {
	Level    int     `json:"level"`
	FloorXP  int     `json:"floor_xp"`   // XP at which the current level begins
	CeilXP   int     `json:"ceil_xp"`    // XP at which the next level begins
	Fraction float64 `json:"fraction"`   // position inside the band, in [0,1)
	IntoXP   int     `json:"into_xp"`    // XP earned inside the current band
	NeededXP int     `json:"needed_xp"`  // band width (CeilXP - FloorXP)
}

// ProgressFor computes the level band and fractional progress for xp.
// The fraction is clamped to 0 when the band is empty.
func ProgressFor(xp int) Progress {
	if xp < 0 {
		xp = 0
	}
	level := LevelFromXP(xp)
	floor := XPForLevel(level)
	ceil := XPForLevel(level + 1)

	p := Progress{
		Level:    level,
		FloorXP:  floor,
		CeilXP:   ceil,
		IntoXP:   xp - floor,
		NeededXP: ceil - floor,
	}
	if p.NeededXP > 0 {
		p.Fraction = float64(p.IntoXP) / float64(p.NeededXP)
	}
	return p
}
