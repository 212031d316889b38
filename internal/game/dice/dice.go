// Package dice provides the core randomness abstraction and roll-result types
// for the combat resolution engine.
package dice

import "fmt"

// RollResult holds the full audit trail for one pool of dice rolled against a
// success threshold.
//
// Invariant: every entry of Dice is in [0, Sides).
// Postcondition: Successes() + Failures() == len(Dice).
type RollResult struct {
	Label     string // what the pool was rolled for, e.g. "to hit"
	Sides     int    // faces per die
	Dice      []int  // individual zero-based die results
	Threshold int    // a die succeeds when its value is < Threshold
}

// Successes returns the number of dice whose value is below Threshold.
func (r RollResult) Successes() int {
	n := 0
	for _, d := range r.Dice {
		if d < r.Threshold {
			n++
		}
	}
	return n
}

// Failures returns the number of dice whose value is at or above Threshold.
func (r RollResult) Failures() int {
	return len(r.Dice) - r.Successes()
}

// String returns a human-readable audit string in the format:
//
//	"to hit 4d10<5 → [1 7 3 9] = 2"
//
// Precondition: r.Label is non-empty.
func (r RollResult) String() string {
	if r.Label == "" {
		panic("dice: RollResult.String() precondition violated: Label must be non-empty")
	}
	return fmt.Sprintf("%s %dd%d<%d → %v = %d", r.Label, len(r.Dice), r.Sides, r.Threshold, r.Dice, r.Successes())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
