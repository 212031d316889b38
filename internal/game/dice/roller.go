package dice

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// MaxPool is the largest number of dice a single Pool call rolls.
const MaxPool = 1000

// ErrPoolTooLarge is returned when a pool asks for more than MaxPool dice.
var ErrPoolTooLarge = errors.New("dice pool too large")

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with label, dice values, threshold, and successes.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Pool rolls count dice with the given number of sides and counts those below threshold.
// A count <= 0 rolls nothing and consumes no randomness.
//
// Precondition: sides > 0.
// Postcondition: len(result.Dice) == max(count, 0), or an error wrapping
// ErrPoolTooLarge when count > MaxPool and nothing is rolled.
func (r *Roller) Pool(label string, count, sides, threshold int) (RollResult, error) {
	if count > MaxPool {
		return RollResult{}, fmt.Errorf("%w: %s wants %d dice, limit is %d", ErrPoolTooLarge, label, count, MaxPool)
	}
	if count < 0 {
		count = 0
	}
	rolled := make([]int, count)
	for i := range rolled {
		rolled[i] = r.src.Intn(sides)
	}
	result := RollResult{
		Label:     label,
		Sides:     sides,
		Dice:      rolled,
		Threshold: threshold,
	}
	if count > 0 {
		r.logger.Debug("dice pool",
			zap.String("label", label),
			zap.Ints("dice", rolled),
			zap.Int("threshold", threshold),
			zap.Int("successes", result.Successes()),
		)
	}
	return result, nil
}
