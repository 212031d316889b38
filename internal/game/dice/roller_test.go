package dice_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/momserver/internal/game/dice"
)

// sequenceSrc replays a fixed list of values, wrapping each into [0, n).
type sequenceSrc struct {
	values []int
	calls  int
}

func (s *sequenceSrc) Intn(n int) int {
	v := s.values[s.calls%len(s.values)] % n
	s.calls++
	return v
}

func TestRoller_Pool_CountsSuccessesAndLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	src := &sequenceSrc{values: []int{0, 4, 5, 9}}
	roller := dice.NewLoggedRoller(src, zap.New(core))

	r, err := roller.Pool("to hit", 4, 10, 5)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 4, 5, 9}, r.Dice)
	assert.Equal(t, 2, r.Successes())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "dice pool", entry.Message)
	assert.Equal(t, int64(2), entry.ContextMap()["successes"])
}

func TestRoller_Pool_EmptyConsumesNothing(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	src := &sequenceSrc{values: []int{3}}
	roller := dice.NewLoggedRoller(src, zap.New(core))

	r, err := roller.Pool("to block", 0, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, r.Dice)
	assert.Equal(t, 0, src.calls)
	assert.Equal(t, 0, logs.Len())

	r, err = roller.Pool("to block", -2, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, r.Dice)
	assert.Equal(t, 0, src.calls)
}

func TestRoller_Pool_RefusesOversizedPool(t *testing.T) {
	src := &sequenceSrc{values: []int{1}}
	roller := dice.NewLoggedRoller(src, zap.NewNop())

	_, err := roller.Pool("to hit", dice.MaxPool+1, 10, 5)
	assert.True(t, errors.Is(err, dice.ErrPoolTooLarge))
	assert.Equal(t, 0, src.calls)

	_, err = roller.Pool("to hit", 2_000_000_000, 10, 5)
	assert.True(t, errors.Is(err, dice.ErrPoolTooLarge))

	r, err := roller.Pool("to hit", dice.MaxPool, 10, 5)
	require.NoError(t, err)
	assert.Len(t, r.Dice, dice.MaxPool)
}
