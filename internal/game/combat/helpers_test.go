package combat_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/momserver/internal/game/combat"
	"github.com/cory-johannsen/momserver/internal/game/dice"
	"github.com/cory-johannsen/momserver/internal/game/ruleset"
	"github.com/cory-johannsen/momserver/internal/game/unit"
)

const fixtureRules = `
magic_realms:
  - id: chaos
  - id: death
  - id: life
lifeform_categories:
  - id: normal
  - id: undead
  - id: fantastic
    enhances_damage_type: true
weapon_grades:
  - id: plain
  - id: magic
    enhances_damage_type: true
ranged_attack_types:
  - id: arrows
  - id: fire_bolt
    magic_realm: chaos
damage_types:
  - id: physical
    enhanced_version: physical_magic
    immunities:
      - unit_skill: weapon_immunity
        boosts_defence_to: 10
  - id: physical_magic
  - id: fire
    immunities:
      - unit_skill: fire_immunity
      - unit_skill: magic_immunity
        boosts_defence_to: 50
  - id: life_stealing
    immunities:
      - unit_skill: death_immunity
  - id: death
    immunities:
      - unit_skill: death_immunity
unit_skills:
  - id: hit_points
  - id: defence
  - id: resistance
  - id: plus_to_hit
  - id: plus_to_block
  - id: weapon_immunity
  - id: fire_immunity
  - id: magic_immunity
  - id: death_immunity
  - id: create_undead
  - id: righteousness
    immune_to:
      - realm: chaos
  - id: melee_attack
    damage_resolution: single_figure
    damage_type: physical
    combination: per_figure_combined
  - id: ranged_attack
    damage_resolution: single_figure
    damage_type: physical
    combination: per_figure_combined
    consumes_ammo: true
  - id: fire_breath
    damage_resolution: single_figure
    damage_type: fire
    combination: per_unit
    repetitions: 2
    magic_realm: chaos
  - id: life_steal
    damage_resolution: resist_or_take_damage
    damage_type: life_stealing
    combination: per_figure_separate
    magic_realm: death
  - id: broken_attack
    damage_type: physical
    combination: per_unit
  - id: shapeless_attack
    damage_resolution: single_figure
    damage_type: physical
spells:
  - id: fire_bolt
    magic_realm: chaos
    damage_resolution: single_figure
    damage_type: fire
    base_damage: 10
  - id: doom_bolt
    magic_realm: chaos
    damage_resolution: doom
    damage_type: fire
    base_damage: 10
    chance_to_hit: 10
  - id: holy_word
    magic_realm: life
    damage_resolution: each_figure_resist_or_die
    damage_type: death
    saving_throw_modifiers:
      - lifeform_category: undead
        stat: resistance
        modifier: 5
  - id: miscast
    magic_realm: death
    damage_resolution: unit_resist_or_die
    damage_type: death
    saving_throw_modifiers:
      - lifeform_category: undead
        stat: defence
        modifier: 2
`

func fixtureRegistry(t testing.TB) *ruleset.Registry {
	t.Helper()
	reg, err := ruleset.LoadBytes([]byte(fixtureRules))
	require.NoError(t, err)
	return reg
}

// newUnit returns a normal unit with zeroed combat stats plus extra skills.
func newUnit(id string, figures, hp int, extra map[string]int) *unit.Unit {
	skills := map[string]int{
		ruleset.SkillHitPoints:   hp,
		ruleset.SkillDefence:     0,
		ruleset.SkillResistance:  0,
		ruleset.SkillPlusToHit:   0,
		ruleset.SkillPlusToBlock: 0,
	}
	for k, v := range extra {
		skills[k] = v
	}
	return &unit.Unit{
		ID:                 id,
		OwnerPlayerID:      "player-" + id,
		LifeformCategoryID: "normal",
		FigureCount:        figures,
		Skills:             skills,
	}
}

// seqSrc returns queued values in order and counts calls.
// It panics when exhausted or when a value does not fit the die.
type seqSrc struct {
	vals  []int
	calls int
}

func (s *seqSrc) Intn(n int) int {
	if s.calls >= len(s.vals) {
		panic("seqSrc exhausted")
	}
	v := s.vals[s.calls]
	s.calls++
	if v < 0 || v >= n {
		panic("seqSrc value out of range")
	}
	return v
}

// cycleSrc replays vals forever, reduced modulo the die size.
type cycleSrc struct {
	vals  []int
	calls int
}

func (c *cycleSrc) Intn(n int) int {
	v := c.vals[c.calls%len(c.vals)] % n
	c.calls++
	return v
}

func roller(src dice.Source) *dice.Roller {
	return dice.NewLoggedRoller(src, zap.NewNop())
}

func snapshot(t testing.TB, q unit.SkillQuery, u *unit.Unit, desc *combat.AttackDescriptor) *unit.Snapshot {
	t.Helper()
	snap, err := unit.NewSnapshot(u, q, desc.Source())
	require.NoError(t, err)
	return snap
}

// recordingNotifier keeps every breakdown it is given.
type recordingNotifier struct {
	mu  sync.Mutex
	got []combat.Breakdown
	err error
}

func (n *recordingNotifier) Notify(_ context.Context, b combat.Breakdown) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, b)
	return n.err
}

func newResolver(t testing.TB, store combat.HealthStore, notifier combat.Notifier) (*combat.Resolver, *ruleset.Registry) {
	t.Helper()
	reg := fixtureRegistry(t)
	if store == nil {
		store = unit.NewMemoryRepository()
	}
	if notifier == nil {
		notifier = &recordingNotifier{}
	}
	return combat.NewResolver(reg, unit.NewCalculator(reg), store, notifier, zap.NewNop()), reg
}
