package combat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/momserver/internal/game/combat"
	mockcombat "github.com/cory-johannsen/momserver/internal/game/combat/mock"
	"github.com/cory-johannsen/momserver/internal/game/ruleset"
	"github.com/cory-johannsen/momserver/internal/game/unit"
)

func seed(t *testing.T, repo *unit.MemoryRepository, units ...*unit.Unit) {
	t.Helper()
	for _, u := range units {
		require.NoError(t, repo.Create(context.Background(), u))
	}
}

func TestResolveSkillAttack_AppliesSavesAndNotifies(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mockcombat.NewMockNotifier(ctrl)
	repo := unit.NewMemoryRepository()
	r, _ := newResolver(t, repo, notifier)

	attacker := newUnit("a", 1, 1, map[string]int{"melee_attack": 4, ruleset.SkillPlusToHit: 2})
	defender := newUnit("d", 1, 4, map[string]int{ruleset.SkillDefence: 2})
	seed(t, repo, attacker, defender)

	var sent combat.Breakdown
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b combat.Breakdown) error {
		sent = b
		return nil
	}).Times(1)

	// to hit [1 7 3 9] vs <5 → 2 hits; to block [5 8] vs <3 → 0 blocks.
	src := &seqSrc{vals: []int{1, 7, 3, 9, 5, 8}}
	res, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		CombatID: "c1",
		Attacker: attacker,
		Defender: defender,
		SkillID:  "melee_attack",
		Roller:   roller(src),
	})
	require.NoError(t, err)
	assert.False(t, res.NoAttack)
	assert.Equal(t, 2, res.Damage)
	assert.False(t, res.DefenderDied)
	assert.Equal(t, 2, defender.DamageTaken)

	stored, err := repo.Get(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.DamageTaken)

	require.NotNil(t, sent.Defence)
	assert.NotEmpty(t, sent.Attack.ID)
	assert.Equal(t, sent.Attack.ID, sent.Defence.ID)
	assert.Equal(t, "c1", sent.Attack.CombatID)
	assert.Equal(t, "player-a", sent.Attack.AttackerPlayerID)
	assert.Equal(t, "player-d", sent.Defence.DefenderPlayerID)
	assert.Equal(t, "melee_attack", sent.Attack.SkillID)
	assert.Equal(t, 5, sent.Attack.ChanceToHit)
	assert.Equal(t, 2, sent.Defence.TotalDamage)
	require.Len(t, sent.Defence.Phases, 1)
	assert.Equal(t, 2, sent.Defence.Phases[0].Outcome.ActualHits)
}

func TestResolveSkillAttack_ImmunityRollsNoDice(t *testing.T) {
	notifier := &recordingNotifier{}
	r, _ := newResolver(t, nil, notifier)
	attacker := newUnit("a", 1, 1, map[string]int{"fire_breath": 4})
	defender := newUnit("d", 1, 4, map[string]int{"fire_immunity": 0})

	src := &seqSrc{}
	res, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: attacker, Defender: defender, SkillID: "fire_breath", Roller: roller(src),
	})
	require.NoError(t, err)
	assert.True(t, res.NoAttack)
	assert.Nil(t, res.Attack)
	assert.Zero(t, src.calls)
	assert.Zero(t, defender.DamageTaken)

	require.Len(t, notifier.got, 1)
	assert.True(t, notifier.got[0].Attack.NoAttack)
	assert.Nil(t, notifier.got[0].Defence)
}

func TestResolveSkillAttack_ZeroDamageIsNotNoAttack(t *testing.T) {
	repo := unit.NewMemoryRepository()
	r, _ := newResolver(t, repo, nil)
	attacker := newUnit("a", 1, 1, map[string]int{"melee_attack": 1})
	defender := newUnit("d", 1, 4, nil)
	seed(t, repo, attacker, defender)

	res, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: attacker, Defender: defender, SkillID: "melee_attack", Roller: roller(&seqSrc{vals: []int{9}}),
	})
	require.NoError(t, err)
	assert.False(t, res.NoAttack)
	assert.Zero(t, res.Damage)
}

func TestResolveSkillAttack_RepetitionsStopAtDeath(t *testing.T) {
	repo := unit.NewMemoryRepository()
	r, _ := newResolver(t, repo, nil)
	attacker := newUnit("a", 1, 1, map[string]int{"fire_breath": 3})
	defender := newUnit("d", 1, 2, nil)
	seed(t, repo, attacker, defender)

	// first breath: 3 hits kill the 2 HP figure; the second repetition never rolls
	src := &seqSrc{vals: []int{0, 0, 0}}
	res, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: attacker, Defender: defender, SkillID: "fire_breath", Roller: roller(src),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Damage)
	assert.True(t, res.DefenderDied)
	assert.Len(t, res.Breakdown.Defence.Phases, 1)
	assert.True(t, defender.IsDead())
}

func TestResolveSkillAttack_SpendsAndSavesAmmo(t *testing.T) {
	repo := unit.NewMemoryRepository()
	r, _ := newResolver(t, repo, nil)
	attacker := newUnit("a", 1, 1, map[string]int{ruleset.SkillRangedAttack: 1})
	attacker.RangedAttackTypeID = "arrows"
	attacker.Ammo = 3
	defender := newUnit("d", 1, 4, nil)
	seed(t, repo, attacker, defender)

	_, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: attacker, Defender: defender, SkillID: ruleset.SkillRangedAttack, Roller: roller(&seqSrc{vals: []int{9}}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attacker.Ammo)
	stored, err := repo.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Ammo)
}

func TestResolveSkillAttack_NotifierFailureIsLoggedAndSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reg := fixtureRegistry(t)
	repo := unit.NewMemoryRepository()
	notifier := &recordingNotifier{err: errors.New("client gone")}
	r := combat.NewResolver(reg, unit.NewCalculator(reg), repo, notifier, zap.New(core))

	attacker := newUnit("a", 1, 1, map[string]int{"melee_attack": 2})
	defender := newUnit("d", 1, 4, nil)
	seed(t, repo, attacker, defender)

	res, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: attacker, Defender: defender, SkillID: "melee_attack", Roller: roller(&seqSrc{vals: []int{0, 0}}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Damage)
	assert.Equal(t, 2, defender.DamageTaken)

	entries := logs.FilterMessage("breakdown delivery failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "client gone", entries[0].ContextMap()["error"])
}

func TestResolveSkillAttack_ErrorLeavesUnitsUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mockcombat.NewMockHealthStore(ctrl)
	notifier := mockcombat.NewMockNotifier(ctrl)
	r, _ := newResolver(t, store, notifier)

	store.EXPECT().SaveAttack(gomock.Any(), gomock.Not(gomock.Nil()), gomock.Not(gomock.Nil())).Return(errors.New("db down"))
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(0)

	attacker := newUnit("a", 1, 1, map[string]int{ruleset.SkillRangedAttack: 2})
	attacker.RangedAttackTypeID = "arrows"
	attacker.Ammo = 1
	defender := newUnit("d", 1, 4, nil)

	_, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: attacker, Defender: defender, SkillID: ruleset.SkillRangedAttack, Roller: roller(&seqSrc{vals: []int{0, 0}}),
	})
	require.Error(t, err)
	assert.Zero(t, defender.DamageTaken)
	assert.Equal(t, 1, attacker.Ammo)
}

func TestResolveSkillAttack_FailedSaveStoresNeitherUnit(t *testing.T) {
	repo := unit.NewMemoryRepository()
	notifier := &recordingNotifier{}
	r, _ := newResolver(t, repo, notifier)

	attacker := newUnit("a", 1, 1, map[string]int{ruleset.SkillRangedAttack: 2})
	attacker.RangedAttackTypeID = "arrows"
	attacker.Ammo = 1
	defender := newUnit("d", 1, 4, nil)
	// the attacker is never stored, so its half of the write fails
	seed(t, repo, defender)

	_, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: attacker, Defender: defender, SkillID: ruleset.SkillRangedAttack, Roller: roller(&seqSrc{vals: []int{0, 0}}),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, unit.ErrUnitNotFound))

	stored, err := repo.Get(context.Background(), "d")
	require.NoError(t, err)
	assert.Zero(t, stored.DamageTaken)
	assert.Zero(t, defender.DamageTaken)
	assert.Equal(t, 1, attacker.Ammo)
	assert.Empty(t, notifier.got)
}

func TestResolveSkillAttack_SelfAttackRejected(t *testing.T) {
	repo := unit.NewMemoryRepository()
	r, _ := newResolver(t, repo, nil)
	u := newUnit("a", 1, 4, map[string]int{"melee_attack": 2})
	seed(t, repo, u)

	_, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: u, Defender: u, SkillID: "melee_attack", Roller: roller(&seqSrc{}),
	})
	assert.True(t, errors.Is(err, combat.ErrInvariant))

	stored, err := repo.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Zero(t, stored.DamageTaken)
}

func TestResolveSkillAttack_FearFreezesAcrossRepetitions(t *testing.T) {
	reg := fixtureRegistry(t)
	require.NoError(t, reg.RegisterUnitSkill(&ruleset.UnitSkill{
		ID:               "terror_gaze",
		DamageResolution: "fear",
		DamageType:       "death",
		Combination:      ruleset.CombinationPerUnit,
		Repetitions:      3,
	}))
	repo := unit.NewMemoryRepository()
	r := combat.NewResolver(reg, unit.NewCalculator(reg), repo, &recordingNotifier{}, zap.NewNop())

	attacker := newUnit("a", 1, 1, map[string]int{"terror_gaze": 0})
	defender := newUnit("d", 4, 1, map[string]int{ruleset.SkillResistance: 5})
	seed(t, repo, attacker, defender)

	// rep 1: [7 1 1 1] freezes 1; rep 2: three rolls [9 2 2] freezes 1; rep 3: two rolls [1 1]
	src := &seqSrc{vals: []int{7, 1, 1, 1, 9, 2, 2, 1, 1}}
	res, err := r.ResolveSkillAttack(context.Background(), combat.AttackRequest{
		Attacker: attacker, Defender: defender, SkillID: "terror_gaze", Roller: roller(src),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FiguresFrozen)
	assert.Zero(t, res.Damage)
	assert.Equal(t, 9, src.calls)
}

func TestResolveSpellAttack(t *testing.T) {
	repo := unit.NewMemoryRepository()
	notifier := &recordingNotifier{}
	r, _ := newResolver(t, repo, notifier)
	defender := newUnit("d", 2, 10, nil)
	seed(t, repo, defender)

	res, err := r.ResolveSpellAttack(context.Background(), combat.SpellRequest{
		CombatID:       "c1",
		CasterPlayerID: "wizard",
		SpellID:        "doom_bolt",
		Defender:       defender,
		Roller:         roller(&seqSrc{}),
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Damage)
	assert.Equal(t, 10, defender.DamageTaken)

	require.Len(t, notifier.got, 1)
	assert.Equal(t, "doom_bolt", notifier.got[0].Attack.SpellID)
	assert.Equal(t, "wizard", notifier.got[0].Attack.AttackerPlayerID)
	assert.Empty(t, notifier.got[0].Attack.AttackerID)
}

func TestResolveSpellAttack_UnknownSpell(t *testing.T) {
	r, _ := newResolver(t, nil, nil)
	_, err := r.ResolveSpellAttack(context.Background(), combat.SpellRequest{
		SpellID: "meteor", Defender: newUnit("d", 1, 1, nil), Roller: roller(&seqSrc{}),
	})
	assert.True(t, errors.Is(err, ruleset.ErrRecordNotFound))
}
