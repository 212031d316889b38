package combat

import (
	"fmt"

	"github.com/cory-johannsen/momserver/internal/game/dice"
	"github.com/cory-johannsen/momserver/internal/game/ruleset"
	"github.com/cory-johannsen/momserver/internal/game/unit"
)

// DamageOutcome is the result of one attack instance against one snapshot.
//
// Invariant: Damage >= 0.
type DamageOutcome struct {
	Kind          ResolutionKind
	PotentialHits int
	ChanceToHit   int
	// ActualHits is the number of successful to-hit dice.
	ActualHits           int
	DefenceUnmodified    int
	DefenceModified      int
	ChanceToDefend       int
	Blocked              int
	ResistanceUnmodified int
	ResistanceModified   int
	// Damage is the health this outcome removes, before capping to the
	// defender's remaining health.
	Damage        int
	FiguresKilled int
	FiguresFrozen int
	AmmoRemoved   int
	// RemainingHealth is the defender's health before this outcome applies.
	RemainingHealth int
	// Died is set when the whole unit is destroyed outright.
	Died  bool
	Rolls []dice.RollResult
}

// Sequence carries state between the repetitions of one attack resolution.
// It never outlives a single resolution call.
type Sequence struct {
	frozen int
}

// NewSequence starts an empty resolution sequence.
func NewSequence() *Sequence { return &Sequence{} }

// Frozen returns the number of defender figures frozen by fear so far.
func (s *Sequence) Frozen() int { return s.frozen }

// ResolveHits runs the algorithm selected by attack.Kind.
//
// Precondition: attack, defender, roller and seq must be non-nil.
// Postcondition: on error no outcome is returned; Damage >= 0 otherwise.
func ResolveHits(attack *AttackDescriptor, defender *unit.Snapshot, roller *dice.Roller, seq *Sequence) (DamageOutcome, error) {
	out := DamageOutcome{
		Kind:                 attack.Kind,
		PotentialHits:        attack.Hits(),
		ChanceToHit:          attack.ChanceToHit,
		DefenceUnmodified:    defender.Defence,
		ResistanceUnmodified: defender.Resistance,
		RemainingHealth:      defender.RemainingHealth,
	}
	if err := checkPotentialHits(attack); err != nil {
		return DamageOutcome{}, err
	}
	if defender.AliveFigures == 0 {
		return out, nil
	}
	h := &hitResolution{attack: attack, defender: defender, roller: roller, out: &out}

	var err error
	switch attack.Kind {
	case KindSingleFigure:
		err = h.singleFigure(DefenceAgainst(defender, attack, 1))
	case KindArmourPiercing:
		err = h.singleFigure(DefenceAgainst(defender, attack, 2))
	case KindIllusionary:
		err = h.singleFigure(0)
	case KindMultiFigure:
		err = h.multiFigure()
	case KindDoom:
		out.Damage = attack.Hits()
	case KindChanceOfDeath:
		h.chanceOfDeath()
	case KindEachFigureResistOrDie:
		err = h.eachFigureResistOrDie()
	case KindSingleFigureResistOrDie:
		err = h.singleFigureResistOrDie()
	case KindResistOrTakeDamage:
		err = h.resistOrTakeDamage()
	case KindResistanceRolls:
		err = h.resistanceRolls()
	case KindDisintegrate:
		err = h.disintegrate()
	case KindFear:
		err = h.fear(seq)
	case KindUnitResistOrDie:
		err = h.unitResistOrDie()
	case KindZeroesAmmo:
		out.AmmoRemoved = defender.Ammo
	case KindEachFigureChanceOfDeath:
		err = h.eachFigureChanceOfDeath()
	default:
		return DamageOutcome{}, fmt.Errorf("%w: unhandled resolution kind %s", ErrConfiguration, attack.Kind)
	}
	if err == nil {
		err = h.err
	}
	if err != nil {
		return DamageOutcome{}, err
	}
	return out, nil
}

// MaxPotentialHits bounds the potential hits of any single attack.
const MaxPotentialHits = dice.MaxPool

// checkPotentialHits enforces the kinds that need a potential hits value.
func checkPotentialHits(attack *AttackDescriptor) error {
	switch attack.Kind {
	case KindSingleFigure, KindArmourPiercing, KindIllusionary, KindMultiFigure,
		KindDoom, KindChanceOfDeath, KindResistanceRolls, KindEachFigureChanceOfDeath:
		if attack.PotentialHits == nil {
			return fmt.Errorf("%w: %s attack has no potential hits", ErrConfiguration, attack.Kind)
		}
	}
	if attack.PotentialHits != nil && *attack.PotentialHits < 0 {
		return fmt.Errorf("%w: negative potential hits %d", ErrInvariant, *attack.PotentialHits)
	}
	if attack.PotentialHits != nil && *attack.PotentialHits > MaxPotentialHits {
		return fmt.Errorf("%w: potential hits %d above limit %d", ErrInvariant, *attack.PotentialHits, MaxPotentialHits)
	}
	return nil
}

type hitResolution struct {
	attack   *AttackDescriptor
	defender *unit.Snapshot
	roller   *dice.Roller
	out      *DamageOutcome

	fullHitPoints int
	recomputed    bool
	// err is the first failed roll; later pools roll nothing.
	err error
}

// pool rolls and records a dice pool.
func (h *hitResolution) pool(label string, count, sides, threshold int) dice.RollResult {
	if h.err != nil {
		return dice.RollResult{}
	}
	r, err := h.roller.Pool(label, count, sides, threshold)
	if err != nil {
		h.err = fmt.Errorf("%w: %w", ErrInvariant, err)
		return dice.RollResult{}
	}
	if len(r.Dice) > 0 {
		h.out.Rolls = append(h.out.Rolls, r)
	}
	return r
}

// figureHitPoints returns the hit points of the living figure at index. The
// first figure may already be damaged; the full value for the others is
// queried once, on the first transition past figure 0.
func (h *hitResolution) figureHitPoints(index int) (int, error) {
	if index == 0 {
		return h.defender.FirstFigureHitPoints, nil
	}
	if !h.recomputed {
		hp, err := h.defender.RecomputeHitPointsPerFigure()
		if err != nil {
			return 0, err
		}
		h.fullHitPoints = hp
		h.recomputed = true
	}
	return h.fullHitPoints, nil
}

// modifiedResistance returns the defender's resistance after the attack
// strength (when withStrength is set) and any spell modifier keyed to the
// defender's lifeform category.
func (h *hitResolution) modifiedResistance(withStrength bool) (int, error) {
	modifier := 0
	if withStrength {
		modifier = h.attack.Hits()
	}
	if spell := h.attack.Spell; spell != nil {
		for _, m := range spell.SavingThrowModifiers {
			if m.LifeformCategoryID != h.defender.LifeformCategoryID {
				continue
			}
			if m.Stat != ruleset.StatResistance {
				return 0, fmt.Errorf("%w: spell %q saving throw modifier for %q targets stat %q",
					ErrInvariant, spell.ID, m.LifeformCategoryID, m.Stat)
			}
			modifier += m.Modifier
		}
	}
	res := h.defender.Resistance - modifier
	h.out.ResistanceModified = res
	return res, nil
}

// singleFigure rolls all hits together, then lets each figure in turn block
// and absorb them. Excess damage carries over to the next figure.
func (h *hitResolution) singleFigure(defence int) error {
	h.out.DefenceModified = defence
	h.out.ChanceToDefend = h.defender.ChanceToDefend()

	hits := h.pool("to hit", h.attack.Hits(), 10, h.attack.ChanceToHit)
	h.out.ActualHits = hits.Successes()

	left := h.out.ActualHits
	for i := 0; i < h.defender.AliveFigures && left > 0; i++ {
		blocks := h.pool("to block", defence, 10, h.out.ChanceToDefend).Successes()
		h.out.Blocked += min(blocks, left)
		left -= blocks
		if left <= 0 {
			break
		}
		hp, err := h.figureHitPoints(i)
		if err != nil {
			return err
		}
		if left < hp {
			h.out.Damage += left
			break
		}
		h.out.Damage += hp
		h.out.FiguresKilled++
		left -= hp
	}
	return nil
}

// multiFigure rolls hits and blocks separately for every living figure.
// Overkill on one figure is lost.
func (h *hitResolution) multiFigure() error {
	defence := DefenceAgainst(h.defender, h.attack, 1)
	h.out.DefenceModified = defence
	h.out.ChanceToDefend = h.defender.ChanceToDefend()

	for i := 0; i < h.defender.AliveFigures; i++ {
		hits := h.pool("to hit", h.attack.Hits(), 10, h.attack.ChanceToHit).Successes()
		blocks := h.pool("to block", defence, 10, h.out.ChanceToDefend).Successes()
		h.out.ActualHits += hits
		h.out.Blocked += min(blocks, hits)
		dealt := hits - blocks
		if dealt <= 0 {
			continue
		}
		hp, err := h.figureHitPoints(i)
		if err != nil {
			return err
		}
		if dealt >= hp {
			dealt = hp
			h.out.FiguresKilled++
		}
		h.out.Damage += dealt
	}
	return nil
}

func (h *hitResolution) chanceOfDeath() {
	roll := h.pool("chance of death", 1, 100, h.attack.Hits())
	if roll.Successes() == 1 {
		h.killUnit()
	}
}

func (h *hitResolution) killUnit() {
	h.out.Died = true
	h.out.Damage = h.defender.RemainingHealth
	h.out.FiguresKilled = h.defender.AliveFigures
}

// killFigures removes the figures whose die is flagged by dies, in figure order.
func (h *hitResolution) killFigures(r dice.RollResult, dies func(d int) bool) error {
	for i, d := range r.Dice {
		if !dies(d) {
			continue
		}
		hp, err := h.figureHitPoints(i)
		if err != nil {
			return err
		}
		h.out.Damage += hp
		h.out.FiguresKilled++
	}
	return nil
}

func (h *hitResolution) eachFigureResistOrDie() error {
	res, err := h.modifiedResistance(true)
	if err != nil {
		return err
	}
	r := h.pool("resist", h.defender.AliveFigures, 10, res)
	return h.killFigures(r, func(d int) bool { return d >= res })
}

// singleFigureResistOrDie kills one figure on a failed roll. With several
// figures left a full figure dies; a lone figure loses what it has left.
func (h *hitResolution) singleFigureResistOrDie() error {
	res, err := h.modifiedResistance(true)
	if err != nil {
		return err
	}
	if h.pool("resist", 1, 10, res).Failures() == 0 {
		return nil
	}
	h.out.FiguresKilled = 1
	if h.defender.AliveFigures == 1 {
		h.out.Damage = h.defender.FirstFigureHitPoints
		return nil
	}
	hp, err := h.figureHitPoints(1)
	if err != nil {
		return err
	}
	h.out.Damage = hp
	return nil
}

// resistOrTakeDamage deals the margin by which a d10 (1-10) exceeds the
// modified resistance.
func (h *hitResolution) resistOrTakeDamage() error {
	res, err := h.modifiedResistance(true)
	if err != nil {
		return err
	}
	r := h.pool("resist or take damage", 1, 10, res)
	if len(r.Dice) == 0 {
		return h.err
	}
	if dmg := r.Dice[0] + 1 - res; dmg > 0 {
		h.out.Damage = dmg
	}
	return nil
}

// resistanceRolls makes one roll per potential hit; each failure costs 1 HP.
// The potential hits are the roll count here, not a saving throw modifier.
func (h *hitResolution) resistanceRolls() error {
	res, err := h.modifiedResistance(false)
	if err != nil {
		return err
	}
	h.out.Damage = h.pool("resist", h.attack.Hits(), 10, res).Failures()
	return nil
}

func (h *hitResolution) disintegrate() error {
	res, err := h.modifiedResistance(true)
	if err != nil {
		return err
	}
	if res < 10 {
		h.killUnit()
	}
	return nil
}

// fear rolls once per figure that is not already frozen in this sequence.
func (h *hitResolution) fear(seq *Sequence) error {
	res, err := h.modifiedResistance(true)
	if err != nil {
		return err
	}
	candidates := max(h.defender.AliveFigures-seq.frozen, 0)
	frozen := h.pool("resist fear", candidates, 10, res).Failures()
	seq.frozen += frozen
	h.out.FiguresFrozen = frozen
	return nil
}

func (h *hitResolution) unitResistOrDie() error {
	res, err := h.modifiedResistance(true)
	if err != nil {
		return err
	}
	if h.pool("resist", 1, 10, res).Failures() == 1 {
		h.killUnit()
	}
	return nil
}

func (h *hitResolution) eachFigureChanceOfDeath() error {
	threshold := h.attack.Hits()
	r := h.pool("chance of death", h.defender.AliveFigures, 100, threshold)
	return h.killFigures(r, func(d int) bool { return d < threshold })
}
