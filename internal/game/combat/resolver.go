package combat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/momserver/internal/game/dice"
	"github.com/cory-johannsen/momserver/internal/game/unit"
)

// Resolver resolves attacks. It holds no per-attack state; callers serialize
// resolutions within one combat (see Combat.Lock).
type Resolver struct {
	defs     Definitions
	skills   unit.SkillQuery
	store    HealthStore
	notifier Notifier
	logger   *zap.Logger
	newID    func() string
}

// NewResolver wires a Resolver.
//
// Precondition: all arguments must be non-nil.
func NewResolver(defs Definitions, skills unit.SkillQuery, store HealthStore, notifier Notifier, logger *zap.Logger) *Resolver {
	return &Resolver{
		defs:     defs,
		skills:   skills,
		store:    store,
		notifier: notifier,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// AttackRequest is one unit attacking another with a skill.
type AttackRequest struct {
	CombatID string
	Attacker *unit.Unit
	Defender *unit.Unit
	SkillID  string
	// RangedPenalty is the distance penalty to hit from the combat map.
	RangedPenalty int
	Roller        *dice.Roller
}

// SpellRequest is a spell cast at a unit.
type SpellRequest struct {
	CombatID       string
	CasterPlayerID string
	SpellID        string
	// VariableDamage is the extra power chosen by the caster, if any.
	VariableDamage *int
	Defender       *unit.Unit
	Roller         *dice.Roller
}

// Result is the outcome of one resolution.
type Result struct {
	// NoAttack is set when no attack was produced. This is distinct from an
	// attack that dealt zero damage.
	NoAttack      bool
	Attack        *AttackDescriptor
	Damage        int
	FiguresFrozen int
	DefenderDied  bool
	Breakdown     Breakdown
}

// ResolveSkillAttack resolves req end to end: attack strength, hit
// resolution for every repetition, damage application, persistence and
// notification.
//
// Precondition: req.Attacker, req.Defender and req.Roller must be non-nil.
// Postcondition: on error neither unit is modified, in memory or in the store.
// On success the defender's DamageTaken (and the attacker's Ammo, for
// ammunition skills) reflect the attack and have been saved together.
func (r *Resolver) ResolveSkillAttack(ctx context.Context, req AttackRequest) (*Result, error) {
	if req.Attacker.ID == req.Defender.ID {
		return nil, fmt.Errorf("%w: unit %s cannot attack itself", ErrInvariant, req.Attacker.ID)
	}
	attacker := req.Attacker.Clone()
	defender := req.Defender.Clone()
	parties := attackParties{
		combatID:         req.CombatID,
		attackerID:       attacker.ID,
		attackerPlayerID: attacker.OwnerPlayerID,
		defenderID:       defender.ID,
		defenderPlayerID: defender.OwnerPlayerID,
	}

	desc, err := r.SkillAttack(attacker, defender, req.SkillID, req.RangedPenalty)
	if err != nil {
		return nil, fmt.Errorf("unit %s attacking %s with %s: %w", attacker.ID, defender.ID, req.SkillID, err)
	}
	res, err := r.resolve(parties, desc, defender, req.Roller)
	if err != nil {
		return nil, fmt.Errorf("unit %s attacking %s with %s: %w", attacker.ID, defender.ID, req.SkillID, err)
	}
	var saveAttacker, saveDefender *unit.Unit
	if attacker.Ammo != req.Attacker.Ammo {
		saveAttacker = attacker
	}
	if !res.NoAttack {
		saveDefender = defender
	}
	if err := r.save(ctx, saveAttacker, saveDefender); err != nil {
		return nil, fmt.Errorf("unit %s attacking %s with %s: %w", attacker.ID, defender.ID, req.SkillID, err)
	}
	if !res.NoAttack {
		*req.Defender = *defender
	}
	*req.Attacker = *attacker
	r.notify(ctx, res.Breakdown)
	return res, nil
}

// ResolveSpellAttack resolves a spell cast at req.Defender.
//
// Precondition: req.Defender and req.Roller must be non-nil.
// Postcondition: on error the defender is not modified.
func (r *Resolver) ResolveSpellAttack(ctx context.Context, req SpellRequest) (*Result, error) {
	spell, err := r.defs.Spell(req.SpellID, "combat.ResolveSpellAttack")
	if err != nil {
		return nil, err
	}
	defender := req.Defender.Clone()
	parties := attackParties{
		combatID:         req.CombatID,
		attackerPlayerID: req.CasterPlayerID,
		defenderID:       defender.ID,
		defenderPlayerID: defender.OwnerPlayerID,
	}

	desc, err := r.SpellAttack(spell, req.VariableDamage, defender)
	if err != nil {
		return nil, fmt.Errorf("spell %s at unit %s: %w", spell.ID, defender.ID, err)
	}
	res, err := r.resolve(parties, desc, defender, req.Roller)
	if err != nil {
		return nil, fmt.Errorf("spell %s at unit %s: %w", spell.ID, defender.ID, err)
	}
	if !res.NoAttack {
		if err := r.save(ctx, nil, defender); err != nil {
			return nil, fmt.Errorf("spell %s at unit %s: %w", spell.ID, defender.ID, err)
		}
		*req.Defender = *defender
	}
	r.notify(ctx, res.Breakdown)
	return res, nil
}

// resolve runs every repetition of desc against defender. defender is a
// working copy owned by the caller; nothing is saved here.
func (r *Resolver) resolve(p attackParties, desc *AttackDescriptor, defender *unit.Unit, roller *dice.Roller) (*Result, error) {
	id := r.newID()
	attackRecord := newAttackBreakdown(id, p, desc)
	if desc == nil {
		return &Result{NoAttack: true, Breakdown: Breakdown{Attack: attackRecord}}, nil
	}

	seq := NewSequence()
	var phases []DefencePhase
	died := false
	for i := 0; i < desc.Repetitions; i++ {
		snap, err := unit.NewSnapshot(defender, r.skills, desc.Source())
		if err != nil {
			return nil, err
		}
		if snap.AliveFigures == 0 {
			break
		}
		out, err := ResolveHits(desc, snap, roller, seq)
		if err != nil {
			return nil, err
		}
		applied := ApplyDamage(defender, out)
		phases = append(phases, DefencePhase{Outcome: out, Applied: applied})
		if out.Died || (applied > 0 && applied == out.RemainingHealth) {
			died = true
		}
	}

	defence := newDefenceBreakdown(id, p, phases, seq.Frozen(), died)
	r.logger.Debug("attack resolved",
		zap.String("breakdown_id", id),
		zap.String("combat_id", p.combatID),
		zap.String("defender_id", p.defenderID),
		zap.Stringer("kind", desc.Kind),
		zap.Int("damage", defence.TotalDamage),
		zap.Int("frozen", defence.FiguresFrozen),
	)
	return &Result{
		Attack:        desc,
		Damage:        defence.TotalDamage,
		FiguresFrozen: defence.FiguresFrozen,
		DefenderDied:  died,
		Breakdown:     Breakdown{Attack: attackRecord, Defence: defence},
	}, nil
}

// save writes the units touched by one resolution in a single store call.
func (r *Resolver) save(ctx context.Context, attacker, defender *unit.Unit) error {
	if attacker == nil && defender == nil {
		return nil
	}
	if err := r.store.SaveAttack(ctx, attacker, defender); err != nil {
		return fmt.Errorf("saving attack: %w", err)
	}
	return nil
}

// notify delivers b, logging and swallowing any failure.
func (r *Resolver) notify(ctx context.Context, b Breakdown) {
	if err := r.notifier.Notify(ctx, b); err != nil {
		r.logger.Warn("breakdown delivery failed",
			zap.String("breakdown_id", b.Attack.ID),
			zap.String("combat_id", b.Attack.CombatID),
			zap.Error(err),
		)
	}
}
