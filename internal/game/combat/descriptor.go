package combat

import (
	"github.com/cory-johannsen/momserver/internal/game/ruleset"
	"github.com/cory-johannsen/momserver/internal/game/unit"
)

// BaseChanceToHit is the d10 threshold of an attack before to-hit bonuses.
const BaseChanceToHit = 3

// AttackDescriptor is the strength of one attack, built fresh per attack and
// never modified after construction.
//
// Invariant: 0 <= ChanceToHit <= 10; Repetitions >= 1; DamageType != nil.
type AttackDescriptor struct {
	// PotentialHits is the number of dice rolled before defence, a flat damage
	// value or a saving throw modifier depending on Kind. Nil when absent.
	PotentialHits *int
	ChanceToHit   int
	DamageType    *ruleset.DamageType
	Kind          ResolutionKind
	// Spell is set for spell attacks only.
	Spell   *ruleset.Spell
	SkillID string
	RealmID string
	// Repetitions is the number of independent attack instances.
	Repetitions int
}

// Hits returns PotentialHits, or 0 when absent.
func (d *AttackDescriptor) Hits() int {
	if d.PotentialHits == nil {
		return 0
	}
	return *d.PotentialHits
}

// Source returns the skill and realm the attack stems from.
func (d *AttackDescriptor) Source() unit.AttackSource {
	return unit.AttackSource{SkillID: d.SkillID, RealmID: d.RealmID}
}

// SpellID returns the id of the originating spell, or "" for skill attacks.
func (d *AttackDescriptor) SpellID() string {
	if d.Spell == nil {
		return ""
	}
	return d.Spell.ID
}

func intPtr(v int) *int { return &v }
