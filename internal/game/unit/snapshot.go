package unit

import (
	"fmt"

	"github.com/cory-johannsen/momserver/internal/game/ruleset"
)

// BaseChanceToDefend is the d10 threshold every figure blocks with before bonuses.
const BaseChanceToDefend = 3

// Snapshot is a read-only projection of a unit's combat statistics as seen by
// one specific incoming attack. Build a fresh one per attack.
type Snapshot struct {
	UnitID             string
	LifeformCategoryID string
	FigureCount        int
	AliveFigures       int
	// HitPointsPerFigure is the modified hit points of a full figure.
	HitPointsPerFigure int
	// FirstFigureHitPoints is what the first living figure has left.
	FirstFigureHitPoints int
	RemainingHealth      int
	Defence              int
	Resistance           int
	PlusToBlock          int
	Ammo                 int

	held  map[string]bool
	unit  *Unit
	query SkillQuery
	vs    AttackSource
}

// NewSnapshot derives the combat statistics of u against the attack vs.
//
// Precondition: u and q must be non-nil.
// Postcondition: HitPointsPerFigure >= 1; AliveFigures == 0 iff RemainingHealth == 0.
func NewSnapshot(u *Unit, q SkillQuery, vs AttackSource) (*Snapshot, error) {
	value := func(skillID string) (int, error) {
		v, _, err := q.ModifiedSkillValue(u, skillID, vs)
		if err != nil {
			return 0, fmt.Errorf("snapshot of unit %s, skill %s: %w", u.ID, skillID, err)
		}
		return v, nil
	}

	hp, err := value(ruleset.SkillHitPoints)
	if err != nil {
		return nil, err
	}
	if hp < 1 {
		hp = 1
	}
	def, err := value(ruleset.SkillDefence)
	if err != nil {
		return nil, err
	}
	res, err := value(ruleset.SkillResistance)
	if err != nil {
		return nil, err
	}
	block, err := value(ruleset.SkillPlusToBlock)
	if err != nil {
		return nil, err
	}

	h := u.HealthAt(hp)
	held := make(map[string]bool, len(u.Skills))
	for id := range u.Skills {
		held[id] = true
	}
	return &Snapshot{
		UnitID:               u.ID,
		LifeformCategoryID:   u.LifeformCategoryID,
		FigureCount:          u.FigureCount,
		AliveFigures:         h.AliveFigures,
		HitPointsPerFigure:   hp,
		FirstFigureHitPoints: h.FirstFigureHitPoints,
		RemainingHealth:      h.Remaining,
		Defence:              def,
		Resistance:           res,
		PlusToBlock:          block,
		Ammo:                 u.Ammo,
		held:                 held,
		unit:                 u,
		query:                q,
		vs:                   vs,
	}, nil
}

// HasSkill reports whether the unit held skillID when the snapshot was taken.
func (s *Snapshot) HasSkill(skillID string) bool {
	return s.held[skillID]
}

// ChanceToDefend returns the d10 block threshold of one figure, clamped to [0,10].
func (s *Snapshot) ChanceToDefend() int {
	return Clamp10(BaseChanceToDefend + s.PlusToBlock)
}

// RecomputeHitPointsPerFigure queries the current modified hit points per
// figure. Callers use it once, when damage moves from the first figure to the
// second; later figures reuse the value.
//
// Postcondition: Returns >= 1 on success.
func (s *Snapshot) RecomputeHitPointsPerFigure() (int, error) {
	hp, _, err := s.query.ModifiedSkillValue(s.unit, ruleset.SkillHitPoints, s.vs)
	if err != nil {
		return 0, fmt.Errorf("recompute hit points of unit %s: %w", s.UnitID, err)
	}
	if hp < 1 {
		hp = 1
	}
	return hp, nil
}

// Clamp10 clamps a d10 chance to [0,10].
func Clamp10(chance int) int {
	switch {
	case chance < 0:
		return 0
	case chance > 10:
		return 10
	default:
		return chance
	}
}
