// Package combat resolves one attack of a unit (or spell) against a defending
// unit: attack strength, damage type and immunity, the hit resolution
// algorithm, damage application and the breakdown sent to participants.
package combat

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks missing or malformed static definitions, such as
	// a skill with no resolution kind. The attack is aborted.
	ErrConfiguration = errors.New("combat configuration error")
	// ErrInvariant marks a logic invariant violation caused by bad data.
	ErrInvariant = errors.New("combat invariant violated")
)

// ResolutionKind selects the algorithm turning potential hits into damage.
type ResolutionKind int

const (
	KindSingleFigure ResolutionKind = iota + 1
	KindArmourPiercing
	KindIllusionary
	KindMultiFigure
	KindDoom
	KindChanceOfDeath
	KindEachFigureResistOrDie
	KindSingleFigureResistOrDie
	KindResistOrTakeDamage
	KindResistanceRolls
	KindDisintegrate
	KindFear
	KindUnitResistOrDie
	KindZeroesAmmo
	KindEachFigureChanceOfDeath
)

var kindNames = map[ResolutionKind]string{
	KindSingleFigure:            "single_figure",
	KindArmourPiercing:          "armour_piercing",
	KindIllusionary:             "illusionary",
	KindMultiFigure:             "multi_figure",
	KindDoom:                    "doom",
	KindChanceOfDeath:           "chance_of_death",
	KindEachFigureResistOrDie:   "each_figure_resist_or_die",
	KindSingleFigureResistOrDie: "single_figure_resist_or_die",
	KindResistOrTakeDamage:      "resist_or_take_damage",
	KindResistanceRolls:         "resistance_rolls",
	KindDisintegrate:            "disintegrate",
	KindFear:                    "fear",
	KindUnitResistOrDie:         "unit_resist_or_die",
	KindZeroesAmmo:              "zeroes_ammo",
	KindEachFigureChanceOfDeath: "each_figure_chance_of_death",
}

// AllKinds returns every resolution kind in declaration order.
func AllKinds() []ResolutionKind {
	out := make([]ResolutionKind, 0, len(kindNames))
	for k := KindSingleFigure; k <= KindEachFigureChanceOfDeath; k++ {
		out = append(out, k)
	}
	return out
}

// String returns the content identifier of the kind.
func (k ResolutionKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ResolutionKind(%d)", int(k))
}

// ParseResolutionKind maps a content identifier to its kind.
//
// Postcondition: returns an error wrapping ErrConfiguration for empty or unknown names.
func ParseResolutionKind(name string) (ResolutionKind, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: no damage resolution declared", ErrConfiguration)
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown damage resolution %q", ErrConfiguration, name)
}
