package ruleset

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound is the sentinel matched by every NotFoundError.
var ErrRecordNotFound = errors.New("record not found")

// NotFoundError reports a lookup of an unknown definition id.
type NotFoundError struct {
	Kind   string // e.g. "damage type"
	ID     string
	Caller string // the operation that needed the record
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found (needed by %s)", e.Kind, e.ID, e.Caller)
}

// Is makes errors.Is(err, ErrRecordNotFound) true for every NotFoundError.
func (e *NotFoundError) Is(target error) bool { return target == ErrRecordNotFound }

func notFound(kind, id, caller string) error {
	return &NotFoundError{Kind: kind, ID: id, Caller: caller}
}

// Registry holds every loaded definition indexed by ID.
// A Registry is read-only after loading and safe for concurrent reads.
type Registry struct {
	realms      map[string]*MagicRealm
	lifeforms   map[string]*LifeformCategory
	grades      map[string]*WeaponGrade
	rangedTypes map[string]*RangedAttackType
	damageTypes map[string]*DamageType
	skills      map[string]*UnitSkill
	spells      map[string]*Spell
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		realms:      make(map[string]*MagicRealm),
		lifeforms:   make(map[string]*LifeformCategory),
		grades:      make(map[string]*WeaponGrade),
		rangedTypes: make(map[string]*RangedAttackType),
		damageTypes: make(map[string]*DamageType),
		skills:      make(map[string]*UnitSkill),
		spells:      make(map[string]*Spell),
	}
}

func register[T any](m map[string]*T, kind, id string, def *T) error {
	if id == "" {
		return fmt.Errorf("ruleset: %s id must not be empty", kind)
	}
	if _, exists := m[id]; exists {
		return fmt.Errorf("ruleset: %s %q already registered", kind, id)
	}
	m[id] = def
	return nil
}

// RegisterMagicRealm adds def to the registry.
//
// Postcondition: returns error if def.ID is empty or already registered.
func (r *Registry) RegisterMagicRealm(def *MagicRealm) error {
	return register(r.realms, "magic realm", def.ID, def)
}

// RegisterLifeformCategory adds def to the registry.
func (r *Registry) RegisterLifeformCategory(def *LifeformCategory) error {
	return register(r.lifeforms, "lifeform category", def.ID, def)
}

// RegisterWeaponGrade adds def to the registry.
func (r *Registry) RegisterWeaponGrade(def *WeaponGrade) error {
	return register(r.grades, "weapon grade", def.ID, def)
}

// RegisterRangedAttackType adds def to the registry.
func (r *Registry) RegisterRangedAttackType(def *RangedAttackType) error {
	return register(r.rangedTypes, "ranged attack type", def.ID, def)
}

// RegisterDamageType validates and adds def to the registry.
func (r *Registry) RegisterDamageType(def *DamageType) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("ruleset: invalid damage type: %w", err)
	}
	return register(r.damageTypes, "damage type", def.ID, def)
}

// RegisterUnitSkill validates and adds def to the registry.
func (r *Registry) RegisterUnitSkill(def *UnitSkill) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("ruleset: invalid unit skill: %w", err)
	}
	return register(r.skills, "unit skill", def.ID, def)
}

// RegisterSpell validates and adds def to the registry.
func (r *Registry) RegisterSpell(def *Spell) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("ruleset: invalid spell: %w", err)
	}
	return register(r.spells, "spell", def.ID, def)
}

// MagicRealm returns the realm for id.
//
// Postcondition: returns a *NotFoundError naming caller when id is unknown.
func (r *Registry) MagicRealm(id, caller string) (*MagicRealm, error) {
	if d, ok := r.realms[id]; ok {
		return d, nil
	}
	return nil, notFound("magic realm", id, caller)
}

// LifeformCategory returns the lifeform category for id.
func (r *Registry) LifeformCategory(id, caller string) (*LifeformCategory, error) {
	if d, ok := r.lifeforms[id]; ok {
		return d, nil
	}
	return nil, notFound("lifeform category", id, caller)
}

// WeaponGrade returns the weapon grade for id.
func (r *Registry) WeaponGrade(id, caller string) (*WeaponGrade, error) {
	if d, ok := r.grades[id]; ok {
		return d, nil
	}
	return nil, notFound("weapon grade", id, caller)
}

// RangedAttackType returns the ranged attack type for id.
func (r *Registry) RangedAttackType(id, caller string) (*RangedAttackType, error) {
	if d, ok := r.rangedTypes[id]; ok {
		return d, nil
	}
	return nil, notFound("ranged attack type", id, caller)
}

// DamageType returns the damage type for id.
func (r *Registry) DamageType(id, caller string) (*DamageType, error) {
	if d, ok := r.damageTypes[id]; ok {
		return d, nil
	}
	return nil, notFound("damage type", id, caller)
}

// UnitSkill returns the unit skill for id.
func (r *Registry) UnitSkill(id, caller string) (*UnitSkill, error) {
	if d, ok := r.skills[id]; ok {
		return d, nil
	}
	return nil, notFound("unit skill", id, caller)
}

// Spell returns the spell for id.
func (r *Registry) Spell(id, caller string) (*Spell, error) {
	if d, ok := r.spells[id]; ok {
		return d, nil
	}
	return nil, notFound("spell", id, caller)
}

// Counts returns the number of registered definitions per kind, for startup logging.
func (r *Registry) Counts() map[string]int {
	return map[string]int{
		"magic_realms":        len(r.realms),
		"lifeform_categories": len(r.lifeforms),
		"weapon_grades":       len(r.grades),
		"ranged_attack_types": len(r.rangedTypes),
		"damage_types":        len(r.damageTypes),
		"unit_skills":         len(r.skills),
		"spells":              len(r.spells),
	}
}

// CheckReferences verifies that every cross-reference between definitions resolves.
//
// Postcondition: returns nil iff every referenced id is registered.
func (r *Registry) CheckReferences() error {
	const caller = "ruleset.CheckReferences"
	var errs []error
	for _, dt := range r.damageTypes {
		if dt.EnhancedVersion != "" {
			if _, err := r.DamageType(dt.EnhancedVersion, caller); err != nil {
				errs = append(errs, err)
			}
		}
		for _, im := range dt.Immunities {
			if _, err := r.UnitSkill(im.UnitSkillID, caller); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, s := range r.skills {
		if s.DamageType != "" {
			if _, err := r.DamageType(s.DamageType, caller); err != nil {
				errs = append(errs, err)
			}
		}
		if s.MagicRealmID != "" {
			if _, err := r.MagicRealm(s.MagicRealmID, caller); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, rt := range r.rangedTypes {
		if rt.MagicRealmID != "" {
			if _, err := r.MagicRealm(rt.MagicRealmID, caller); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, sp := range r.spells {
		if sp.DamageType != "" {
			if _, err := r.DamageType(sp.DamageType, caller); err != nil {
				errs = append(errs, err)
			}
		}
		if sp.MagicRealmID != "" {
			if _, err := r.MagicRealm(sp.MagicRealmID, caller); err != nil {
				errs = append(errs, err)
			}
		}
		for _, m := range sp.SavingThrowModifiers {
			if _, err := r.LifeformCategory(m.LifeformCategoryID, caller); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
