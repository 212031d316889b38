package combat

// AttackBreakdown records the attack phase of one resolution.
type AttackBreakdown struct {
	// ID correlates the attack and defence records of one resolution.
	ID               string
	CombatID         string
	AttackerID       string
	AttackerPlayerID string
	DefenderID       string
	DefenderPlayerID string
	SkillID          string
	SpellID          string
	RealmID          string
	DamageTypeID     string
	Kind             ResolutionKind
	PotentialHits    *int
	ChanceToHit      int
	Repetitions      int
	// NoAttack is set when the attack was never produced (immunity, no
	// figures, no ammunition). Such a breakdown has no defence record.
	NoAttack bool
}

// DefencePhase is one repetition of the attack as the defender experienced it.
type DefencePhase struct {
	Outcome DamageOutcome
	// Applied is the health actually removed by this repetition.
	Applied int
}

// DefenceBreakdown records the defence phase of one resolution.
type DefenceBreakdown struct {
	ID               string
	DefenderID       string
	DefenderPlayerID string
	Phases           []DefencePhase
	TotalDamage      int
	FiguresFrozen    int
	DefenderDied     bool
}

// Breakdown is everything sent to participants about one resolution.
type Breakdown struct {
	Attack  AttackBreakdown
	Defence *DefenceBreakdown
}

// attackParties names the units and players involved in an attack.
type attackParties struct {
	combatID         string
	attackerID       string
	attackerPlayerID string
	defenderID       string
	defenderPlayerID string
}

func newAttackBreakdown(id string, p attackParties, desc *AttackDescriptor) AttackBreakdown {
	b := AttackBreakdown{
		ID:               id,
		CombatID:         p.combatID,
		AttackerID:       p.attackerID,
		AttackerPlayerID: p.attackerPlayerID,
		DefenderID:       p.defenderID,
		DefenderPlayerID: p.defenderPlayerID,
		NoAttack:         desc == nil,
	}
	if desc == nil {
		return b
	}
	b.SkillID = desc.SkillID
	b.SpellID = desc.SpellID()
	b.RealmID = desc.RealmID
	b.DamageTypeID = desc.DamageType.ID
	b.Kind = desc.Kind
	if desc.PotentialHits != nil {
		b.PotentialHits = intPtr(*desc.PotentialHits)
	}
	b.ChanceToHit = desc.ChanceToHit
	b.Repetitions = desc.Repetitions
	return b
}

func newDefenceBreakdown(id string, p attackParties, phases []DefencePhase, frozen int, died bool) *DefenceBreakdown {
	b := &DefenceBreakdown{
		ID:               id,
		DefenderID:       p.defenderID,
		DefenderPlayerID: p.defenderPlayerID,
		Phases:           phases,
		FiguresFrozen:    frozen,
		DefenderDied:     died,
	}
	for _, ph := range phases {
		b.TotalDamage += ph.Applied
	}
	return b
}
