package gameserver

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/momserver/internal/game/combat"
	"github.com/cory-johannsen/momserver/internal/game/dice"
)

// fields reads typed values out of a request Struct and remembers the first
// problem it meets.
type fields struct {
	s   *structpb.Struct
	err error
}

func readFields(s *structpb.Struct) *fields {
	if s == nil {
		s = &structpb.Struct{}
	}
	return &fields{s: s}
}

func (f *fields) fail(format string, args ...interface{}) {
	if f.err == nil {
		f.err = fmt.Errorf(format, args...)
	}
}

// requiredString returns the non-empty string field key.
func (f *fields) requiredString(key string) string {
	v := f.optionalString(key)
	if v == "" {
		f.fail("%s must not be empty", key)
	}
	return v
}

func (f *fields) optionalString(key string) string {
	v, ok := f.s.GetFields()[key]
	if !ok {
		return ""
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		f.fail("%s must be a string", key)
		return ""
	}
	return sv.StringValue
}

func (f *fields) optionalBool(key string) bool {
	v, ok := f.s.GetFields()[key]
	if !ok {
		return false
	}
	bv, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		f.fail("%s must be a bool", key)
		return false
	}
	return bv.BoolValue
}

// optionalInt returns nil when key is absent or null.
func (f *fields) optionalInt(key string) *int {
	v, ok := f.s.GetFields()[key]
	if !ok {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
			f.fail("%s must be an integer, got %v", key, n)
			return nil
		}
		i := int(n)
		return &i
	default:
		f.fail("%s must be a number", key)
		return nil
	}
}

// resultToStruct encodes a resolution result as the unary response.
func resultToStruct(res *combat.Result) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"breakdown_id":   res.Breakdown.Attack.ID,
		"no_attack":      res.NoAttack,
		"damage":         res.Damage,
		"figures_frozen": res.FiguresFrozen,
		"defender_died":  res.DefenderDied,
	})
}

// breakdownToStruct encodes b for the Breakdowns stream.
func breakdownToStruct(b combat.Breakdown) (*structpb.Struct, error) {
	a := b.Attack
	kind := ""
	if !a.NoAttack {
		kind = a.Kind.String()
	}
	attack := map[string]interface{}{
		"id":                 a.ID,
		"combat_id":          a.CombatID,
		"attacker_id":        a.AttackerID,
		"attacker_player_id": a.AttackerPlayerID,
		"defender_id":        a.DefenderID,
		"defender_player_id": a.DefenderPlayerID,
		"skill_id":           a.SkillID,
		"spell_id":           a.SpellID,
		"realm_id":           a.RealmID,
		"damage_type_id":     a.DamageTypeID,
		"kind":               kind,
		"potential_hits":     optionalNumber(a.PotentialHits),
		"chance_to_hit":      a.ChanceToHit,
		"repetitions":        a.Repetitions,
		"no_attack":          a.NoAttack,
	}
	out := map[string]interface{}{"attack": attack, "defence": nil}
	if d := b.Defence; d != nil {
		phases := make([]interface{}, 0, len(d.Phases))
		for _, ph := range d.Phases {
			phases = append(phases, phaseToMap(ph))
		}
		out["defence"] = map[string]interface{}{
			"id":                 d.ID,
			"defender_id":        d.DefenderID,
			"defender_player_id": d.DefenderPlayerID,
			"phases":             phases,
			"total_damage":       d.TotalDamage,
			"figures_frozen":     d.FiguresFrozen,
			"defender_died":      d.DefenderDied,
		}
	}
	return structpb.NewStruct(out)
}

func phaseToMap(ph combat.DefencePhase) map[string]interface{} {
	o := ph.Outcome
	rolls := make([]interface{}, 0, len(o.Rolls))
	for _, r := range o.Rolls {
		rolls = append(rolls, rollToMap(r))
	}
	return map[string]interface{}{
		"kind":                  o.Kind.String(),
		"potential_hits":        o.PotentialHits,
		"chance_to_hit":         o.ChanceToHit,
		"actual_hits":           o.ActualHits,
		"defence_unmodified":    o.DefenceUnmodified,
		"defence_modified":      o.DefenceModified,
		"chance_to_defend":      o.ChanceToDefend,
		"blocked":               o.Blocked,
		"resistance_unmodified": o.ResistanceUnmodified,
		"resistance_modified":   o.ResistanceModified,
		"damage":                o.Damage,
		"applied":               ph.Applied,
		"figures_killed":        o.FiguresKilled,
		"figures_frozen":        o.FiguresFrozen,
		"ammo_removed":          o.AmmoRemoved,
		"died":                  o.Died,
		"rolls":                 rolls,
	}
}

func rollToMap(r dice.RollResult) map[string]interface{} {
	values := make([]interface{}, len(r.Dice))
	for i, d := range r.Dice {
		values[i] = d
	}
	return map[string]interface{}{
		"label":     r.Label,
		"sides":     r.Sides,
		"dice":      values,
		"threshold": r.Threshold,
		"successes": r.Successes(),
	}
}

func optionalNumber(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
