package gameserver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/momserver/internal/game/combat"
	"github.com/cory-johannsen/momserver/internal/game/dice"
	"github.com/cory-johannsen/momserver/internal/game/ruleset"
	"github.com/cory-johannsen/momserver/internal/game/unit"
	"github.com/cory-johannsen/momserver/internal/gameserver/combatv1"
)

// CombatService implements combatv1.CombatServiceServer on top of the combat
// engine, the resolver and the breakdown hub.
type CombatService struct {
	combatv1.UnimplementedCombatServiceServer
	engine   *combat.Engine
	resolver *combat.Resolver
	units    unit.Repository
	hub      *BreakdownHub
	roller   *dice.Roller
	logger   *zap.Logger
}

// NewCombatService creates a CombatService with the given dependencies.
//
// Precondition: all arguments must be non-nil; resolver must notify through hub.
// Postcondition: Returns a fully initialised CombatService.
func NewCombatService(
	engine *combat.Engine,
	resolver *combat.Resolver,
	units unit.Repository,
	hub *BreakdownHub,
	roller *dice.Roller,
	logger *zap.Logger,
) *CombatService {
	return &CombatService{
		engine:   engine,
		resolver: resolver,
		units:    units,
		hub:      hub,
		roller:   roller,
		logger:   logger,
	}
}

// StartCombat registers a combat between two players.
func (s *CombatService) StartCombat(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := readFields(req)
	combatID := f.requiredString("combat_id")
	attacking := combat.Participant{
		PlayerID: f.requiredString("attacking_player_id"),
		Human:    f.optionalBool("attacking_human"),
	}
	defending := combat.Participant{
		PlayerID: f.requiredString("defending_player_id"),
		Human:    f.optionalBool("defending_human"),
	}
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}

	if _, err := s.engine.StartCombat(combatID, attacking, defending); err != nil {
		return nil, status.Error(codes.AlreadyExists, err.Error())
	}
	s.logger.Info("combat started",
		zap.String("combat_id", combatID),
		zap.String("attacking_player_id", attacking.PlayerID),
		zap.String("defending_player_id", defending.PlayerID),
	)
	return structpb.NewStruct(map[string]interface{}{"combat_id": combatID})
}

// EndCombat forgets a combat. Ending an unknown combat is not an error.
func (s *CombatService) EndCombat(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := readFields(req)
	combatID := f.requiredString("combat_id")
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}
	s.engine.EndCombat(combatID)
	s.logger.Info("combat ended", zap.String("combat_id", combatID))
	return structpb.NewStruct(map[string]interface{}{"combat_id": combatID})
}

// ResolveAttack resolves one unit skill attack inside an active combat.
//
// Precondition: both units must be stored and owned by participants of the combat.
// Postcondition: resolutions within one combat never overlap.
func (s *CombatService) ResolveAttack(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	f := readFields(req)
	combatID := f.requiredString("combat_id")
	attackerID := f.requiredString("attacker_id")
	defenderID := f.requiredString("defender_id")
	skillID := f.requiredString("skill_id")
	penalty := f.optionalInt("ranged_penalty")
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}
	if attackerID == defenderID {
		return nil, status.Errorf(codes.InvalidArgument, "unit %q cannot attack itself", attackerID)
	}
	if penalty != nil && *penalty < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "ranged_penalty must not be negative, got %d", *penalty)
	}

	cbt, err := s.activeCombat(combatID)
	if err != nil {
		return nil, err
	}
	cbt.Lock()
	defer cbt.Unlock()

	attacker, err := s.participantUnit(ctx, cbt, attackerID)
	if err != nil {
		return nil, err
	}
	defender, err := s.participantUnit(ctx, cbt, defenderID)
	if err != nil {
		return nil, err
	}

	areq := combat.AttackRequest{
		CombatID: combatID,
		Attacker: attacker,
		Defender: defender,
		SkillID:  skillID,
		Roller:   s.roller,
	}
	if penalty != nil {
		areq.RangedPenalty = *penalty
	}
	res, err := s.resolver.ResolveSkillAttack(ctx, areq)
	if err != nil {
		return nil, s.resolutionError(combatID, err)
	}
	s.logger.Info("attack resolution complete",
		zap.String("combat_id", combatID),
		zap.String("attacker_id", attackerID),
		zap.String("defender_id", defenderID),
		zap.String("skill_id", skillID),
		zap.Bool("no_attack", res.NoAttack),
		zap.Int("damage", res.Damage),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resultToStruct(res)
}

// ResolveSpell resolves a damaging spell cast at a unit inside an active combat.
func (s *CombatService) ResolveSpell(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	f := readFields(req)
	combatID := f.requiredString("combat_id")
	casterID := f.requiredString("caster_player_id")
	spellID := f.requiredString("spell_id")
	defenderID := f.requiredString("defender_id")
	variable := f.optionalInt("variable_damage")
	if f.err != nil {
		return nil, status.Error(codes.InvalidArgument, f.err.Error())
	}
	if variable != nil && (*variable < 0 || *variable > combat.MaxPotentialHits) {
		return nil, status.Errorf(codes.InvalidArgument, "variable_damage must be within [0, %d], got %d", combat.MaxPotentialHits, *variable)
	}

	cbt, err := s.activeCombat(combatID)
	if err != nil {
		return nil, err
	}
	if !cbt.IsParticipant(casterID) {
		return nil, status.Errorf(codes.PermissionDenied, "player %q is not fighting in combat %q", casterID, combatID)
	}
	cbt.Lock()
	defer cbt.Unlock()

	defender, err := s.participantUnit(ctx, cbt, defenderID)
	if err != nil {
		return nil, err
	}
	res, err := s.resolver.ResolveSpellAttack(ctx, combat.SpellRequest{
		CombatID:       combatID,
		CasterPlayerID: casterID,
		SpellID:        spellID,
		VariableDamage: variable,
		Defender:       defender,
		Roller:         s.roller,
	})
	if err != nil {
		return nil, s.resolutionError(combatID, err)
	}
	s.logger.Info("spell resolution complete",
		zap.String("combat_id", combatID),
		zap.String("spell_id", spellID),
		zap.String("defender_id", defenderID),
		zap.Int("damage", res.Damage),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resultToStruct(res)
}

// Breakdowns streams the breakdowns addressed to the requesting player until
// the client goes away.
func (s *CombatService) Breakdowns(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	f := readFields(req)
	playerID := f.requiredString("player_id")
	if f.err != nil {
		return status.Error(codes.InvalidArgument, f.err.Error())
	}

	ch, cancel := s.hub.Subscribe(playerID)
	defer cancel()
	s.logger.Info("breakdown stream opened", zap.String("player_id", playerID))

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("breakdown stream closed", zap.String("player_id", playerID))
			return nil
		case b := <-ch:
			msg, err := breakdownToStruct(b)
			if err != nil {
				return status.Errorf(codes.Internal, "encoding breakdown %s: %v", b.Attack.ID, err)
			}
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

func (s *CombatService) activeCombat(combatID string) (*combat.Combat, error) {
	cbt, ok := s.engine.GetCombat(combatID)
	if !ok {
		return nil, status.Errorf(codes.FailedPrecondition, "no active combat %q", combatID)
	}
	return cbt, nil
}

func (s *CombatService) participantUnit(ctx context.Context, cbt *combat.Combat, unitID string) (*unit.Unit, error) {
	u, err := s.units.Get(ctx, unitID)
	if err != nil {
		if errors.Is(err, unit.ErrUnitNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "loading unit %q: %v", unitID, err)
	}
	if !cbt.IsParticipant(u.OwnerPlayerID) {
		return nil, status.Errorf(codes.PermissionDenied, "unit %q is not fighting in combat %q", unitID, cbt.ID)
	}
	return u, nil
}

// resolutionError maps a resolver error to a gRPC status. Configuration and
// invariant failures are logged because they point at bad game data.
func (s *CombatService) resolutionError(combatID string, err error) error {
	switch {
	case errors.Is(err, ruleset.ErrRecordNotFound), errors.Is(err, unit.ErrUnitNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, combat.ErrConfiguration):
		s.logger.Error("attack aborted by configuration error", zap.String("combat_id", combatID), zap.Error(err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, combat.ErrInvariant):
		s.logger.Error("attack aborted by invariant violation", zap.String("combat_id", combatID), zap.Error(err))
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Errorf(codes.Internal, "resolving attack: %v", err)
	}
}
