// Package combatv1 declares the mom.combat.v1.CombatService gRPC contract.
// Requests and responses are google.protobuf.Struct messages whose fields are
// documented on each method.
package combatv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName                                = "mom.combat.v1.CombatService"
	CombatService_StartCombat_FullMethodName   = "/mom.combat.v1.CombatService/StartCombat"
	CombatService_EndCombat_FullMethodName     = "/mom.combat.v1.CombatService/EndCombat"
	CombatService_ResolveAttack_FullMethodName = "/mom.combat.v1.CombatService/ResolveAttack"
	CombatService_ResolveSpell_FullMethodName  = "/mom.combat.v1.CombatService/ResolveSpell"
	CombatService_Breakdowns_FullMethodName    = "/mom.combat.v1.CombatService/Breakdowns"
)

// CombatServiceServer is the server API for CombatService.
type CombatServiceServer interface {
	// StartCombat registers a combat.
	// Request: combat_id, attacking_player_id, attacking_human, defending_player_id, defending_human.
	StartCombat(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// EndCombat forgets a combat. Request: combat_id.
	EndCombat(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ResolveAttack resolves a unit skill attack.
	// Request: combat_id, attacker_id, defender_id, skill_id, ranged_penalty.
	ResolveAttack(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ResolveSpell resolves a damaging spell.
	// Request: combat_id, caster_player_id, spell_id, defender_id, variable_damage.
	ResolveSpell(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Breakdowns streams every breakdown addressed to a player. Request: player_id.
	Breakdowns(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

// UnimplementedCombatServiceServer can be embedded to have forward compatible implementations.
type UnimplementedCombatServiceServer struct{}

func (UnimplementedCombatServiceServer) StartCombat(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method StartCombat not implemented")
}
func (UnimplementedCombatServiceServer) EndCombat(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method EndCombat not implemented")
}
func (UnimplementedCombatServiceServer) ResolveAttack(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ResolveAttack not implemented")
}
func (UnimplementedCombatServiceServer) ResolveSpell(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ResolveSpell not implemented")
}
func (UnimplementedCombatServiceServer) Breakdowns(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error {
	return status.Errorf(codes.Unimplemented, "method Breakdowns not implemented")
}

// RegisterCombatServiceServer registers srv on s.
func RegisterCombatServiceServer(s grpc.ServiceRegistrar, srv CombatServiceServer) {
	s.RegisterService(&CombatService_ServiceDesc, srv)
}

func unaryHandler(fullMethod string, call func(CombatServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CombatServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CombatServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func breakdownsHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(structpb.Struct)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(CombatServiceServer).Breakdowns(m, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// CombatService_ServiceDesc is the grpc.ServiceDesc for CombatService.
var CombatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CombatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "StartCombat",
			Handler:    unaryHandler(CombatService_StartCombat_FullMethodName, CombatServiceServer.StartCombat),
		},
		{
			MethodName: "EndCombat",
			Handler:    unaryHandler(CombatService_EndCombat_FullMethodName, CombatServiceServer.EndCombat),
		},
		{
			MethodName: "ResolveAttack",
			Handler:    unaryHandler(CombatService_ResolveAttack_FullMethodName, CombatServiceServer.ResolveAttack),
		},
		{
			MethodName: "ResolveSpell",
			Handler:    unaryHandler(CombatService_ResolveSpell_FullMethodName, CombatServiceServer.ResolveSpell),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Breakdowns",
			Handler:       breakdownsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "mom/combat/v1/combat.proto",
}

// CombatServiceClient is the client API for CombatService.
type CombatServiceClient interface {
	StartCombat(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	EndCombat(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ResolveAttack(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ResolveSpell(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Breakdowns(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
}

type combatServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCombatServiceClient creates a client over cc.
func NewCombatServiceClient(cc grpc.ClientConnInterface) CombatServiceClient {
	return &combatServiceClient{cc}
}

func (c *combatServiceClient) unary(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *combatServiceClient) StartCombat(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.unary(ctx, CombatService_StartCombat_FullMethodName, in, opts)
}

func (c *combatServiceClient) EndCombat(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.unary(ctx, CombatService_EndCombat_FullMethodName, in, opts)
}

func (c *combatServiceClient) ResolveAttack(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.unary(ctx, CombatService_ResolveAttack_FullMethodName, in, opts)
}

func (c *combatServiceClient) ResolveSpell(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.unary(ctx, CombatService_ResolveSpell_FullMethodName, in, opts)
}

func (c *combatServiceClient) Breakdowns(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &CombatService_ServiceDesc.Streams[0], CombatService_Breakdowns_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
