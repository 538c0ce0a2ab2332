package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/catanforge/catan-server-go/internal/config"
	"github.com/catanforge/catan-server-go/internal/game"
	"github.com/catanforge/catan-server-go/internal/game/state"
)

// GameServiceName is the full gRPC service name.
const GameServiceName = "catan.v1.GameService"

// Every GameService method takes and returns a google.protobuf.Struct holding
// the same JSON documents the HTTP API uses.
const (
	methodCreateGame   = "CreateGame"
	methodSubmitAction = "SubmitAction"
	methodSync         = "Sync"
	methodGetSummary   = "GetSummary"
)

// GameService implements catan.v1.GameService.
type GameService struct {
	engine *game.Engine
	logger *zap.Logger
}

// NewGameService creates the gRPC service.
func NewGameService(engine *game.Engine, logger *zap.Logger) *GameService {
	return &GameService{engine: engine, logger: logger}
}

type submitRequest struct {
	GameID string          `json:"gameId"`
	Action json.RawMessage `json:"action"`
}

type syncRequest struct {
	GameID  string `json:"gameId"`
	Version *int   `json:"version"`
	Full    bool   `json:"full"`
}

type gameRequest struct {
	GameID string `json:"gameId"`
}

// CreateGame takes a game setup and returns the initial state.
func (s *GameService) CreateGame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var setup state.Setup
	if err := decodeStruct(req, &setup); err != nil {
		return nil, err
	}
	g, err := s.engine.CreateGame(ctx, setup)
	if err != nil {
		if errors.Is(err, game.ErrPersistence) {
			return nil, grpcError(err)
		}
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return encodeStruct(g)
}

// SubmitAction applies {"gameId", "action"} and returns the new state.
func (s *GameService) SubmitAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r submitRequest
	if err := decodeStruct(req, &r); err != nil {
		return nil, err
	}
	if r.GameID == "" || len(r.Action) == 0 {
		return nil, status.Error(codes.InvalidArgument, "gameId and action are required")
	}
	g, err := s.engine.SubmitJSON(ctx, r.GameID, r.Action)
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(g)
}

// Sync answers {"gameId", "version", "full"}. A missing version asks for a
// snapshot.
func (s *GameService) Sync(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r syncRequest
	if err := decodeStruct(req, &r); err != nil {
		return nil, err
	}
	version := -1
	if r.Version != nil {
		version = *r.Version
	}
	res, err := s.engine.Sync(r.GameID, version, r.Full)
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(res)
}

// GetSummary returns the summary of {"gameId"}.
func (s *GameService) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var r gameRequest
	if err := decodeStruct(req, &r); err != nil {
		return nil, err
	}
	sum, err := s.engine.Summary(r.GameID)
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(sum)
}

// grpcError converts an engine error to a status carrying the error body as
// a Struct detail.
func grpcError(err error) error {
	_, code, body := classify(err)
	st := status.New(code, body.Message)
	detail, convErr := encodeStruct(body)
	if convErr != nil {
		return st.Err()
	}
	if withDetail, detErr := st.WithDetails(detail); detErr == nil {
		return withDetail.Err()
	}
	return st.Err()
}

// ErrorBodyFromStatus extracts the error body attached by the service.
func ErrorBodyFromStatus(err error) (ErrorBody, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return ErrorBody{}, false
	}
	for _, d := range st.Details() {
		if sp, ok := d.(*structpb.Struct); ok {
			var body ErrorBody
			if decodeStruct(sp, &body) == nil {
				return body, true
			}
		}
	}
	return ErrorBody{}, false
}

func encodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func decodeStruct(in *structpb.Struct, v any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "failed to read request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "failed to read request: %v", err)
	}
	return nil
}

type gameServiceServer interface {
	CreateGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Sync(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(gameServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(gameServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + GameServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(gameServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var gameServiceDesc = grpc.ServiceDesc{
	ServiceName: GameServiceName,
	HandlerType: (*gameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodCreateGame, Handler: unaryHandler(methodCreateGame, gameServiceServer.CreateGame)},
		{MethodName: methodSubmitAction, Handler: unaryHandler(methodSubmitAction, gameServiceServer.SubmitAction)},
		{MethodName: methodSync, Handler: unaryHandler(methodSync, gameServiceServer.Sync)},
		{MethodName: methodGetSummary, Handler: unaryHandler(methodGetSummary, gameServiceServer.GetSummary)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catan/v1/game.proto",
}

// RegisterGameService registers svc on s.
func RegisterGameService(s grpc.ServiceRegistrar, svc *GameService) {
	s.RegisterService(&gameServiceDesc, svc)
}

// NewGRPCServer creates a server with the standard interceptors and svc
// registered.
func NewGRPCServer(cfg config.GRPCConfig, svc *GameService, logger *zap.Logger) *grpc.Server {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(ChainUnaryInterceptors(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.MaxConcurrentStreams)),
	)
	RegisterGameService(srv, svc)
	return srv
}

// GameClient calls GameService over a connection.
type GameClient struct {
	cc grpc.ClientConnInterface
}

// NewGameClient creates a client on cc.
func NewGameClient(cc grpc.ClientConnInterface) *GameClient {
	return &GameClient{cc: cc}
}

func (c *GameClient) invoke(ctx context.Context, method string, req any, out any) error {
	in, err := encodeStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+GameServiceName+"/"+method, in, resp); err != nil {
		return err
	}
	return decodeStruct(resp, out)
}

// CreateGame creates a game.
func (c *GameClient) CreateGame(ctx context.Context, setup state.Setup) (*state.GameState, error) {
	out := new(state.GameState)
	if err := c.invoke(ctx, methodCreateGame, setup, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitAction submits an action JSON document.
func (c *GameClient) SubmitAction(ctx context.Context, gameID string, action json.RawMessage) (*state.GameState, error) {
	out := new(state.GameState)
	if err := c.invoke(ctx, methodSubmitAction, submitRequest{GameID: gameID, Action: action}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sync polls a game from version.
func (c *GameClient) Sync(ctx context.Context, gameID string, version int, full bool) (*game.SyncResult, error) {
	out := new(game.SyncResult)
	if err := c.invoke(ctx, methodSync, syncRequest{GameID: gameID, Version: &version, Full: full}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSummary fetches a game summary.
func (c *GameClient) GetSummary(ctx context.Context, gameID string) (*game.Summary, error) {
	out := new(game.Summary)
	if err := c.invoke(ctx, methodGetSummary, gameRequest{GameID: gameID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ChainUnaryInterceptors runs interceptors in order, the first outermost.
func ChainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		chained := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			next := chained
			ic := interceptors[i]
			chained = func(ctx context.Context, req any) (any, error) {
				return ic(ctx, req, info, next)
			}
		}
		return chained(ctx, req)
	}
}

// RecoveryInterceptor turns a panic in a handler into codes.Internal.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				logger.Error("panic in gRPC handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", buf[:n]),
				)
				err = status.Error(codes.Internal, fmt.Sprintf("internal error: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every call with its code and duration.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil && status.Code(err) == codes.Internal {
			logger.Error("gRPC call failed", append(fields, zap.Error(err))...)
		} else {
			logger.Debug("gRPC call", fields...)
		}
		return resp, err
	}
}
