package grpcapi

import (
	"context"
	"fmt"

	"github.com/jmerrifield20/anchorledger/internal/registry/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultMaxBatch bounds the number of hashes accepted by one AnchorBatch call.
const DefaultMaxBatch = 1000

// Server exposes an AnchorService over the Anchor gRPC service.
type Server struct {
	UnimplementedAnchorServer
	svc      *service.AnchorService
	maxBatch int
	logger   *zap.Logger
}

// NewServer creates a Server backed by svc.
func NewServer(svc *service.AnchorService, logger *zap.Logger) *Server {
	return &Server{svc: svc, maxBatch: DefaultMaxBatch, logger: logger}
}

// SetMaxBatch overrides the per-call batch size limit.
func (s *Server) SetMaxBatch(n int) {
	if n > 0 {
		s.maxBatch = n
	}
}

// AnchorSingle anchors {"hash"} for the calling submitter.
func (s *Server) AnchorSingle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	hash, err := digestField(in, "hash")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rec, err := s.svc.AnchorSingle(ctx, hash, SubmitterFromContext(ctx))
	if err != nil {
		return nil, s.fail("AnchorSingle", err)
	}
	return s.reply(rec)
}

// AnchorRoot anchors the Merkle root {"hash"} for the calling submitter.
func (s *Server) AnchorRoot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	root, err := digestField(in, "hash")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rec, err := s.svc.AnchorRoot(ctx, root, SubmitterFromContext(ctx))
	if err != nil {
		return nil, s.fail("AnchorRoot", err)
	}
	return s.reply(rec)
}

// AnchorBatch anchors {"hashes"} in order and returns the per-item result.
func (s *Server) AnchorBatch(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	hashes, err := digestListField(in, "hashes", true)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(hashes) > s.maxBatch {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("batch exceeds %d hashes", s.maxBatch))
	}
	res, err := s.svc.AnchorBatch(ctx, hashes, SubmitterFromContext(ctx))
	if err != nil {
		return nil, s.fail("AnchorBatch", err)
	}
	return s.reply(res)
}

// GetAnchor returns the record for {"hash"}.
func (s *Server) GetAnchor(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	hash, err := digestField(in, "hash")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rec, err := s.svc.GetAnchor(ctx, hash)
	if err != nil {
		return nil, s.fail("GetAnchor", err)
	}
	return s.reply(rec)
}

// VerifyInclusion checks {"proof", "root", "leaf"}; with "check_root" it
// also reports whether root is anchored.
func (s *Server) VerifyInclusion(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	proof, err := digestListField(in, "proof", false)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	root, err := digestField(in, "root")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	leaf, err := digestField(in, "leaf")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if !in.GetFields()["check_root"].GetBoolValue() {
		return s.reply(map[string]bool{"valid": s.svc.VerifyInclusion(proof, root, leaf)})
	}
	v, err := s.svc.VerifyAgainstRegistry(ctx, proof, root, leaf)
	if err != nil {
		return nil, s.fail("VerifyInclusion", err)
	}
	return s.reply(v)
}

func (s *Server) reply(v any) (*structpb.Struct, error) {
	st, err := toStruct(v)
	if err != nil {
		s.logger.Error("encode grpc reply", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return st, nil
}

func (s *Server) fail(method string, err error) error {
	st, ok := toStatus(err)
	if !ok {
		s.logger.Error("anchor service", zap.String("method", method), zap.Error(err))
	}
	return st
}

var _ AnchorServer = (*Server)(nil)
