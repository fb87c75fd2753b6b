// Package api provides the gRPC transfer service implementation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/courier/internal/core/auth"
	"github.com/solatis/courier/internal/core/config"
	"github.com/solatis/courier/internal/identity"
	pb "github.com/solatis/courier/internal/protobuf/courier/transfer/v1"
	"github.com/solatis/courier/internal/resolution"
	"github.com/solatis/courier/internal/transfer"
	"github.com/solatis/courier/internal/types"
)

// TransferService implements the gRPC TransferServer interface.
// Thin orchestration layer over the transfer runner. Each request gets its
// own pipeline so schema catalogs never leak between bundles.
type TransferService struct {
	pb.UnimplementedTransferServer
	ids     identity.Map
	cfg     *config.TransferAPIConfig
	metrics *resolution.Metrics
	logger  *slog.Logger
}

// NewTransferService creates service instance with dependencies. metrics
// may be nil.
func NewTransferService(ids identity.Map, cfg *config.TransferAPIConfig, metrics *resolution.Metrics, logger *slog.Logger) (*TransferService, error) {
	if ids == nil {
		return nil, fmt.Errorf("ids cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TransferService{
		ids:     ids,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// PackageBundle converts local ids in the bundle to stable keys.
func (s *TransferService) PackageBundle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, types.Packaging, req)
}

// ExtractBundle converts stable keys in the bundle to local ids.
func (s *TransferService) ExtractBundle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.run(ctx, types.Extracting, req)
}

// bundleResponse is the response shape: the resolved bundle plus results.
type bundleResponse struct {
	*transfer.Bundle
	Results []transfer.ItemResult `json:"results"`
}

func (s *TransferService) run(ctx context.Context, direction types.Direction, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "bundle required")
	}

	data, err := protojson.Marshal(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	bundle, err := transfer.DecodeBundle(bytes.NewReader(data))
	if err != nil {
		return nil, statusFromError(err)
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	logger := s.logger.With(slog.String("api_key", auth.KeyNameFromContext(ctx)))
	pipeline, err := transfer.NewPipeline(s.ids, logger, s.metrics)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	runner := pipeline.Runner(s.ids,
		transfer.WithMaxBatchSize(s.cfg.MaxBatchSize),
		transfer.WithMetrics(s.metrics),
		transfer.WithLogger(logger),
	)
	result, err := runner.Run(ctx, direction, bundle)
	if err != nil {
		return nil, statusFromError(err)
	}

	encoded, err := json.Marshal(bundleResponse{Bundle: result.Bundle, Results: result.Results})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(encoded, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
