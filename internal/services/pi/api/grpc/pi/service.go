// Package pi exposes π digits over gRPC.
package pi

import (
	"context"
	"log"
	"strings"

	corepi "github.com/louisbranch/sunpi/internal/core/pi"
	apperrors "github.com/louisbranch/sunpi/internal/platform/errors"
	"github.com/louisbranch/sunpi/internal/services/pi/api"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// localeMetadataKey carries the caller's preferred language.
const localeMetadataKey = "accept-language"

// Provider produces π expansions.
type Provider interface {
	Get(ctx context.Context, digits int) (corepi.Value, error)
	MaxDigits() int
}

// Service implements PiServiceServer.
type Service struct {
	provider Provider
}

// NewService creates a pi service backed by provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// GetPi returns π to the requested number of fractional digits.
func (s *Service) GetPi(ctx context.Context, in *wrapperspb.UInt32Value) (*wrapperspb.StringValue, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "digits are required")
	}
	if s == nil || s.provider == nil {
		return nil, status.Error(codes.Internal, "pi provider is not configured")
	}

	value, err := s.provider.Get(ctx, int(in.GetValue()))
	if err != nil {
		mapped := api.DomainError(err, s.provider.MaxDigits())
		if apperrors.CodeOf(mapped).GRPCCode() == codes.Internal {
			log.Printf("grpc GetPi digits=%d: %v", in.GetValue(), err)
		}
		return nil, apperrors.GRPCStatus(mapped, localeFromContext(ctx))
	}
	return wrapperspb.String(value.String()), nil
}

func localeFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(localeMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
