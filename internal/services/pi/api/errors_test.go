package api

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/louisbranch/sunpi/internal/core/measure"
	"github.com/louisbranch/sunpi/internal/core/pi"
	apperrors "github.com/louisbranch/sunpi/internal/platform/errors"
)

func TestDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.Code
	}{
		{name: "invalid precision", err: fmt.Errorf("%w: -1", pi.ErrInvalidPrecision), want: apperrors.CodeInvalidPrecision},
		{name: "unavailable", err: fmt.Errorf("%w: %w", pi.ErrPrecisionUnavailable, context.DeadlineExceeded), want: apperrors.CodePrecisionUnavailable},
		{name: "unit", err: measure.ErrInvalidUnit, want: apperrors.CodeInvalidUnit},
		{name: "radius", err: measure.ErrInvalidRadius, want: apperrors.CodeInvalidRadius},
		{name: "malformed measure", err: measure.ErrMalformedPiValue, want: apperrors.CodeMalformedPiValue},
		{name: "malformed value", err: pi.ErrMalformedValue, want: apperrors.CodeMalformedPiValue},
		{name: "other", err: errors.New("disk on fire"), want: apperrors.CodeUnknown},
		{name: "already mapped", err: apperrors.New(apperrors.CodeRateLimited, "slow"), want: apperrors.CodeRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DomainError(tt.err, 10000)
			if code := apperrors.CodeOf(got); code != tt.want {
				t.Fatalf("code = %s, want %s", code, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Fatal("mapped error must keep its cause")
			}
		})
	}
	if DomainError(nil, 1) != nil {
		t.Fatal("expected nil")
	}
}

func TestDomainErrorCarriesMaxDigits(t *testing.T) {
	localized := apperrors.Localize(DomainError(pi.ErrPrecisionUnavailable, 2500), "en-US")
	if localized.Message != "Pi is only available up to 2500 digits." {
		t.Fatalf("message = %q", localized.Message)
	}
}
