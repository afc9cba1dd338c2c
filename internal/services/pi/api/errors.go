// Package api holds what the pi service's HTTP and gRPC surfaces share.
package api

import (
	"errors"
	"strconv"

	"github.com/louisbranch/sunpi/internal/core/measure"
	"github.com/louisbranch/sunpi/internal/core/pi"
	apperrors "github.com/louisbranch/sunpi/internal/platform/errors"
)

// DomainError maps core errors to platform error codes. maxDigits fills the
// precision limit into PRECISION_UNAVAILABLE messages.
func DomainError(err error, maxDigits int) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, pi.ErrInvalidPrecision):
		return apperrors.Wrap(apperrors.CodeInvalidPrecision, err)
	case errors.Is(err, pi.ErrPrecisionUnavailable):
		return apperrors.Wrap(apperrors.CodePrecisionUnavailable, err).WithParam("Max", strconv.Itoa(maxDigits))
	case errors.Is(err, measure.ErrInvalidUnit):
		return apperrors.Wrap(apperrors.CodeInvalidUnit, err)
	case errors.Is(err, measure.ErrInvalidRadius):
		return apperrors.Wrap(apperrors.CodeInvalidRadius, err)
	case errors.Is(err, measure.ErrMalformedPiValue), errors.Is(err, pi.ErrMalformedValue):
		return apperrors.Wrap(apperrors.CodeMalformedPiValue, err)
	default:
		return apperrors.Wrap(apperrors.CodeUnknown, err)
	}
}
