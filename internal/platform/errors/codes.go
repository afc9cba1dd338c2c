// Package errors tags failures with the codes sunpi reports to callers and
// renders them as localized HTTP bodies and gRPC statuses.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Precision errors
	CodeInvalidPrecision     Code = "INVALID_PRECISION"
	CodePrecisionUnavailable Code = "PRECISION_UNAVAILABLE"

	// Measurement errors
	CodeInvalidRadius    Code = "INVALID_RADIUS"
	CodeMalformedPiValue Code = "MALFORMED_PI_VALUE"
	CodeInvalidUnit      Code = "INVALID_UNIT"

	// Service errors
	CodeRateLimited Code = "RATE_LIMITED"
	CodeUnavailable Code = "UNAVAILABLE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - bad input from the caller
	case CodeInvalidPrecision,
		CodeInvalidUnit:
		return codes.InvalidArgument

	// OutOfRange - precision above the configured maximum or not computed in time
	case CodePrecisionUnavailable:
		return codes.OutOfRange

	case CodeRateLimited:
		return codes.ResourceExhausted

	case CodeUnavailable:
		return codes.Unavailable

	// Internal - configuration or computation defects
	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidPrecision,
		CodePrecisionUnavailable,
		CodeInvalidUnit:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
