package errors

import (
	stderrors "errors"
	"maps"

	"github.com/louisbranch/sunpi/internal/platform/i18n/catalog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain identifies sunpi in errdetails.ErrorInfo.
const ErrorDomain = "sunpi"

// internalMessage is the only status message callers see for Internal errors.
const internalMessage = "an unexpected error occurred"

// Error tags a failure with the Code reported to callers. Its own text is for
// logs only; callers get the catalog message for Code.
type Error struct {
	Code Code
	// Params fill the placeholders of the Code's message template.
	Params map[string]string
	cause  error
}

// New returns an Error whose log text is message.
func New(code Code, message string) *Error {
	return &Error{Code: code, cause: stderrors.New(message)}
}

// Wrap tags cause with code.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, cause: cause}
}

// WithParam returns a copy of e with the template parameter key set.
func (e *Error) WithParam(key, value string) *Error {
	params := make(map[string]string, len(e.Params)+1)
	maps.Copy(params, e.Params)
	params[key] = value
	return &Error{Code: e.Code, Params: params, cause: e.cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf returns the Code carried by err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Localized is an error as a caller sees it.
type Localized struct {
	Code    Code
	Locale  string
	Message string
}

// Localize renders err's message in the catalog closest to preference, a
// locale name or Accept-Language value. Untagged errors become CodeUnknown.
func Localize(err error, preference string) Localized {
	cat := catalog.Default().Match(preference)
	var params map[string]string
	var e *Error
	if stderrors.As(err, &e) {
		params = e.Params
	}
	code := CodeOf(err)
	return Localized{Code: code, Locale: cat.Locale(), Message: cat.Render(string(code), params)}
}

// GRPCStatus converts err into a status carrying ErrorInfo and
// LocalizedMessage details. Anything that maps to codes.Internal is reported
// as CodeUnknown with a fixed message and no parameters.
func GRPCStatus(err error, preference string) error {
	if err == nil {
		return nil
	}
	localized := Localize(err, preference)
	grpcCode := localized.Code.GRPCCode()
	message := localized.Message
	var params map[string]string
	if grpcCode == codes.Internal {
		localized = Localize(Wrap(CodeUnknown, nil), preference)
		message = internalMessage
	} else {
		var e *Error
		if stderrors.As(err, &e) {
			params = e.Params
		}
	}

	st, detailErr := status.New(grpcCode, message).WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(localized.Code),
			Domain:   ErrorDomain,
			Metadata: params,
		},
		&errdetails.LocalizedMessage{
			Locale:  localized.Locale,
			Message: localized.Message,
		},
	)
	if detailErr != nil {
		return status.Error(grpcCode, message)
	}
	return st.Err()
}
