package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/louisbranch/sunpi/internal/core/measure"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// DefaultDigits is used when a tool call omits digits.
const DefaultDigits = 100

// PiClient fetches π expansions from the pi service.
type PiClient interface {
	GetPi(ctx context.Context, digits uint32, opts ...grpc.CallOption) (string, error)
}

// PiDigitsInput represents the MCP tool input for fetching π.
type PiDigitsInput struct {
	Digits *int   `json:"digits,omitempty" jsonschema:"number of digits after the decimal point (default 100)"`
	Locale string `json:"locale,omitempty" jsonschema:"optional BCP 47 locale for error messages, e.g. pt-BR"`
}

// PiDigitsResult represents the MCP tool output for fetching π.
type PiDigitsResult struct {
	Pi     string `json:"pi" jsonschema:"π truncated to the requested digits"`
	Digits int    `json:"digits" jsonschema:"number of digits after the decimal point"`
}

// SunCircumferenceInput represents the MCP tool input for the circumference.
type SunCircumferenceInput struct {
	Digits *int   `json:"digits,omitempty" jsonschema:"digits of π used in the calculation (default 100)"`
	Unit   string `json:"unit,omitempty" jsonschema:"km or miles (default km)"`
	Locale string `json:"locale,omitempty" jsonschema:"optional BCP 47 locale for error messages, e.g. pt-BR"`
}

// SunCircumferenceResult represents the MCP tool output for the circumference.
type SunCircumferenceResult struct {
	Circumference string `json:"circumference" jsonschema:"circumference rounded to two decimal places"`
	Unit          string `json:"unit" jsonschema:"unit of the circumference"`
	Radius        string `json:"radius" jsonschema:"radius in kilometers"`
	PiDigits      int    `json:"pi_digits" jsonschema:"digits of π used"`
}

// PiDigitsTool defines the MCP tool schema for fetching π.
func PiDigitsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "pi_digits",
		Description: "Returns π truncated to the requested number of decimal places",
	}
}

// SunCircumferenceTool defines the MCP tool schema for the Sun's circumference.
func SunCircumferenceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "sun_circumference",
		Description: "Computes the circumference of the Sun from π at the requested precision",
	}
}

// PiDigitsHandler fetches π from the pi service.
func PiDigitsHandler(client PiClient) mcp.ToolHandlerFor[PiDigitsInput, PiDigitsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PiDigitsInput) (*mcp.CallToolResult, PiDigitsResult, error) {
		value, err := fetchPi(ctx, client, input.Digits, input.Locale)
		if err != nil {
			return nil, PiDigitsResult{}, err
		}
		_, fraction, _ := strings.Cut(value, ".")
		return nil, PiDigitsResult{Pi: value, Digits: len(fraction)}, nil
	}
}

// SunCircumferenceHandler computes the circumference of radius.
func SunCircumferenceHandler(client PiClient, radius measure.Radius) mcp.ToolHandlerFor[SunCircumferenceInput, SunCircumferenceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SunCircumferenceInput) (*mcp.CallToolResult, SunCircumferenceResult, error) {
		unit, err := measure.ParseUnit(input.Unit)
		if err != nil {
			return nil, SunCircumferenceResult{}, err
		}
		value, err := fetchPi(ctx, client, input.Digits, input.Locale)
		if err != nil {
			return nil, SunCircumferenceResult{}, err
		}
		result, err := measure.Circumference(value, radius, unit)
		if err != nil {
			return nil, SunCircumferenceResult{}, fmt.Errorf("compute circumference: %w", err)
		}
		return nil, SunCircumferenceResult{
			Circumference: result.Display,
			Unit:          unit.Symbol(),
			Radius:        radius.String(),
			PiDigits:      result.PiDigits,
		}, nil
	}
}

func fetchPi(ctx context.Context, client PiClient, requested *int, locale string) (string, error) {
	if client == nil {
		return "", errors.New("pi client is not configured")
	}
	digits := DefaultDigits
	if requested != nil {
		digits = *requested
	}
	if digits < 0 || uint64(digits) > math.MaxUint32 {
		return "", fmt.Errorf("digits must be a non-negative integer, got %d", digits)
	}

	callCtx, cancel := context.WithTimeout(ctx, grpcCallTimeout)
	defer cancel()
	if locale = strings.TrimSpace(locale); locale != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, "accept-language", locale)
	}

	value, err := client.GetPi(callCtx, uint32(digits))
	if err != nil {
		return "", fmt.Errorf("get pi failed: %s", describeStatus(err))
	}
	if value == "" {
		return "", errors.New("get pi response is missing")
	}
	return value, nil
}

// describeStatus prefers the localized message attached by the pi service.
func describeStatus(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return err.Error()
	}
	for _, detail := range st.Details() {
		if localized, ok := detail.(*errdetails.LocalizedMessage); ok && localized.GetMessage() != "" {
			return localized.GetMessage()
		}
	}
	return st.Message()
}
