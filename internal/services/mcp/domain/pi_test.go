package domain

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/louisbranch/sunpi/internal/core/measure"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const pi20 = "3.14159265358979323846"

type fakePiClient struct {
	err        error
	lastDigits uint32
	lastLocale []string
	calls      int
}

func (f *fakePiClient) GetPi(ctx context.Context, digits uint32, _ ...grpc.CallOption) (string, error) {
	f.calls++
	f.lastDigits = digits
	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		f.lastLocale = md.Get("accept-language")
	}
	if f.err != nil {
		return "", f.err
	}
	if digits == 0 {
		return "3", nil
	}
	return pi20[:2+int(digits)], nil
}

func intPtr(v int) *int { return &v }

func TestPiDigitsHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := &fakePiClient{}
		_, result, err := PiDigitsHandler(client)(context.Background(), nil, PiDigitsInput{Digits: intPtr(10)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Pi != "3.1415926535" {
			t.Errorf("expected pi %q, got %q", "3.1415926535", result.Pi)
		}
		if result.Digits != 10 {
			t.Errorf("expected 10 digits, got %d", result.Digits)
		}
	})

	t.Run("zero digits", func(t *testing.T) {
		_, result, err := PiDigitsHandler(&fakePiClient{})(context.Background(), nil, PiDigitsInput{Digits: intPtr(0)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Pi != "3" || result.Digits != 0 {
			t.Errorf("expected integer pi, got %+v", result)
		}
	})

	t.Run("default digits", func(t *testing.T) {
		client := &fakePiClient{err: status.Error(codes.OutOfRange, "too many")}
		_, _, _ = PiDigitsHandler(client)(context.Background(), nil, PiDigitsInput{})
		if client.lastDigits != DefaultDigits {
			t.Errorf("expected %d digits requested, got %d", DefaultDigits, client.lastDigits)
		}
	})

	t.Run("negative digits", func(t *testing.T) {
		client := &fakePiClient{}
		_, _, err := PiDigitsHandler(client)(context.Background(), nil, PiDigitsInput{Digits: intPtr(-1)})
		if err == nil {
			t.Fatal("expected error")
		}
		if client.calls != 0 {
			t.Errorf("expected no gRPC call, got %d", client.calls)
		}
	})

	t.Run("digits beyond uint32", func(t *testing.T) {
		if strconv.IntSize < 64 {
			t.Skip("int cannot exceed uint32 on this platform")
		}
		client := &fakePiClient{}
		_, _, err := PiDigitsHandler(client)(context.Background(), nil, PiDigitsInput{Digits: intPtr(math.MaxInt)})
		if err == nil {
			t.Fatal("expected error")
		}
		if client.calls != 0 {
			t.Errorf("expected no gRPC call, got %d", client.calls)
		}
	})

	t.Run("gRPC error", func(t *testing.T) {
		client := &fakePiClient{err: errors.New("connection refused")}
		_, _, err := PiDigitsHandler(client)(context.Background(), nil, PiDigitsInput{Digits: intPtr(5)})
		if err == nil || !strings.Contains(err.Error(), "connection refused") {
			t.Fatalf("expected connection error, got %v", err)
		}
	})

	t.Run("nil client", func(t *testing.T) {
		if _, _, err := PiDigitsHandler(nil)(context.Background(), nil, PiDigitsInput{}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestPiDigitsHandlerPrefersLocalizedMessage(t *testing.T) {
	st := status.New(codes.OutOfRange, "pi is only available up to 50 digits")
	st, err := st.WithDetails(&errdetails.LocalizedMessage{Locale: "pt-BR", Message: "Pi só está disponível com até 50 dígitos."})
	if err != nil {
		t.Fatalf("with details: %v", err)
	}
	client := &fakePiClient{err: st.Err()}

	_, _, err = PiDigitsHandler(client)(context.Background(), nil, PiDigitsInput{Digits: intPtr(51), Locale: "pt-BR"})
	if err == nil || !strings.Contains(err.Error(), "Pi só está disponível") {
		t.Fatalf("expected localized message, got %v", err)
	}
	if len(client.lastLocale) != 1 || client.lastLocale[0] != "pt-BR" {
		t.Fatalf("expected accept-language metadata, got %v", client.lastLocale)
	}
}

func TestSunCircumferenceHandler(t *testing.T) {
	radius := measure.MustRadius("695700")

	t.Run("kilometers by default", func(t *testing.T) {
		_, result, err := SunCircumferenceHandler(&fakePiClient{}, radius)(context.Background(), nil, SunCircumferenceInput{Digits: intPtr(8)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Circumference != "4371212.01" || result.Unit != "km" {
			t.Errorf("unexpected result: %+v", result)
		}
		if result.Radius != "695700" || result.PiDigits != 8 {
			t.Errorf("unexpected radius or digits: %+v", result)
		}
	})

	t.Run("miles", func(t *testing.T) {
		_, result, err := SunCircumferenceHandler(&fakePiClient{}, radius)(context.Background(), nil, SunCircumferenceInput{Digits: intPtr(8), Unit: "miles"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Circumference != "2716144.38" || result.Unit != "miles" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("unknown unit", func(t *testing.T) {
		client := &fakePiClient{}
		_, _, err := SunCircumferenceHandler(client, radius)(context.Background(), nil, SunCircumferenceInput{Unit: "furlongs"})
		if !errors.Is(err, measure.ErrInvalidUnit) {
			t.Fatalf("expected ErrInvalidUnit, got %v", err)
		}
		if client.calls != 0 {
			t.Errorf("expected no gRPC call, got %d", client.calls)
		}
	})
}
