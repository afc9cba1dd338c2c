package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/louisbranch/sunpi/internal/core/pi"
	httpapi "github.com/louisbranch/sunpi/internal/services/pi/api/http"
)

func newTestServer(t *testing.T) (*Client, *pi.Provider) {
	t.Helper()
	provider, err := pi.NewProvider(pi.WithMaxDigits(100))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	handler, err := httpapi.NewHandler(provider)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)

	c, err := New(server.URL, WithLocale("en-US"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, provider
}

func TestGetPi(t *testing.T) {
	c, _ := newTestServer(t)

	value, err := c.GetPi(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetPi: %v", err)
	}
	if value.String() != "3.1415926535" {
		t.Fatalf("GetPi(10) = %q", value.String())
	}
}

func TestGetPiSurfacesStatusErrors(t *testing.T) {
	c, _ := newTestServer(t)

	_, err := c.GetPi(context.Background(), 101)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want StatusError", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest || statusErr.Code != "PRECISION_UNAVAILABLE" {
		t.Fatalf("status error = %+v", statusErr)
	}
	if statusErr.Message != "Pi is only available up to 100 digits." {
		t.Fatalf("message = %q", statusErr.Message)
	}
}

func TestLatestAndCircumference(t *testing.T) {
	c, _ := newTestServer(t)

	_, err := c.Latest(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("Latest before compute error = %v", err)
	}

	circumference, err := c.Circumference(context.Background(), 8, "miles")
	if err != nil {
		t.Fatalf("Circumference: %v", err)
	}
	want := Circumference{Display: "2716144.38", Unit: "miles", Radius: "695700", PiDigits: 8}
	if circumference != want {
		t.Fatalf("circumference = %+v, want %+v", circumference, want)
	}

	latest, err := c.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Digits() != 8 {
		t.Fatalf("latest digits = %d, want 8", latest.Digits())
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := New(url)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.GetPi(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestTimeoutIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c, err := New(server.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.GetPi(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	c, _ := New(server.URL)
	_, err := c.GetPi(context.Background(), 1)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway || statusErr.Code != "" {
		t.Fatalf("error = %v", err)
	}
}

func TestMalformedPiIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pi":"3.14","dp":"5"}`))
	}))
	defer server.Close()

	c, _ := New(server.URL)
	if _, err := c.GetPi(context.Background(), 5); !errors.Is(err, pi.ErrMalformedValue) {
		t.Fatalf("error = %v, want ErrMalformedValue", err)
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "ftp://example.com", "://bad"} {
		if _, err := New(raw); err == nil {
			t.Fatalf("New(%q) expected error", raw)
		}
	}
	if _, err := New("http://localhost:8080", WithHTTPClient(nil)); err == nil {
		t.Fatal("expected error for nil http client")
	}
}
