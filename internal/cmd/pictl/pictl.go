// Package pictl builds the command tree for the pi service CLI.
package pictl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/louisbranch/sunpi/internal/platform/branding"
	entrypoint "github.com/louisbranch/sunpi/internal/platform/cmd"
	"github.com/louisbranch/sunpi/internal/platform/discovery"
	httpapi "github.com/louisbranch/sunpi/internal/services/pi/api/http"
	"github.com/louisbranch/sunpi/internal/services/pi/client"
	"github.com/spf13/cobra"
)

// Config holds pictl defaults read from the environment.
type Config struct {
	Addr   string `env:"SUNPI_PI_ADDR"`
	Locale string `env:"SUNPI_PI_LOCALE"`
}

// ParseConfig loads Config from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Addr = discovery.HTTPBaseURL(cfg.Addr, discovery.ServicePi)
	return cfg, nil
}

// Run executes the command tree with args.
func Run(ctx context.Context, cfg Config, args []string, stdout, stderr io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePictl, func(ctx context.Context) error {
		cmd := NewCommand(cfg)
		cmd.SetArgs(args)
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		return cmd.ExecuteContext(ctx)
	})
}

// NewCommand creates the pictl command tree.
//
// Commands provided:
//   - pi [--digits N]
//   - latest
//   - sun [--digits N] [--unit km|miles]
//
// Global flags: --addr, --lang, --json
func NewCommand(cfg Config) *cobra.Command {
	var (
		jsonOutput bool
		apiClient  *client.Client
	)

	cmd := &cobra.Command{
		Use:   "pictl",
		Short: "Query the " + branding.AppName + " pi service",
		Long:  "Fetch π at a chosen precision and the Sun's circumference from a running pi service.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			var err error
			apiClient, err = client.New(cfg.Addr, client.WithLocale(cfg.Locale))
			if err != nil {
				return fmt.Errorf("failed to initialize client: %w", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfg.Addr, "addr", cfg.Addr, "pi service base URL")
	cmd.PersistentFlags().StringVar(&cfg.Locale, "lang", cfg.Locale, "Preferred locale for error messages")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	cmd.AddCommand(piCmd(&apiClient, &jsonOutput))
	cmd.AddCommand(latestCmd(&apiClient, &jsonOutput))
	cmd.AddCommand(sunCmd(&apiClient, &jsonOutput))

	return cmd
}

func piCmd(apiClient **client.Client, jsonOutput *bool) *cobra.Command {
	var digits int

	cmd := &cobra.Command{
		Use:   "pi",
		Short: "Print π to a number of decimal places",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := (*apiClient).GetPi(cmd.Context(), digits)
			if err != nil {
				return err
			}
			return outputPi(cmd.OutOrStdout(), value.String(), value.Digits(), *jsonOutput)
		},
	}

	cmd.Flags().IntVar(&digits, "digits", httpapi.DefaultDigits, "Digits after the decimal point")
	return cmd
}

func latestCmd(apiClient **client.Client, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Print the most precise π the service has computed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := (*apiClient).Latest(cmd.Context())
			if err != nil {
				return err
			}
			return outputPi(cmd.OutOrStdout(), value.String(), value.Digits(), *jsonOutput)
		},
	}
}

func sunCmd(apiClient **client.Client, jsonOutput *bool) *cobra.Command {
	var (
		digits int
		unit   string
	)

	cmd := &cobra.Command{
		Use:   "sun",
		Short: "Print the circumference of the Sun",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := (*apiClient).Circumference(cmd.Context(), digits, unit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if *jsonOutput {
				return writeJSON(out, httpapi.CircumferenceResponse{
					Circumference: result.Display,
					Unit:          result.Unit,
					Radius:        result.Radius,
					PiDigits:      result.PiDigits,
				})
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "CIRCUMFERENCE\t%s %s\n", result.Display, result.Unit)
			fmt.Fprintf(w, "RADIUS\t%s km\n", result.Radius)
			fmt.Fprintf(w, "PI DIGITS\t%d\n", result.PiDigits)
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&digits, "digits", httpapi.DefaultDigits, "Digits of π used in the calculation")
	cmd.Flags().StringVar(&unit, "unit", "km", "Unit: km or miles")
	return cmd
}

func outputPi(out io.Writer, value string, digits int, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(out, httpapi.PiResponse{Pi: value, DP: fmt.Sprint(digits)})
	}
	_, err := fmt.Fprintln(out, value)
	return err
}

func writeJSON(out io.Writer, payload any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
