// Package app implements the fpulsectl command tree: terminal access to the
// same identifier index, provider client and report engine the bot serves
// over Telegram.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/fleetpulse-io/fleetpulse/cmd/fpulsectl/app/options"
	"github.com/fleetpulse-io/fleetpulse/internal/core"
	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
	"github.com/fleetpulse-io/fleetpulse/internal/registry"
	"github.com/fleetpulse-io/fleetpulse/internal/report"
)

// NewCommand builds the fpulsectl root command with its subcommands.
func NewCommand() *cobra.Command {
	opts := options.NewCtlOptions()

	cmd := &cobra.Command{
		Use:           "fpulsectl",
		Short:         "Terminal client for the fleetpulse telematics core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Complete(); err != nil {
				return err
			}
			return opts.Validate()
		},
	}
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newFindCommand(opts),
		newStateCommand(opts),
		newReportCommand(opts),
		newVehiclesCommand(opts),
	)
	return cmd
}

func newFindCommand(opts *options.CtlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find QUERY",
		Short: "Search the vehicle snapshot by plate, garage number or VIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := registry.Load(opts.IndexOptions.SnapshotPath)
			svc := core.NewService(&core.Config{Index: index})

			results, err := svc.Search(args[0], 20)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no matches")
				return nil
			}

			table := uitable.New()
			table.MaxColWidth = 40
			table.AddRow("TERMINAL ID", "PLATE", "NAME", "BRAND", "MODEL")
			for _, r := range results {
				table.AddRow(r.TerminalID, r.Details.Plate, r.Details.Name, r.Details.Brand, r.Details.Model)
			}
			fmt.Println(table)
			return nil
		},
	}
}

func newStateCommand(opts *options.CtlOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state IDENTIFIER",
		Short: "Show the current state of one vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			svc, client, err := newService(opts)
			if err != nil {
				return err
			}
			defer client.Close()

			state, terminalID, err := svc.State(ctx, args[0])
			if err != nil {
				return err
			}

			table := uitable.New()
			table.MaxColWidth = 60
			table.AddRow("terminal id:", terminalID)
			if d := svc.Details(terminalID); d.Plate != "" {
				table.AddRow("plate:", d.Plate)
				table.AddRow("name:", d.Name)
			}
			if state.Status != nil {
				table.AddRow("active:", fmt.Sprintf("%t", *state.Status))
			}
			if state.Address != "" {
				table.AddRow("address:", state.Address)
			}
			if state.CurrentFuel != nil {
				table.AddRow("fuel:", fmt.Sprintf("%.1f l", *state.CurrentFuel))
			}
			if state.CurrentSpeed != nil {
				table.AddRow("speed:", fmt.Sprintf("%.0f km/h", *state.CurrentSpeed))
			}
			if state.LastDataDate != nil {
				ts := omnicomm.NormalizeTimestamp(*state.LastDataDate)
				table.AddRow("last data:", ts.Format("2006-01-02 15:04:05"))
			}
			if state.LastGPS != nil {
				table.AddRow("position:", fmt.Sprintf("%.6f, %.6f", state.LastGPS.Latitude, state.LastGPS.Longitude))
			}
			if state.Voltage != nil {
				table.AddRow("voltage:", fmt.Sprintf("%.1f V", *state.Voltage))
			}
			fmt.Println(table)
			return nil
		},
	}
}

func newReportCommand(opts *options.CtlOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "report [TERMINAL_ID...]",
		Short: "Generate a fleet activity report and write it as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			svc, client, err := newService(opts)
			if err != nil {
				return err
			}
			defer client.Close()

			if days == 0 {
				days = opts.ReportOptions.DefaultDays
			}

			progress := func(completed, total int) {
				fmt.Fprintf(os.Stderr, "\r%d/%d vehicles", completed, total)
			}
			res, err := svc.GenerateReport(ctx, args, days, progress)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr)

			data, err := res.CSV()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(opts.ReportOptions.OutputDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			path := filepath.Join(opts.ReportOptions.OutputDir, res.Filename())
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			var ok, noData, failed int
			for _, row := range res.Rows {
				switch row.Status {
				case report.StatusOK:
					ok++
				case report.StatusNoData:
					noData++
				default:
					failed++
				}
			}

			table := uitable.New()
			table.AddRow("report:", path)
			table.AddRow("window:", fmt.Sprintf("%s — %s", res.From.Format("2006-01-02"), res.To.Format("2006-01-02")))
			table.AddRow("vehicles:", fmt.Sprintf("%d", len(res.Rows)))
			table.AddRow("with data:", fmt.Sprintf("%d", ok))
			table.AddRow("no data:", fmt.Sprintf("%d", noData))
			table.AddRow("errors:", fmt.Sprintf("%d", failed))
			fmt.Println(table)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Report window in days (defaults to report.default-days).")
	return cmd
}

func newVehiclesCommand(opts *options.CtlOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List vehicles and terminals as the provider reports them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			_, client, err := newService(opts)
			if err != nil {
				return err
			}
			defer client.Close()

			vehicles, err := client.Vehicles(ctx)
			if err != nil {
				return err
			}
			if raw {
				terminals, err := client.Terminals(ctx)
				if err != nil {
					return err
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"vehicles":  vehicles,
					"terminals": terminals,
				})
			}
			return json.NewEncoder(os.Stdout).Encode(vehicles)
		},
	}
	cmd.Flags().BoolVar(&raw, "with-terminals", false, "Also fetch and include the terminal inventory.")
	return cmd
}

// newService validates provider credentials and wires the service graph the
// online subcommands share.
func newService(opts *options.CtlOptions) (*core.Service, *omnicomm.Client, error) {
	if errs := opts.ProviderOptions.Validate(); len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}

	client, err := omnicomm.NewClient(&omnicomm.Config{
		BaseURL:  opts.ProviderOptions.BaseURL,
		Login:    opts.ProviderOptions.Login,
		Password: opts.ProviderOptions.Password,
		Timeout:  opts.ProviderOptions.Timeout,
		TokenTTL: opts.ProviderOptions.TokenTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	index := registry.Load(opts.IndexOptions.SnapshotPath)
	engine := report.NewEngine(client, index, opts.ReportOptions.Concurrency)

	svc := core.NewService(&core.Config{
		Client: client,
		Index:  index,
		Engine: engine,
	})
	return svc, client, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
