package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleetpulse-io/fleetpulse/cmd/fpulse-bot/app/options"
	"github.com/fleetpulse-io/fleetpulse/pkg/app"
)

const (
	commandName = "fpulse-bot"
	commandDesc = `The fleetpulse bot bridges a Telegram chat to the Omnicomm
telematics platform: per-vehicle state lookups, plate/VIN search over the
local identifier snapshot, and fleet activity reports generated as CSV.

It also serves /healthz, /readyz and Prometheus /metrics on the admin
HTTP address.`
)

// NewApp builds the fpulse-bot application.
func NewApp() *app.App {
	opts := options.NewBotServerOptions()
	return app.NewApp(
		commandName,
		"Launch the fleetpulse Telegram bot",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.BotServerOptions) app.RunFunc {
	return func() error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewBotServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create bot server: %w", err)
		}

		return server.Run(ctx)
	}
}
