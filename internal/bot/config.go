package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fleetpulse-io/fleetpulse/internal/core"
	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
	"github.com/fleetpulse-io/fleetpulse/internal/registry"
	"github.com/fleetpulse-io/fleetpulse/internal/report"
	"github.com/fleetpulse-io/fleetpulse/internal/stats"
	"github.com/fleetpulse-io/fleetpulse/internal/storage"
	"github.com/fleetpulse-io/fleetpulse/pkg/log"
	"github.com/fleetpulse-io/fleetpulse/pkg/options"
)

// Config carries every option group the bot server needs.
type Config struct {
	BotOptions      *options.BotOptions
	HttpOptions     *options.HttpOptions
	ProviderOptions *options.ProviderOptions
	IndexOptions    *options.IndexOptions
	ReportOptions   *options.ReportOptions
	StatsOptions    *options.StatsOptions
	S3Options       *options.S3Options
}

// NewBotServer assembles the full dependency graph and returns a runnable
// server.
func (cfg *Config) NewBotServer(ctx context.Context) (*Server, error) {
	client, err := omnicomm.NewClient(&omnicomm.Config{
		BaseURL:  cfg.ProviderOptions.BaseURL,
		Login:    cfg.ProviderOptions.Login,
		Password: cfg.ProviderOptions.Password,
		Timeout:  cfg.ProviderOptions.Timeout,
		TokenTTL: cfg.ProviderOptions.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	index := registry.Load(cfg.IndexOptions.SnapshotPath)
	engine := report.NewEngine(client, index, cfg.ReportOptions.Concurrency)

	statsStore, err := stats.Open(ctx, cfg.StatsOptions.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats store: %w", err)
	}

	var archive storage.Provider
	if cfg.S3Options.Enabled() {
		archive, err = storage.NewMinIOProvider(cfg.S3Options)
		if err != nil {
			return nil, fmt.Errorf("failed to init report archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("report archive unavailable: %w", err)
		}
	}

	svc := core.NewService(&core.Config{
		Client:        client,
		Index:         index,
		Engine:        engine,
		Archive:       archive,
		ArchiveExpiry: cfg.ReportOptions.ArchiveURLExpiry,
	})

	api, err := tgbotapi.NewBotAPI(cfg.BotOptions.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.Debug = cfg.BotOptions.Debug

	return &Server{
		api:         api,
		svc:         svc,
		client:      client,
		stats:       statsStore,
		pollTimeout: int(cfg.BotOptions.PollTimeout.Seconds()),
		defaultDays: cfg.ReportOptions.DefaultDays,
		httpOpts:    cfg.HttpOptions,
		lg:          log.WithName("bot"),
	}, nil
}
