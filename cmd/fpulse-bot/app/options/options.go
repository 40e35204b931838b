package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/fleetpulse-io/fleetpulse/internal/bot"
	"github.com/fleetpulse-io/fleetpulse/pkg/app"
	"github.com/fleetpulse-io/fleetpulse/pkg/log"
	"github.com/fleetpulse-io/fleetpulse/pkg/options"
)

// BotServerOptions aggregates every option group of the bot binary.
type BotServerOptions struct {
	BotOptions      *options.BotOptions      `json:"bot" mapstructure:"bot"`
	HttpOptions     *options.HttpOptions     `json:"http" mapstructure:"http"`
	ProviderOptions *options.ProviderOptions `json:"provider" mapstructure:"provider"`
	IndexOptions    *options.IndexOptions    `json:"index" mapstructure:"index"`
	ReportOptions   *options.ReportOptions   `json:"report" mapstructure:"report"`
	StatsOptions    *options.StatsOptions    `json:"stats" mapstructure:"stats"`
	S3Options       *options.S3Options       `json:"s3" mapstructure:"s3"`
	Log             *log.Options             `json:"log" mapstructure:"log"`
}

var _ app.Options = (*BotServerOptions)(nil)

func NewBotServerOptions() *BotServerOptions {
	return &BotServerOptions{
		BotOptions:      options.NewBotOptions(),
		HttpOptions:     options.NewHttpOptions(),
		ProviderOptions: options.NewProviderOptions(),
		IndexOptions:    options.NewIndexOptions(),
		ReportOptions:   options.NewReportOptions(),
		StatsOptions:    options.NewStatsOptions(),
		S3Options:       options.NewS3Options(),
		Log:             log.NewOptions(),
	}
}

func (o *BotServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.BotOptions.AddFlags(fs)
	o.HttpOptions.AddFlags(fs)
	o.ProviderOptions.AddFlags(fs)
	o.IndexOptions.AddFlags(fs)
	o.ReportOptions.AddFlags(fs)
	o.StatsOptions.AddFlags(fs)
	o.S3Options.AddFlags(fs)
	o.Log.AddFlags(fs)
}

func (o *BotServerOptions) Complete() error {
	log.Init(o.Log)
	return nil
}

func (o *BotServerOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.BotOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.ProviderOptions.Validate()...)
	errs = append(errs, o.IndexOptions.Validate()...)
	errs = append(errs, o.ReportOptions.Validate()...)
	errs = append(errs, o.StatsOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

func (o *BotServerOptions) Config() (*bot.Config, error) {
	return &bot.Config{
		BotOptions:      o.BotOptions,
		HttpOptions:     o.HttpOptions,
		ProviderOptions: o.ProviderOptions,
		IndexOptions:    o.IndexOptions,
		ReportOptions:   o.ReportOptions,
		StatsOptions:    o.StatsOptions,
		S3Options:       o.S3Options,
	}, nil
}
