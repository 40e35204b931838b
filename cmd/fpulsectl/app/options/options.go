package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/fleetpulse-io/fleetpulse/pkg/log"
	"github.com/fleetpulse-io/fleetpulse/pkg/options"
)

// CtlOptions is the option set shared by every fpulsectl subcommand.
type CtlOptions struct {
	ProviderOptions *options.ProviderOptions `json:"provider" mapstructure:"provider"`
	IndexOptions    *options.IndexOptions    `json:"index" mapstructure:"index"`
	ReportOptions   *options.ReportOptions   `json:"report" mapstructure:"report"`
	Log             *log.Options             `json:"log" mapstructure:"log"`
}

func NewCtlOptions() *CtlOptions {
	o := &CtlOptions{
		ProviderOptions: options.NewProviderOptions(),
		IndexOptions:    options.NewIndexOptions(),
		ReportOptions:   options.NewReportOptions(),
		Log:             log.NewOptions(),
	}
	// Terminal tool: keep log output human-readable by default.
	o.Log.Format = "console"
	o.Log.Level = "warn"
	return o
}

func (o *CtlOptions) AddFlags(fs *pflag.FlagSet) {
	o.ProviderOptions.AddFlags(fs)
	o.IndexOptions.AddFlags(fs)
	o.ReportOptions.AddFlags(fs)
	o.Log.AddFlags(fs)
}

func (o *CtlOptions) Complete() error {
	log.Init(o.Log)
	return nil
}

func (o *CtlOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.IndexOptions.Validate()...)
	errs = append(errs, o.ReportOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}
