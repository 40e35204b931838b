// Package app assembles the cobra command, flag binding and configuration
// loading shared by every fleetpulse binary.
package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fleetpulse-io/fleetpulse/pkg/log"
)

// envPrefix is applied to configuration environment variables, e.g.
// FP_PROVIDER_LOGIN overrides --provider.login.
const envPrefix = "FP"

// RunFunc is the application entry point invoked after options are
// completed and validated.
type RunFunc func() error

// Options abstracts a binary's full option set.
type Options interface {
	// AddFlags binds all option groups to the FlagSet.
	AddFlags(fs *pflag.FlagSet)

	// Complete fills in derived or defaulted values after flag parsing.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}

// App represents a fleetpulse command-line application.
type App struct {
	name        string
	short       string
	description string
	opts        Options
	run         RunFunc
	cmd         *cobra.Command
}

// Option configures an App during construction.
type Option func(*App)

// WithOptions attaches the binary's option set.
func WithOptions(opts Options) Option {
	return func(a *App) { a.opts = opts }
}

// WithRunFunc sets the application entry point.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.run = run }
}

// WithDescription sets the long command description.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// NewApp builds an application with the given name and options.
func NewApp(name, short string, options ...Option) *App {
	a := &App{
		name:  name,
		short: short,
	}
	for _, o := range options {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.short,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}

	var configFile string
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (yaml).")

	if a.opts != nil {
		a.opts.AddFlags(cmd.PersistentFlags())
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if err := a.loadConfig(configFile, cmd.PersistentFlags()); err != nil {
			return err
		}

		if a.opts != nil {
			if err := a.opts.Complete(); err != nil {
				return err
			}
			if err := a.opts.Validate(); err != nil {
				return err
			}
		}

		if a.run != nil {
			return a.run()
		}
		return nil
	}

	a.cmd = cmd
}

// loadConfig merges, in decreasing precedence, explicit flags, environment
// variables and the optional config file into the flag set.
func (a *App) loadConfig(configFile string, fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		log.Info("loaded configuration file", "path", v.ConfigFileUsed())
	}

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = err
			return
		}
		// Flags explicitly set on the command line win over file/env values.
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, flagValue(v.Get(f.Name))); err != nil {
				bindErr = fmt.Errorf("failed to apply config value for --%s: %w", f.Name, err)
			}
		}
	})
	return bindErr
}

// flagValue renders a config value in the form pflag parses back. Slice
// values (yaml lists) become comma-separated, matching pflag's slice
// flag syntax; everything else goes through plain formatting.
func flagValue(val any) string {
	switch vv := val.(type) {
	case []string:
		return strings.Join(vv, ",")
	case []any:
		parts := make([]string, 0, len(vv))
		for _, item := range vv {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Command exposes the underlying cobra command so binaries can attach
// subcommands.
func (a *App) Command() *cobra.Command { return a.cmd }

// Run executes the application.
func (a *App) Run() error {
	return a.cmd.Execute()
}
