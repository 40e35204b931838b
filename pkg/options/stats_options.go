package options

import (
	"github.com/spf13/pflag"
)

var _ IOptions = (*StatsOptions)(nil)

// StatsOptions configures the usage-statistics store.
type StatsOptions struct {
	// DBPath is the sqlite database file. Empty disables stats collection.
	DBPath string `json:"db-path" mapstructure:"db-path"`
}

// NewStatsOptions creates StatsOptions with default values.
func NewStatsOptions() *StatsOptions {
	return &StatsOptions{
		DBPath: "data/bot_stats.db",
	}
}

func (o *StatsOptions) Validate() []error {
	return nil
}

func (o *StatsOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.DBPath, "stats.db-path", o.DBPath, "Path to the sqlite usage-statistics database; empty disables stats.")
}
