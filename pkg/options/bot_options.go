package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*BotOptions)(nil)

// BotOptions configures the Telegram dispatch layer.
type BotOptions struct {
	// Token is the Telegram bot API token.
	Token string `json:"token" mapstructure:"token"`

	// PollTimeout is the long-polling timeout for update fetches.
	PollTimeout time.Duration `json:"poll-timeout" mapstructure:"poll-timeout"`

	// Debug enables verbose logging inside the Telegram client library.
	Debug bool `json:"debug" mapstructure:"debug"`
}

// NewBotOptions creates BotOptions with default values.
func NewBotOptions() *BotOptions {
	return &BotOptions{
		PollTimeout: 30 * time.Second,
	}
}

func (o *BotOptions) Validate() []error {
	var errs []error
	if o.Token == "" {
		errs = append(errs, fmt.Errorf("bot.token is required"))
	}
	return errs
}

func (o *BotOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Token, "bot.token", o.Token, "Telegram bot API token.")
	fs.DurationVar(&o.PollTimeout, "bot.poll-timeout", o.PollTimeout, "Long-polling timeout for Telegram updates.")
	fs.BoolVar(&o.Debug, "bot.debug", o.Debug, "Enable verbose Telegram client logging.")
}
