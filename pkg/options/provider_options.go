package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ProviderOptions)(nil)

// ProviderOptions configures access to the upstream telematics API.
type ProviderOptions struct {
	// BaseURL is the root of the provider API, e.g. https://online.example.com.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// Login and Password are the account credentials used to obtain a token.
	Login    string `json:"login" mapstructure:"login"`
	Password string `json:"password" mapstructure:"password"`

	// Timeout applies to every individual provider HTTP call.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// TokenTTL is how long an issued token is trusted before a fresh login.
	// The provider's real token lifetime is believed to be at least an hour
	// but is not documented, so this stays below it with a margin.
	TokenTTL time.Duration `json:"token-ttl" mapstructure:"token-ttl"`
}

// NewProviderOptions creates ProviderOptions with default values.
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Timeout:  10 * time.Second,
		TokenTTL: 55 * time.Minute,
	}
}

// Validate is used to parse and validate the parameters entered by the user
// at the command line when the program starts.
func (o *ProviderOptions) Validate() []error {
	var errs []error

	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("provider.base-url is required"))
	} else if _, err := url.Parse(o.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid provider.base-url: %w", err))
	}
	if o.Login == "" {
		errs = append(errs, fmt.Errorf("provider.login is required"))
	}
	if o.Password == "" {
		errs = append(errs, fmt.Errorf("provider.password is required"))
	}
	if o.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("provider.token-ttl must be positive"))
	}

	return errs
}

// AddFlags adds provider-related flags to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BaseURL, "provider.base-url", o.BaseURL, "Base URL of the telematics provider API.")
	fs.StringVar(&o.Login, "provider.login", o.Login, "Provider account login.")
	fs.StringVar(&o.Password, "provider.password", o.Password, "Provider account password.")
	fs.DurationVar(&o.Timeout, "provider.timeout", o.Timeout, "Timeout for a single provider HTTP call.")
	fs.DurationVar(&o.TokenTTL, "provider.token-ttl", o.TokenTTL, "How long an issued auth token is reused before re-login.")
}
