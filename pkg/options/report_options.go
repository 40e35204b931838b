package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*ReportOptions)(nil)

// ReportOptions configures fleet report generation.
type ReportOptions struct {
	// Concurrency caps the number of provider fetches in flight during one
	// report. This is a politeness limit towards the upstream API, not a
	// protocol constraint.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`

	// DefaultDays is the report window used when the caller does not name one.
	DefaultDays int `json:"default-days" mapstructure:"default-days"`

	// OutputDir is where generated report files are written.
	OutputDir string `json:"output-dir" mapstructure:"output-dir"`

	// ArchiveURLExpiry is the lifetime of presigned archive links.
	ArchiveURLExpiry time.Duration `json:"archive-url-expiry" mapstructure:"archive-url-expiry"`
}

// NewReportOptions creates ReportOptions with default values.
func NewReportOptions() *ReportOptions {
	return &ReportOptions{
		Concurrency:      5,
		DefaultDays:      7,
		OutputDir:        "reports",
		ArchiveURLExpiry: 24 * time.Hour,
	}
}

func (o *ReportOptions) Validate() []error {
	var errs []error

	if o.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("report.concurrency must be at least 1"))
	}
	if o.DefaultDays < 1 {
		errs = append(errs, fmt.Errorf("report.default-days must be at least 1"))
	}

	return errs
}

func (o *ReportOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.Concurrency, "report.concurrency", o.Concurrency, "Maximum concurrent provider fetches during report generation.")
	fs.IntVar(&o.DefaultDays, "report.default-days", o.DefaultDays, "Default report window in days.")
	fs.StringVar(&o.OutputDir, "report.output-dir", o.OutputDir, "Directory for generated report files.")
	fs.DurationVar(&o.ArchiveURLExpiry, "report.archive-url-expiry", o.ArchiveURLExpiry, "Lifetime of presigned links to archived reports.")
}
