package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options configures the optional report archive bucket. An empty
// endpoint disables archiving entirely.
type S3Options struct {
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`
	BucketName      string `json:"bucket-name" mapstructure:"bucket-name"`
}

// NewS3Options creates S3Options with default values. Archiving is off by
// default.
func NewS3Options() *S3Options {
	return &S3Options{
		UseSSL:     true,
		BucketName: "fleet-reports",
	}
}

// Enabled reports whether an archive endpoint has been configured.
func (o *S3Options) Enabled() bool {
	return o != nil && o.Endpoint != ""
}

func (o *S3Options) Validate() []error {
	if !o.Enabled() {
		return nil
	}

	errs := []error{}
	if o.AccessKeyID == "" || o.SecretAccessKey == "" {
		errs = append(errs, fmt.Errorf("s3 credentials are required when s3.endpoint is set"))
	}
	if o.BucketName == "" {
		errs = append(errs, fmt.Errorf("s3.bucket-name is required when s3.endpoint is set"))
	}
	return errs
}

func (o *S3Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Endpoint, "s3.endpoint", o.Endpoint, "S3 service endpoint for report archiving; empty disables archiving.")
	fs.StringVar(&o.AccessKeyID, "s3.access-key-id", o.AccessKeyID, "S3 access key ID.")
	fs.StringVar(&o.SecretAccessKey, "s3.secret-access-key", o.SecretAccessKey, "S3 secret access key.")
	fs.BoolVar(&o.UseSSL, "s3.use-ssl", o.UseSSL, "Enable SSL for the S3 connection.")
	fs.StringVar(&o.BucketName, "s3.bucket-name", o.BucketName, "S3 bucket name for generated reports.")
}
