package options

import (
	"github.com/spf13/pflag"
)

var _ IOptions = (*IndexOptions)(nil)

// IndexOptions configures the vehicle identifier snapshot.
type IndexOptions struct {
	// SnapshotPath is the JSON file mapping plates, garage numbers and VINs
	// to terminal IDs. A missing file degrades resolution to direct IDs
	// only; it never prevents startup.
	SnapshotPath string `json:"snapshot-path" mapstructure:"snapshot-path"`
}

// NewIndexOptions creates IndexOptions with default values.
func NewIndexOptions() *IndexOptions {
	return &IndexOptions{
		SnapshotPath: "vehicles_db.json",
	}
}

func (o *IndexOptions) Validate() []error {
	return nil
}

func (o *IndexOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.SnapshotPath, "index.snapshot-path", o.SnapshotPath, "Path to the vehicle identifier snapshot file.")
}
