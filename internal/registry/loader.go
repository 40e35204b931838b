package registry

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/fleetpulse-io/fleetpulse/pkg/log"
)

// snapshot is the on-disk shape of the identifier database.
type snapshot struct {
	Index   map[string]string         `json:"index"`
	Details map[string]VehicleDetails `json:"details"`
}

// Load reads the identifier snapshot at path and builds the Index. A
// missing or malformed snapshot degrades to an empty index so direct-ID
// lookups keep working; it is never fatal.
func Load(path string) *Index {
	lg := log.WithName("registry")

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			lg.Warn("identifier snapshot not found, plate/VIN resolution disabled", "path", path)
		} else {
			lg.Error(err, "failed to read identifier snapshot", "path", path)
		}
		return NewIndex(nil, nil)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		lg.Error(err, "failed to parse identifier snapshot", "path", path)
		return NewIndex(nil, nil)
	}

	idx := NewIndex(snap.Index, snap.Details)
	lg.Info("identifier snapshot loaded", "path", path, "keys", idx.Len(), "vehicles", len(snap.Details))
	return idx
}
