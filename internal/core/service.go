// Package core exposes the caller-facing operations of fleetpulse:
// identifier resolution, single-vehicle state lookup and fleet report
// generation. Dispatch layers (bot, CLI) depend on this package only.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
	"github.com/fleetpulse-io/fleetpulse/internal/pkg/util"
	"github.com/fleetpulse-io/fleetpulse/internal/registry"
	"github.com/fleetpulse-io/fleetpulse/internal/report"
	"github.com/fleetpulse-io/fleetpulse/internal/storage"
)

// defaultSearchLimit caps fuzzy-search results shown to a user.
const defaultSearchLimit = 10

// ProviderClient is the slice of the omnicomm client the service uses.
type ProviderClient interface {
	VehicleState(ctx context.Context, terminalID string) (*omnicomm.StateRecord, error)
	HistoryReport(ctx context.Context, terminalIDs []string, from, to time.Time) (*omnicomm.ReportPayload, error)
}

// SearchResult is one fuzzy-search hit with attached metadata.
type SearchResult struct {
	TerminalID string
	Key        string
	Details    registry.VehicleDetails
}

// Service wires the identifier index, the provider client and the report
// engine behind the operations consumed by dispatch layers.
type Service struct {
	client  ProviderClient
	index   *registry.Index
	engine  *report.Engine
	archive storage.Provider

	archiveExpiry time.Duration
}

// Config assembles a Service.
type Config struct {
	Client        ProviderClient
	Index         *registry.Index
	Engine        *report.Engine
	Archive       storage.Provider
	ArchiveExpiry time.Duration
}

// NewService builds a Service from cfg.
func NewService(cfg *Config) *Service {
	return &Service{
		client:        cfg.Client,
		index:         cfg.Index,
		engine:        cfg.Engine,
		archive:       cfg.Archive,
		archiveExpiry: cfg.ArchiveExpiry,
	}
}

// Resolve maps a user-supplied identifier to a terminal ID. A purely
// numeric identifier is taken as a terminal ID directly; anything else goes
// through the index. A miss returns util.ErrNotFound.
func (s *Service) Resolve(identifier string) (string, error) {
	norm := registry.Normalize(identifier)
	if norm == "" {
		return "", util.NewValidationError("empty vehicle identifier")
	}
	if isDigits(norm) {
		return norm, nil
	}
	id, err := s.index.ResolveExact(norm)
	if err != nil {
		return "", fmt.Errorf("identifier %q: %w", identifier, err)
	}
	return id, nil
}

// Search returns fuzzy matches with their vehicle details attached.
func (s *Service) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	matches, err := s.index.ResolveFuzzy(query, limit)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{
			TerminalID: m.TerminalID,
			Key:        m.Key,
			Details:    s.index.Details(m.TerminalID),
		})
	}
	return results, nil
}

// Details returns descriptive metadata for a terminal ID.
func (s *Service) Details(terminalID string) registry.VehicleDetails {
	return s.index.Details(terminalID)
}

// State resolves the identifier and fetches the vehicle's current state.
// The resolved terminal ID is returned alongside the record.
func (s *Service) State(ctx context.Context, identifier string) (*omnicomm.StateRecord, string, error) {
	terminalID, err := s.Resolve(identifier)
	if err != nil {
		return nil, "", err
	}
	state, err := s.client.VehicleState(ctx, terminalID)
	if err != nil {
		return nil, terminalID, err
	}
	return state, terminalID, nil
}

// FleetIDs lists every terminal ID known to the identifier snapshot.
func (s *Service) FleetIDs() []string {
	return s.index.TerminalIDs()
}

// GenerateReport produces a fleet report for the given terminal IDs (the
// whole known fleet when ids is empty) over the last days days.
func (s *Service) GenerateReport(ctx context.Context, terminalIDs []string, days int, progress report.ProgressFunc) (*report.Result, error) {
	if len(terminalIDs) == 0 {
		terminalIDs = s.FleetIDs()
	}
	if len(terminalIDs) == 0 {
		return nil, util.NewValidationError("no vehicles to report on: identifier snapshot is empty and no IDs were given")
	}
	return s.engine.Generate(ctx, terminalIDs, days, progress)
}

// ArchiveReport stores the artifact in the configured archive and returns
// a presigned download link. With no archive configured it returns empty
// values.
func (s *Service) ArchiveReport(ctx context.Context, res *report.Result) (string, error) {
	if s.archive == nil {
		return "", nil
	}
	data, err := res.CSV()
	if err != nil {
		return "", err
	}
	key := res.Filename()
	if err := s.archive.Put(ctx, key, data, "text/csv; charset=utf-8"); err != nil {
		return "", err
	}
	return s.archive.PresignedURL(ctx, key, s.archiveExpiry)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
