// Package runstore serves the most recent pipeline run's artifacts to the
// reporting API. Artifacts are parsed once and cached; the cache is
// invalidated when the run metadata file's modification time changes,
// which happens on every pipeline run.
package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/payment-recon/internal/domain/insight"
	"github.com/payment-recon/internal/domain/recon"
	"github.com/payment-recon/internal/output"
	"github.com/payment-recon/internal/pipeline"
	"github.com/payment-recon/internal/platform/storage"
)

// ErrNoRun indicates that no pipeline run has produced artifacts yet.
var ErrNoRun = errors.New("no pipeline run found")

// Snapshot is one run's fully parsed artifact set.
type Snapshot struct {
	Run        pipeline.Run
	Insights   insight.Insights
	Anomalies  []insight.Anomaly
	Reconciled []recon.ReconciledRecord
	Ghosts     []recon.GhostSettlement
}

// Store reads run artifacts from the output directory.
type Store struct {
	storage *storage.Store
	logger  *slog.Logger

	mu       sync.RWMutex
	loadedAt time.Time
	cached   *Snapshot
}

func NewStore(storage *storage.Store, logger *slog.Logger) *Store {
	return &Store{storage: storage, logger: logger}
}

// Latest returns the current run's snapshot, reloading from disk only when
// a newer run has been written. Returns ErrNoRun when the pipeline has
// never run against this output directory.
func (s *Store) Latest() (*Snapshot, error) {
	info, err := s.storage.Stat(output.RunFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoRun
		}
		return nil, fmt.Errorf("failed to stat run metadata: %w", err)
	}

	s.mu.RLock()
	if s.cached != nil && info.ModTime().Equal(s.loadedAt) {
		snapshot := s.cached
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	return s.reload(info.ModTime())
}

func (s *Store) reload(modTime time.Time) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have reloaded while this one waited for the lock.
	if s.cached != nil && modTime.Equal(s.loadedAt) {
		return s.cached, nil
	}

	snapshot := &Snapshot{}
	if err := s.readJSON(output.RunFile, &snapshot.Run); err != nil {
		return nil, err
	}
	if err := s.readJSON(output.InsightsFile, &snapshot.Insights); err != nil {
		return nil, err
	}
	if err := s.readJSON(output.AnomaliesFile, &snapshot.Anomalies); err != nil {
		return nil, err
	}

	var err error
	if snapshot.Reconciled, err = s.readReconciled(); err != nil {
		return nil, err
	}
	if snapshot.Ghosts, err = s.readGhosts(); err != nil {
		return nil, err
	}

	s.cached = snapshot
	s.loadedAt = modTime
	s.logger.Info("run artifacts loaded",
		"run_id", snapshot.Run.RunID,
		"records", len(snapshot.Reconciled),
		"ghosts", len(snapshot.Ghosts),
		"anomalies", len(snapshot.Anomalies),
	)
	return snapshot, nil
}

func (s *Store) readJSON(name string, target any) error {
	data, err := s.storage.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}
