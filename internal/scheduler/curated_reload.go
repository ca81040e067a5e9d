package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/launchpane/querybox/internal/index"
	"github.com/launchpane/querybox/internal/logger"
	"github.com/launchpane/querybox/internal/sources/curated"
)

// CuratedReloader handles periodic reloading of the curated URL list
type CuratedReloader struct {
	loader        *curated.Loader
	mapper        *curated.Mapper
	index         *index.Memory
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewCuratedReloader creates a new curated reloader
func NewCuratedReloader(
	curatedFile string,
	idx *index.Memory,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CuratedReloader {
	return &CuratedReloader{
		loader:        curated.NewLoader(curatedFile),
		mapper:        curated.NewMapper(),
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic reload process
func (cr *CuratedReloader) Start(ctx context.Context) error {
	// Load immediately on start
	if err := cr.Reload(ctx); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	// Start periodic reload
	ticker := time.NewTicker(cr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload curated entries",
						logger.Error(err))
				}
			case <-cr.manualTrigger:
				cr.logger.Info("manual reload triggered")
				if err := cr.Reload(ctx); err != nil {
					cr.logger.Error("failed to reload curated entries",
						logger.Error(err))
				}
			case <-cr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (cr *CuratedReloader) Stop() {
	close(cr.stopCh)
}

// Reload loads the curated file and updates the index
func (cr *CuratedReloader) Reload(ctx context.Context) error {
	cr.logger.Info("reloading curated entries")

	config, err := cr.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load curated file: %w", err)
	}

	entries, err := cr.mapper.MapEntries(config)
	if err != nil {
		return fmt.Errorf("failed to map curated entries: %w", err)
	}
	workspaces := cr.mapper.MapWorkspaces(config)

	cr.index.UpdateCurated(entries, workspaces)

	cr.logger.Info("curated entries reloaded",
		logger.Int("entries", len(entries)),
		logger.Int("workspace_hosts", len(workspaces)))

	return nil
}
