package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/tabgroupd/tabgroupd/internal/platform"
)

// WindowLister returns the current full set of managed window IDs.
type WindowLister func() ([]platform.WindowID, error)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically purges records for windows that no longer
// exist. Window-closed events can be lost across WM restarts; the
// reconciler bounds how long stale records survive.
type Reconciler struct {
	interval    time.Duration
	manager     *Manager
	listWindows WindowLister
	logger      *slog.Logger
}

// NewReconciler creates a reconciler over the given manager. The
// listWindows function should return the current managed window IDs.
func NewReconciler(cfg ReconcilerConfig, manager *Manager, listWindows WindowLister) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Reconciler{
		interval:    interval,
		manager:     manager,
		listWindows: listWindows,
		logger:      cfg.Logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	ids, err := r.listWindows()
	if err != nil {
		r.logger.Error("reconciler: failed to list windows", "error", err)
		return
	}
	live := make(map[platform.WindowID]struct{}, len(ids))
	for _, id := range ids {
		live[id] = struct{}{}
	}

	if removed := r.manager.Reconcile(live); removed > 0 {
		r.logger.Info("reconciler: purged dead windows", "count", removed)
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
