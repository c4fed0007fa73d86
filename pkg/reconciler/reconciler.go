package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/maintsync/pkg/clock"
	"github.com/cuemby/maintsync/pkg/duration"
	"github.com/cuemby/maintsync/pkg/log"
	"github.com/cuemby/maintsync/pkg/metrics"
	"github.com/cuemby/maintsync/pkg/tags"
	"github.com/cuemby/maintsync/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MonitoringAPI is the subset of the monitoring platform API the
// reconciler needs. *client.Client implements it.
type MonitoringAPI interface {
	GetHosts(ctx context.Context) ([]types.Host, error)
	GetHost(ctx context.Context, hostID string) (*types.Host, error)
	UpdateHostTags(ctx context.Context, hostID string, tags []types.Tag) error
	CreateMaintenance(ctx context.Context, w *types.MaintenanceWindow) (string, error)
	UpdateMaintenance(ctx context.Context, w *types.MaintenanceWindow) error
	DeleteMaintenance(ctx context.Context, ids ...string) error
	GetMaintenances(ctx context.Context) ([]*types.MaintenanceWindow, error)
}

// Action is what a pass did to one host
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionExtend Action = "extend"
	ActionDelete Action = "delete"
	ActionSkip   Action = "skip"
)

// ForeignWindowError reports a maintenance-id tag pointing at a window
// maintsync does not own
type ForeignWindowError struct {
	MaintenanceID string
}

func (e *ForeignWindowError) Error() string {
	return fmt.Sprintf("maintenance %s is not owned by maintsync", e.MaintenanceID)
}

// Reconciler applies host maintenance tags to the monitoring platform
type Reconciler struct {
	api    MonitoringAPI
	clock  clock.Clock
	logger zerolog.Logger
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithClock overrides the time source
func WithClock(c clock.Clock) Option {
	return func(r *Reconciler) {
		r.clock = c
	}
}

// NewReconciler creates a new reconciler
func NewReconciler(api MonitoringAPI, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:    api,
		clock:  clock.Real(),
		logger: log.WithComponent("reconciler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one reconciliation pass: every host in turn, then one reaper
// sweep. Invalid durations skip the host; any API error aborts the pass.
// The returned summary is populated even when err is non-nil.
func (r *Reconciler) Run(ctx context.Context) (summary *types.PassSummary, err error) {
	timer := metrics.NewTimer()
	summary = &types.PassSummary{
		ID:        uuid.NewString(),
		StartedAt: r.clock.Now(),
	}
	logger := log.WithPassID(summary.ID).With().Str("component", "reconciler").Logger()

	defer func() {
		summary.EndedAt = r.clock.Now()
		timer.ObserveDuration(metrics.PassDuration)
		if err != nil {
			summary.Error = err.Error()
			metrics.PassesTotal.WithLabelValues("failed").Inc()
			return
		}
		metrics.PassesTotal.WithLabelValues("succeeded").Inc()
		metrics.LastSuccessfulPass.Set(float64(summary.EndedAt.Unix()))
	}()

	hosts, err := r.api.GetHosts(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list hosts: %w", err)
	}
	windows, err := r.api.GetMaintenances(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list maintenance windows: %w", err)
	}
	inv := NewInventory(windows)

	summary.Hosts = len(hosts)
	metrics.HostsTotal.Set(float64(len(hosts)))
	logger.Info().Int("hosts", len(hosts)).Int("windows", len(windows)).Msg("reconciliation pass started")

	for _, host := range hosts {
		action, err := r.ReconcileHost(ctx, host, inv)
		if err != nil {
			if reason, ok := skipReason(err); ok {
				msg := fmt.Sprintf("host %s (%s) skipped: %v", host.Name, host.ID, err)
				hostLogger := log.WithHostID(host.ID, host.Name)
				hostLogger.Warn().Err(err).Str("pass_id", summary.ID).Msg("skipping host")
				summary.Warnings = append(summary.Warnings, msg)
				summary.Skipped++
				metrics.HostsSkipped.WithLabelValues(reason).Inc()
				continue
			}
			return summary, fmt.Errorf("host %s (%s): %w", host.Name, host.ID, err)
		}

		switch action {
		case ActionCreate:
			summary.Created++
		case ActionExtend:
			summary.Extended++
		case ActionDelete:
			summary.Deleted++
		default:
			summary.Unchanged++
		}
		if action != ActionNone {
			metrics.ActionsTotal.WithLabelValues(string(action)).Inc()
		}
	}

	reaped, err := r.Reap(ctx)
	summary.Reaped = reaped
	if err != nil {
		return summary, fmt.Errorf("failed to reap expired maintenance: %w", err)
	}

	logger.Info().
		Int("created", summary.Created).
		Int("extended", summary.Extended).
		Int("deleted", summary.Deleted).
		Int("reaped", summary.Reaped).
		Int("skipped", summary.Skipped).
		Msg("reconciliation pass finished")

	return summary, nil
}

// skipReason reports whether err only affects one host
func skipReason(err error) (string, bool) {
	var durErr *duration.InvalidDurationError
	var foreignErr *ForeignWindowError
	switch {
	case errors.As(err, &durErr):
		return "invalid_duration", true
	case errors.As(err, &foreignErr):
		return "foreign_window", true
	default:
		return "", false
	}
}

// ReconcileHost applies at most one maintenance action to host and writes
// its tags at most once. inv describes the windows that existed when the
// pass started; with a nil inventory every maintenance-id is trusted.
func (r *Reconciler) ReconcileHost(ctx context.Context, host types.Host, inv *Inventory) (Action, error) {
	intent := tags.Evaluate(host.Tags)
	logger := log.WithHostID(host.ID, host.Name)

	switch intent.State() {
	case types.HostStateEnter:
		return r.enter(ctx, host, intent, inv, logger)
	case types.HostStateExit:
		return r.exit(ctx, host, intent, inv, logger)
	case types.HostStateExtend:
		return r.extend(ctx, host, intent, inv, logger)
	default:
		return ActionNone, nil
	}
}

// enter creates a window for a host that asked for maintenance. An owned,
// unexpired window left behind for this host by an interrupted pass is
// adopted instead of creating a second one.
func (r *Reconciler) enter(ctx context.Context, host types.Host, intent types.HostIntent, inv *Inventory, logger zerolog.Logger) (Action, error) {
	w, err := r.newWindow(host, intent)
	if err != nil {
		return ActionSkip, err
	}

	if orphan := inv.Orphan(host.ID, w.Name); orphan != nil {
		w.ID = orphan.ID
		if err := r.api.UpdateMaintenance(ctx, w); err != nil {
			return ActionSkip, err
		}
		logger.Warn().Str("maintenance_id", w.ID).Msg("adopted maintenance window without tags")
	} else {
		id, err := r.api.CreateMaintenance(ctx, w)
		if err != nil {
			return ActionSkip, err
		}
		w.ID = id
	}

	newTags := tags.Without(intent.CurrentTags, types.TagMaintenanceStart, types.TagMaintenanceEnd)
	newTags = tags.With(newTags, tags.Bookkeeping(w)...)
	newTags = tags.With(newTags, types.Tag{Tag: types.TagMaintenanceID, Value: w.ID})
	if err := r.api.UpdateHostTags(ctx, host.ID, newTags); err != nil {
		return ActionSkip, err
	}

	logger.Info().
		Str("maintenance_id", w.ID).
		Time("active_till", w.ActiveTill).
		Bool("nodata", intent.SuppressData).
		Msg("maintenance window created")
	return ActionCreate, nil
}

// exit deletes the window of a host whose maintenance tag was removed.
// Windows already gone, or not owned by maintsync, are left alone and only
// the tags are cleaned up.
func (r *Reconciler) exit(ctx context.Context, host types.Host, intent types.HostIntent, inv *Inventory, logger zerolog.Logger) (Action, error) {
	w, known := inv.Lookup(intent.MaintenanceID)
	switch {
	case !known:
		logger.Warn().Str("maintenance_id", intent.MaintenanceID).Msg("maintenance window already gone")
	case w != nil && !w.Owned():
		logger.Warn().Str("maintenance_id", intent.MaintenanceID).Msg("not deleting maintenance window owned by someone else")
	default:
		if err := r.api.DeleteMaintenance(ctx, intent.MaintenanceID); err != nil {
			return ActionSkip, err
		}
	}

	newTags := tags.Without(intent.CurrentTags, types.BookkeepingKeys...)
	if err := r.api.UpdateHostTags(ctx, host.ID, newTags); err != nil {
		return ActionSkip, err
	}

	logger.Info().Str("maintenance_id", intent.MaintenanceID).Msg("maintenance window deleted")
	return ActionDelete, nil
}

// extend restarts the host's window from now with the requested length.
// If the window disappeared upstream a new one is created in its place.
func (r *Reconciler) extend(ctx context.Context, host types.Host, intent types.HostIntent, inv *Inventory, logger zerolog.Logger) (Action, error) {
	existing, known := inv.Lookup(intent.MaintenanceID)
	if existing != nil && !existing.Owned() {
		return ActionSkip, &ForeignWindowError{MaintenanceID: intent.MaintenanceID}
	}

	w, err := r.newWindow(host, intent)
	if err != nil {
		return ActionSkip, err
	}

	if known {
		w.ID = intent.MaintenanceID
		if err := r.api.UpdateMaintenance(ctx, w); err != nil {
			return ActionSkip, err
		}
	} else {
		logger.Warn().Str("maintenance_id", intent.MaintenanceID).Msg("maintenance window gone, recreating")
		id, err := r.api.CreateMaintenance(ctx, w)
		if err != nil {
			return ActionSkip, err
		}
		w.ID = id
	}

	remove := []string{types.TagMaintenanceStart, types.TagMaintenanceEnd, types.TagMaintenanceExtend}
	if !known {
		remove = append(remove, types.TagMaintenanceID)
	}
	newTags := tags.Without(intent.CurrentTags, remove...)
	newTags = tags.With(newTags, tags.Bookkeeping(w)...)
	if !known {
		newTags = tags.With(newTags, types.Tag{Tag: types.TagMaintenanceID, Value: w.ID})
	}
	if err := r.api.UpdateHostTags(ctx, host.ID, newTags); err != nil {
		return ActionSkip, err
	}

	logger.Info().
		Str("maintenance_id", w.ID).
		Time("active_till", w.ActiveTill).
		Msg("maintenance window extended")
	if !known {
		return ActionCreate, nil
	}
	return ActionExtend, nil
}

// newWindow builds an owned window starting now with the requested length.
// Times are truncated to seconds, the API's resolution, so the bookkeeping
// tags match the stored window exactly.
func (r *Reconciler) newWindow(host types.Host, intent types.HostIntent) (*types.MaintenanceWindow, error) {
	length, err := duration.ParseDuration(intent.MaintenanceSpec)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now().Truncate(time.Second)
	return &types.MaintenanceWindow{
		Name:        WindowName(host),
		Description: types.MarkerDescription,
		HostIDs:     []string{host.ID},
		ActiveSince: now,
		ActiveTill:  now.Add(length),
		Type:        types.MaintenanceTypeFor(intent.SuppressData),
	}, nil
}

// WindowName is the maintenance name used for a host's window
func WindowName(host types.Host) string {
	return "Host Maintenance - " + host.Name
}
