package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/maintsync/pkg/client"
	"github.com/cuemby/maintsync/pkg/log"
	"github.com/cuemby/maintsync/pkg/metrics"
	"github.com/cuemby/maintsync/pkg/tags"
	"github.com/cuemby/maintsync/pkg/types"
)

// Reap deletes owned windows whose end time has passed and strips the
// bookkeeping tags from their hosts. maintenance-extend and
// maintenance-nodata are left in place. It returns the number of windows
// deleted.
func (r *Reconciler) Reap(ctx context.Context) (int, error) {
	windows, err := r.api.GetMaintenances(ctx)
	if err != nil {
		return 0, err
	}

	now := r.clock.Now()
	reaped := 0
	for _, w := range windows {
		if !w.Owned() || !w.Expired(now) {
			continue
		}

		for _, hostID := range w.HostIDs {
			if err := r.untag(ctx, hostID, w.ID); err != nil {
				return reaped, fmt.Errorf("maintenance %s: %w", w.ID, err)
			}
		}

		if err := r.api.DeleteMaintenance(ctx, w.ID); err != nil {
			return reaped, fmt.Errorf("maintenance %s: %w", w.ID, err)
		}
		reaped++
		metrics.ActionsTotal.WithLabelValues("reap").Inc()

		r.logger.Info().
			Str("maintenance_id", w.ID).
			Strs("host_ids", w.HostIDs).
			Time("active_till", w.ActiveTill).
			Msg("expired maintenance window reaped")
	}

	return reaped, nil
}

// untag strips the bookkeeping tags of an expired window from its host.
// Hosts that were deleted, or whose maintenance-id now refers to a
// different window, are left untouched.
func (r *Reconciler) untag(ctx context.Context, hostID, maintenanceID string) error {
	host, err := r.api.GetHost(ctx, hostID)
	if errors.Is(err, client.ErrHostNotFound) {
		r.logger.Debug().Str("host_id", hostID).Msg("host of expired window no longer exists")
		return nil
	}
	if err != nil {
		return err
	}

	intent := tags.Evaluate(host.Tags)
	if intent.IsHandled && intent.MaintenanceID != maintenanceID {
		logger := log.WithHostID(host.ID, host.Name)
		logger.Warn().
			Str("maintenance_id", maintenanceID).
			Str("tagged_maintenance_id", intent.MaintenanceID).
			Msg("host tagged with another maintenance window, leaving tags")
		return nil
	}

	newTags := tags.Without(host.Tags, types.BookkeepingKeys...)
	if tags.Equal(newTags, host.Tags) {
		return nil
	}
	return r.api.UpdateHostTags(ctx, host.ID, newTags)
}
