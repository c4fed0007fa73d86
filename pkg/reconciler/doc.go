/*
Package reconciler turns host maintenance tags into Zabbix maintenance
windows.

A pass is one call to Run. It lists every host, reconciles each one in
order, then sweeps expired windows once:

	hosts ──▶ tags.Evaluate ──▶ HostState ──▶ create | delete | extend | nothing
	                                               │
	                                               ▼
	                                        one host.update
	after all hosts:
	maintenance.get ──▶ owned && expired ──▶ strip host tags ──▶ maintenance.delete

# Host States

  - enter: maintenance tag present, no maintenance-id. A window starting now
    and lasting the tag's duration is created, then maintenance-start,
    maintenance-end and maintenance-id are added to the host.
  - exit: maintenance-id present, maintenance tag gone. The window is deleted
    and maintenance, maintenance-id, maintenance-start and maintenance-end
    are removed.
  - extend: maintenance-id and maintenance-extend present. The window is
    rewritten to run from now for the tag's duration (the remaining time is
    not added to), the mirrors are refreshed and maintenance-extend removed.
  - idle, hold: nothing to do.

Each host gets at most one window mutation and one tag write per pass, so a
second pass with unchanged tags makes no mutating calls.

# Failure Handling

An unparsable duration, or a maintenance-id that points at a window someone
else owns, skips that host with a warning. Any API error aborts the pass; the
next scheduled run evaluates everything again from the platform's state.

Run reads all windows up front. That lets a pass tolerate state left by an
interrupted one:

  - a window created for a host that was never tagged is adopted rather than
    created twice (window names are unique per host)
  - a maintenance-id whose window is gone is cleaned up without a delete call,
    or recreated when an extension was requested

# Ownership

Only windows whose description equals types.MarkerDescription are deleted,
extended or reaped. Foreign windows are left alone even when expired.

# Concurrency

Passes are sequential and a Reconciler is not safe for concurrent use.
Overlapping processes are excluded by the run lock in pkg/storage.
*/
package reconciler
