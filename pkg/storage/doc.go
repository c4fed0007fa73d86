/*
Package storage holds maintsync's run lock and pass journal in a BoltDB file.

maintsync is stateless: every pass derives what to do from host tags and
maintenance windows on the monitoring platform. The database exists for two
reasons:

  - Run lock. BoltDB takes an exclusive flock on open. Two overlapping
    invocations (a slow pass still running when cron fires again) would both
    see a host as "needs maintenance, not yet handled" and create two windows.
    NewBoltStore waits up to a timeout and then returns *LockedError.
  - Journal. Each pass summary is recorded for `maintsync status`. The last
    DefaultHistory summaries are kept. Reconciliation never reads them.

Layout:

	passes/
	  <8-byte big-endian start UnixNano><pass id> -> PassSummary JSON
*/
package storage
