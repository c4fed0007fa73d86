/*
Package log provides structured logging for maintsync using zerolog.

A single global logger is configured once by the command via Init. Packages
derive context loggers from it:

	logger := log.WithComponent("reconciler")
	logger.Info().Str("maintenance_id", id).Msg("maintenance window created")

	hostLog := log.WithHostID(host.ID, host.Name)
	hostLog.Warn().Err(err).Msg("skipping host")

Levels are debug, info, warn and error. Console output is used by default and
JSON output is selected with Config.JSONOutput, which suits cron mail and log
shippers respectively. Logs go to stderr so that stdout stays free for the
status command.
*/
package log
