/*
Package types defines the data structures shared across maintsync.

Host, Tag and MaintenanceWindow mirror the Zabbix objects maintsync reads and
writes. HostIntent is the typed view of a host's maintenance tags produced by
pkg/tags, and HostState is the classification the reconciler acts on:

	needs  handled  extend   state
	-----  -------  ------   ------
	no     no       -        idle
	yes    no       -        enter
	no     yes      -        exit
	yes    yes      yes      extend
	yes    yes      no       hold

Tag keys:

  - maintenance: requested duration ("12h"), set by operators
  - maintenance-extend: restart the active window from now
  - maintenance-nodata: suppress data collection during the window
  - maintenance-id: window identifier, written by maintsync
  - maintenance-start / maintenance-end: mirrors of the window bounds

Only windows whose description equals MarkerDescription are owned by maintsync.
*/
package types
