package types

import (
	"time"
)

// Tag keys recognized by maintsync
const (
	TagMaintenance       = "maintenance"
	TagMaintenanceExtend = "maintenance-extend"
	TagMaintenanceNoData = "maintenance-nodata"
	TagMaintenanceID     = "maintenance-id"
	TagMaintenanceStart  = "maintenance-start"
	TagMaintenanceEnd    = "maintenance-end"
)

// MarkerDescription identifies maintenance windows owned by maintsync.
// Windows with any other description are never modified or deleted.
const MarkerDescription = "Maintenance created via tag"

// TagTimeLayout is the layout of the maintenance-start/maintenance-end values
const TagTimeLayout = "2006-01-02 15:04:05"

// RoleKeys lists every tag key that carries maintenance meaning
var RoleKeys = []string{
	TagMaintenance,
	TagMaintenanceExtend,
	TagMaintenanceNoData,
	TagMaintenanceID,
	TagMaintenanceStart,
	TagMaintenanceEnd,
}

// BookkeepingKeys are stripped when a window ends or expires
var BookkeepingKeys = []string{
	TagMaintenanceID,
	TagMaintenanceStart,
	TagMaintenanceEnd,
	TagMaintenance,
}

// IsRoleKey reports whether key is one of the maintenance tag keys
func IsRoleKey(key string) bool {
	for _, k := range RoleKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Tag is a key/value label attached to a host
type Tag struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Host is a monitored host and its current tag collection
type Host struct {
	ID   string `json:"hostid"`
	Name string `json:"host"`
	Tags []Tag  `json:"tags"`
}

// MaintenanceType controls data collection during a window
type MaintenanceType int

const (
	MaintenanceWithData MaintenanceType = 0
	MaintenanceNoData   MaintenanceType = 1
)

// MaintenanceWindow is a one-shot maintenance period on the monitoring platform
type MaintenanceWindow struct {
	ID          string
	Name        string
	Description string
	HostIDs     []string
	ActiveSince time.Time
	ActiveTill  time.Time
	Type        MaintenanceType
}

// Period returns the window length
func (w *MaintenanceWindow) Period() time.Duration {
	return w.ActiveTill.Sub(w.ActiveSince)
}

// Owned reports whether the window was created by maintsync
func (w *MaintenanceWindow) Owned() bool {
	return w.Description == MarkerDescription
}

// Expired reports whether the window ended before now
func (w *MaintenanceWindow) Expired(now time.Time) bool {
	return w.ActiveTill.Unix() < now.Unix()
}

// HostState is the reconciliation state derived from a host's tags
type HostState string

const (
	// HostStateIdle: no maintenance wanted, none active
	HostStateIdle HostState = "idle"
	// HostStateEnter: maintenance wanted, no window yet
	HostStateEnter HostState = "enter"
	// HostStateExit: window exists but the maintenance tag is gone
	HostStateExit HostState = "exit"
	// HostStateExtend: window exists and an extension was requested
	HostStateExtend HostState = "extend"
	// HostStateHold: window exists and is still wanted
	HostStateHold HostState = "hold"
)

// HostIntent is the typed snapshot of a host's maintenance tags
type HostIntent struct {
	NeedsMaintenance bool
	MaintenanceSpec  string
	IsHandled        bool
	MaintenanceID    string
	ExtendRequested  bool
	SuppressData     bool

	// CurrentTags is the normalized tag collection with duplicate role
	// keys collapsed (last occurrence wins)
	CurrentTags []Tag
}

// State classifies the intent. Enter and Exit take precedence over Extend,
// so at most one action is derived per host.
func (i HostIntent) State() HostState {
	switch {
	case i.NeedsMaintenance && !i.IsHandled:
		return HostStateEnter
	case !i.NeedsMaintenance && i.IsHandled:
		return HostStateExit
	case i.ExtendRequested && i.IsHandled:
		return HostStateExtend
	case i.IsHandled:
		return HostStateHold
	default:
		return HostStateIdle
	}
}

// MaintenanceTypeFor maps the nodata flag onto a window type
func MaintenanceTypeFor(suppressData bool) MaintenanceType {
	if suppressData {
		return MaintenanceNoData
	}
	return MaintenanceWithData
}

// PassSummary records the outcome of one reconciliation pass
type PassSummary struct {
	ID        string    `json:"id" yaml:"id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	EndedAt   time.Time `json:"ended_at" yaml:"ended_at"`
	Hosts     int       `json:"hosts" yaml:"hosts"`
	Created   int       `json:"created" yaml:"created"`
	Extended  int       `json:"extended" yaml:"extended"`
	Deleted   int       `json:"deleted" yaml:"deleted"`
	Reaped    int       `json:"reaped" yaml:"reaped"`
	Skipped   int       `json:"skipped" yaml:"skipped"`
	Unchanged int       `json:"unchanged" yaml:"unchanged"`
	Warnings  []string  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}
