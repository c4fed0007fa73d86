package reconciler

import (
	"github.com/cuemby/maintsync/pkg/types"
)

// Inventory indexes the maintenance windows that existed when a pass
// started. A nil *Inventory trusts every maintenance-id tag and knows of no
// orphans.
type Inventory struct {
	byID map[string]*types.MaintenanceWindow
}

// NewInventory indexes windows by ID
func NewInventory(windows []*types.MaintenanceWindow) *Inventory {
	inv := &Inventory{byID: make(map[string]*types.MaintenanceWindow, len(windows))}
	for _, w := range windows {
		inv.byID[w.ID] = w
	}
	return inv
}

// Lookup returns the window with id and whether it exists. With a nil
// inventory it reports (nil, true).
func (inv *Inventory) Lookup(id string) (*types.MaintenanceWindow, bool) {
	if inv == nil {
		return nil, true
	}
	w, ok := inv.byID[id]
	return w, ok
}

// Orphan returns an owned window named name that covers hostID, expired or
// not. Such a window exists when a pass created it but failed before tagging
// the host; maintenance names are unique, so creating another would fail.
func (inv *Inventory) Orphan(hostID, name string) *types.MaintenanceWindow {
	if inv == nil {
		return nil
	}
	for _, w := range inv.byID {
		if !w.Owned() || w.Name != name {
			continue
		}
		for _, id := range w.HostIDs {
			if id == hostID {
				return w
			}
		}
	}
	return nil
}
