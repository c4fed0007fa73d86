// Package tags derives maintenance intent from a host's tag collection and
// builds replacement tag collections without mutating the input.
//
// The monitoring platform allows duplicate tag keys. When a maintenance role
// key appears more than once, the last occurrence in iteration order wins:
// Evaluate reads its value and keeps only that entry in CurrentTags.
// Non-role tags pass through untouched, duplicates included.
package tags

import (
	"github.com/cuemby/maintsync/pkg/types"
)

// Evaluate parses a host's raw tags into a HostIntent. It never fails; an
// absent tag yields a false or empty field.
func Evaluate(tags []types.Tag) types.HostIntent {
	var intent types.HostIntent

	// Index of the last occurrence of each role key
	last := make(map[string]int)
	for i, tag := range tags {
		if types.IsRoleKey(tag.Tag) {
			last[tag.Tag] = i
		}
	}

	current := make([]types.Tag, 0, len(tags))
	for i, tag := range tags {
		if idx, ok := last[tag.Tag]; ok && idx != i {
			continue
		}
		current = append(current, types.Tag{Tag: tag.Tag, Value: tag.Value})

		switch tag.Tag {
		case types.TagMaintenance:
			intent.NeedsMaintenance = true
			intent.MaintenanceSpec = tag.Value
		case types.TagMaintenanceID:
			intent.IsHandled = true
			intent.MaintenanceID = tag.Value
		case types.TagMaintenanceExtend:
			intent.ExtendRequested = true
		case types.TagMaintenanceNoData:
			intent.SuppressData = true
		}
	}
	intent.CurrentTags = current

	return intent
}

// Without returns a copy of tags minus every entry whose key is in keys
func Without(tags []types.Tag, keys ...string) []types.Tag {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}

	result := make([]types.Tag, 0, len(tags))
	for _, tag := range tags {
		if _, ok := drop[tag.Tag]; ok {
			continue
		}
		result = append(result, tag)
	}
	return result
}

// With returns a copy of tags with additions appended. It does not
// deduplicate; Evaluate resolves duplicates on read.
func With(tags []types.Tag, additions ...types.Tag) []types.Tag {
	result := make([]types.Tag, 0, len(tags)+len(additions))
	result = append(result, tags...)
	return append(result, additions...)
}

// Bookkeeping builds the start/end mirror tags for a window
func Bookkeeping(w *types.MaintenanceWindow) []types.Tag {
	return []types.Tag{
		{Tag: types.TagMaintenanceStart, Value: w.ActiveSince.Format(types.TagTimeLayout)},
		{Tag: types.TagMaintenanceEnd, Value: w.ActiveTill.Format(types.TagTimeLayout)},
	}
}

// Equal reports whether two tag collections hold the same entries in order
func Equal(a, b []types.Tag) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
