package tags

import (
	"testing"
	"time"

	"github.com/cuemby/maintsync/pkg/types"
	"github.com/stretchr/testify/assert"
)

// TestEvaluate tests intent extraction from raw tags
func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		tags     []types.Tag
		expected types.HostIntent
		state    types.HostState
	}{
		{
			name:  "no tags",
			tags:  nil,
			state: types.HostStateIdle,
		},
		{
			name: "unrelated tags only",
			tags: []types.Tag{{Tag: "env", Value: "prod"}},
			expected: types.HostIntent{
				CurrentTags: []types.Tag{{Tag: "env", Value: "prod"}},
			},
			state: types.HostStateIdle,
		},
		{
			name: "new maintenance request",
			tags: []types.Tag{
				{Tag: "env", Value: "prod"},
				{Tag: types.TagMaintenance, Value: "1h"},
				{Tag: types.TagMaintenanceNoData},
			},
			expected: types.HostIntent{
				NeedsMaintenance: true,
				MaintenanceSpec:  "1h",
				SuppressData:     true,
				CurrentTags: []types.Tag{
					{Tag: "env", Value: "prod"},
					{Tag: types.TagMaintenance, Value: "1h"},
					{Tag: types.TagMaintenanceNoData},
				},
			},
			state: types.HostStateEnter,
		},
		{
			name: "maintenance tag removed",
			tags: []types.Tag{
				{Tag: types.TagMaintenanceID, Value: "42"},
				{Tag: types.TagMaintenanceStart, Value: "2024-01-15 10:00:00"},
				{Tag: types.TagMaintenanceEnd, Value: "2024-01-15 11:00:00"},
			},
			expected: types.HostIntent{
				IsHandled:     true,
				MaintenanceID: "42",
				CurrentTags: []types.Tag{
					{Tag: types.TagMaintenanceID, Value: "42"},
					{Tag: types.TagMaintenanceStart, Value: "2024-01-15 10:00:00"},
					{Tag: types.TagMaintenanceEnd, Value: "2024-01-15 11:00:00"},
				},
			},
			state: types.HostStateExit,
		},
		{
			name: "extension requested",
			tags: []types.Tag{
				{Tag: types.TagMaintenance, Value: "2h"},
				{Tag: types.TagMaintenanceID, Value: "42"},
				{Tag: types.TagMaintenanceExtend},
			},
			expected: types.HostIntent{
				NeedsMaintenance: true,
				MaintenanceSpec:  "2h",
				IsHandled:        true,
				MaintenanceID:    "42",
				ExtendRequested:  true,
				CurrentTags: []types.Tag{
					{Tag: types.TagMaintenance, Value: "2h"},
					{Tag: types.TagMaintenanceID, Value: "42"},
					{Tag: types.TagMaintenanceExtend},
				},
			},
			state: types.HostStateExtend,
		},
		{
			name: "duplicate role keys last wins",
			tags: []types.Tag{
				{Tag: types.TagMaintenance, Value: "1h"},
				{Tag: "team", Value: "a"},
				{Tag: types.TagMaintenance, Value: "3h"},
				{Tag: "team", Value: "b"},
			},
			expected: types.HostIntent{
				NeedsMaintenance: true,
				MaintenanceSpec:  "3h",
				CurrentTags: []types.Tag{
					{Tag: "team", Value: "a"},
					{Tag: types.TagMaintenance, Value: "3h"},
					{Tag: "team", Value: "b"},
				},
			},
			state: types.HostStateEnter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := Evaluate(tt.tags)
			if tt.expected.CurrentTags == nil {
				tt.expected.CurrentTags = []types.Tag{}
			}
			assert.Equal(t, tt.expected, intent)
			assert.Equal(t, tt.state, intent.State())
		})
	}
}

// TestEvaluateHoldState tests a handled host with no pending change
func TestEvaluateHoldState(t *testing.T) {
	intent := Evaluate([]types.Tag{
		{Tag: types.TagMaintenance, Value: "1h"},
		{Tag: types.TagMaintenanceID, Value: "7"},
	})
	assert.Equal(t, types.HostStateHold, intent.State())
}

// TestWithout tests key removal without mutating the input
func TestWithout(t *testing.T) {
	input := []types.Tag{
		{Tag: "env", Value: "prod"},
		{Tag: types.TagMaintenanceID, Value: "1"},
		{Tag: types.TagMaintenance, Value: "1h"},
		{Tag: types.TagMaintenanceID, Value: "2"},
	}
	snapshot := append([]types.Tag(nil), input...)

	result := Without(input, types.TagMaintenanceID, types.TagMaintenance)

	assert.Equal(t, []types.Tag{{Tag: "env", Value: "prod"}}, result)
	assert.Equal(t, snapshot, input)
	assert.Equal(t, input, Without(input))
}

// TestWith tests appending without mutating the input
func TestWith(t *testing.T) {
	input := make([]types.Tag, 1, 4)
	input[0] = types.Tag{Tag: "env", Value: "prod"}

	a := With(input, types.Tag{Tag: "a"})
	b := With(input, types.Tag{Tag: "b"})

	assert.Equal(t, []types.Tag{{Tag: "env", Value: "prod"}, {Tag: "a"}}, a)
	assert.Equal(t, []types.Tag{{Tag: "env", Value: "prod"}, {Tag: "b"}}, b)
	assert.Len(t, input, 1)
}

// TestBookkeeping tests the start/end mirror format
func TestBookkeeping(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	w := &types.MaintenanceWindow{ActiveSince: start, ActiveTill: start.Add(time.Hour)}

	assert.Equal(t, []types.Tag{
		{Tag: types.TagMaintenanceStart, Value: "2024-01-15 10:30:00"},
		{Tag: types.TagMaintenanceEnd, Value: "2024-01-15 11:30:00"},
	}, Bookkeeping(w))
}

// TestEqual tests ordered comparison
func TestEqual(t *testing.T) {
	a := []types.Tag{{Tag: "x", Value: "1"}, {Tag: "y"}}
	assert.True(t, Equal(a, []types.Tag{{Tag: "x", Value: "1"}, {Tag: "y"}}))
	assert.False(t, Equal(a, []types.Tag{{Tag: "y"}, {Tag: "x", Value: "1"}}))
	assert.False(t, Equal(a, a[:1]))
}
