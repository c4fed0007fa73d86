package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWriteTextfile tests the node_exporter textfile export
func TestWriteTextfile(t *testing.T) {
	ActionsTotal.WithLabelValues("create").Inc()
	HostsTotal.Set(3)

	path := filepath.Join(t.TempDir(), "maintsync.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `maintsync_actions_total{action="create"}`)
	assert.Contains(t, string(data), "maintsync_hosts 3")
	assert.NotContains(t, string(data), "go_goroutines")
}

// TestRegistryLint tests that all registered metrics follow naming conventions
func TestRegistryLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(Registry)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
