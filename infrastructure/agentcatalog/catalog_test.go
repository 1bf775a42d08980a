package agentcatalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	domainAgent "github.com/ganga90/olive-couple-sync-sub002/domains/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `agents:
  - id: pattern-detector
    name: Pattern Detector
    background: true
    schedule_class: every_tick
  - id: weekly-digest
    name: Weekly Digest
    background: true
    schedule_class: weekly
    time: "18:00"
    weekday: 0
  - id: health-checkin
    name: Health Check-in
    background: true
    schedule_class: daily
    time: "08:30"
    requires_connection: whoop
`

func writeCatalog(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "agents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), sampleCatalog)

	catalog, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, catalog.Entries(), 3)

	entry, ok := catalog.Get("health-checkin")
	require.True(t, ok)
	assert.Equal(t, domainAgent.ClassDaily, entry.Class)
	assert.Equal(t, "08:30", entry.Time)
	assert.Equal(t, "whoop", entry.RequiresConnection)

	_, ok = catalog.Get("nope")
	assert.False(t, ok)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	catalog, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, catalog.Entries())
}

func TestWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, sampleCatalog)

	catalog, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, catalog.Watch())
	defer catalog.Close()

	writeCatalog(t, dir, `agents:
  - id: pattern-detector
    name: Pattern Detector
    background: true
    schedule_class: daily
    time: "07:00"
`)

	require.Eventually(t, func() bool {
		entry, ok := catalog.Get("pattern-detector")
		return ok && entry.Class == domainAgent.ClassDaily
	}, 3*time.Second, 20*time.Millisecond)

	// A broken edit keeps the last good snapshot.
	writeCatalog(t, dir, "agents: [broken")
	time.Sleep(100 * time.Millisecond)
	entry, ok := catalog.Get("pattern-detector")
	require.True(t, ok)
	assert.Equal(t, "07:00", entry.Time)
}
