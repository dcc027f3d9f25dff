package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qsolve-hep/qsolve/internal/catalog"
)

func seedCatalog(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	store, err := catalog.Open(db)
	require.NoError(t, err)
	defer store.Close()

	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	runs := []catalog.Run{
		{
			ID: "run-a", Initial: "pi0", FinalStates: []string{"gamma", "gamma"},
			Problems: 1, Transitions: 1, CreatedAt: base,
		},
		{
			ID: "run-b", Initial: "J/psi(1S)", FinalStates: []string{"pi+", "pi-", "pi0"},
			Problems: 6, Transitions: 0, Truncated: true, CreatedAt: base.Add(time.Hour),
		},
	}
	for _, run := range runs {
		require.NoError(t, store.WriteRun(context.Background(), run))
	}
	return db
}

func TestRunsRequiresDBFlag(t *testing.T) {
	_, err := executeCommand(t, "runs")
	require.Error(t, err)
}

func TestRunsListNewestFirst(t *testing.T) {
	db := seedCatalog(t)

	out, err := executeCommand(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "2 runs")
	assert.Less(t, strings.Index(out, "run-b"), strings.Index(out, "run-a"))
}

func TestRunsFilters(t *testing.T) {
	db := seedCatalog(t)

	out, err := executeCommand(t, "runs", "--db", db, "--initial", "pi0")
	require.NoError(t, err)
	assert.Contains(t, out, "1 runs")
	assert.Contains(t, out, "run-a")

	out, err = executeCommand(t, "runs", "--db", db, "--truncated")
	require.NoError(t, err)
	assert.Contains(t, out, "1 runs")
	assert.Contains(t, out, "run-b")
	assert.Contains(t, out, "(truncated)")

	out, err = executeCommand(t, "runs", "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 runs")
	assert.Contains(t, out, "run-b")
}

func TestRunsJSON(t *testing.T) {
	db := seedCatalog(t)

	out, err := executeCommand(t, "--format", "json", "runs", "--db", db)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(2), data["count"])
	first := data["runs"].([]any)[0].(map[string]any)
	assert.Equal(t, "run-b", first["id"])
	assert.Equal(t, true, first["truncated"])
}
