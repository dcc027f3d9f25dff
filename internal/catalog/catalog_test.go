package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(id string, created time.Time) Run {
	return Run{
		ID:          id,
		Initial:     "J/psi(1S)",
		FinalStates: []string{"pi+", "pi-", "pi0"},
		Fingerprint: "n2;-1:-1>0;0:0>-1;1:1>-1;2:1>-1;3:0>1",
		Problems:    6,
		Transitions: 12,
		CreatedAt:   created,
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestWriteAndReadRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	created := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	run := sampleRun("run-1", created)
	run.Truncated = true
	require.NoError(t, s.WriteRun(ctx, run))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Initial, got.Initial)
	assert.Equal(t, run.FinalStates, got.FinalStates)
	assert.Equal(t, run.Fingerprint, got.Fingerprint)
	assert.Equal(t, run.Problems, got.Problems)
	assert.Equal(t, run.Transitions, got.Transitions)
	assert.True(t, got.Truncated)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestWriteRunIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run := sampleRun("run-1", time.Now())
	require.NoError(t, s.WriteRun(ctx, run))

	// A second write with the same id changes nothing.
	amended := run
	amended.Transitions = 99
	require.NoError(t, s.WriteRun(ctx, amended))

	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Transitions)
}

func TestWriteRunRejectsEmptyID(t *testing.T) {
	s := openStore(t)
	err := s.WriteRun(context.Background(), Run{})
	require.ErrorContains(t, err, "empty run id")
}

func TestReadRunNotFound(t *testing.T) {
	s := openStore(t)
	_, err := s.ReadRun(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsOrderingAndFilters(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	early := sampleRun("run-a", base)
	late := sampleRun("run-b", base.Add(time.Minute))
	late.Truncated = true
	other := sampleRun("run-c", base.Add(2*time.Minute))
	other.Initial = "pi0"
	other.FinalStates = []string{"gamma", "gamma"}

	for _, run := range []Run{early, late, other} {
		require.NoError(t, s.WriteRun(ctx, run))
	}

	runs, err := s.ListRuns(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"run-c", "run-b", "run-a"},
		[]string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = s.ListRuns(ctx, Filter{Initial: "J/psi(1S)"})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	truncated := true
	runs, err = s.ListRuns(ctx, Filter{Truncated: &truncated})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-b", runs[0].ID)

	runs, err = s.ListRuns(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-c", runs[0].ID)
}

func TestListRunsEmpty(t *testing.T) {
	s := openStore(t)
	runs, err := s.ListRuns(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NotNil(t, runs)
}
