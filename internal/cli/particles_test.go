package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticlesSingle(t *testing.T) {
	out, err := executeCommand(t, "particles", "pi0")
	require.NoError(t, err)
	assert.Contains(t, out, "1 particles")
	assert.Contains(t, out, "pi0")
}

func TestParticlesFilter(t *testing.T) {
	out, err := executeCommand(t, "particles", "--filter", "rho")
	require.NoError(t, err)
	assert.Contains(t, out, "3 particles")
	assert.Contains(t, out, "rho(770)0")
	assert.Contains(t, out, "rho(770)+")
	assert.Contains(t, out, "rho(770)-")
}

func TestParticlesJSON(t *testing.T) {
	out, err := executeCommand(t, "--format", "json", "particles", "J/psi(1S)")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data := resp["data"].(map[string]any)
	require.Len(t, data["particles"].([]any), 1)
	p := data["particles"].([]any)[0].(map[string]any)
	assert.Equal(t, "J/psi(1S)", p["name"])
	assert.Equal(t, float64(443), p["pid"])
	assert.Equal(t, "1", p["spin"])
}

func TestParticlesUnknown(t *testing.T) {
	_, err := executeCommand(t, "particles", "bogon")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestParticlesMissingFile(t *testing.T) {
	_, err := executeCommand(t, "particles", "--particles", "/does/not/exist.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
