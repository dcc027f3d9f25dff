package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError,
		GetExitCode(WrapExitError(ExitCommandError, "bad flag", nil)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := WrapExitError(ExitFailure, "outer", errors.New("inner"))
	assert.ErrorContains(t, wrapped, "outer")
	assert.ErrorContains(t, wrapped, "inner")
}

func TestFormatterJSONEnvelope(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	done, err := f.JSON(map[string]int{"count": 3})
	require.True(t, done)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestFormatterTextSkipsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	done, err := f.JSON(map[string]int{"count": 3})
	assert.False(t, done)
	assert.NoError(t, err)
	assert.Empty(t, buf.String())

	f.Printf("hello %d\n", 7)
	assert.Equal(t, "hello 7\n", buf.String())
}

func TestFormatterPrintfSuppressedUnderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}
	f.Printf("noise")
	assert.Empty(t, buf.String())
}

func TestFormatterVerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errW := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errW, Verbose: true}

	f.VerboseLog("loaded %d particles", 22)
	assert.Empty(t, out.String())
	assert.Equal(t, "loaded 22 particles\n", errW.String())

	f.Verbose = false
	errW.Reset()
	f.VerboseLog("quiet")
	assert.Empty(t, errW.String())
}
