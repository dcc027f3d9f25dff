package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // domain failure (no such particle, truncated search, ...)
	ExitCommandError = 2 // usage error (bad paths, bad flags, ...)
)

// ExitError carries an exit code out of a command's RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError attaches an exit code and context message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps an error to the process exit code. Anything that is not
// an ExitError counts as a domain failure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as either human-readable text or
// the JSON envelope, per the --format flag.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostic output; keeps JSON on Writer clean
	Verbose   bool
}

// CLIResponse is the JSON envelope every command emits under --format=json.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error half of the envelope.
type CLIError struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON emits a success payload when the configured format is "json" and
// reports whether it did.
func (f *OutputFormatter) JSON(data any) (bool, error) {
	if f.Format != "json" {
		return false, nil
	}
	return true, json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
}

// Error renders a failure in the configured format.
func (f *OutputFormatter) Error(message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error: %s\n", message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Printf writes human-readable output; a no-op under JSON format.
func (f *OutputFormatter) Printf(format string, args ...any) {
	if f.Format == "json" {
		return
	}
	fmt.Fprintf(f.Writer, format, args...)
}

// VerboseLog outputs a diagnostic message only in verbose mode.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
