package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The session ran but the face pipeline failed
	ExitCommandError = 2 // Command error (bad config, unreachable endpoint, missing database)
)

// ExitError represents an error with a specific exit code.
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

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Summary is the result printed by the session commands.
type Summary struct {
	Command  string `json:"command"`
	Source   string `json:"source,omitempty"`
	Session  string `json:"session,omitempty"`
	Frames   int    `json:"frames"`
	Polled   int    `json:"polled"`
	Detected int    `json:"detected"`
	State    string `json:"state,omitempty"`
	Inserted bool   `json:"inserted"`
	Skinned  bool   `json:"skinned"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

// writeSummary prints s as indented JSON or as aligned key/value lines.
func writeSummary(w io.Writer, format string, s Summary) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Fprintf(w, "%-9s %s\n", "command:", s.Command)
	if s.Source != "" {
		fmt.Fprintf(w, "%-9s %s\n", "source:", s.Source)
	}
	if s.Session != "" {
		fmt.Fprintf(w, "%-9s %s\n", "session:", s.Session)
	}
	fmt.Fprintf(w, "%-9s %d (polled %d, detected %d)\n", "frames:", s.Frames, s.Polled, s.Detected)
	if s.State != "" {
		fmt.Fprintf(w, "%-9s %s\n", "state:", s.State)
		fmt.Fprintf(w, "%-9s inserted=%t skinned=%t\n", "face:", s.Inserted, s.Skinned)
	}
	if s.Output != "" {
		fmt.Fprintf(w, "%-9s %s\n", "output:", s.Output)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "%-9s %s\n", "error:", s.Error)
	}
	return nil
}
