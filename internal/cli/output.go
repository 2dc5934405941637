package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
)

// Process exit codes.
const (
	ExitSuccess      = 0 // everything worked
	ExitFailure      = 1 // validation or inference failure
	ExitCommandError = 2 // unusable request: bad paths, bad evidence, bad flags
)

// Error codes carried in structured output.
const (
	ErrCodeInput = "input" // correctable request problems (bad evidence, unknown states)
	ErrCodeModel = "model" // network definition violations
	ErrCodeIO    = "io"    // filesystem or database problems
)

// ExitError pairs an error with the process exit code it should produce.
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

// NewExitError builds an ExitError without an underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to an existing error.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode picks the exit code out of err, defaulting to ExitFailure
// when no ExitError is in the chain.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as plain text or as a JSON
// envelope, depending on the --output flag.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope every command emits in json mode.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" | "error"
	Data   interface{} `json:"data,omitempty"`  // command-specific payload
	Error  *CLIError   `json:"error,omitempty"` // present when Status is "error"
}

// CLIError describes a failure inside the JSON envelope.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Success renders data in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error renders a failure in the configured format.
func (f *OutputFormatter) Error(code, message, hint string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Hint:    hint,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if hint != "" {
		fmt.Fprintf(f.Writer, "  %s\n", hint)
	}
	return nil
}

// inputShaped reports whether err should be blamed on the request
// rather than on the network definition or the program.
func inputShaped(err error) bool {
	return errors.Is(err, internalerr.ErrOutOfDomain) ||
		errors.Is(err, internalerr.ErrInvalidEvidence)
}

// reportQueryError renders err and converts it to an ExitError. Input
// problems exit as command errors with a correction hint; everything
// else is an inference failure.
func reportQueryError(f *OutputFormatter, err error) error {
	if inputShaped(err) {
		_ = f.Error(ErrCodeInput, err.Error(), "check the evidence names and states against the network")
		return WrapExitError(ExitCommandError, "bad evidence", err)
	}
	_ = f.Error(ErrCodeModel, err.Error(), "")
	return WrapExitError(ExitFailure, "inference failed", err)
}
