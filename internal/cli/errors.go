// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/opsforge/internal/storage"
	"github.com/jeranaias/opsforge/internal/tools"
)

// =============================================================================
// EXIT CODES
// =============================================================================

// Exit codes returned to the shell. Scripts dispatch on these, so the
// mapping is part of the CLI contract.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified failure.
	ExitGeneralError = 1

	// ExitUsageError indicates invalid arguments or flags.
	ExitUsageError = 2

	// ExitConfigError indicates a configuration problem.
	ExitConfigError = 3

	// ExitNetworkError indicates a network or server failure.
	ExitNetworkError = 4

	// ExitStorageError indicates an event store, artifact store, or run
	// store failure.
	ExitStorageError = 5

	// ExitNotFoundError indicates a missing run, tool, or resource.
	ExitNotFoundError = 6

	// ExitTimeoutError indicates an operation exceeded its deadline.
	ExitTimeoutError = 7
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrMissingArgument is returned when a required positional argument
	// was not provided.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// =============================================================================
// TYPED ERRORS
// =============================================================================

// CommandError is a failure tied to a specific command, carrying the
// exit code the process should return.
type CommandError struct {
	Command string
	Message string
	Code    int
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a CommandError with the given exit code.
func NewCommandError(command, message string, code int, err error) *CommandError {
	return &CommandError{Command: command, Message: message, Code: code, Err: err}
}

// ValidationError is an invalid-input failure. It always maps to
// ExitUsageError.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError is a missing-resource failure. It always maps to
// ExitNotFoundError.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// NewNotFoundError creates a NotFoundError for a resource.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to the exit code the process should return.
// Typed errors are checked first; everything else is categorized by
// message content.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return ExitUsageError
	}

	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return ExitNotFoundError
	}

	var ttyErr *TTYRequiredError
	if errors.As(err, &ttyErr) {
		return ExitUsageError
	}

	if errors.Is(err, ErrMissingArgument) || errors.Is(err, ErrUnsupportedFormat) {
		return ExitUsageError
	}
	if errors.Is(err, storage.ErrRunNotFound) || errors.Is(err, tools.ErrUnknownTool) {
		return ExitNotFoundError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "usage"), strings.Contains(msg, "invalid argument"),
		strings.Contains(msg, "unknown command"), strings.Contains(msg, "unknown flag"):
		return ExitUsageError
	case strings.Contains(msg, "config"):
		return ExitConfigError
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "address already in use"),
		strings.Contains(msg, "network"), strings.Contains(msg, "listen"):
		return ExitNetworkError
	case strings.Contains(msg, "database"), strings.Contains(msg, "sqlite"),
		strings.Contains(msg, "artifact"), strings.Contains(msg, "permission denied"):
		return ExitStorageError
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no such"):
		return ExitNotFoundError
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline"):
		return ExitTimeoutError
	default:
		return ExitGeneralError
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError prints an error to stderr in the standard format, with a
// fix hint where one is known.
func DisplayError(err error) {
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)

	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(os.Stderr, "%s\n", DimStyle.Render("Hint: "+hint))
	}
}

// errorHint suggests a next step for errors with a known remedy.
func errorHint(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "run 'opsforge help' for usage"
	case ExitConfigError:
		return "run 'opsforge doctor' to diagnose configuration problems"
	case ExitStorageError:
		return "run 'opsforge doctor' to check the event and artifact stores"
	case ExitNotFoundError:
		if errors.Is(err, storage.ErrRunNotFound) {
			return "run 'opsforge runs list' to see stored runs"
		}
		return ""
	default:
		return ""
	}
}

// HandleErrorAndExit prints the error (JSON envelope when requested)
// and exits with the mapped code. Never returns.
func HandleErrorAndExit(command string, err error, jsonOutput bool) {
	if err == nil {
		os.Exit(ExitSuccess)
	}

	if jsonOutput {
		NewErrorResponse(command, err).Print()
	} else {
		DisplayError(err)
	}
	os.Exit(GetExitCode(err))
}

// WrapError adds command context to an error while preserving the
// wrapped error for exit code mapping.
func WrapError(command string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", command, err)
}
