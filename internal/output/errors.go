package output

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/finch-bank/finchctl/internal/domain"
)

// Exit code constants
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitUsageError = 2
	ExitAuthError  = 3
	ExitValidation = 4
	ExitNetwork    = 5
	ExitNotFound   = 6
)

// CLIError is a structured error with user-facing context
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	Fields     []domain.FieldError
	ExitCode   int
}

// Error implements the error interface, returning the summary
func (e *CLIError) Error() string {
	return e.Summary
}

// WrapError converts an engine error into a CLIError with an exit code and
// a next-step suggestion matching its kind.
func WrapError(err error) *CLIError {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return &CLIError{
			Summary:    "not signed in",
			Suggestion: "run 'finchctl login' to start a session",
			ExitCode:   ExitAuthError,
		}
	case errors.Is(err, domain.ErrMutationPending):
		return &CLIError{
			Summary:    "a conflicting operation is already in progress",
			Suggestion: "wait for the in-flight operation to settle and retry",
			ExitCode:   ExitGeneral,
		}
	case errors.Is(err, domain.ErrLookupNotConfirmed):
		return &CLIError{
			Summary:    "recipient account not confirmed",
			Suggestion: "run 'finchctl lookup <account-number>' and confirm the owner before transferring",
			ExitCode:   ExitUsageError,
		}
	}

	switch domain.ErrorKindOf(err) {
	case domain.ErrKindUnauthorized:
		return &CLIError{
			Summary:    "not signed in or session expired",
			Detail:     err.Error(),
			Suggestion: "run 'finchctl login' to start a new session",
			ExitCode:   ExitAuthError,
		}
	case domain.ErrKindForbidden:
		return &CLIError{
			Summary:  "operation not permitted for this account",
			Detail:   err.Error(),
			ExitCode: ExitAuthError,
		}
	case domain.ErrKindValidation:
		return &CLIError{
			Summary:  "request rejected",
			Detail:   err.Error(),
			Fields:   domain.ValidationFields(err),
			ExitCode: ExitValidation,
		}
	case domain.ErrKindNotFound:
		return &CLIError{
			Summary:  "not found",
			Detail:   err.Error(),
			ExitCode: ExitNotFound,
		}
	case domain.ErrKindNetwork:
		return &CLIError{
			Summary:    "could not reach the Finch API",
			Detail:     err.Error(),
			Suggestion: "check your connection and FINCH_API_URL, then retry",
			ExitCode:   ExitNetwork,
		}
	default:
		return &CLIError{
			Summary:  err.Error(),
			ExitCode: ExitGeneral,
		}
	}
}

// FormatError prints a structured error message to stderr
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
		if e.Detail != "" && e.Detail != e.Summary {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		for _, f := range e.Fields {
			fmt.Fprintf(p.err, "  - %s: %s\n", f.Field, f.Message)
		}
		if e.Suggestion != "" {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
		if e.Detail != "" && e.Detail != e.Summary {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		for _, f := range e.Fields {
			fmt.Fprintf(p.err, "  - %s: %s\n", f.Field, f.Message)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	}
}
