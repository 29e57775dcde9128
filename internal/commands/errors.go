package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes stamped on wrapped command failures. Callers classify errors
// by code instead of matching message text.
const (
	codeValidationFailed = "COMMAND_VALIDATION_FAILED"
	codeCanceled         = "COMMAND_CONTEXT_CANCELED"
	codeTimedOut         = "COMMAND_CONTEXT_TIMEOUT"
	codeContextFailed    = "COMMAND_CONTEXT_ERROR"
	codeExecutionFailed  = "COMMAND_EXECUTION_FAILED"
)

// Already-wrapped errors pass through untouched so the innermost category
// and code survive nested handlers.

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command message rejected").
		WithTextCode(codeValidationFailed)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	msg, code := "command context failed", codeContextFailed
	switch {
	case errors.Is(err, context.Canceled):
		msg, code = "command canceled", codeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		msg, code = "command timed out", codeTimedOut
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, msg).WithTextCode(code)
}

func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(codeExecutionFailed)
}
