package cmdutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/endorses/wildscan/internal/pkg/constants"
	"github.com/spf13/cobra"
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// UsageError marks err as a command line usage error.
func UsageError(err error) error {
	return &ExitError{Code: constants.ExitUsageError, Err: err}
}

// InputError marks err as a problem with the input being scanned.
func InputError(err error) error {
	return &ExitError{Code: constants.ExitInputError, Err: err}
}

// ExitCode returns the exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return constants.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return constants.ExitGeneralError
}

// WrapArgs turns argument validation failures into usage errors.
func WrapArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return UsageError(err)
		}
		return nil
	}
}

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// OutputError writes err to w as a JSON error response and returns the
// exit code the process should end with.
func OutputError(w io.Writer, err error) int {
	code := ExitCode(err)
	resp := ErrorResponse{
		Error: err.Error(),
		Code:  mapExitCodeToString(code),
	}

	data, _ := json.Marshal(resp)
	fmt.Fprintln(w, string(data))
	return code
}

func mapExitCodeToString(code int) string {
	switch code {
	case constants.ExitSuccess:
		return "OK"
	case constants.ExitUsageError:
		return "USAGE_ERROR"
	case constants.ExitInputError:
		return "INPUT_ERROR"
	default:
		return "GENERAL_ERROR"
	}
}
