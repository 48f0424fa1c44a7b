package pip

import (
	"fmt"
	"strings"
)

// Error describes a failed pip invocation.
type Error struct {
	Op     string
	Target string
	// Output holds the last lines pip printed.
	Output []string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("pip %s %s", e.Op, e.Target)
	if code, ok := ExitCode(e.Err); ok {
		msg += fmt.Sprintf(": exit status %d", code)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Output) > 0 {
		msg += ": " + strings.TrimSpace(e.Output[len(e.Output)-1])
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
