package mapreduce

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExternalTool matches every ExternalToolError with errors.Is.
var ErrExternalTool = errors.New("external tool failed")

// ExternalToolError reports a failed invocation of hadoop, hdfs or hive.
type ExternalToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e == nil {
		return "external tool failed"
	}
	msg := fmt.Sprintf("%s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		if len(out) > 500 {
			out = out[len(out)-500:]
		}
		msg += "\n" + out
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

func (e *ExternalToolError) Is(target error) bool { return target == ErrExternalTool }
