package util

import "fmt"

// AnalyzerError reports a failure inside one of the source analyzers.
type AnalyzerError struct {
	Op   string
	Path string
	Err  error
}

func (e *AnalyzerError) Error() string {
	return formatOpError("analyzer", e.Op, e.Path, e.Err)
}

func (e *AnalyzerError) Unwrap() error { return e.Err }

// GeneratorError reports a failure while rendering or writing generated code.
type GeneratorError struct {
	Op   string
	Path string
	Err  error
}

func (e *GeneratorError) Error() string {
	return formatOpError("generator", e.Op, e.Path, e.Err)
}

func (e *GeneratorError) Unwrap() error { return e.Err }

// CommandError reports invalid CLI usage or a failed command.
type CommandError struct {
	Op  string
	Err error
}

func (e *CommandError) Error() string {
	return formatOpError("command", e.Op, "", e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func formatOpError(kind, op, path string, err error) string {
	msg := kind
	if op != "" {
		msg += " " + op
	}
	if path != "" {
		msg += fmt.Sprintf(" %q", path)
	}
	if err != nil {
		msg += ": " + err.Error()
	}
	return msg
}
