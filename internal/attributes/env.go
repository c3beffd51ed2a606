package attributes

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mrzor/rtboot/internal/procmeta"
)

// ErrNoMetadata is returned when an expression is configured but nothing
// was captured to evaluate it against.
var ErrNoMetadata = errors.New("no process metadata available")

// typeEnv is the compile-time shape of the evaluation environment.
var typeEnv = map[string]any{
	"env":     map[string]string{},
	"args":    []string{},
	"argc":    0,
	"cmdline": "",
}

func compile(kind, source string) (*vm.Program, error) {
	program, err := expr.Compile(source, expr.Env(typeEnv))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s expression: %w", kind, err)
	}
	return program, nil
}

func evalEnv(metadata *procmeta.ProcessMetadata) map[string]any {
	return map[string]any{
		"env":     metadata.Environ,
		"args":    metadata.Args,
		"argc":    len(metadata.Args),
		"cmdline": metadata.CmdlineFull,
	}
}

// runString evaluates program and formats the result with fmt.Sprint.
func runString(program *vm.Program, metadata *procmeta.ProcessMetadata) (string, error) {
	if metadata == nil {
		return "", ErrNoMetadata
	}
	output, err := expr.Run(program, evalEnv(metadata))
	if err != nil {
		return "", err
	}
	return fmt.Sprint(output), nil
}
