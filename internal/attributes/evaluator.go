package attributes

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/hashicorp/go-hclog"
	"github.com/mrzor/rtboot/internal/config"
	"github.com/mrzor/rtboot/internal/procmeta"
	"go.opentelemetry.io/otel/attribute"
)

// Evaluator compiles custom attribute expressions once and evaluates them
// per bootstrap.
type Evaluator struct {
	attrs    []config.CustomAttribute
	programs []*vm.Program
	logger   hclog.Logger
}

// NewEvaluator compiles every expression up front. A single bad expression
// fails the whole set.
func NewEvaluator(attrs []config.CustomAttribute, logger hclog.Logger) (*Evaluator, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	programs := make([]*vm.Program, len(attrs))
	for i, attr := range attrs {
		program, err := compile("attribute "+attr.Name, attr.Expression)
		if err != nil {
			return nil, err
		}
		programs[i] = program
	}

	return &Evaluator{attrs: attrs, programs: programs, logger: logger}, nil
}

// Len returns the number of configured attributes.
func (e *Evaluator) Len() int {
	return len(e.attrs)
}

// Evaluate runs every expression against metadata. Failing expressions are
// logged and skipped. Map results expand into name.key attributes sorted by
// key.
func (e *Evaluator) Evaluate(metadata *procmeta.ProcessMetadata) []attribute.KeyValue {
	if len(e.attrs) == 0 || metadata == nil {
		return nil
	}

	env := evalEnv(metadata)
	var out []attribute.KeyValue
	for i, attr := range e.attrs {
		result, err := expr.Run(e.programs[i], env)
		if err != nil {
			e.logger.Warn("attribute expression failed", "attribute", attr.Name, "error", err)
			continue
		}
		out = append(out, expand(attr.Name, result)...)
	}
	return out
}

func expand(name string, result any) []attribute.KeyValue {
	value := reflect.ValueOf(result)
	if value.Kind() != reflect.Map {
		return []attribute.KeyValue{attribute.String(name, fmt.Sprint(result))}
	}

	keys := value.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})

	out := make([]attribute.KeyValue, 0, len(keys))
	for _, key := range keys {
		attrName := name + "." + sanitizeAttributeName(fmt.Sprint(key.Interface()))
		out = append(out, attribute.String(attrName, fmt.Sprint(value.MapIndex(key).Interface())))
	}
	return out
}

// sanitizeAttributeName maps everything outside [A-Za-z0-9_] to '_'.
func sanitizeAttributeName(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			b[i] = '_'
		}
	}
	return string(b)
}
