package flow

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	programMu    sync.RWMutex
	programCache = map[string]*vm.Program{}
)

func compileCondition(src string) error {
	_, err := program(src)
	return err
}

func program(src string) (*vm.Program, error) {
	programMu.RLock()
	if p, ok := programCache[src]; ok {
		programMu.RUnlock()
		return p, nil
	}
	programMu.RUnlock()

	if src == "" {
		return nil, fmt.Errorf("condition is empty")
	}
	p, err := expr.Compile(src, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("condition %q does not compile: %w", src, err)
	}

	programMu.Lock()
	programCache[src] = p
	programMu.Unlock()
	return p, nil
}

// ResolveNext picks where an option leads: the first conditional branch whose
// condition holds for bindings, else the option's own NextStep.
func ResolveNext(o Option, bindings map[string]any) (string, error) {
	for _, b := range o.ConditionalNext {
		p, err := program(b.If)
		if err != nil {
			return "", err
		}
		env := bindings
		if env == nil {
			env = map[string]any{}
		}
		out, err := expr.Run(p, env)
		if err != nil {
			return "", fmt.Errorf("evaluate %q: %w", b.If, err)
		}
		if ok, _ := out.(bool); ok {
			return b.Then, nil
		}
	}
	return o.NextStep, nil
}
