package rulestore

import (
	"fmt"
	"strings"

	"github.com/lvkbot/nlptree/nlp"
)

// compileCondition turns a rule pack's "if" field into a nlp.Condition.
// The supported grammar is deliberately tiny: "name == value" or
// "name != value", comparing a captured variable's value (§3) against
// a literal, case-insensitively. An empty expr compiles to a nil
// Condition (always satisfied).
func compileCondition(expr string) (nlp.Condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	op := "=="
	parts := strings.SplitN(expr, "==", 2)
	if len(parts) != 2 {
		op = "!="
		parts = strings.SplitN(expr, "!=", 2)
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("bad condition %q: want \"name == value\" or \"name != value\"", expr)
	}

	name := strings.TrimSpace(parts[0])
	value := strings.ToLower(strings.TrimSpace(parts[1]))
	if name == "" {
		return nil, fmt.Errorf("bad condition %q: empty variable name", expr)
	}

	return func(stack *nlp.VariableStack) bool {
		got := strings.ToLower(stack.Value(name))
		if op == "==" {
			return got == value
		}
		return got != value
	}, nil
}
