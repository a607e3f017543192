// Package script hosts author-supplied nlp.MatchPolicy and
// nlp.ScoringAlgorithm implementations written in JavaScript and run
// through Goja (github.com/dop251/goja), a pure-Go ECMAScript engine.
//
// This mirrors the teacher's interpreters/goja package: a script is
// wrapped in an immediately-invoked function expression, compiled once
// with goja.Compile, and executed per call against a fresh goja.Runtime
// with a context-bound interrupt so a runaway script can't hang a
// query.
package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/lvkbot/nlptree/nlp"
)

// InterruptedMessage is the value a timed-out script's runtime is
// interrupted with, and the text Interrupted carries.
var InterruptedMessage = "RuntimeError: timeout"

// Interrupted is returned when a script doesn't finish within its
// Timeout.
var Interrupted = errors.New(InterruptedMessage)

// DefaultTimeout bounds a single script call when a ScriptedPolicy or
// ScriptedScoringAlgorithm's Timeout field is left at zero.
const DefaultTimeout = 50 * time.Millisecond

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

func run(timeout time.Duration, program *goja.Program, set func(*goja.Runtime)) (goja.Value, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	vm := goja.New()
	set(vm)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		<-ctx.Done()
		vm.Interrupt(InterruptedMessage)
	}()

	v, err := vm.RunProgram(program)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}
	return v, nil
}

func nodeEnv(node *nlp.Node) map[string]interface{} {
	m := map[string]interface{}{
		"kind": int(node.Kind),
	}
	switch node.Kind {
	case nlp.NodeWord:
		m["text"] = node.Token.NormalizedText
		m["lemma"] = node.Token.Lemma
		m["posTag"] = node.Token.PosTag
	case nlp.NodeWildcard:
		m["wildcardText"] = node.WildcardText
		m["min"] = node.Min
	case nlp.NodeVariable:
		m["varName"] = node.VarName
	}
	return m
}

func tokenEnv(tok nlp.Token) map[string]interface{} {
	return map[string]interface{}{
		"text":   tok.NormalizedText,
		"lemma":  tok.Lemma,
		"posTag": tok.PosTag,
		"kind":   int(tok.Kind),
	}
}

// ScriptedPolicy is a nlp.MatchPolicy whose Weight function is a
// JavaScript expression given as `node` and `tok` globals and expected
// to return a number in [0, 1].
type ScriptedPolicy struct {
	Timeout time.Duration

	program *goja.Program
}

// NewScriptedPolicy compiles src, a JavaScript snippet that reads the
// `node` and `tok` globals and returns the weight it computes with a
// `return` statement (the snippet runs as the body of a wrapped IIFE,
// same as the teacher's convention, so a bare final expression yields
// undefined and therefore a weight of 0).
func NewScriptedPolicy(src string) (*ScriptedPolicy, error) {
	program, err := goja.Compile("policy", wrapSrc(src), true)
	if err != nil {
		return nil, err
	}
	return &ScriptedPolicy{program: program}, nil
}

// Weight implements nlp.MatchPolicy. A script error or timeout, or a
// non-numeric return value, yields a weight of 0 (no match) rather than
// propagating an error, since MatchPolicy.Weight has no error return
// (§4.4) and the tree's failure model treats a non-match as the safe
// default (§7).
func (p *ScriptedPolicy) Weight(node *nlp.Node, tok nlp.Token) float64 {
	v, err := run(p.Timeout, p.program, func(vm *goja.Runtime) {
		vm.Set("node", nodeEnv(node))
		vm.Set("tok", tokenEnv(tok))
	})
	if err != nil {
		return 0
	}
	var f float64
	switch x := v.Export().(type) {
	case float64:
		f = x
	case int64:
		f = float64(x)
	default:
		return 0
	}
	if f < 0 {
		return 0
	}
	return f
}

// ScriptedScoringAlgorithm is a nlp.ScoringAlgorithm whose folding and
// readout logic are JavaScript functions of an opaque state value. The
// state is exported/imported through Goja's JSON-like value conversion
// (so it must be representable as numbers, strings, bools, or nested
// maps/slices of these), mirroring how the teacher's Goja interpreter
// passes `bindings` in and takes a return value back out.
type ScriptedScoringAlgorithm struct {
	Timeout time.Duration

	updateProgram *goja.Program
	scoreProgram  *goja.Program
	state         interface{}
}

// NewScriptedScoringAlgorithm compiles updateSrc, which reads `state`,
// `offset`, and `weight` globals and returns the new state, and
// scoreSrc, which reads `state` and returns the current numeric score.
// Both run as the body of a wrapped IIFE, so each needs an explicit
// `return`.
func NewScriptedScoringAlgorithm(updateSrc, scoreSrc string) (*ScriptedScoringAlgorithm, error) {
	updateProgram, err := goja.Compile("scoreUpdate", wrapSrc(updateSrc), true)
	if err != nil {
		return nil, err
	}
	scoreProgram, err := goja.Compile("scoreRead", wrapSrc(scoreSrc), true)
	if err != nil {
		return nil, err
	}
	return &ScriptedScoringAlgorithm{updateProgram: updateProgram, scoreProgram: scoreProgram}, nil
}

// UpdateScore implements nlp.ScoringAlgorithm. A script error or
// timeout leaves state unchanged.
func (s *ScriptedScoringAlgorithm) UpdateScore(offset int, weight float64) {
	v, err := run(s.Timeout, s.updateProgram, func(vm *goja.Runtime) {
		vm.Set("state", s.state)
		vm.Set("offset", offset)
		vm.Set("weight", weight)
	})
	if err != nil {
		return
	}
	s.state = v.Export()
}

// CurrentScore implements nlp.ScoringAlgorithm. A script error,
// timeout, or non-numeric return value yields a score of 0.
func (s *ScriptedScoringAlgorithm) CurrentScore() float64 {
	v, err := run(s.Timeout, s.scoreProgram, func(vm *goja.Runtime) {
		vm.Set("state", s.state)
	})
	if err != nil {
		return 0
	}
	switch x := v.Export().(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	default:
		return 0
	}
}

// Reset implements nlp.ScoringAlgorithm.
func (s *ScriptedScoringAlgorithm) Reset() {
	s.state = nil
}
