// Package rulestore loads rule packs from YAML files and caches a
// compiled rule pack in a BoltDB snapshot, as an ambient convenience
// layer above package nlp. The nlp tree itself never touches a
// filesystem or a database; that boundary is deliberate, so every
// filesystem/BoltDB concern lives here instead.
package rulestore

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/lvkbot/nlptree/nlp"
)

// LoadError wraps a failure to parse or compile a rule pack, naming
// the file and the underlying cause (§7: a malformed rule pack must
// report a typed load error rather than installing a partial tree).
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("rulestore: %s: %s", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RulePack is the plain-data shape of a rule pack, shared by the YAML
// loader and the BoltDB snapshot: an ordered list of rules, each with
// an id, one or more input patterns, and an ordered list of
// conditional outputs. It carries no compiled nlp.Condition closures,
// so it round-trips through both YAML and JSON; Compile turns it into
// the []nlp.Rule a nlp.Tree actually consumes.
type RulePack struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

type Rule struct {
	ID      uint64   `yaml:"id" json:"id"`
	Inputs  []string `yaml:"inputs" json:"inputs"`
	Outputs []Output `yaml:"outputs" json:"outputs"`
	// Doc is authored documentation for tools.RuleDoc (§10.7); the nlp
	// tree itself has no notion of documentation.
	Doc string `yaml:"doc,omitempty" json:"doc,omitempty"`
}

type Output struct {
	// If has the form "name == value" or "name != value", evaluated
	// against the rule's captured variables (§4.6). Empty means always
	// satisfied.
	If       string `yaml:"if,omitempty" json:"if,omitempty"`
	Template string `yaml:"template" json:"template"`
}

// LoadYAML parses a rule pack file.
func LoadYAML(path string) (RulePack, error) {
	bs, err := ioutil.ReadFile(path)
	if err != nil {
		return RulePack{}, &LoadError{Path: path, Err: err}
	}
	var pack RulePack
	if err := yaml.Unmarshal(bs, &pack); err != nil {
		return RulePack{}, &LoadError{Path: path, Err: err}
	}
	return pack, nil
}

// Compile turns a RulePack's rules into []nlp.Rule, compiling each
// Output's If expression into a nlp.Condition.
func Compile(pack RulePack) ([]nlp.Rule, error) {
	rules := make([]nlp.Rule, 0, len(pack.Rules))
	for _, r := range pack.Rules {
		entries := make([]nlp.OutputEntry, len(r.Outputs))
		for i, o := range r.Outputs {
			cond, err := compileCondition(o.If)
			if err != nil {
				return nil, fmt.Errorf("rulestore: rule %d: %w", r.ID, err)
			}
			entries[i] = nlp.OutputEntry{Condition: cond, Template: o.Template}
		}
		rules = append(rules, nlp.Rule{
			ID:     nlp.RuleID(r.ID),
			Inputs: r.Inputs,
			Output: nlp.NewCondOutputList(entries...),
		})
	}
	return rules, nil
}

// LoadRules loads and compiles a rule pack file in one step.
func LoadRules(path string) ([]nlp.Rule, error) {
	pack, err := LoadYAML(path)
	if err != nil {
		return nil, err
	}
	rules, err := Compile(pack)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return rules, nil
}
