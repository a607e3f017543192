package script

import (
	"testing"
	"time"

	"github.com/lvkbot/nlptree/nlp"
)

func TestScriptedPolicyExactMatch(t *testing.T) {
	p, err := NewScriptedPolicy(`return node.text === tok.text ? 1 : 0;`)
	if err != nil {
		t.Fatalf("NewScriptedPolicy: %s", err)
	}

	node := &nlp.Node{Kind: nlp.NodeWord, Token: nlp.Token{NormalizedText: "hi"}}
	if got := p.Weight(node, nlp.Token{NormalizedText: "hi"}); got != 1 {
		t.Errorf("got %v, want 1", got)
	}
	if got := p.Weight(node, nlp.Token{NormalizedText: "bye"}); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestScriptedPolicyTimeout(t *testing.T) {
	p, err := NewScriptedPolicy(`while (true) {}`)
	if err != nil {
		t.Fatalf("NewScriptedPolicy: %s", err)
	}
	p.Timeout = 10 * time.Millisecond

	node := &nlp.Node{Kind: nlp.NodeWord}
	if got := p.Weight(node, nlp.Token{}); got != 0 {
		t.Errorf("got %v, want 0 on timeout", got)
	}
}

func TestScriptedScoringAlgorithmRunningAverage(t *testing.T) {
	s, err := NewScriptedScoringAlgorithm(
		`var s = state || {sum: 0, count: 0}; return {sum: s.sum + weight, count: s.count + 1};`,
		`var s = state || {sum: 0, count: 0}; return s.count === 0 ? 0 : s.sum / s.count;`,
	)
	if err != nil {
		t.Fatalf("NewScriptedScoringAlgorithm: %s", err)
	}

	s.UpdateScore(0, 1.0)
	s.UpdateScore(1, 0.5)

	got := s.CurrentScore()
	if got != 0.75 {
		t.Errorf("got %v, want 0.75", got)
	}

	s.Reset()
	if got := s.CurrentScore(); got != 0 {
		t.Errorf("got %v after Reset, want 0", got)
	}
}
