package nlp

// MatchPolicy scores how well a Node matches an input Token (§4.4). It
// returns a weight in [0, 1]; 0 means no match.
//
// This interface is one of the two pluggable seams the specification
// fixes without fixing an implementation (§1). script.ScriptedPolicy
// (in package script) hosts an author-supplied alternative; this file
// gives the built-in default.
type MatchPolicy interface {
	Weight(node *Node, tok Token) float64
}

// DefaultMatchPolicy is the built-in MatchPolicy.
//
//   - WordNode: 1.0 on an exact NormalizedText match; LemmaWeight on a
//     lemma match when the node's own Lemma is non-empty (an
//     exact-match literal, per §3, has its Lemma cleared and so never
//     falls back to lemma matching); 0 otherwise.
//   - WildcardNode / VariableNode: always WildcardWeight, regardless of
//     Min — the zero-span case is handled structurally by the zero-hop
//     shortcut (invariant 3), not by the policy (§4.4).
type DefaultMatchPolicy struct {
	// WildcardWeight is returned for any WildcardNode or VariableNode.
	// Must be in (0, 1) and below LemmaWeight so that a literal or
	// lemma match always outscores a wildcard (§8 S6).
	WildcardWeight float64

	// LemmaWeight is returned for a WordNode that matches by lemma
	// rather than exact normalised text.
	LemmaWeight float64
}

// NewDefaultMatchPolicy returns a DefaultMatchPolicy with reasonable
// constants: wildcards weigh less than a lemma match, which weighs
// less than an exact match.
func NewDefaultMatchPolicy() *DefaultMatchPolicy {
	return &DefaultMatchPolicy{
		WildcardWeight: 0.5,
		LemmaWeight:    0.8,
	}
}

// Weight implements MatchPolicy.
func (p *DefaultMatchPolicy) Weight(node *Node, tok Token) float64 {
	switch node.Kind {
	case NodeWord:
		nt := node.Token
		if nt.NormalizedText == tok.NormalizedText {
			return 1.0
		}
		if nt.Lemma != "" && tok.Lemma != "" && nt.Lemma == tok.Lemma {
			if nt.PosTag != "" && tok.PosTag != "" && nt.PosTag != tok.PosTag {
				return 0
			}
			return p.LemmaWeight
		}
		return 0

	case NodeWildcard, NodeVariable:
		return p.WildcardWeight

	default:
		return 0
	}
}
