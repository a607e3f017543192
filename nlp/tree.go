package nlp

import (
	"log"
	"sort"
)

// Tree is a single match automaton plus the state a query run against it
// needs (§3). A Tree is not safe for concurrent use: the spec leaves
// concurrent query behaviour undefined (§5, §7), and a chat
// adapter that serves multiple sessions keeps one Tree per session
// rather than sharing one across goroutines (§10.3). GetResponses
// panics if re-entered from a second top-level call while the first is
// still running, which is also what the race detector would catch if
// that second call came from another goroutine.
type Tree struct {
	Root *Node

	Lemmatiser Lemmatiser
	Policy     MatchPolicy
	Scorer     ScoringAlgorithm
	VarParser  VarParser

	// NewScorer builds a fresh ScoringAlgorithm of whatever concrete
	// type Scorer holds, for getRecResponse to push in place of Scorer
	// while a recursive sub-query runs (§4.3.1). Left nil, it defaults
	// to NewDefaultScoringAlgorithm; a caller that replaces Scorer with
	// a non-default implementation (e.g. script.ScriptedScoringAlgorithm)
	// should replace NewScorer too, or recursive sub-queries will be
	// scored by the wrong algorithm.
	NewScorer func() ScoringAlgorithm

	// MaxExpansionDepth bounds recursive-variable expansion (§4.3.1):
	// every "{{name}}" reference that resolves to another query adds
	// one level. Zero means use the default of 64.
	MaxExpansionDepth int

	// Debug, when true, logs a line through the stdlib log package for
	// every failed output expansion and every rule whose inputs past the
	// OmapKey cap are dropped (§10.6). The core match/score path never logs
	// regardless of Debug: those failures are silent by design (§7).
	Debug bool

	stack          *VariableStack
	loopDetector   map[loopKey]struct{}
	expansionDepth int
	querying       bool
}

type loopKey struct {
	node   *Node
	offset int
}

const defaultMaxExpansionDepth = 64

// NewTree returns an empty Tree wired with the built-in defaults:
// SimpleLemmatiser, DefaultMatchPolicy, DefaultScoringAlgorithm, and
// DefaultVarParser. Any of these may be replaced before the first Add
// or GetResponses call.
func NewTree() *Tree {
	return &Tree{
		Root:              newRoot(),
		Lemmatiser:        SimpleLemmatiser{},
		Policy:            NewDefaultMatchPolicy(),
		Scorer:            NewDefaultScoringAlgorithm(),
		NewScorer:         func() ScoringAlgorithm { return NewDefaultScoringAlgorithm() },
		VarParser:         NewDefaultVarParser(),
		MaxExpansionDepth: defaultMaxExpansionDepth,
		stack:             NewVariableStack(),
		loopDetector:      make(map[loopKey]struct{}),
	}
}

// Add inserts rule into the tree (§4.1): each of rule.Inputs is
// tokenised and walked into the automaton via addNode, and the
// resulting terminal node (plus, for a trailing "*" input, its parent —
// step 5 of §4.1) is recorded as an output node for that input index.
func (t *Tree) Add(rule Rule) {
	type onode struct {
		idx  int
		node *Node
	}
	inputs := rule.Inputs
	if max := 1 << maxInputIdxBits; len(inputs) > max {
		t.logf(&TooManyInputsError{RuleID: rule.ID, Count: len(inputs), Max: max})
		inputs = inputs[:max]
	}

	var onodes []onode

	for i, input := range inputs {
		tokens := parseRuleInput(t.Lemmatiser, input)
		if len(tokens) == 0 {
			continue
		}

		cur := t.Root
		for _, tok := range tokens {
			cur = t.addNode(tok, cur)
		}
		onodes = append(onodes, onode{idx: i, node: cur})

		last := tokens[len(tokens)-1]
		if last.Kind == KindWildcardStar && cur.Parent != nil && cur.Parent != t.Root {
			onodes = append(onodes, onode{idx: i, node: cur.Parent})
		}
	}

	for _, on := range onodes {
		on.node.setOutput(MakeOmapKey(rule.ID, on.idx), rule.Output)
	}
}

// addNode returns the child of parent that represents word, creating it
// (and splicing in self-loop and zero-hop shortcut edges) if it doesn't
// already exist (§4.1.1, invariant 2).
func (t *Tree) addNode(word Token, parent *Node) *Node {
	switch {
	case word.IsWord():
		if c := parent.wordChild(word); c != nil {
			return c
		}
		n := newWordNode(parent, word)
		parent.Children = append(parent.Children, n)
		t.spliceShortcut(parent, n)
		return n

	case word.IsWildcard():
		if c := parent.wildcardChild(); c != nil {
			if word.Kind == KindWildcardStar && c.Min == 1 {
				t.widenToZeroMin(c)
			}
			return c
		}
		min := 1
		if word.Kind == KindWildcardStar {
			min = 0
		}
		n := newWildcardNode(parent, word.OriginalText, min)
		n.Children = append(n.Children, n)
		parent.Children = append(parent.Children, n)
		t.spliceShortcut(parent, n)
		return n

	case word.IsVariable():
		name := VarName(word.OriginalText)
		if c := parent.variableChild(name); c != nil {
			return c
		}
		n := newVariableNode(parent, name)
		n.Children = append(n.Children, n)
		parent.Children = append(parent.Children, n)
		t.spliceShortcut(parent, n)
		return n

	default:
		return parent
	}
}

// widenToZeroMin lowers a WildcardNode's Min from 1 to 0 when a later
// rule reuses the same slot with "*" instead of "+" (invariant 2: the
// two collapse into one node). Every child the node already owns
// predates the widening and so missed the zero-hop shortcut at its own
// insertion time; widenToZeroMin retroactively splices each of them in,
// the same way a fresh insertion under an already-zero-min node would
// be (§9 Open Questions: resolved to apply the shortcut consistently
// regardless of insertion order).
func (t *Tree) widenToZeroMin(n *Node) {
	n.Min = 0
	for _, c := range n.OwnedChildren() {
		t.spliceShortcut(n, c)
	}
}

// spliceShortcut adds newNode to parent's owning chain of zero-min
// wildcard ancestors' Children (invariant 3). A single "*" ancestor
// splices newNode once into its own parent's Children; a run of
// adjacent zero-min wildcards (e.g. "* * word") splices newNode into
// every ancestor in the run, so that a DFS can jump straight from any
// point before the run to any point after it (§9 Open Questions:
// resolved to apply the shortcut transitively).
func (t *Tree) spliceShortcut(parent *Node, newNode *Node) {
	for p := parent; p.Kind == NodeWildcard && p.Min == 0 && p.Parent != nil; p = p.Parent {
		p.Parent.Children = append(p.Parent.Children, newNode)
	}
}

// GetResponse runs input against the tree and returns its single
// best-scoring response, or ("", zero RuleMatch, false) if nothing
// matched (§4.2).
func (t *Tree) GetResponse(input string) (string, RuleMatch, bool) {
	responses, matches := t.GetResponses(input)
	if len(responses) == 0 {
		return "", RuleMatch{}, false
	}
	return responses[0], matches[0], true
}

// GetResponses runs input against the tree and returns every response
// that matched, best-scoring first, alongside which rule input produced
// each one (§4.2, §4.5). Ties preserve the order scoredDFS discovered
// them in, which is itself deterministic for a fixed tree and input
// (§8 property 1).
func (t *Tree) GetResponses(input string) ([]string, []RuleMatch) {
	if t.querying {
		panic("nlp: Tree.GetResponses called while a query is already in flight")
	}
	t.querying = true
	defer func() { t.querying = false }()

	t.resetQueryState()

	words := parseUserInput(t.Lemmatiser, input)
	if len(words) == 0 {
		return nil, nil
	}

	var results []*Result
	t.scoredDFS(&results, t.Root, words, 0)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	responses := make([]string, len(results))
	matches := make([]RuleMatch, len(results))
	for i, r := range results {
		responses[i] = r.Output
		matches[i] = r.Match()
	}
	return responses, matches
}

func (t *Tree) resetQueryState() {
	t.stack.Reset()
	t.Scorer.Reset()
	for k := range t.loopDetector {
		delete(t.loopDetector, k)
	}
}

// scoredDFS walks every edge out of node that matches words[offset],
// recording a Result at each branch that consumes the whole input
// (§4.2.1). Traversal is depth-first; every recursive call consumes one
// input word, so even with wildcard/variable self-loops and the zero-hop
// shortcut the recursion depth is bounded by len(words). The
// (node, offset) loop detector in handleEndWord guards the separate
// re-entry that recursive template expansion can cause (§4.2.2).
func (t *Tree) scoredDFS(results *[]*Result, node *Node, words []Token, offset int) {
	if offset >= len(words) {
		return
	}

	for _, c := range node.Children {
		weight := t.Policy.Weight(c, words[offset])

		// Update runs for every child regardless of weight, so a failed
		// sibling still overwrites stale ownership of this offset left
		// by an earlier, unrelated variable (§4.2.1).
		if c.Kind == NodeVariable {
			t.stack.Update(c.VarName, offset)
		} else {
			t.stack.Update("", offset)
		}

		if weight <= 0 {
			continue
		}
		t.stack.Capture(words[offset].OriginalText, offset)
		t.Scorer.UpdateScore(offset, weight)

		if offset+1 < len(words) {
			t.scoredDFS(results, c, words, offset+1)
		} else {
			t.handleEndWord(results, c, offset)
		}
	}
}

// handleEndWord is reached when a DFS branch has consumed the last
// input word at node. It first guards against re-entering the same
// (node, offset) pair while that pair is still being handled — which a
// recursive reference's sub-query (getRecResponse) can otherwise produce
// — and then records a Result for node's best valid output, if any
// (§4.2.2).
func (t *Tree) handleEndWord(results *[]*Result, node *Node, offset int) {
	key := loopKey{node: node, offset: offset}
	if _, seen := t.loopDetector[key]; seen {
		return
	}
	t.loopDetector[key] = struct{}{}
	defer delete(t.loopDetector, key)

	if r := t.getValidOutput(node); r != nil {
		r.Score = t.Scorer.CurrentScore()
		*results = append(*results, r)
	}
}

// getValidOutput scans node's Omap in insertion order and returns a
// Result for the first entry whose CondOutputList has a Template whose
// Condition is satisfied against the current VariableStack, with that
// template expanded (§4.2.3, §4.6). An entry whose satisfied Template
// fails to expand (§4.3.1) is skipped in favour of the next entry.
// Returns nil if node has no Omap entries, or none of them have a
// currently satisfied Template that expands successfully.
func (t *Tree) getValidOutput(node *Node) *Result {
	for _, e := range node.Omap {
		template, ok := e.List.NextValidOutput(t.stack)
		if !ok {
			continue
		}
		output, ok := t.expand(template)
		if !ok {
			t.logf(&ExpansionError{Template: template, Reason: "recursive reference produced no response or recursed too deep"})
			continue
		}
		return &Result{
			RuleID:     e.Key.RuleID(),
			InputIndex: e.Key.InputIndex(),
			Output:     output,
		}
	}
	return nil
}

// expand substitutes every variable reference in template with its
// captured value, or, for a recursive reference, with the response from
// running that value back through the tree as a fresh query (§4.3.1).
// Returns ("", false) if expansion recurses past MaxExpansionDepth or a
// recursive reference's sub-query finds no response.
func (t *Tree) expand(template string) (string, bool) {
	var out []byte
	offset := 0
	for {
		ref, ok := t.VarParser.Next(template, offset)
		if !ok {
			out = append(out, template[offset:]...)
			break
		}
		out = append(out, template[offset:ref.Start]...)

		value := t.stack.Value(ref.Name)
		if ref.Recursive {
			resp, ok := t.getRecResponse(value)
			if !ok {
				return "", false
			}
			value = resp
		}
		out = append(out, value...)

		offset = ref.End
	}
	return string(out), true
}

// getRecResponse runs input as a fresh query — a new VariableStack and a
// fresh ScoringAlgorithm, pushed in place of the outer query's and
// popped again before returning — and returns its best response
// (§4.3.1). The loop detector is deliberately left shared with the
// outer query rather than reset: a self-referential variable (§8 S5)
// must be caught immediately by a (node, offset) collision, not by
// MaxExpansionDepth alone. A recursive reference whose captured value
// resolves to no response at all fails expansion entirely, the same as
// one that resolves to the empty string. MaxExpansionDepth bounds how
// many of these nested calls may stack up.
func (t *Tree) getRecResponse(input string) (string, bool) {
	if t.expansionDepth >= t.maxExpansionDepth() {
		return "", false
	}
	t.expansionDepth++
	defer func() { t.expansionDepth-- }()

	savedStack := t.stack
	savedScorer := t.Scorer
	t.stack = NewVariableStack()
	if t.NewScorer != nil {
		t.Scorer = t.NewScorer()
	} else {
		t.Scorer = NewDefaultScoringAlgorithm()
	}
	defer func() {
		t.stack = savedStack
		t.Scorer = savedScorer
	}()

	words := parseUserInput(t.Lemmatiser, input)
	if len(words) == 0 {
		return "", false
	}

	var results []*Result
	t.scoredDFS(&results, t.Root, words, 0)
	if len(results) == 0 {
		return "", false
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if results[0].Output == "" {
		return "", false
	}
	return results[0].Output, true
}

func (t *Tree) logf(err error) {
	if t.Debug {
		log.Printf("%s", err)
	}
}

func (t *Tree) maxExpansionDepth() int {
	if t.MaxExpansionDepth <= 0 {
		return defaultMaxExpansionDepth
	}
	return t.MaxExpansionDepth
}
