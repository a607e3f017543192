package nlp

import "sort"

// VariableStack tracks, for the query currently in flight, which
// variable (if any) owns each input offset, and what original word was
// captured at each offset (§3).
//
// Update and Capture are called on every descent step of scoredDFS
// (§4.2.1), including steps that don't end up matching anything on the
// branch that's ultimately selected; because traversal is depth-first,
// the entries that matter when a branch reaches handleEndWord are
// exactly the ones written along that branch's own path.
type VariableStack struct {
	owner map[int]string
	words map[int]string
}

// NewVariableStack returns an empty VariableStack.
func NewVariableStack() *VariableStack {
	return &VariableStack{
		owner: make(map[int]string),
		words: make(map[int]string),
	}
}

// Update records that input offset is currently owned by name (the
// empty string means "anonymous", i.e. an unnamed wildcard slot).
func (s *VariableStack) Update(name string, offset int) {
	s.owner[offset] = name
}

// Capture records that origWord was the token at offset.
func (s *VariableStack) Capture(origWord string, offset int) {
	s.words[offset] = origWord
}

// Value returns the concatenation, in input order, of the words
// captured at every offset currently owned by name. Returns "" if name
// owns nothing.
func (s *VariableStack) Value(name string) string {
	offsets := make([]int, 0, len(s.owner))
	for off, owner := range s.owner {
		if owner == name {
			offsets = append(offsets, off)
		}
	}
	sort.Ints(offsets)

	out := ""
	for i, off := range offsets {
		if i > 0 {
			out += " "
		}
		out += s.words[off]
	}
	return out
}

// Reset clears the stack, logically resetting it at the top of each
// top-level query (§3 Lifecycle) or at a recursive context switch
// (§4.3.1).
func (s *VariableStack) Reset() {
	for k := range s.owner {
		delete(s.owner, k)
	}
	for k := range s.words {
		delete(s.words, k)
	}
}
