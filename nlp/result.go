package nlp

// RuleMatch names the rule input that produced a Result, i.e. the
// match trail entry returned alongside a response (§6).
type RuleMatch struct {
	RuleID     RuleID
	InputIndex int
}

// Result is a single candidate match (§3). A nil *Result is null: no
// output was found on that branch.
type Result struct {
	RuleID     RuleID
	InputIndex int
	Output     string
	Score      float64
}

// Match returns the RuleMatch for r.
func (r *Result) Match() RuleMatch {
	return RuleMatch{RuleID: r.RuleID, InputIndex: r.InputIndex}
}
