package nlp

import "fmt"

// ExpansionError describes why expand failed to produce an output for a
// template (§4.3.1). The tree itself never raises this to a caller —
// getValidOutput just moves on to the next omap entry — but Tree.Debug
// logs one through logf at the point of failure, the same way the
// teacher logs a failed expansion and tries the next output.
type ExpansionError struct {
	Template string
	Reason   string
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("nlp: failed to expand template %q: %s", e.Template, e.Reason)
}

// TooManyInputsError occurs when a Rule is added with more input
// patterns than OmapKey can index (§3: the packed key caps a rule at
// 1<<maxInputIdxBits inputs). Add logs this and ignores the inputs past
// the cap rather than returning an error, consistent with the tree's
// silent/recoverable failure model (§7); it is exported so a rule store
// that wants to reject the rule pack outright may check for it via
// errors.As against a logged message, or construct one itself ahead of
// calling Add.
type TooManyInputsError struct {
	RuleID RuleID
	Count  int
	Max    int
}

func (e *TooManyInputsError) Error() string {
	return fmt.Sprintf("nlp: rule %d has %d inputs, more than the max of %d", e.RuleID, e.Count, e.Max)
}
