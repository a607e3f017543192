package nlp

// Rule is an authored mapping of one or more input patterns to a
// conditional output list.
type Rule struct {
	ID     RuleID
	Inputs []string
	Output *CondOutputList
}
