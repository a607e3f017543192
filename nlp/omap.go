package nlp

// RuleID identifies an authored Rule.
type RuleID uint64

// maxInputIdxBits caps the number of inputs a single rule may have at
// 1 << maxInputIdxBits (§3, §9): the omap key packs (ruleID, inputIdx)
// into a single uint64 with the low bits holding the input index.
const (
	maxInputIdxBits = 10
	inputIdxMask    = (uint64(1) << maxInputIdxBits) - 1
)

// OmapKey encodes (ruleID, inputIndex) as a single uint64 so that a
// Node's Omap entries can be keyed and compared by a single scalar.
type OmapKey uint64

// MakeOmapKey packs a rule id and input index into an OmapKey. inputIdx
// must be in [0, 1<<10).
func MakeOmapKey(ruleID RuleID, inputIdx int) OmapKey {
	return OmapKey((uint64(inputIdx) & inputIdxMask) | (uint64(ruleID) << maxInputIdxBits))
}

// RuleID decodes the rule id half of the key.
func (k OmapKey) RuleID() RuleID {
	return RuleID(uint64(k) >> maxInputIdxBits)
}

// InputIndex decodes the input-index half of the key.
func (k OmapKey) InputIndex() int {
	return int(uint64(k) & inputIdxMask)
}
