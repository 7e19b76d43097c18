package match

import "soul-hq/gateway/pkg/dto"

// Conditions combines the results of conds under mode. An empty list always
// matches.
func (e *Evaluator) Conditions(mode dto.MatchMode, conds []dto.ConditionData, params Params) bool {
	if len(conds) == 0 {
		return true
	}
	switch mode {
	case dto.MatchOr:
		for _, c := range conds {
			if e.Evaluate(c, params) {
				return true
			}
		}
		return false
	case dto.MatchAnd:
		for _, c := range conds {
			if !e.Evaluate(c, params) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MatchSelector returns the first enabled selector that matches, or nil.
func (e *Evaluator) MatchSelector(selectors []*dto.SelectorData, params Params) *dto.SelectorData {
	sel, _ := e.MatchSelectorFrom(selectors, 0, params)
	return sel
}

// MatchSelectorFrom scans selectors starting at index start and returns the
// first match with its index. It returns nil and -1 when nothing matches.
func (e *Evaluator) MatchSelectorFrom(selectors []*dto.SelectorData, start int, params Params) (*dto.SelectorData, int) {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(selectors); i++ {
		sel := selectors[i]
		if sel == nil || !sel.Enabled {
			continue
		}
		if sel.Type == dto.SelectorFullFlow || e.Conditions(sel.MatchMode, sel.Conditions, params) {
			return sel, i
		}
	}
	return nil, -1
}

// MatchRule returns the first enabled rule that matches, or nil.
func (e *Evaluator) MatchRule(rules []*dto.RuleData, params Params) *dto.RuleData {
	for _, r := range rules {
		if r == nil || !r.Enabled {
			continue
		}
		if e.Conditions(r.MatchMode, r.Conditions, params) {
			return r
		}
	}
	return nil
}

// MatchSelector matches with the shared default evaluator.
func MatchSelector(selectors []*dto.SelectorData, params Params) *dto.SelectorData {
	return defaultEvaluator.MatchSelector(selectors, params)
}

// MatchSelectorFrom matches with the shared default evaluator.
func MatchSelectorFrom(selectors []*dto.SelectorData, start int, params Params) (*dto.SelectorData, int) {
	return defaultEvaluator.MatchSelectorFrom(selectors, start, params)
}

// MatchRule matches with the shared default evaluator.
func MatchRule(rules []*dto.RuleData, params Params) *dto.RuleData {
	return defaultEvaluator.MatchRule(rules, params)
}
