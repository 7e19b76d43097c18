package match

import (
	"net/http"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"soul-hq/gateway/pkg/dto"
)

var (
	alwaysTrue  = cond(dto.ParamURI, dto.OpMatch, "", "/**")
	alwaysFalse = cond(dto.ParamHeader, dto.OpEquals, "X-Absent", "x")
)

func TestMatchRule_FirstEnabledWins(t *testing.T) {
	req := testRequest()
	rules := []*dto.RuleData{
		{ID: "disabled", Enabled: false},
		{ID: "miss", Enabled: true, Conditions: []dto.ConditionData{alwaysFalse}},
		{ID: "hit", Enabled: true, Conditions: []dto.ConditionData{alwaysTrue}},
		{ID: "later", Enabled: true},
	}
	got := MatchRule(rules, req)
	if got == nil || got.ID != "hit" {
		t.Fatalf("MatchRule() = %v, want hit", got)
	}
	if MatchRule(nil, req) != nil {
		t.Error("MatchRule(nil) should return nil")
	}
}

func TestMatchSelector_FullFlowIgnoresConditions(t *testing.T) {
	req := testRequest()
	selectors := []*dto.SelectorData{
		{ID: "custom", Enabled: true, Type: dto.SelectorCustom, Conditions: []dto.ConditionData{alwaysFalse}},
		{ID: "full", Enabled: true, Type: dto.SelectorFullFlow, Conditions: []dto.ConditionData{alwaysFalse}},
	}
	if got := MatchSelector(selectors, req); got == nil || got.ID != "full" {
		t.Fatalf("MatchSelector() = %v, want full", got)
	}
}

func TestMatchSelectorFrom(t *testing.T) {
	req := testRequest()
	selectors := []*dto.SelectorData{
		{ID: "a", Enabled: true, Type: dto.SelectorCustom},
		{ID: "b", Enabled: false, Type: dto.SelectorCustom},
		{ID: "c", Enabled: true, Type: dto.SelectorCustom, Conditions: []dto.ConditionData{alwaysTrue}},
	}

	sel, idx := MatchSelectorFrom(selectors, 1, req)
	if sel == nil || sel.ID != "c" || idx != 2 {
		t.Fatalf("MatchSelectorFrom(1) = %v, %d, want c, 2", sel, idx)
	}
	if sel, idx := MatchSelectorFrom(selectors, 3, req); sel != nil || idx != -1 {
		t.Errorf("MatchSelectorFrom(3) = %v, %d, want nil, -1", sel, idx)
	}
}

func TestConditions_MatchModes(t *testing.T) {
	req := testRequest()
	e := NewEvaluator()

	tests := []struct {
		name  string
		mode  dto.MatchMode
		conds []dto.ConditionData
		want  bool
	}{
		{"and all true", dto.MatchAnd, []dto.ConditionData{alwaysTrue, alwaysTrue}, true},
		{"and one false", dto.MatchAnd, []dto.ConditionData{alwaysTrue, alwaysFalse}, false},
		{"or one true", dto.MatchOr, []dto.ConditionData{alwaysFalse, alwaysTrue}, true},
		{"or all false", dto.MatchOr, []dto.ConditionData{alwaysFalse, alwaysFalse}, false},
		{"empty and", dto.MatchAnd, nil, true},
		{"empty or", dto.MatchOr, nil, true},
		{"unknown mode", dto.MatchMode(7), []dto.ConditionData{alwaysTrue}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Conditions(tt.mode, tt.conds, req); got != tt.want {
				t.Errorf("Conditions() = %v, want %v", got, tt.want)
			}
		})
	}
}

// buildConditions returns n conditions where the one at index hit (if in
// range) evaluates to want and the rest evaluate to !want.
func buildConditions(n, hit int, want bool) []dto.ConditionData {
	conds := make([]dto.ConditionData, n)
	for i := range conds {
		if (i == hit) == want {
			conds[i] = alwaysTrue
		} else {
			conds[i] = alwaysFalse
		}
	}
	return conds
}

func TestMatch_PropertyEmptyConditionsAlwaysMatch(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("enabled entries without conditions always match", prop.ForAll(
		func(or bool, custom bool, path string) bool {
			mode := dto.MatchAnd
			if or {
				mode = dto.MatchOr
			}
			typ := dto.SelectorFullFlow
			if custom {
				typ = dto.SelectorCustom
			}
			req := &Request{Path: "/" + path, Header: http.Header{}}
			sel := MatchSelector([]*dto.SelectorData{{ID: "s", Enabled: true, MatchMode: mode, Type: typ}}, req)
			rule := MatchRule([]*dto.RuleData{{ID: "r", Enabled: true, MatchMode: mode}}, req)
			return sel != nil && rule != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestMatch_PropertyAndOrSingleCondition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	req := testRequest()
	e := NewEvaluator()

	properties.Property("AND with one failing condition never matches", prop.ForAll(
		func(n, idx int) bool {
			conds := buildConditions(n, idx%n, false)
			return !e.Conditions(dto.MatchAnd, conds, req)
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 100),
	))

	properties.Property("OR with one passing condition always matches", prop.ForAll(
		func(n, idx int) bool {
			conds := buildConditions(n, idx%n, true)
			return e.Conditions(dto.MatchOr, conds, req)
		},
		gen.IntRange(1, 12),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
