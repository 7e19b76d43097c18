package dto

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDataEventType(t *testing.T) {
	tests := []struct {
		in     string
		want   DataEventType
		wantOK bool
	}{
		{"CREATE", EventCreate, true},
		{"update", EventUpdate, true},
		{" DELETE ", EventDelete, true},
		{"REFRESH", EventFullRefresh, true},
		{"MYSELF", EventFullRefresh, true},
		{"FULL_REFRESH", EventFullRefresh, true},
		{"UPSERT", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDataEventType(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDataEventType(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseConfigGroup(t *testing.T) {
	for _, g := range AllGroups {
		got, ok := ParseConfigGroup(strings.ToLower(string(g)))
		if !ok || got != g {
			t.Errorf("ParseConfigGroup(%q) = %q, %v", g, got, ok)
		}
	}
	if _, ok := ParseConfigGroup("DICT"); ok {
		t.Error("ParseConfigGroup(DICT) should fail")
	}
}

func TestSnapshot_Validate(t *testing.T) {
	valid := &Snapshot{
		Plugins:   []PluginData{{Name: "waf", Enabled: true}},
		Selectors: []SelectorData{{ID: "s1", PluginName: "waf"}},
		Rules: []RuleData{{ID: "r1", SelectorID: "s1", Conditions: []ConditionData{
			{ParamType: ParamURI, Operator: OpMatch, ParamValue: "/api/**"},
		}}},
		// Orphan owner references are allowed.
		AppAuths: []AppAuthData{{AppKey: "k"}},
		Metas:    []MetaData{{Path: "/rpc"}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	invalid := &Snapshot{
		Plugins:   []PluginData{{Name: "waf"}, {Name: "waf"}},
		Selectors: []SelectorData{{ID: "s1"}},
		Rules: []RuleData{{ID: "r1", SelectorID: "s1", Conditions: []ConditionData{
			{ParamType: "body", Operator: "~="},
		}}},
	}
	err := invalid.Validate()
	var snapErr *SnapshotError
	if !errors.As(err, &snapErr) {
		t.Fatalf("Validate() error = %v, want *SnapshotError", err)
	}
	// duplicate plugin, missing plugin_name, bad param_type, bad operator
	if len(snapErr.Issues) != 4 {
		t.Errorf("issues = %d, want 4: %v", len(snapErr.Issues), snapErr.Issues)
	}
}
