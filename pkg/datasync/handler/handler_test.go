package handler

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	json "github.com/goccy/go-json"

	"soul-hq/gateway/pkg/cache"
	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/dto"
)

// recorder subscribes to rules and plugins and records every call.
type recorder struct {
	calls []string
	last  []dto.RuleData
}

func (r *recorder) OnRuleSubscribe(rule dto.RuleData) { r.calls = append(r.calls, "on:"+rule.Name) }
func (r *recorder) UnRuleSubscribe(rule dto.RuleData) { r.calls = append(r.calls, "un:"+rule.Name) }
func (r *recorder) RefreshRuleData(rs []dto.RuleData) {
	r.calls = append(r.calls, fmt.Sprintf("refresh:%d", len(rs)))
	r.last = rs
}
func (r *recorder) OnPluginSubscribe(p dto.PluginData)   { r.calls = append(r.calls, "plugin:"+p.Name) }
func (r *recorder) UnPluginSubscribe(p dto.PluginData)   { r.calls = append(r.calls, "unplugin:"+p.Name) }
func (r *recorder) RefreshPluginData(ps []dto.PluginData) {}

func fakeRules(n int) []dto.RuleData {
	out := make([]dto.RuleData, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, dto.RuleData{ID: fmt.Sprintf("r%d", i), Name: fmt.Sprintf("name-%d", i), SelectorID: "s1"})
	}
	return out
}

func newRuleFixture() (*RuleDataHandler, *cache.Cache, *recorder) {
	c := cache.New()
	subs := datasync.NewSubscribers()
	rec := &recorder{}
	subs.Register(rec)
	return NewRuleDataHandler(c, subs), c, rec
}

func TestRuleDataHandler_Convert(t *testing.T) {
	h, _, _ := newRuleFixture()
	want := []dto.RuleData{
		{Name: "name1", Enabled: true, Conditions: []dto.ConditionData{{ParamName: "conditionName-0"}}},
		{Name: "name2", SelectorID: "0"},
	}
	raw, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	got, err := h.Convert(raw)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Convert() = %+v, want %+v", got, want)
	}
}

func TestRuleDataHandler_ConvertVariants(t *testing.T) {
	h, _, _ := newRuleFixture()

	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"single object", `{"id":"r1","selectorId":"s1"}`, 1, false},
		{"null", `null`, 0, false},
		{"empty", ``, 0, false},
		{"malformed", `[{"id":`, 0, true},
		{"wrong shape", `"rule"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Convert([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Convert() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var decErr *datasync.DecodeError
				if !errors.As(err, &decErr) || decErr.Kind != string(dto.GroupRule) {
					t.Errorf("Convert() error = %v, want *DecodeError for RULE", err)
				}
				return
			}
			if len(got) != tt.wantLen {
				t.Errorf("len(Convert()) = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestRuleDataHandler_FullRefreshReplacesAll(t *testing.T) {
	h, c, rec := newRuleFixture()
	c.UpsertRule(dto.RuleData{ID: "stale", SelectorID: "s1"})

	rules := fakeRules(3)
	h.OnFullRefresh(rules)

	if want := []string{"refresh:3"}; !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("subscriber calls = %v, want %v", rec.calls, want)
	}
	if !reflect.DeepEqual(rec.last, rules) {
		t.Errorf("refresh list = %v, want %v", rec.last, rules)
	}
	if c.Rule("stale") != nil || c.Len(dto.GroupRule) != 3 {
		t.Errorf("cache not replaced: len = %d", c.Len(dto.GroupRule))
	}
}

func TestRuleDataHandler_UpdateNotifiesEachInOrder(t *testing.T) {
	h, c, rec := newRuleFixture()
	h.OnUpdate(fakeRules(4))

	want := []string{"on:name-1", "on:name-2", "on:name-3", "on:name-4"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("subscriber calls = %v, want %v", rec.calls, want)
	}
	if c.Len(dto.GroupRule) != 4 {
		t.Errorf("cache len = %d, want 4", c.Len(dto.GroupRule))
	}
}

func TestRuleDataHandler_DeleteNotifiesEvenWhenAbsent(t *testing.T) {
	h, c, rec := newRuleFixture()
	rules := fakeRules(3)
	h.OnCreate(rules[:1])
	rec.calls = nil

	h.OnDelete(rules)

	want := []string{"un:name-1", "un:name-2", "un:name-3"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("subscriber calls = %v, want %v", rec.calls, want)
	}
	if c.Len(dto.GroupRule) != 0 {
		t.Errorf("cache len = %d, want 0", c.Len(dto.GroupRule))
	}
}

func TestHandler_Handle(t *testing.T) {
	h, c, rec := newRuleFixture()
	payload := []byte(`[{"id":"r1","name":"a","selectorId":"s1"}]`)

	if err := h.Handle(dto.EventCreate, payload); err != nil {
		t.Fatalf("Handle(CREATE) error = %v", err)
	}
	if err := h.Handle(dto.EventCreate, payload); err != nil {
		t.Fatalf("Handle(CREATE) twice error = %v", err)
	}
	if c.Len(dto.GroupRule) != 1 {
		t.Errorf("cache len after duplicate create = %d, want 1", c.Len(dto.GroupRule))
	}
	// At-least-once: both deliveries reach the subscriber.
	if len(rec.calls) != 2 {
		t.Errorf("subscriber calls = %v, want 2", rec.calls)
	}

	err := h.Handle("PATCH", payload)
	if !errors.Is(err, datasync.ErrUnknownOperation) {
		t.Errorf("Handle(PATCH) error = %v, want ErrUnknownOperation", err)
	}
	if err := h.Handle(dto.EventDelete, []byte(`{`)); err == nil {
		t.Error("Handle(DELETE, malformed) should fail")
	}
}

func TestRegister_MultipleCapabilities(t *testing.T) {
	subs := datasync.NewSubscribers()
	if n := subs.Register(&recorder{}); n != 2 {
		t.Fatalf("Register() = %d capabilities, want 2", n)
	}

	c := cache.New()
	rec := subs.Plugins()[0].(*recorder)
	NewPluginDataHandler(c, subs).OnDelete([]dto.PluginData{{Name: "waf"}})
	if !reflect.DeepEqual(rec.calls, []string{"unplugin:waf"}) {
		t.Errorf("calls = %v", rec.calls)
	}
}

func TestRestore(t *testing.T) {
	c := cache.New()
	subs := datasync.NewSubscribers()
	Restore(c, subs, &dto.Snapshot{
		Plugins:   []dto.PluginData{{Name: "waf", Enabled: true}},
		Selectors: []dto.SelectorData{{ID: "s1", PluginName: "waf"}},
		Rules:     []dto.RuleData{{ID: "r1", SelectorID: "s1"}},
		AppAuths:  []dto.AppAuthData{{AppKey: "k"}},
		Metas:     []dto.MetaData{{Path: "/m"}},
	})
	for _, g := range dto.AllGroups {
		if c.Len(g) != 1 {
			t.Errorf("Len(%s) = %d, want 1", g, c.Len(g))
		}
	}
	if len(c.Rules("s1")) != 1 {
		t.Error("restored rule not reachable through its owners")
	}
}
