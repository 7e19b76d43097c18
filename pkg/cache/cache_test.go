package cache

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"soul-hq/gateway/pkg/dto"
)

func ids[T any](list []*T, id func(*T) string) []string {
	out := make([]string, len(list))
	for i, v := range list {
		out[i] = id(v)
	}
	return out
}

func ruleIDs(rs []*dto.RuleData) []string {
	return ids(rs, func(r *dto.RuleData) string { return r.ID })
}

func selectorIDs(ss []*dto.SelectorData) []string {
	return ids(ss, func(s *dto.SelectorData) string { return s.ID })
}

func seeded() *Cache {
	c := New()
	c.UpsertPlugin(dto.PluginData{Name: "rewrite", Enabled: true, Sort: 1})
	c.UpsertSelector(dto.SelectorData{ID: "s1", PluginName: "rewrite", Enabled: true})
	return c
}

func TestCache_RuleOrderBySortThenInsertion(t *testing.T) {
	c := seeded()
	c.UpsertRule(dto.RuleData{ID: "r3", SelectorID: "s1", Sort: 3})
	c.UpsertRule(dto.RuleData{ID: "r1", SelectorID: "s1", Sort: 1})
	c.UpsertRule(dto.RuleData{ID: "r2", SelectorID: "s1", Sort: 2})
	c.UpsertRule(dto.RuleData{ID: "r1b", SelectorID: "s1", Sort: 1})

	got := ruleIDs(c.Rules("s1"))
	want := []string{"r1", "r1b", "r2", "r3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rules(s1) = %v, want %v", got, want)
	}

	// Updating keeps the original insertion position among equal sorts.
	c.UpsertRule(dto.RuleData{ID: "r1", SelectorID: "s1", Sort: 1, Name: "renamed"})
	got = ruleIDs(c.Rules("s1"))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rules(s1) after update = %v, want %v", got, want)
	}
}

func TestCache_IdempotentUpsertAndRemove(t *testing.T) {
	c := seeded()
	rule := dto.RuleData{ID: "r1", SelectorID: "s1", Sort: 1, Enabled: true}

	c.UpsertRule(rule)
	before := c.Export()
	tableBefore := c.rules.load()

	c.UpsertRule(rule)
	if c.rules.load() != tableBefore {
		t.Error("identical upsert published a new table")
	}
	if !reflect.DeepEqual(c.Export(), before) {
		t.Error("identical upsert changed cache content")
	}

	c.RemoveRule("does-not-exist")
	c.RemoveSelector("does-not-exist")
	c.RemovePlugin("does-not-exist")
	if !reflect.DeepEqual(c.Export(), before) {
		t.Error("removing an absent id changed cache content")
	}

	c.RemoveRule("r1")
	c.RemoveRule("r1")
	if c.Rule("r1") != nil || len(c.Rules("s1")) != 0 {
		t.Error("rule still visible after remove")
	}
}

func TestCache_OrphansHiddenUntilOwnerArrives(t *testing.T) {
	c := New()
	c.UpsertRule(dto.RuleData{ID: "r1", SelectorID: "s1"})
	c.UpsertSelector(dto.SelectorData{ID: "s1", PluginName: "waf"})

	if c.Rule("r1") == nil {
		t.Fatal("orphan rule not stored")
	}
	if got := c.Rules("s1"); got != nil {
		t.Errorf("Rules(s1) = %v before selector owner exists, want nil", ruleIDs(got))
	}
	if got := c.Selectors("waf"); got != nil {
		t.Errorf("Selectors(waf) = %v before plugin exists, want nil", selectorIDs(got))
	}

	c.UpsertPlugin(dto.PluginData{Name: "waf"})
	if got := selectorIDs(c.Selectors("waf")); !reflect.DeepEqual(got, []string{"s1"}) {
		t.Errorf("Selectors(waf) = %v, want [s1]", got)
	}
	if got := ruleIDs(c.Rules("s1")); !reflect.DeepEqual(got, []string{"r1"}) {
		t.Errorf("Rules(s1) = %v, want [r1]", got)
	}

	// Owner removal hides children again without dropping them.
	c.RemoveSelector("s1")
	if c.Rules("s1") != nil || c.Rule("r1") == nil {
		t.Error("rule should be stored but hidden after its selector is removed")
	}
}

func TestCache_OwnerChangeMovesEntity(t *testing.T) {
	c := seeded()
	c.UpsertSelector(dto.SelectorData{ID: "s2", PluginName: "rewrite"})
	c.UpsertRule(dto.RuleData{ID: "r1", SelectorID: "s1"})
	c.UpsertRule(dto.RuleData{ID: "r1", SelectorID: "s2"})

	if got := c.Rules("s1"); len(got) != 0 {
		t.Errorf("Rules(s1) = %v, want empty", ruleIDs(got))
	}
	if got := ruleIDs(c.Rules("s2")); !reflect.DeepEqual(got, []string{"r1"}) {
		t.Errorf("Rules(s2) = %v, want [r1]", got)
	}
}

func TestCache_ReplaceConverges(t *testing.T) {
	c := seeded()
	c.UpsertRule(dto.RuleData{ID: "old", SelectorID: "s1"})
	c.UpsertAppAuth(dto.AppAuthData{AppKey: "stale"})
	c.UpsertMeta(dto.MetaData{Path: "/stale"})

	c.ReplaceRules([]dto.RuleData{{ID: "new", SelectorID: "s1", Sort: 2}, {ID: "newer", SelectorID: "s1", Sort: 1}})
	c.ReplaceAppAuths([]dto.AppAuthData{{AppKey: "k1"}})
	c.ReplaceMetas(nil)

	if c.Rule("old") != nil {
		t.Error("replaced rule still present")
	}
	if got := ruleIDs(c.Rules("s1")); !reflect.DeepEqual(got, []string{"newer", "new"}) {
		t.Errorf("Rules(s1) = %v, want [newer new]", got)
	}
	if c.AppAuth("stale") != nil || c.AppAuth("k1") == nil {
		t.Error("app auth table did not converge")
	}
	if c.Len(dto.GroupMeta) != 0 {
		t.Errorf("Len(meta) = %d, want 0", c.Len(dto.GroupMeta))
	}
}

func TestCache_PluginsOrdered(t *testing.T) {
	c := New()
	c.ReplacePlugins([]dto.PluginData{
		{Name: "c", Sort: 30},
		{Name: "a", Sort: 10},
		{Name: "b", Sort: 20},
	})
	got := ids(c.Plugins(), func(p *dto.PluginData) string { return p.Name })
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Plugins() = %v, want [a b c]", got)
	}
	// Equal sort keeps arrival order, not name order.
	c.UpsertPlugin(dto.PluginData{Name: "z", Sort: 15})
	c.UpsertPlugin(dto.PluginData{Name: "m", Sort: 15})
	got = ids(c.Plugins(), func(p *dto.PluginData) string { return p.Name })
	if !reflect.DeepEqual(got, []string{"a", "z", "m", "b", "c"}) {
		t.Errorf("Plugins() with ties = %v, want [a z m b c]", got)
	}
}

type countObserver struct {
	mu     sync.Mutex
	counts map[dto.ConfigGroup]int
	calls  int
}

func (o *countObserver) EntriesChanged(kind dto.ConfigGroup, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[kind] = n
	o.calls++
}

func TestCache_Observer(t *testing.T) {
	obs := &countObserver{counts: map[dto.ConfigGroup]int{}}
	c := New(WithObserver(obs))

	c.UpsertPlugin(dto.PluginData{Name: "a"})
	c.UpsertPlugin(dto.PluginData{Name: "a"})
	c.UpsertPlugin(dto.PluginData{Name: "b"})
	c.RemovePlugin("missing")

	if obs.counts[dto.GroupPlugin] != 2 {
		t.Errorf("observed plugin count = %d, want 2", obs.counts[dto.GroupPlugin])
	}
	if obs.calls != 2 {
		t.Errorf("observer calls = %d, want 2 (no-ops are silent)", obs.calls)
	}
}

func TestCache_ConcurrentReadersDuringWrites(t *testing.T) {
	c := seeded()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				rules := c.Rules("s1")
				for j := 1; j < len(rules); j++ {
					if rules[j-1].Sort > rules[j].Sort {
						t.Errorf("observed unsorted rule list")
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		c.UpsertRule(dto.RuleData{ID: fmt.Sprintf("r%d", i%50), SelectorID: "s1", Sort: i % 7})
		if i%10 == 0 {
			c.RemoveRule(fmt.Sprintf("r%d", (i/10)%50))
		}
	}
	close(stop)
	wg.Wait()
}

func TestCache_PropertyReplaceConvergence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("after replace lookups reflect exactly the new set", prop.ForAll(
		func(before, after []int) bool {
			c := seeded()
			for _, n := range before {
				c.UpsertRule(dto.RuleData{ID: fmt.Sprintf("r%d", n), SelectorID: "s1", Sort: n})
			}

			next := make([]dto.RuleData, 0, len(after))
			want := make(map[string]bool)
			for _, n := range after {
				id := fmt.Sprintf("r%d", n)
				if want[id] {
					continue
				}
				want[id] = true
				next = append(next, dto.RuleData{ID: id, SelectorID: "s1", Sort: n})
			}
			c.ReplaceRules(next)

			if c.Len(dto.GroupRule) != len(want) {
				return false
			}
			for _, n := range before {
				id := fmt.Sprintf("r%d", n)
				if (c.Rule(id) != nil) != want[id] {
					return false
				}
			}
			got := c.Rules("s1")
			for i := 1; i < len(got); i++ {
				if got[i-1].Sort > got[i].Sort {
					return false
				}
			}
			return len(got) == len(want)
		},
		gen.SliceOf(gen.IntRange(0, 30)),
		gen.SliceOf(gen.IntRange(0, 30)),
	))

	properties.TestingRun(t)
}
