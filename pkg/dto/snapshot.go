package dto

import (
	"fmt"
	"strings"
)

// Snapshot is the complete configuration of a node at one point in time.
type Snapshot struct {
	Plugins   []PluginData   `json:"plugins" yaml:"plugins"`
	Selectors []SelectorData `json:"selectors" yaml:"selectors"`
	Rules     []RuleData     `json:"rules" yaml:"rules"`
	AppAuths  []AppAuthData  `json:"appAuths" yaml:"app_auths"`
	Metas     []MetaData     `json:"metas" yaml:"metas"`
}

// Len returns the total number of entities in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Plugins) + len(s.Selectors) + len(s.Rules) + len(s.AppAuths) + len(s.Metas)
}

// Issue describes one problem found in a snapshot.
type Issue struct {
	// Path locates the entity, e.g. "rules[2].conditions[0]".
	Path    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// SnapshotError collects every issue found by Validate.
type SnapshotError struct {
	Issues []Issue
}

func (e *SnapshotError) Error() string {
	if len(e.Issues) == 1 {
		return "invalid snapshot: " + e.Issues[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid snapshot with %d issues:\n", len(e.Issues))
	for _, issue := range e.Issues {
		fmt.Fprintf(&sb, "  - %s\n", issue)
	}
	return sb.String()
}

// Validate checks keys, duplicates and condition vocabulary. Dangling owner
// references are not reported here; the cache tolerates them.
func (s *Snapshot) Validate() error {
	var issues []Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[string]bool)
	for i, p := range s.Plugins {
		path := fmt.Sprintf("plugins[%d]", i)
		switch {
		case p.Name == "":
			add(path, "name is required")
		case seen[p.Name]:
			add(path, "duplicate plugin name %q", p.Name)
		}
		seen[p.Name] = true
	}

	seen = make(map[string]bool)
	for i, sel := range s.Selectors {
		path := fmt.Sprintf("selectors[%d]", i)
		if sel.ID == "" {
			add(path, "id is required")
		} else if seen[sel.ID] {
			add(path, "duplicate selector id %q", sel.ID)
		}
		seen[sel.ID] = true
		if sel.PluginName == "" {
			add(path, "plugin_name is required")
		}
		validateConditions(path, sel.Conditions, add)
	}

	seen = make(map[string]bool)
	for i, r := range s.Rules {
		path := fmt.Sprintf("rules[%d]", i)
		if r.ID == "" {
			add(path, "id is required")
		} else if seen[r.ID] {
			add(path, "duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		if r.SelectorID == "" {
			add(path, "selector_id is required")
		}
		validateConditions(path, r.Conditions, add)
	}

	for i, a := range s.AppAuths {
		if a.AppKey == "" {
			add(fmt.Sprintf("app_auths[%d]", i), "app_key is required")
		}
	}
	for i, m := range s.Metas {
		if m.Path == "" {
			add(fmt.Sprintf("metas[%d]", i), "path is required")
		}
	}

	if len(issues) > 0 {
		return &SnapshotError{Issues: issues}
	}
	return nil
}

func validateConditions(owner string, conds []ConditionData, add func(path, format string, args ...any)) {
	for i, c := range conds {
		path := fmt.Sprintf("%s.conditions[%d]", owner, i)
		if !c.ParamType.Valid() {
			add(path, "unknown param_type %q", c.ParamType)
		}
		if !c.Operator.Valid() {
			add(path, "unknown operator %q", c.Operator)
		}
	}
}
