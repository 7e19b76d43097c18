package dto

import "strings"

// ConfigGroup identifies the entity kind carried by a sync event.
type ConfigGroup string

const (
	GroupPlugin   ConfigGroup = "PLUGIN"
	GroupSelector ConfigGroup = "SELECTOR"
	GroupRule     ConfigGroup = "RULE"
	GroupAppAuth  ConfigGroup = "APP_AUTH"
	GroupMeta     ConfigGroup = "META_DATA"
)

// AllGroups lists every entity kind in the order a full snapshot is applied.
// Owners come before the entities that reference them.
var AllGroups = []ConfigGroup{GroupPlugin, GroupSelector, GroupRule, GroupAppAuth, GroupMeta}

// ParseConfigGroup parses a group name case-insensitively.
func ParseConfigGroup(s string) (ConfigGroup, bool) {
	g := ConfigGroup(strings.ToUpper(strings.TrimSpace(s)))
	switch g {
	case GroupPlugin, GroupSelector, GroupRule, GroupAppAuth, GroupMeta:
		return g, true
	}
	return "", false
}

// DataEventType is the operation carried by a sync event.
type DataEventType string

const (
	EventCreate      DataEventType = "CREATE"
	EventUpdate      DataEventType = "UPDATE"
	EventDelete      DataEventType = "DELETE"
	EventFullRefresh DataEventType = "FULL_REFRESH"
)

// ParseDataEventType parses an operation name. The control plane also sends
// REFRESH and MYSELF for full snapshots; both map to EventFullRefresh.
func ParseDataEventType(s string) (DataEventType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREATE":
		return EventCreate, true
	case "UPDATE":
		return EventUpdate, true
	case "DELETE":
		return EventDelete, true
	case "FULL_REFRESH", "REFRESH", "MYSELF":
		return EventFullRefresh, true
	}
	return "", false
}

// MatchMode combines the conditions of a selector or rule.
type MatchMode int

const (
	// MatchAnd requires every condition to hold.
	MatchAnd MatchMode = 0
	// MatchOr requires at least one condition to hold.
	MatchOr MatchMode = 1
)

func (m MatchMode) String() string {
	switch m {
	case MatchAnd:
		return "and"
	case MatchOr:
		return "or"
	default:
		return "unknown"
	}
}

// SelectorType distinguishes catch-all selectors from condition-guarded ones.
type SelectorType int

const (
	// SelectorFullFlow matches every request regardless of conditions.
	SelectorFullFlow SelectorType = 0
	// SelectorCustom matches according to its conditions.
	SelectorCustom SelectorType = 1
)

// ParamType names the part of the request a condition reads.
type ParamType string

const (
	ParamPost      ParamType = "post"
	ParamURI       ParamType = "uri"
	ParamQuery     ParamType = "query"
	ParamHost      ParamType = "host"
	ParamIP        ParamType = "ip"
	ParamHeader    ParamType = "header"
	ParamCookie    ParamType = "cookie"
	ParamMethod    ParamType = "req_method"
	ParamDomain    ParamType = "domain"
	ParamAttribute ParamType = "attribute"
)

// Valid reports whether t is a known parameter type.
func (t ParamType) Valid() bool {
	switch t {
	case ParamPost, ParamURI, ParamQuery, ParamHost, ParamIP, ParamHeader,
		ParamCookie, ParamMethod, ParamDomain, ParamAttribute:
		return true
	}
	return false
}

// Operator is the comparison a condition applies.
type Operator string

const (
	OpMatch      Operator = "match"
	OpEquals     Operator = "="
	OpRegex      Operator = "regex"
	OpGreater    Operator = ">"
	OpLess       Operator = "<"
	OpLike       Operator = "like"
	OpContains   Operator = "contains"
	OpExclude    Operator = "exclude"
	OpTimeBefore Operator = "TimeBefore"
	OpTimeAfter  Operator = "TimeAfter"
)

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	switch o {
	case OpMatch, OpEquals, OpRegex, OpGreater, OpLess, OpLike, OpContains,
		OpExclude, OpTimeBefore, OpTimeAfter:
		return true
	}
	return false
}
