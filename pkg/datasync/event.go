package datasync

import (
	"strings"

	json "github.com/goccy/go-json"

	"soul-hq/gateway/pkg/dto"
)

// Event is one typed configuration change.
type Event struct {
	Kind dto.ConfigGroup
	Op   dto.DataEventType
	Data json.RawMessage
}

type wireEvent struct {
	GroupType string          `json:"groupType"`
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

// DecodeEvent parses a control plane frame. Unknown kinds and operations are
// kept verbatim so the router can report them; only malformed frames fail.
func DecodeEvent(frame []byte) (*Event, error) {
	var w wireEvent
	if err := json.Unmarshal(frame, &w); err != nil {
		return nil, NewDecodeError("", frame, err)
	}
	ev := &Event{
		Kind: dto.ConfigGroup(strings.ToUpper(strings.TrimSpace(w.GroupType))),
		Op:   dto.DataEventType(strings.ToUpper(strings.TrimSpace(w.EventType))),
		Data: w.Data,
	}
	if g, ok := dto.ParseConfigGroup(w.GroupType); ok {
		ev.Kind = g
	}
	if op, ok := dto.ParseDataEventType(w.EventType); ok {
		ev.Op = op
	}
	return ev, nil
}

// EncodeEvent renders e in the control plane frame format.
func EncodeEvent(e *Event) ([]byte, error) {
	return json.Marshal(wireEvent{GroupType: string(e.Kind), EventType: string(e.Op), Data: e.Data})
}

// NewEvent marshals list as the payload of an event.
func NewEvent(kind dto.ConfigGroup, op dto.DataEventType, list any) (*Event, error) {
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return &Event{Kind: kind, Op: op, Data: data}, nil
}

// SnapshotEvents turns a snapshot into one FULL_REFRESH event per kind.
func SnapshotEvents(s *dto.Snapshot) ([]*Event, error) {
	if s == nil {
		s = &dto.Snapshot{}
	}
	lists := map[dto.ConfigGroup]any{
		dto.GroupPlugin:   nonNil(s.Plugins),
		dto.GroupSelector: nonNil(s.Selectors),
		dto.GroupRule:     nonNil(s.Rules),
		dto.GroupAppAuth:  nonNil(s.AppAuths),
		dto.GroupMeta:     nonNil(s.Metas),
	}
	events := make([]*Event, 0, len(dto.AllGroups))
	for _, g := range dto.AllGroups {
		ev, err := NewEvent(g, dto.EventFullRefresh, lists[g])
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
