package datasync

import (
	"sync"

	"soul-hq/gateway/pkg/dto"
)

// PluginSubscriber is notified of plugin changes.
type PluginSubscriber interface {
	OnPluginSubscribe(p dto.PluginData)
	UnPluginSubscribe(p dto.PluginData)
	RefreshPluginData(ps []dto.PluginData)
}

// SelectorSubscriber is notified of selector changes.
type SelectorSubscriber interface {
	OnSelectorSubscribe(s dto.SelectorData)
	UnSelectorSubscribe(s dto.SelectorData)
	RefreshSelectorData(ss []dto.SelectorData)
}

// RuleSubscriber is notified of rule changes.
type RuleSubscriber interface {
	OnRuleSubscribe(r dto.RuleData)
	UnRuleSubscribe(r dto.RuleData)
	RefreshRuleData(rs []dto.RuleData)
}

// AuthSubscriber is notified of application credential changes.
type AuthSubscriber interface {
	OnAuthSubscribe(a dto.AppAuthData)
	UnAuthSubscribe(a dto.AppAuthData)
	RefreshAuthData(as []dto.AppAuthData)
}

// MetaSubscriber is notified of RPC metadata changes.
type MetaSubscriber interface {
	OnMetaSubscribe(m dto.MetaData)
	UnMetaSubscribe(m dto.MetaData)
	RefreshMetaData(ms []dto.MetaData)
}

// Subscribers holds one list per subscriber capability. Notification order
// is registration order.
type Subscribers struct {
	mu        sync.RWMutex
	plugins   []PluginSubscriber
	selectors []SelectorSubscriber
	rules     []RuleSubscriber
	auths     []AuthSubscriber
	metas     []MetaSubscriber
}

// NewSubscribers creates an empty registry.
func NewSubscribers() *Subscribers {
	return &Subscribers{}
}

// Register adds sub to every list whose interface it implements and
// returns how many that was.
func (s *Subscribers) Register(sub any) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	if v, ok := sub.(PluginSubscriber); ok {
		s.plugins = append(s.plugins, v)
		n++
	}
	if v, ok := sub.(SelectorSubscriber); ok {
		s.selectors = append(s.selectors, v)
		n++
	}
	if v, ok := sub.(RuleSubscriber); ok {
		s.rules = append(s.rules, v)
		n++
	}
	if v, ok := sub.(AuthSubscriber); ok {
		s.auths = append(s.auths, v)
		n++
	}
	if v, ok := sub.(MetaSubscriber); ok {
		s.metas = append(s.metas, v)
		n++
	}
	return n
}

// Plugins returns the registered plugin subscribers.
func (s *Subscribers) Plugins() []PluginSubscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PluginSubscriber(nil), s.plugins...)
}

// Selectors returns the registered selector subscribers.
func (s *Subscribers) Selectors() []SelectorSubscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SelectorSubscriber(nil), s.selectors...)
}

// Rules returns the registered rule subscribers.
func (s *Subscribers) Rules() []RuleSubscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RuleSubscriber(nil), s.rules...)
}

// Auths returns the registered credential subscribers.
func (s *Subscribers) Auths() []AuthSubscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AuthSubscriber(nil), s.auths...)
}

// Metas returns the registered metadata subscribers.
func (s *Subscribers) Metas() []MetaSubscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MetaSubscriber(nil), s.metas...)
}
