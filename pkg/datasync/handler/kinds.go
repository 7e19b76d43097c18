package handler

import (
	"soul-hq/gateway/pkg/cache"
	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/dto"
)

type (
	PluginDataHandler   = Handler[dto.PluginData]
	SelectorDataHandler = Handler[dto.SelectorData]
	RuleDataHandler     = Handler[dto.RuleData]
	AuthDataHandler     = Handler[dto.AppAuthData]
	MetaDataHandler     = Handler[dto.MetaData]
)

// NewPluginDataHandler handles PLUGIN events.
func NewPluginDataHandler(c *cache.Cache, subs *datasync.Subscribers) *PluginDataHandler {
	return &PluginDataHandler{
		kind:    dto.GroupPlugin,
		upsert:  c.UpsertPlugin,
		remove:  func(p dto.PluginData) { c.RemovePlugin(p.Name) },
		replace: c.ReplacePlugins,
		subscribe: func(p dto.PluginData) {
			for _, s := range subs.Plugins() {
				s.OnPluginSubscribe(p)
			}
		},
		unsubscribe: func(p dto.PluginData) {
			for _, s := range subs.Plugins() {
				s.UnPluginSubscribe(p)
			}
		},
		refresh: func(ps []dto.PluginData) {
			for _, s := range subs.Plugins() {
				s.RefreshPluginData(ps)
			}
		},
	}
}

// NewSelectorDataHandler handles SELECTOR events.
func NewSelectorDataHandler(c *cache.Cache, subs *datasync.Subscribers) *SelectorDataHandler {
	return &SelectorDataHandler{
		kind:    dto.GroupSelector,
		upsert:  c.UpsertSelector,
		remove:  func(s dto.SelectorData) { c.RemoveSelector(s.ID) },
		replace: c.ReplaceSelectors,
		subscribe: func(sel dto.SelectorData) {
			for _, s := range subs.Selectors() {
				s.OnSelectorSubscribe(sel)
			}
		},
		unsubscribe: func(sel dto.SelectorData) {
			for _, s := range subs.Selectors() {
				s.UnSelectorSubscribe(sel)
			}
		},
		refresh: func(ss []dto.SelectorData) {
			for _, s := range subs.Selectors() {
				s.RefreshSelectorData(ss)
			}
		},
	}
}

// NewRuleDataHandler handles RULE events.
func NewRuleDataHandler(c *cache.Cache, subs *datasync.Subscribers) *RuleDataHandler {
	return &RuleDataHandler{
		kind:    dto.GroupRule,
		upsert:  c.UpsertRule,
		remove:  func(r dto.RuleData) { c.RemoveRule(r.ID) },
		replace: c.ReplaceRules,
		subscribe: func(r dto.RuleData) {
			for _, s := range subs.Rules() {
				s.OnRuleSubscribe(r)
			}
		},
		unsubscribe: func(r dto.RuleData) {
			for _, s := range subs.Rules() {
				s.UnRuleSubscribe(r)
			}
		},
		refresh: func(rs []dto.RuleData) {
			for _, s := range subs.Rules() {
				s.RefreshRuleData(rs)
			}
		},
	}
}

// NewAuthDataHandler handles APP_AUTH events.
func NewAuthDataHandler(c *cache.Cache, subs *datasync.Subscribers) *AuthDataHandler {
	return &AuthDataHandler{
		kind:    dto.GroupAppAuth,
		upsert:  c.UpsertAppAuth,
		remove:  func(a dto.AppAuthData) { c.RemoveAppAuth(a.AppKey) },
		replace: c.ReplaceAppAuths,
		subscribe: func(a dto.AppAuthData) {
			for _, s := range subs.Auths() {
				s.OnAuthSubscribe(a)
			}
		},
		unsubscribe: func(a dto.AppAuthData) {
			for _, s := range subs.Auths() {
				s.UnAuthSubscribe(a)
			}
		},
		refresh: func(as []dto.AppAuthData) {
			for _, s := range subs.Auths() {
				s.RefreshAuthData(as)
			}
		},
	}
}

// NewMetaDataHandler handles META_DATA events.
func NewMetaDataHandler(c *cache.Cache, subs *datasync.Subscribers) *MetaDataHandler {
	return &MetaDataHandler{
		kind:    dto.GroupMeta,
		upsert:  c.UpsertMeta,
		remove:  func(m dto.MetaData) { c.RemoveMeta(m.Path) },
		replace: c.ReplaceMetas,
		subscribe: func(m dto.MetaData) {
			for _, s := range subs.Metas() {
				s.OnMetaSubscribe(m)
			}
		},
		unsubscribe: func(m dto.MetaData) {
			for _, s := range subs.Metas() {
				s.UnMetaSubscribe(m)
			}
		},
		refresh: func(ms []dto.MetaData) {
			for _, s := range subs.Metas() {
				s.RefreshMetaData(ms)
			}
		},
	}
}

// All returns one handler per kind, sharing c and subs.
func All(c *cache.Cache, subs *datasync.Subscribers) []datasync.DataHandler {
	return []datasync.DataHandler{
		NewPluginDataHandler(c, subs),
		NewSelectorDataHandler(c, subs),
		NewRuleDataHandler(c, subs),
		NewAuthDataHandler(c, subs),
		NewMetaDataHandler(c, subs),
	}
}

// Restore applies s as a full refresh of every kind, owners first.
func Restore(c *cache.Cache, subs *datasync.Subscribers, s *dto.Snapshot) {
	NewPluginDataHandler(c, subs).OnFullRefresh(s.Plugins)
	NewSelectorDataHandler(c, subs).OnFullRefresh(s.Selectors)
	NewRuleDataHandler(c, subs).OnFullRefresh(s.Rules)
	NewAuthDataHandler(c, subs).OnFullRefresh(s.AppAuths)
	NewMetaDataHandler(c, subs).OnFullRefresh(s.Metas)
}
