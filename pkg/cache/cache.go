package cache

import (
	"soul-hq/gateway/pkg/dto"
)

// Observer is told the entry count of a kind after every change.
type Observer interface {
	EntriesChanged(kind dto.ConfigGroup, count int)
}

// Option configures a Cache.
type Option func(*Cache)

// WithObserver reports entry counts to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// Cache is the node-local configuration index. All methods are safe for
// concurrent use. Slices and pointers returned by read methods are shared
// and must not be modified.
type Cache struct {
	plugins   *kindStore[dto.PluginData]
	selectors *kindStore[dto.SelectorData]
	rules     *kindStore[dto.RuleData]
	auths     *kindStore[dto.AppAuthData]
	metas     *kindStore[dto.MetaData]

	observer Observer
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		plugins: newKindStore(
			func(p *dto.PluginData) string { return p.Name },
			nil,
			func(p *dto.PluginData) int { return p.Sort },
		),
		selectors: newKindStore(
			func(s *dto.SelectorData) string { return s.ID },
			func(s *dto.SelectorData) string { return s.PluginName },
			func(s *dto.SelectorData) int { return s.Sort },
		),
		rules: newKindStore(
			func(r *dto.RuleData) string { return r.ID },
			func(r *dto.RuleData) string { return r.SelectorID },
			func(r *dto.RuleData) int { return r.Sort },
		),
		auths: newKindStore(
			func(a *dto.AppAuthData) string { return a.AppKey },
			nil,
			func(*dto.AppAuthData) int { return 0 },
		),
		metas: newKindStore(
			func(m *dto.MetaData) string { return m.Path },
			nil,
			func(*dto.MetaData) int { return 0 },
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) changed(kind dto.ConfigGroup) {
	if c.observer != nil {
		c.observer.EntriesChanged(kind, c.Len(kind))
	}
}

// UpsertPlugin stores p keyed by name.
func (c *Cache) UpsertPlugin(p dto.PluginData) {
	if c.plugins.upsert(p) {
		c.changed(dto.GroupPlugin)
	}
}

// RemovePlugin deletes the plugin called name.
func (c *Cache) RemovePlugin(name string) {
	if c.plugins.remove(name) {
		c.changed(dto.GroupPlugin)
	}
}

// ReplacePlugins installs exactly ps.
func (c *Cache) ReplacePlugins(ps []dto.PluginData) {
	c.plugins.replace(ps)
	c.changed(dto.GroupPlugin)
}

// UpsertSelector stores s keyed by id.
func (c *Cache) UpsertSelector(s dto.SelectorData) {
	if c.selectors.upsert(s) {
		c.changed(dto.GroupSelector)
	}
}

// RemoveSelector deletes the selector with the given id.
func (c *Cache) RemoveSelector(id string) {
	if c.selectors.remove(id) {
		c.changed(dto.GroupSelector)
	}
}

// ReplaceSelectors installs exactly ss.
func (c *Cache) ReplaceSelectors(ss []dto.SelectorData) {
	c.selectors.replace(ss)
	c.changed(dto.GroupSelector)
}

// UpsertRule stores r keyed by id.
func (c *Cache) UpsertRule(r dto.RuleData) {
	if c.rules.upsert(r) {
		c.changed(dto.GroupRule)
	}
}

// RemoveRule deletes the rule with the given id.
func (c *Cache) RemoveRule(id string) {
	if c.rules.remove(id) {
		c.changed(dto.GroupRule)
	}
}

// ReplaceRules installs exactly rs.
func (c *Cache) ReplaceRules(rs []dto.RuleData) {
	c.rules.replace(rs)
	c.changed(dto.GroupRule)
}

// UpsertAppAuth stores a keyed by app key.
func (c *Cache) UpsertAppAuth(a dto.AppAuthData) {
	if c.auths.upsert(a) {
		c.changed(dto.GroupAppAuth)
	}
}

// RemoveAppAuth deletes the credentials for appKey.
func (c *Cache) RemoveAppAuth(appKey string) {
	if c.auths.remove(appKey) {
		c.changed(dto.GroupAppAuth)
	}
}

// ReplaceAppAuths installs exactly as.
func (c *Cache) ReplaceAppAuths(as []dto.AppAuthData) {
	c.auths.replace(as)
	c.changed(dto.GroupAppAuth)
}

// UpsertMeta stores m keyed by path.
func (c *Cache) UpsertMeta(m dto.MetaData) {
	if c.metas.upsert(m) {
		c.changed(dto.GroupMeta)
	}
}

// RemoveMeta deletes the metadata registered for path.
func (c *Cache) RemoveMeta(path string) {
	if c.metas.remove(path) {
		c.changed(dto.GroupMeta)
	}
}

// ReplaceMetas installs exactly ms.
func (c *Cache) ReplaceMetas(ms []dto.MetaData) {
	c.metas.replace(ms)
	c.changed(dto.GroupMeta)
}

// Plugin returns the plugin called name, or nil.
func (c *Cache) Plugin(name string) *dto.PluginData {
	return c.plugins.load().get(name)
}

// Plugins returns every plugin in priority order.
func (c *Cache) Plugins() []*dto.PluginData {
	return c.plugins.load().ordered
}

// Selector returns the selector with the given id, or nil.
func (c *Cache) Selector(id string) *dto.SelectorData {
	return c.selectors.load().get(id)
}

// Selectors returns the selectors of a plugin in priority order. It returns
// nil while the plugin itself is unknown.
func (c *Cache) Selectors(pluginName string) []*dto.SelectorData {
	if c.Plugin(pluginName) == nil {
		return nil
	}
	return c.selectors.load().byOwner[pluginName]
}

// Rule returns the rule with the given id, or nil.
func (c *Cache) Rule(id string) *dto.RuleData {
	return c.rules.load().get(id)
}

// Rules returns the rules of a selector in priority order. It returns nil
// while the selector itself is unknown.
func (c *Cache) Rules(selectorID string) []*dto.RuleData {
	if c.Selector(selectorID) == nil {
		return nil
	}
	return c.rules.load().byOwner[selectorID]
}

// AppAuth returns the credentials for appKey, or nil.
func (c *Cache) AppAuth(appKey string) *dto.AppAuthData {
	return c.auths.load().get(appKey)
}

// Meta returns the metadata registered for path, or nil.
func (c *Cache) Meta(path string) *dto.MetaData {
	return c.metas.load().get(path)
}

// Len returns the number of stored entries of kind, orphans included.
func (c *Cache) Len(kind dto.ConfigGroup) int {
	switch kind {
	case dto.GroupPlugin:
		return len(c.plugins.load().byKey)
	case dto.GroupSelector:
		return len(c.selectors.load().byKey)
	case dto.GroupRule:
		return len(c.rules.load().byKey)
	case dto.GroupAppAuth:
		return len(c.auths.load().byKey)
	case dto.GroupMeta:
		return len(c.metas.load().byKey)
	}
	return 0
}

// Export copies the whole cache, orphans included, into a snapshot.
func (c *Cache) Export() *dto.Snapshot {
	return &dto.Snapshot{
		Plugins:   c.plugins.load().values(),
		Selectors: c.selectors.load().values(),
		Rules:     c.rules.load().values(),
		AppAuths:  c.auths.load().values(),
		Metas:     c.metas.load().values(),
	}
}
