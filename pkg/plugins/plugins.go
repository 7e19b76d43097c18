package plugins

import (
	"log/slog"

	"soul-hq/gateway/pkg/datasync"
	"soul-hq/gateway/pkg/dispatch"
)

// Plugin is a built-in handler that also tracks its rules.
type Plugin interface {
	dispatch.PluginHandler
	datasync.RuleSubscriber
	Len() int
}

// Builtin returns the built-in plugins keyed by name.
func Builtin(logger *slog.Logger) map[string]Plugin {
	return map[string]Plugin{
		RateLimiterName: NewRateLimiter(logger),
		RewriteName:     NewRewrite(logger),
		WAFName:         NewWAF(logger),
	}
}

// Install registers every built-in plugin with the engine and as a rule
// subscriber.
func Install(engine *dispatch.Engine, subs *datasync.Subscribers, logger *slog.Logger) map[string]Plugin {
	all := Builtin(logger)
	for name, p := range all {
		engine.Register(name, p)
		subs.Register(p)
	}
	return all
}
