// Package plugins contains the gateway's built-in plugin handlers: waf,
// rewrite and rateLimiter.
//
// Each plugin decodes the handle JSON of its rules once, when the rule
// arrives from the control plane, and keeps the parsed form keyed by rule
// id. The cache is kept current as a datasync.RuleSubscriber, so Handle
// never parses on the request path unless a rule was not seen yet.
//
//	rw := plugins.NewRewrite(logger)
//	subs.Register(rw)
//	engine.Register(plugins.RewriteName, rw)
package plugins
