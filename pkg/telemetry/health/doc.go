// Package health provides the gateway's liveness and readiness probes.
//
// Liveness always succeeds while the process runs. Readiness runs every
// registered check concurrently, each bounded by the check timeout:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("sync", health.ConditionCheck(synced, "no snapshot applied"))
//	checker.RegisterCheck("store", health.PingCheck(store))
//	health.Register(mux, checker, &cfg.Telemetry.Health, version, commit, buildTime)
package health
