// Package dto defines the configuration entities distributed from the
// control plane to gateway nodes: plugins, selectors, rules, conditions,
// application credentials and RPC metadata.
//
// Entities are plain values. Once an entity has been published into the
// node cache it is treated as immutable; updates arrive as whole new values
// that replace the previous entry by key.
//
// JSON field names follow the control plane wire format (camelCase). YAML
// field names are used by snapshot files and follow snake_case.
package dto
