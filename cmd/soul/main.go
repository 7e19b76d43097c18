// Soul is the data-plane node of the soul API gateway.
//
// It keeps a local copy of the gateway configuration (plugins, selectors,
// rules, app auth and metadata) in sync with the admin control plane and
// dispatches every HTTP request through the enabled plugin chain before
// proxying it upstream.
//
// Usage:
//
//	# Start a node with the default configuration
//	soul run
//
//	# Start with a custom configuration file
//	soul run --config /etc/soul/config.yaml
//
//	# Check a configuration and a snapshot file
//	soul validate --snapshot snapshot.yaml
//
//	# Export the configuration a running node holds
//	soul snapshot export --url http://127.0.0.1:9195 --output snapshot.yaml
//
//	# Register routes with the admin once
//	soul register
//
//	# Show version information
//	soul version
package main

func main() {
	Execute()
}
