// Drishti is an enterprise observability gateway for AI inference
// services.
//
// It measures per-tenant request traffic, latency, errors, and business
// volume (characters translated, audio seconds transcribed, images read,
// tokens generated) and exposes everything in the Prometheus text format.
//
// Usage:
//
//	# Start the gateway with default configuration
//	drishti run --upstream http://inference:8000
//
//	# Start with a configuration file
//	drishti run --config /etc/drishti/drishti.yaml
//
//	# Show version information
//	drishti version
//
//	# Validate a configuration file
//	drishti config validate --config drishti.yaml
//
//	# Print the effective configuration, secrets redacted
//	drishti config show --config drishti.yaml
package main

func main() {
	Execute()
}
