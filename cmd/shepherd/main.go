// Shepherd is an HTTP proxy that forwards chat messages to an LLM
// completion API with intent-aware prompt selection and per-caller quotas.
//
// It provides:
//   - Heuristic intent classification selecting a response-format prompt
//   - Per-caller burst, daily-request, and daily-cost quota enforcement
//   - Scripture-reference extraction over model replies
//   - A usage journal for offline analysis
//
// Usage:
//
//	# Start server with default configuration
//	shepherd run
//
//	# Start with custom configuration file
//	shepherd run --config /path/to/shepherd.yaml
//
//	# Show version information
//	shepherd version
package main

func main() {
	Execute()
}
