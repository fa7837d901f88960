// Package intent classifies chat messages into topic labels used to select
// response-format prompt templates.
//
// Labels are decided in a fixed priority order - prayer, informational,
// conversational, then the practical default - while the keyword sets
// driving each predicate are configuration (Rules), overridable from a YAML
// file and hot-reloadable through RulesWatcher.
//
// Classification never fails: an internal fault falls back to the
// conversational label with Result.FallbackUsed set, so the safety net is
// observable instead of silent.
package intent
