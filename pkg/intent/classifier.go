package intent

import (
	"log/slog"
	"strings"
	"sync"
)

// Classifier maps raw message text to exactly one topic label.
//
// Classification is pure keyword matching over lowercased text: four
// predicates evaluated against the configured Rules, combined in a fixed
// priority order (prayer > informational > casual > practical default).
// Same input always yields the same label; there is no I/O and no failure
// mode - an internal fault is recovered and reported as a conversational
// fallback rather than an error.
type Classifier struct {
	mu     sync.RWMutex
	rules  *Rules
	logger *slog.Logger

	// evaluate is the classification body; indirected so the recovery path
	// can be exercised from tests.
	evaluate func(rules *Rules, message string) Label
}

// NewClassifier creates a classifier with the given rules.
// Nil rules mean DefaultRules.
func NewClassifier(rules *Rules, logger *slog.Logger) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		rules:    rules,
		logger:   logger.With("component", "intent"),
		evaluate: evaluateRules,
	}
}

// Classify maps a message to a topic label. Empty input classifies as
// conversational. Any panic inside evaluation is recovered, logged, and
// surfaced as a conversational result with FallbackUsed set.
func (c *Classifier) Classify(message string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classifier fault, using conversational fallback",
				"panic", r,
			)
			result = Result{Label: LabelConversational, FallbackUsed: true}
		}
	}()

	c.mu.RLock()
	rules := c.rules
	evaluate := c.evaluate
	c.mu.RUnlock()

	return Result{Label: evaluate(rules, message)}
}

// ReplaceRules swaps the active rules. Used by the file watcher for hot
// reload; in-flight classifications keep the rules they started with.
func (c *Classifier) ReplaceRules(rules *Rules) {
	if rules == nil {
		return
	}
	c.mu.Lock()
	c.rules = rules
	c.mu.Unlock()
	c.logger.Info("classifier rules replaced")
}

// Rules returns the active rules.
func (c *Classifier) Rules() *Rules {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules
}

// evaluateRules is the classification decision. First match wins.
func evaluateRules(rules *Rules, message string) Label {
	text := strings.ToLower(strings.TrimSpace(message))

	switch {
	case isPrayerRequest(rules, text):
		return LabelPrayer
	case isInformationalRequest(rules, text):
		return LabelInformational
	case isCasualMessage(rules, text):
		return LabelConversational
	default:
		return LabelPractical
	}
}

// isPrayerRequest reports whether the message asks for a prayer: either an
// explicit prayer-creation phrase, or a mention of praying that is not an
// informational question about prayer.
func isPrayerRequest(rules *Rules, text string) bool {
	if containsAny(text, rules.PrayerPhrases) {
		return true
	}
	if containsAny(text, rules.PrayerWords) && !containsAny(text, rules.PrayerExclusions) {
		return true
	}
	return false
}

// isInformationalRequest reports whether the message is a teaching or
// explanation request.
func isInformationalRequest(rules *Rules, text string) bool {
	return containsAny(text, rules.InformationalStems)
}

// indicatesNeedForHelp reports whether the message is asking for personal help.
func indicatesNeedForHelp(rules *Rules, text string) bool {
	return containsAny(text, rules.HelpPhrases)
}

// isSpiritualContext reports whether the message touches a spiritual or
// struggle-domain topic.
func isSpiritualContext(rules *Rules, text string) bool {
	return containsAny(text, rules.SpiritualTerms)
}

// isCasualMessage reports whether the message is small talk. Short messages
// and greetings qualify, but never when the sender is asking for help or the
// text carries spiritual context - those route to the practical default.
func isCasualMessage(rules *Rules, text string) bool {
	if indicatesNeedForHelp(rules, text) || isSpiritualContext(rules, text) {
		return false
	}
	if len(text) < rules.MaxCasualChars {
		return true
	}
	if fields := strings.Fields(text); len(fields) == 1 && len(fields[0]) < rules.MaxCasualTokenChars {
		return true
	}
	return containsAny(text, rules.CasualWords)
}

// containsAny reports whether text contains any of the needles.
func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
