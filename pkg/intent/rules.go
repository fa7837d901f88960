package intent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules is the keyword configuration driving classification. The decision
// order is fixed in the classifier; the keyword sets are data, versionable
// and testable independently of the control flow.
type Rules struct {
	// PrayerPhrases are explicit prayer-creation requests.
	PrayerPhrases []string `yaml:"prayer_phrases"`

	// PrayerWords flag any mention of praying.
	PrayerWords []string `yaml:"prayer_words"`

	// PrayerExclusions are informational-about-prayer phrases that override
	// PrayerWords (e.g. "what is prayer" is a teaching question, not a
	// prayer request).
	PrayerExclusions []string `yaml:"prayer_exclusions"`

	// InformationalStems are question-style or educational-request openers.
	InformationalStems []string `yaml:"informational_stems"`

	// HelpPhrases indicate the sender is asking for personal help.
	HelpPhrases []string `yaml:"help_phrases"`

	// SpiritualTerms are spiritual or struggle-domain words.
	SpiritualTerms []string `yaml:"spiritual_terms"`

	// CasualWords are greetings and small-talk words.
	CasualWords []string `yaml:"casual_words"`

	// MaxCasualChars is the length below which a whole message counts as
	// casual on size alone.
	MaxCasualChars int `yaml:"max_casual_chars"`

	// MaxCasualTokenChars is the length below which a single-word message
	// counts as casual.
	MaxCasualTokenChars int `yaml:"max_casual_token_chars"`
}

// DefaultRules returns the built-in keyword sets.
func DefaultRules() *Rules {
	return &Rules{
		PrayerPhrases: []string{
			"write a prayer", "write me a prayer", "compose a prayer",
			"pray for", "prayer for", "say a prayer",
		},
		PrayerWords: []string{"prayer", "pray"},
		PrayerExclusions: []string{
			"what is prayer", "what is praying", "how does prayer",
			"explain prayer", "why do we pray", "about prayer",
		},
		InformationalStems: []string{
			"what is", "what does", "what are", "who is", "who was",
			"explain", "why does", "why did", "how does", "tell me about",
			"is it true", "is it a sin", "does the bible",
		},
		HelpPhrases: []string{
			"i struggle", "i'm struggling", "i am struggling", "struggling with",
			"help me", "i can't", "i cannot", "i need help", "what should i do",
		},
		SpiritualTerms: []string{
			"sin", "anxiety", "anxious", "faith", "god", "jesus", "bible",
			"scripture", "temptation", "forgive", "forgiveness", "fear",
			"doubt", "grief", "lonely", "depressed",
		},
		CasualWords: []string{
			"hey", "hi", "hello", "yo", "sup", "thanks", "thank you",
			"good morning", "good night", "lol", "ok", "okay",
		},
		MaxCasualChars:      12,
		MaxCasualTokenChars: 10,
	}
}

// LoadRules reads a rules file and merges it over the defaults: any list or
// threshold left empty in the file keeps its built-in value.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}

	rules := DefaultRules()
	mergeRules(rules, &loaded)
	return rules, nil
}

// mergeRules overlays non-empty fields of src onto dst.
func mergeRules(dst, src *Rules) {
	if len(src.PrayerPhrases) > 0 {
		dst.PrayerPhrases = src.PrayerPhrases
	}
	if len(src.PrayerWords) > 0 {
		dst.PrayerWords = src.PrayerWords
	}
	if len(src.PrayerExclusions) > 0 {
		dst.PrayerExclusions = src.PrayerExclusions
	}
	if len(src.InformationalStems) > 0 {
		dst.InformationalStems = src.InformationalStems
	}
	if len(src.HelpPhrases) > 0 {
		dst.HelpPhrases = src.HelpPhrases
	}
	if len(src.SpiritualTerms) > 0 {
		dst.SpiritualTerms = src.SpiritualTerms
	}
	if len(src.CasualWords) > 0 {
		dst.CasualWords = src.CasualWords
	}
	if src.MaxCasualChars > 0 {
		dst.MaxCasualChars = src.MaxCasualChars
	}
	if src.MaxCasualTokenChars > 0 {
		dst.MaxCasualTokenChars = src.MaxCasualTokenChars
	}
}
