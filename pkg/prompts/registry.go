// Package prompts maps intent labels to the system-prompt templates sent
// with every completion request.
//
// Templates are static data: built-in defaults cover every label, and an
// optional YAML file can override any of them without code changes.
package prompts

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/parable-systems/shepherd/pkg/intent"
)

// Registry holds the system-prompt template for each intent label.
type Registry struct {
	mu        sync.RWMutex
	templates map[intent.Label]string
}

// defaultTemplates covers every label the classifier can emit.
func defaultTemplates() map[intent.Label]string {
	return map[intent.Label]string{
		intent.LabelPrayer: "You are a compassionate spiritual companion. " +
			"The user is asking for a prayer. Respond with a short, sincere prayer " +
			"addressed to God, written in warm and plain language, followed by a single " +
			"sentence of encouragement. Where a scripture passage fits naturally, cite " +
			"it with book, chapter, and verse.",

		intent.LabelInformational: "You are a patient teacher of Christian " +
			"faith and scripture. The user is asking a question. Give a clear, direct " +
			"answer in two or three short paragraphs, citing scripture references " +
			"(book chapter:verse) that support the answer. Acknowledge honest " +
			"differences of interpretation where they exist.",

		intent.LabelConversational: "You are a friendly, warm companion. The " +
			"user is making small talk. Respond briefly and naturally in one or two " +
			"sentences. Do not preach or add unrequested spiritual content.",

		intent.LabelPractical: "You are a wise, gentle counselor grounded in " +
			"Christian faith. The user is seeking guidance with something they are " +
			"facing. Respond with empathy first, then practical steps they can take, " +
			"and close with one relevant scripture reference cited as book " +
			"chapter:verse.",
	}
}

// NewRegistry creates a registry with the built-in templates.
func NewRegistry() *Registry {
	return &Registry{templates: defaultTemplates()}
}

// LoadRegistry creates a registry with the built-in templates overridden by
// a YAML file mapping label names to template text. Unknown labels in the
// file are an error; labels absent from the file keep their defaults.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file %q: %w", path, err)
	}

	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse templates file %q: %w", path, err)
	}

	r := NewRegistry()
	for name, text := range overrides {
		label := intent.Label(name)
		if _, ok := r.templates[label]; !ok {
			return nil, fmt.Errorf("templates file %q: unknown label %q", path, name)
		}
		if text == "" {
			return nil, fmt.Errorf("templates file %q: empty template for label %q", path, name)
		}
		r.templates[label] = text
	}
	return r, nil
}

// Get returns the template for a label, falling back to the conversational
// template for labels the registry does not know. The fallback mirrors the
// classifier's own safety net: an unrecognized label must never abort a
// request.
func (r *Registry) Get(label intent.Label) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tmpl, ok := r.templates[label]; ok {
		return tmpl
	}
	return r.templates[intent.LabelConversational]
}
