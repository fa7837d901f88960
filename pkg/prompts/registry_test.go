package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parable-systems/shepherd/pkg/intent"
)

// ============================================================================
// Defaults
// ============================================================================

func TestNewRegistry_CoversAllLabels(t *testing.T) {
	r := NewRegistry()

	labels := []intent.Label{
		intent.LabelPrayer,
		intent.LabelInformational,
		intent.LabelConversational,
		intent.LabelPractical,
	}
	for _, label := range labels {
		if r.Get(label) == "" {
			t.Errorf("no default template for label %q", label)
		}
	}
}

func TestGet_UnknownLabelFallsBackToConversational(t *testing.T) {
	r := NewRegistry()

	got := r.Get(intent.Label("nonsense"))
	want := r.Get(intent.LabelConversational)
	if got != want {
		t.Errorf("unknown label returned %q, want conversational template", got)
	}
}

// ============================================================================
// YAML overrides
// ============================================================================

func TestLoadRegistry_OverridesSelectedLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := "prayer: \"Custom prayer template.\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write templates file: %v", err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}

	if got := r.Get(intent.LabelPrayer); got != "Custom prayer template." {
		t.Errorf("Get(prayer) = %q, want override", got)
	}
	if got := r.Get(intent.LabelInformational); !strings.Contains(got, "teacher") {
		t.Errorf("Get(informational) = %q, want default preserved", got)
	}
}

func TestLoadRegistry_RejectsUnknownLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte("mystery: \"text\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write templates file: %v", err)
	}

	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected error for unknown label, got nil")
	}
}

func TestLoadRegistry_RejectsEmptyTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte("prayer: \"\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write templates file: %v", err)
	}

	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected error for empty template, got nil")
	}
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	if _, err := LoadRegistry("/nonexistent/templates.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadRegistry_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte("prayer: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write templates file: %v", err)
	}

	if _, err := LoadRegistry(path); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}
