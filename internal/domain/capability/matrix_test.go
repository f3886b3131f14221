// Tests for the capability matrix: fail-closed lookup and YAML loading.
package capability_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matiasleandrokruk/llmgate/internal/domain/capability"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// ===== TESTS: LOOKUP =====

func TestMatrix_Supports(t *testing.T) {
	t.Parallel()

	m := capability.New(map[string][]llm.Kind{
		"openai":    {llm.KindText, llm.KindImage},
		"anthropic": {llm.KindText},
	})

	if !m.Supports("openai", llm.KindImage) {
		t.Error("openai/image = false; want true")
	}
	if m.Supports("anthropic", llm.KindImage) {
		t.Error("anthropic/image = true; want false")
	}
}

// TestMatrix_FailsClosed: unknown providers and unknown kinds must both
// report unsupported.
func TestMatrix_FailsClosed(t *testing.T) {
	t.Parallel()

	m := capability.New(map[string][]llm.Kind{"openai": {llm.KindText}})

	if m.Supports("mystery", llm.KindText) {
		t.Error("unknown provider supported; want fail closed")
	}
	if m.Supports("openai", llm.Kind("telepathy")) {
		t.Error("unknown kind supported; want fail closed")
	}
}

func TestMatrix_DefaultRows(t *testing.T) {
	t.Parallel()

	m := capability.Default()

	if !m.Supports("gemini", llm.KindVideo) {
		t.Error("gemini/video = false; want true")
	}
	if m.Supports("anthropic", capability.ImageGen) {
		t.Error("anthropic/image-gen = true; want false")
	}
	if !m.Supports("openai", capability.ImageGen) {
		t.Error("openai/image-gen = false; want true")
	}
}

func TestMatrix_RowUnknownProviderIsNil(t *testing.T) {
	t.Parallel()

	if row := capability.Default().Row("mystery"); row != nil {
		t.Errorf("Row(mystery) = %v; want nil", row)
	}
}

// ===== TESTS: YAML =====

func TestParse_YAMLDeclaration(t *testing.T) {
	t.Parallel()

	raw := []byte(`
providers:
  openai: [text, image, image-gen]
  local: [text]
`)
	m, err := capability.Parse(raw)
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if !m.Supports("local", llm.KindText) {
		t.Error("local/text = false; want true")
	}
	if !m.Supports("openai", capability.ImageGen) {
		t.Error("openai/image-gen = false; want true")
	}
	if m.Supports("local", llm.KindImage) {
		t.Error("local/image = true; want false")
	}
}

func TestParse_EmptyDeclarationFails(t *testing.T) {
	t.Parallel()

	if _, err := capability.Parse([]byte("providers: {}")); err == nil {
		t.Fatal("Parse of empty declaration succeeded; want error")
	}
}

func TestParse_InvalidYAMLFails(t *testing.T) {
	t.Parallel()

	if _, err := capability.Parse([]byte("providers: [not a map")); err == nil {
		t.Fatal("Parse of invalid YAML succeeded; want error")
	}
}

func TestLoadFile_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "caps.yaml")
	content := "providers:\n  openai: [text]\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m, err := capability.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error = %v", err)
	}
	if !m.Supports("openai", llm.KindText) {
		t.Error("openai/text = false; want true")
	}
}

func TestLoadFile_MissingFileFails(t *testing.T) {
	t.Parallel()

	if _, err := capability.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadFile of missing file succeeded; want error")
	}
}
