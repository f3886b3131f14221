// Package capability — Task 2.7: provider capability matrix.
// Pure data: provider identifier × content kind → supported. The matrix is
// loaded once from YAML at startup and consulted fresh on every pipeline
// call; it has no behavior beyond lookup and fails closed for providers it
// has never heard of, so unregistered backends never silently receive
// unsupported content.
package capability

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// ImageGen is the synthetic kind used by the picture-generation gate.
// It is not a message-part modality; it marks providers that can honor an
// image-generation request at all.
const ImageGen llm.Kind = "image-gen"

// Matrix maps provider identifier → supported content kinds.
type Matrix struct {
	rows map[string]map[llm.Kind]bool
}

// New builds a Matrix from explicit rows.
func New(rows map[string][]llm.Kind) *Matrix {
	m := &Matrix{rows: make(map[string]map[llm.Kind]bool, len(rows))}
	for provider, kinds := range rows {
		row := make(map[llm.Kind]bool, len(kinds))
		for _, k := range kinds {
			row[k] = true
		}
		m.rows[provider] = row
	}
	return m
}

// Default returns the built-in matrix matching the shipped adapters.
// Text is universal; only Gemini takes audio and video natively; Anthropic
// has no image generation.
func Default() *Matrix {
	return New(map[string][]llm.Kind{
		"openai":    {llm.KindText, llm.KindImage, llm.KindAudio, ImageGen},
		"anthropic": {llm.KindText, llm.KindImage},
		"gemini":    {llm.KindText, llm.KindImage, llm.KindAudio, llm.KindVideo, ImageGen},
	})
}

// Supports reports whether the provider accepts the given content kind.
// Unknown providers and unknown kinds return false (fail closed).
func (m *Matrix) Supports(providerID string, kind llm.Kind) bool {
	row, ok := m.rows[providerID]
	if !ok {
		return false
	}
	return row[kind]
}

// Row returns the supported kinds for a provider, nil when unknown.
func (m *Matrix) Row(providerID string) []llm.Kind {
	row, ok := m.rows[providerID]
	if !ok {
		return nil
	}
	out := make([]llm.Kind, 0, len(row))
	for _, k := range []llm.Kind{llm.KindText, llm.KindImage, llm.KindAudio, llm.KindVideo, ImageGen} {
		if row[k] {
			out = append(out, k)
		}
	}
	return out
}

// capabilityFile is the YAML shape of the capability declaration:
//
//	providers:
//	  openai: [text, image, audio, image-gen]
//	  anthropic: [text, image]
type capabilityFile struct {
	Providers map[string][]string `yaml:"providers"`
}

// LoadFile reads a capability declaration from a YAML file.
// New providers are added by editing the file — no code change needed.
func LoadFile(path string) (*Matrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("capability: read %q: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML capability declaration.
func Parse(raw []byte) (*Matrix, error) {
	var file capabilityFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("capability: parse yaml: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("capability: no providers declared")
	}
	rows := make(map[string][]llm.Kind, len(file.Providers))
	for provider, kinds := range file.Providers {
		row := make([]llm.Kind, 0, len(kinds))
		for _, k := range kinds {
			row = append(row, llm.Kind(k))
		}
		rows[provider] = row
	}
	return New(rows), nil
}
