package kb

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// exportDoc is the stable on-the-wire shape for whole-KB exports.
type exportDoc struct {
	Symptoms []Symptom       `json:"symptoms" yaml:"symptoms"`
	Diseases []Disease       `json:"diseases" yaml:"diseases"`
	Rules    map[string]Rule `json:"rules" yaml:"rules"`
}

// Export writes the whole knowledge base to w in the given format
// ("json" or "yaml"). Lists are sorted by ID for stable output.
func (kb *KnowledgeBase) Export(w io.Writer, format string) error {
	doc := exportDoc{
		Symptoms: make([]Symptom, 0, len(kb.Symptoms)),
		Diseases: make([]Disease, 0, len(kb.Diseases)),
		Rules:    kb.Rules,
	}
	for _, s := range kb.Symptoms {
		doc.Symptoms = append(doc.Symptoms, s)
	}
	for _, d := range kb.Diseases {
		doc.Diseases = append(doc.Diseases, d)
	}
	sort.Slice(doc.Symptoms, func(i, j int) bool { return doc.Symptoms[i].ID < doc.Symptoms[j].ID })
	sort.Slice(doc.Diseases, func(i, j int) bool { return doc.Diseases[i].ID < doc.Diseases[j].ID })

	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode knowledge base as yaml: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode knowledge base as json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format %q (want json or yaml)", format)
	}
}
