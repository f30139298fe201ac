package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Standard file names inside a database directory.
const (
	SymptomsFile = "symptoms.json"
	DiseasesFile = "diseases.json"
	RulesFile    = "rules.json"
)

// Loader reads and writes a knowledge base rooted at a database directory.
type Loader struct {
	dir string
}

// NewLoader creates a loader for the given database directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Dir returns the database directory this loader operates on.
func (l *Loader) Dir() string {
	return l.dir
}

// Load reads symptoms.json, diseases.json, and rules.json from the database
// directory. A missing file yields an empty set; malformed JSON is an error.
func (l *Loader) Load() (*KnowledgeBase, error) {
	kb := NewKnowledgeBase()

	var symptoms []Symptom
	if err := l.readJSON(SymptomsFile, &symptoms); err != nil {
		return nil, err
	}
	for _, s := range symptoms {
		if s.ID == "" {
			return nil, fmt.Errorf("%s: symptom with empty id", SymptomsFile)
		}
		if _, dup := kb.Symptoms[s.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate symptom id %q", SymptomsFile, s.ID)
		}
		kb.Symptoms[s.ID] = s
	}

	var diseases []Disease
	if err := l.readJSON(DiseasesFile, &diseases); err != nil {
		return nil, err
	}
	for _, d := range diseases {
		if d.ID == "" {
			return nil, fmt.Errorf("%s: disease with empty id", DiseasesFile)
		}
		if _, dup := kb.Diseases[d.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate disease id %q", DiseasesFile, d.ID)
		}
		kb.Diseases[d.ID] = d
	}

	var rules map[string]Rule
	if err := l.readJSON(RulesFile, &rules); err != nil {
		return nil, err
	}
	if rules != nil {
		kb.Rules = rules
	}

	return kb, nil
}

// SaveRules writes the rule set back to rules.json atomically: the content
// is written to a temp file in the same directory and renamed over the
// original.
func (l *Loader) SaveRules(rules map[string]Rule) error {
	data, err := json.MarshalIndent(rules, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	data = append(data, '\n')
	return l.writeAtomic(RulesFile, data)
}

// SaveSymptoms writes the symptom list back to symptoms.json atomically,
// sorted by ID for stable diffs.
func (l *Loader) SaveSymptoms(symptoms map[string]Symptom) error {
	list := make([]Symptom, 0, len(symptoms))
	for _, s := range symptoms {
		list = append(list, s)
	}
	sortSymptoms(list)

	data, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode symptoms: %w", err)
	}
	data = append(data, '\n')
	return l.writeAtomic(SymptomsFile, data)
}

func (l *Loader) readJSON(name string, v any) error {
	path := filepath.Join(l.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (l *Loader) writeAtomic(name string, data []byte) error {
	if err := os.MkdirAll(l.dir, 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	path := filepath.Join(l.dir, name)

	tmp, err := os.CreateTemp(l.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func sortSymptoms(list []Symptom) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
