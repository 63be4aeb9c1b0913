package similarity

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/haimeda/statement-scorer/internal/core/analysis"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// Vocabulary lists generic domain term sets. When both statements of a pair overlap
// the same set by more than Threshold, their domain similarity is multiplied by Penalty.
type Vocabulary struct {
	Threshold float64             `yaml:"threshold"`
	Penalty   float64             `yaml:"penalty"`
	Domains   map[string][]string `yaml:"domains"`

	names []string
	sets  map[string]map[string]struct{}
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() (*Vocabulary, error) {
	return ParseVocabulary(defaultVocabularyYAML)
}

// LoadVocabulary reads a vocabulary file, or returns the built-in one when path is empty.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary %s: %w", path, err)
	}

	return ParseVocabulary(data)
}

// ParseVocabulary decodes a YAML vocabulary.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding vocabulary: %w", err)
	}

	v.sets = make(map[string]map[string]struct{}, len(v.Domains))

	for name, terms := range v.Domains {
		set := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			set[analysis.Lower(term)] = struct{}{}
		}

		v.sets[name] = set
		v.names = append(v.names, name)
	}

	sort.Strings(v.names)

	return &v, nil
}

// SharedGenericDomain reports the first domain, by name, that both word sets
// overlap above the threshold.
func (v *Vocabulary) SharedGenericDomain(words1, words2 []string) (string, bool) {
	for _, name := range v.names {
		set := v.sets[name]
		if len(set) == 0 {
			continue
		}

		if overlapRatio(words1, set) > v.Threshold && overlapRatio(words2, set) > v.Threshold {
			return name, true
		}
	}

	return "", false
}

func overlapRatio(words []string, set map[string]struct{}) float64 {
	seen := make(map[string]struct{}, len(words))

	for _, w := range words {
		w = analysis.Lower(w)
		if _, ok := set[w]; ok {
			seen[w] = struct{}{}
		}
	}

	return float64(len(seen)) / float64(len(set))
}
