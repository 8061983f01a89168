package services

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

// FieldPolicy decides which side wins when an export entry and a freshly
// scraped record both carry a field.
type FieldPolicy string

const (
	// PreferNew takes the new value when it is meaningful.
	PreferNew FieldPolicy = "prefer_new"
	// PreferExisting keeps a meaningful stored value. Used for fields that
	// people correct by hand in the export files.
	PreferExisting FieldPolicy = "prefer_existing"
)

var defaultPreferExisting = []string{
	models.FieldDifficulty,
	models.FieldDifficultyScale,
	"time",
	"timeSpent",
	"time_spent",
	"timeTaken",
	"time_taken",
	"duration",
	"durationSeconds",
}

// MergePolicy is the per-field precedence table. Fields not listed use
// PreferNew.
type MergePolicy struct {
	fields map[string]FieldPolicy
}

func DefaultMergePolicy() *MergePolicy {
	p := &MergePolicy{fields: make(map[string]FieldPolicy)}
	for _, f := range defaultPreferExisting {
		p.fields[f] = PreferExisting
	}
	return p
}

// For returns the policy that applies to field.
func (p *MergePolicy) For(field string) FieldPolicy {
	if policy, ok := p.fields[field]; ok {
		return policy
	}
	return PreferNew
}

func (p *MergePolicy) Set(field string, policy FieldPolicy) {
	p.fields[field] = policy
}

// PreferExistingFields lists the protected fields, sorted.
func (p *MergePolicy) PreferExistingFields() []string {
	var out []string
	for f, policy := range p.fields {
		if policy == PreferExisting {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

// MergePolicyFile is the YAML layout of a policy override file:
//
//	prefer_existing: [rating, notes]
//	prefer_new: [duration]
type MergePolicyFile struct {
	PreferExisting []string `yaml:"prefer_existing"`
	PreferNew      []string `yaml:"prefer_new"`
}

// Apply layers the file's entries over the policy. A field listed under
// both headings is rejected.
func (p *MergePolicy) Apply(f MergePolicyFile) error {
	seen := make(map[string]bool, len(f.PreferExisting))
	for _, field := range f.PreferExisting {
		seen[field] = true
	}
	for _, field := range f.PreferNew {
		if seen[field] {
			return newPolicyError(fmt.Sprintf("field %q listed as both prefer_existing and prefer_new", field), field)
		}
	}

	for _, field := range f.PreferExisting {
		p.Set(field, PreferExisting)
	}
	for _, field := range f.PreferNew {
		p.Set(field, PreferNew)
	}
	return nil
}

// LoadMergePolicy returns the default policy extended by the YAML file at
// path. An empty path returns the default policy.
func LoadMergePolicy(path string) (*MergePolicy, error) {
	p := DefaultMergePolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read merge policy: %w", err)
	}

	var f MergePolicyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse merge policy %s: %w", path, err)
	}
	if err := p.Apply(f); err != nil {
		return nil, err
	}
	return p, nil
}

func newPolicyError(message, field string) ValidationErrors {
	return ValidationErrors{{Field: "merge_policy", Message: message, Value: field}}
}
