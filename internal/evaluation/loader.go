package evaluation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

type goldenFile struct {
	Cases []GoldenCase `yaml:"cases"`
}

// LoadGoldenCases reads and parses a golden case set from a YAML file.
func LoadGoldenCases(path string) ([]GoldenCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden cases file: %w", err)
	}

	var file goldenFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse golden cases: %w", err)
	}

	return file.Cases, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// ValidateGoldenCases checks that all golden cases have required fields and valid values.
func ValidateGoldenCases(cases []GoldenCase) error {
	seen := make(map[string]struct{}, len(cases))

	for i, c := range cases {
		if c.ID == "" {
			return fmt.Errorf("case at index %d: missing id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("case at index %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = struct{}{}

		if c.Text == "" {
			return fmt.Errorf("case %q: missing text", c.ID)
		}
		if !c.ExpectedTier.IsValid() {
			return fmt.Errorf("case %q: invalid expected_tier %q", c.ID, c.ExpectedTier)
		}
		for _, tag := range c.ExpectedTags {
			if !tag.IsValid() {
				return fmt.Errorf("case %q: unknown tag %q", c.ID, tag)
			}
		}
		if c.Difficulty != "" && !validDifficulties[c.Difficulty] {
			return fmt.Errorf("case %q: invalid difficulty %q (must be easy/medium/hard)", c.ID, c.Difficulty)
		}
	}

	return nil
}

// language resolves the case language, defaulting to English.
func (c GoldenCase) language() entities.Language {
	if c.Language == "" {
		return entities.DefaultLanguage
	}
	return entities.NormalizeLanguage(c.Language)
}
