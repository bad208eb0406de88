package triage

import (
	"strings"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// Extractor maps free text to symptom tags by keyword containment.
type Extractor struct {
	rules *Rules
}

// NewExtractor creates an extractor over the rules lexicon.
func NewExtractor(rules *Rules) *Extractor {
	return &Extractor{rules: rules}
}

// Extract returns every tag with at least one keyword contained in text,
// case-insensitively, in lexicon order. Each tag appears at most once.
// The text is matched with a leading space so word-start keywords also hit
// at the beginning of a message.
func (e *Extractor) Extract(text string) []entities.SymptomTag {
	tags := make([]entities.SymptomTag, 0)
	if strings.TrimSpace(text) == "" {
		return tags
	}
	lowered := " " + strings.ToLower(text)
	for _, term := range e.rules.lexicon {
		for _, kw := range term.keywords {
			if strings.Contains(lowered, kw) {
				tags = append(tags, term.tag)
				break
			}
		}
	}
	return tags
}
