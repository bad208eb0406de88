package triage

import (
	"math/rand"
	"strings"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// Picker chooses an index in [0, n). *rand.Rand satisfies it; tests inject a
// fixed picker to make the green tip deterministic.
type Picker interface {
	Intn(n int) int
}

// PickerFunc adapts a function to Picker.
type PickerFunc func(n int) int

func (f PickerFunc) Intn(n int) int { return f(n) }

// DefaultPicker uses the package-level math/rand source, which is safe for
// concurrent use.
var DefaultPicker Picker = PickerFunc(rand.Intn)

// Composer renders the outbound reply for a classified message.
type Composer struct {
	rules  *Rules
	picker Picker
}

// NewComposer creates a composer. A nil picker uses DefaultPicker.
func NewComposer(rules *Rules, picker Picker) *Composer {
	if picker == nil {
		picker = DefaultPicker
	}
	return &Composer{rules: rules, picker: picker}
}

// Compose renders the reply for tier and tags. Unsupported languages fall
// back to the default language.
func (c *Composer) Compose(tier entities.RiskTier, tags []entities.SymptomTag, lang entities.Language) string {
	lang = c.rules.resolve(lang)

	switch tier {
	case entities.RiskTierRed:
		return render(c.rules.template(TemplateRed, lang), map[string]string{
			"symptom": c.primaryName(tags, lang),
		})
	case entities.RiskTierYellow:
		remedy := c.rules.remedy("", lang)
		if len(tags) > 0 {
			remedy = c.rules.remedy(tags[0], lang)
		}
		return render(c.rules.template(TemplateYellow, lang), map[string]string{
			"symptom": c.primaryName(tags, lang),
			"remedy":  remedy,
		})
	default:
		return render(c.rules.template(TemplateGreen, lang), map[string]string{
			"tip": c.pickTip(lang),
		})
	}
}

// EmergencyAlert renders the message sent to a sender's emergency contacts.
// It names the first red-flag tag, not the primary symptom.
func (c *Composer) EmergencyAlert(tags []entities.SymptomTag, lang entities.Language) string {
	lang = c.rules.resolve(lang)
	name := c.primaryName(tags, lang)
	if tag, ok := FirstRedFlag(tags); ok {
		name = c.rules.symptomName(tag, lang)
	}
	return render(c.rules.template(TemplateEmergencyAlert, lang), map[string]string{
		"symptom": name,
	})
}

// Onboarding returns the welcome message for first-time senders.
func (c *Composer) Onboarding(lang entities.Language) string {
	return c.rules.onboardingText(c.rules.resolve(lang))
}

func (c *Composer) primaryName(tags []entities.SymptomTag, lang entities.Language) string {
	if len(tags) == 0 {
		return c.rules.symptomName("symptoms", lang)
	}
	return c.rules.symptomName(tags[0], lang)
}

func (c *Composer) pickTip(lang entities.Language) string {
	tips := c.rules.tips(lang)
	i := c.picker.Intn(len(tips))
	if i < 0 || i >= len(tips) {
		i = 0
	}
	return tips[i]
}

func render(template string, data map[string]string) string {
	out := template
	for key, value := range data {
		out = strings.ReplaceAll(out, "{{"+key+"}}", value)
	}
	return out
}
