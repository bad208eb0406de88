package triage

import "github.com/zatekoja/postnatalcare/backend/internal/domain/entities"

// Assessment is the pure outcome of triaging one message.
type Assessment struct {
	Tags    []entities.SymptomTag
	Tier    entities.RiskTier
	Message string
}

// Engine bundles the extractor, classifier, composer and command interpreter
// over one immutable rule set. It performs no I/O and is safe for concurrent use.
type Engine struct {
	rules     *Rules
	extractor *Extractor
	composer  *Composer
	commands  *CommandInterpreter
}

// NewEngine creates an engine. A nil picker uses DefaultPicker.
func NewEngine(rules *Rules, picker Picker) *Engine {
	return &Engine{
		rules:     rules,
		extractor: NewExtractor(rules),
		composer:  NewComposer(rules, picker),
		commands:  NewCommandInterpreter(rules),
	}
}

// Assess extracts, classifies and composes a reply for text.
func (e *Engine) Assess(text string, lang entities.Language) Assessment {
	tags := e.extractor.Extract(text)
	tier := Classify(tags)
	return Assessment{
		Tags:    tags,
		Tier:    tier,
		Message: e.composer.Compose(tier, tags, lang),
	}
}

// Tier classifies text without composing a reply.
func (e *Engine) Tier(text string) entities.RiskTier {
	return Classify(e.extractor.Extract(text))
}

// Interpret returns the command named by the first word of text.
func (e *Engine) Interpret(text string) Command {
	return e.commands.Interpret(text)
}

// CommandReply returns the response text for cmd.
func (e *Engine) CommandReply(cmd Command, lang entities.Language) string {
	return e.commands.Reply(cmd, lang)
}

// Onboarding returns the welcome message.
func (e *Engine) Onboarding(lang entities.Language) string {
	return e.composer.Onboarding(lang)
}

// EmergencyAlert renders the message for emergency contacts.
func (e *Engine) EmergencyAlert(tags []entities.SymptomTag, lang entities.Language) string {
	return e.composer.EmergencyAlert(tags, lang)
}

// Rules exposes the rule set, mainly for language support checks.
func (e *Engine) Rules() *Rules {
	return e.rules
}

// SymptomName returns the display name of tag in lang.
func (e *Engine) SymptomName(tag entities.SymptomTag, lang entities.Language) string {
	return e.rules.symptomName(tag, e.rules.resolve(lang))
}
