package triage

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Template names recognised in the rules file.
const (
	TemplateGreen          = "green"
	TemplateYellow         = "yellow"
	TemplateRed            = "red"
	TemplateEmergencyAlert = "emergency_alert"
)

type rulesFile struct {
	DefaultLanguage string                       `yaml:"default_language"`
	Lexicon         []lexiconEntry               `yaml:"lexicon"`
	SymptomNames    map[string]map[string]string `yaml:"symptom_names"`
	Templates       map[string]map[string]string `yaml:"templates"`
	Remedies        map[string]map[string]string `yaml:"remedies"`
	FallbackRemedy  map[string]string            `yaml:"fallback_remedy"`
	GreenTips       map[string][]string          `yaml:"green_tips"`
	Commands        []commandEntry               `yaml:"commands"`
	Onboarding      map[string]string            `yaml:"onboarding"`
}

type lexiconEntry struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

type commandEntry struct {
	Name     string            `yaml:"name"`
	Keywords []string          `yaml:"keywords"`
	Reply    map[string]string `yaml:"reply"`
}

type lexiconTerm struct {
	tag      entities.SymptomTag
	keywords []string
}

type commandRule struct {
	command  Command
	keywords map[string]struct{}
	reply    map[entities.Language]string
}

// Rules is the immutable table set driving extraction, composition and
// command handling. Build it with ParseRules, LoadRules or DefaultRules.
type Rules struct {
	defaultLanguage entities.Language
	lexicon         []lexiconTerm
	symptomNames    map[entities.Language]map[entities.SymptomTag]string
	templates       map[string]map[entities.Language]string
	remedies        map[entities.Language]map[entities.SymptomTag]string
	fallbackRemedy  map[entities.Language]string
	greenTips       map[entities.Language][]string
	commands        []commandRule
	onboarding      map[entities.Language]string
}

// DefaultRules parses the rule tables compiled into the binary.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads rules from path, or the compiled-in tables when path is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read triage rules %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a rules document.
func ParseRules(data []byte) (*Rules, error) {
	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse triage rules: %w", err)
	}

	rules := &Rules{
		defaultLanguage: entities.DefaultLanguage,
		symptomNames:    make(map[entities.Language]map[entities.SymptomTag]string),
		templates:       make(map[string]map[entities.Language]string),
		remedies:        make(map[entities.Language]map[entities.SymptomTag]string),
		fallbackRemedy:  make(map[entities.Language]string),
		greenTips:       make(map[entities.Language][]string),
		onboarding:      make(map[entities.Language]string),
	}
	if file.DefaultLanguage != "" {
		rules.defaultLanguage = entities.NormalizeLanguage(file.DefaultLanguage)
	}

	seen := make(map[entities.SymptomTag]bool)
	for i, entry := range file.Lexicon {
		tag := entities.SymptomTag(entry.Tag)
		if !tag.IsValid() {
			return nil, fmt.Errorf("lexicon entry %d: unknown symptom tag %q", i, entry.Tag)
		}
		if seen[tag] {
			return nil, fmt.Errorf("lexicon entry %d: duplicate symptom tag %q", i, entry.Tag)
		}
		seen[tag] = true

		term := lexiconTerm{tag: tag}
		// Leading spaces are kept: " dard" only matches at a word start.
		for _, kw := range entry.Keywords {
			if strings.TrimSpace(kw) == "" {
				continue
			}
			term.keywords = append(term.keywords, strings.ToLower(kw))
		}
		if len(term.keywords) == 0 {
			return nil, fmt.Errorf("lexicon entry %q has no keywords", entry.Tag)
		}
		rules.lexicon = append(rules.lexicon, term)
	}
	if len(rules.lexicon) == 0 {
		return nil, fmt.Errorf("triage rules define no lexicon")
	}

	for lang, names := range file.SymptomNames {
		m := make(map[entities.SymptomTag]string, len(names))
		for tag, name := range names {
			m[entities.SymptomTag(tag)] = name
		}
		rules.symptomNames[entities.Language(lang)] = m
	}
	for name, byLang := range file.Templates {
		m := make(map[entities.Language]string, len(byLang))
		for lang, text := range byLang {
			m[entities.Language(lang)] = text
		}
		rules.templates[name] = m
	}
	for lang, remedies := range file.Remedies {
		m := make(map[entities.SymptomTag]string, len(remedies))
		for tag, text := range remedies {
			m[entities.SymptomTag(tag)] = text
		}
		rules.remedies[entities.Language(lang)] = m
	}
	for lang, text := range file.FallbackRemedy {
		rules.fallbackRemedy[entities.Language(lang)] = text
	}
	for lang, tips := range file.GreenTips {
		rules.greenTips[entities.Language(lang)] = append([]string(nil), tips...)
	}
	for lang, text := range file.Onboarding {
		rules.onboarding[entities.Language(lang)] = text
	}

	for _, entry := range file.Commands {
		cmd := Command(entry.Name)
		if !cmd.isKnown() {
			return nil, fmt.Errorf("unknown command %q", entry.Name)
		}
		rule := commandRule{
			command:  cmd,
			keywords: make(map[string]struct{}),
			reply:    make(map[entities.Language]string),
		}
		for _, kw := range entry.Keywords {
			rule.keywords[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
		}
		for lang, text := range entry.Reply {
			rule.reply[entities.Language(lang)] = text
		}
		rules.commands = append(rules.commands, rule)
	}

	if err := rules.validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *Rules) validate() error {
	declared := make(map[entities.SymptomTag]lexiconTerm, len(r.lexicon))
	for _, term := range r.lexicon {
		if n := len(keywordScripts(term.keywords)); n < 2 {
			return fmt.Errorf("lexicon entry %q covers %d script(s), need at least 2", term.tag, n)
		}
		declared[term.tag] = term
	}
	for _, tag := range entities.AllSymptomTags() {
		if _, flagged := tierOf(tag); !flagged {
			continue
		}
		if _, ok := declared[tag]; !ok {
			return fmt.Errorf("tier tag %q has no lexicon entry", tag)
		}
	}

	def := r.defaultLanguage
	for _, name := range []string{TemplateGreen, TemplateYellow, TemplateRed, TemplateEmergencyAlert} {
		if r.templates[name][def] == "" {
			return fmt.Errorf("template %q missing for default language %q", name, def)
		}
	}
	if len(r.greenTips[def]) == 0 {
		return fmt.Errorf("green tips missing for default language %q", def)
	}
	if r.fallbackRemedy[def] == "" {
		return fmt.Errorf("fallback remedy missing for default language %q", def)
	}
	if r.onboarding[def] == "" {
		return fmt.Errorf("onboarding message missing for default language %q", def)
	}
	for _, cmd := range []Command{CommandHelp, CommandStop, CommandStart} {
		rule, ok := r.command(cmd)
		if !ok {
			return fmt.Errorf("command %q not defined", cmd)
		}
		if rule.reply[def] == "" {
			return fmt.Errorf("command %q has no reply for default language %q", cmd, def)
		}
	}
	return nil
}

// keywordScripts returns the distinct writing systems used by keywords.
func keywordScripts(keywords []string) map[string]struct{} {
	scripts := make(map[string]struct{})
	for _, kw := range keywords {
		for _, r := range kw {
			switch {
			case unicode.Is(unicode.Devanagari, r):
				scripts["devanagari"] = struct{}{}
			case unicode.Is(unicode.Latin, r):
				scripts["latin"] = struct{}{}
			case unicode.IsLetter(r):
				scripts["other"] = struct{}{}
			}
		}
	}
	return scripts
}

// DefaultLanguage is the language used when a lookup misses.
func (r *Rules) DefaultLanguage() entities.Language {
	return r.defaultLanguage
}

// SupportsLanguage reports whether the core templates exist for lang.
func (r *Rules) SupportsLanguage(lang entities.Language) bool {
	for _, name := range []string{TemplateGreen, TemplateYellow, TemplateRed} {
		if r.templates[name][lang] == "" {
			return false
		}
	}
	return true
}

// resolve returns lang when it is supported, otherwise the default language.
func (r *Rules) resolve(lang entities.Language) entities.Language {
	if r.SupportsLanguage(lang) {
		return lang
	}
	return r.defaultLanguage
}

func (r *Rules) template(name string, lang entities.Language) string {
	if t := r.templates[name][lang]; t != "" {
		return t
	}
	return r.templates[name][r.defaultLanguage]
}

func (r *Rules) symptomName(tag entities.SymptomTag, lang entities.Language) string {
	if name := r.symptomNames[lang][tag]; name != "" {
		return name
	}
	return strings.ReplaceAll(string(tag), "_", " ")
}

func (r *Rules) remedy(tag entities.SymptomTag, lang entities.Language) string {
	if text := r.remedies[lang][tag]; text != "" {
		return text
	}
	if text := r.fallbackRemedy[lang]; text != "" {
		return text
	}
	return r.fallbackRemedy[r.defaultLanguage]
}

func (r *Rules) tips(lang entities.Language) []string {
	if tips := r.greenTips[lang]; len(tips) > 0 {
		return tips
	}
	return r.greenTips[r.defaultLanguage]
}

func (r *Rules) command(cmd Command) (commandRule, bool) {
	for _, rule := range r.commands {
		if rule.command == cmd {
			return rule, true
		}
	}
	return commandRule{}, false
}

func (r *Rules) onboardingText(lang entities.Language) string {
	if text := r.onboarding[lang]; text != "" {
		return text
	}
	return r.onboarding[r.defaultLanguage]
}
