package triage

import (
	"strings"
	"unicode"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// Command is a control keyword that bypasses triage.
type Command string

const (
	CommandNone  Command = ""
	CommandHelp  Command = "help"
	CommandStop  Command = "stop"
	CommandStart Command = "start"
)

// commandOrder is the precedence used when the first word matches more than
// one command.
var commandOrder = []Command{CommandHelp, CommandStop, CommandStart}

func (c Command) isKnown() bool {
	switch c {
	case CommandHelp, CommandStop, CommandStart:
		return true
	}
	return false
}

// CommandInterpreter recognises help/stop/start in the leading word of a message.
type CommandInterpreter struct {
	rules *Rules
}

// NewCommandInterpreter creates an interpreter over the rules command table.
func NewCommandInterpreter(rules *Rules) *CommandInterpreter {
	return &CommandInterpreter{rules: rules}
}

// Interpret returns the command named by the first word of text, or
// CommandNone. Only the first word counts so that "I can't stop bleeding"
// is still triaged.
func (c *CommandInterpreter) Interpret(text string) Command {
	word := firstWord(text)
	if word == "" {
		return CommandNone
	}
	for _, cmd := range commandOrder {
		rule, ok := c.rules.command(cmd)
		if !ok {
			continue
		}
		if _, hit := rule.keywords[word]; hit {
			return cmd
		}
	}
	return CommandNone
}

// Reply returns the command's response text in lang, or the default language.
func (c *CommandInterpreter) Reply(cmd Command, lang entities.Language) string {
	rule, ok := c.rules.command(cmd)
	if !ok {
		return ""
	}
	if text := rule.reply[lang]; text != "" {
		return text
	}
	return rule.reply[c.rules.defaultLanguage]
}

func firstWord(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return ""
	}
	// Devanagari vowel signs are marks, not letters, so only punctuation and
	// symbols are trimmed.
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
