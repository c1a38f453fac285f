package command

import (
	"strconv"
	"strings"

	"github.com/dekarrin/rulecheck/internal/rcerrors"
)

// VerbPrefix starts every command other than a plain CHECK.
const VerbPrefix = ":"

var (
	// VerbAliases maps shorthand verbs to their canonical forms. They are all
	// uppercase and do not include the VerbPrefix.
	VerbAliases map[string]string = map[string]string{
		"C":      "CHECK",
		"MATCH":  "CHECK",
		"E":      "ENDS",
		"R":      "RULE",
		"SHOW":   "RULE",
		"LIST":   "RULES",
		"L":      "LOOPS",
		"CYCLES": "LOOPS",
		"X":      "EXPAND",
		"LANG":   "EXPAND",
		"D":      "DEFINE",
		"DEF":    "DEFINE",
		"SET":    "DEFINE",
		"S":      "START",
		"?":      "HELP",
		"H":      "HELP",
		"Q":      "QUIT",
		"EXIT":   "QUIT",
		"BYE":    "QUIT",
	}
)

// ParseCommand parses a command from the given text. If it cannot, a non-nil
// error is returned.
//
// A line that does not begin with VerbPrefix is a CHECK of the entire line. If
// an empty string or a string composed only of whitespace is passed in, nil
// error is returned and a zero value for Command will be returned.
func ParseCommand(toParse string) (Command, error) {
	parsedCmd := Command{Rule: NoRule}

	line := strings.TrimSpace(toParse)
	if line == "" {
		return Command{}, nil
	}

	if !strings.HasPrefix(line, VerbPrefix) {
		parsedCmd.Verb = "CHECK"
		parsedCmd.Text = line
		return parsedCmd, nil
	}

	verbWord, rest := splitFirst(line[len(VerbPrefix):])
	if verbWord == "" {
		return parsedCmd, rcerrors.Inputf("Type a command name after %q; try %sHELP", VerbPrefix, VerbPrefix)
	}
	verb := ExpandAlias(verbWord)
	parsedCmd.Verb = verb

	switch verb {
	case "CHECK":
		if rest == "" {
			return parsedCmd, rcerrors.Inputf("I need a message to check")
		}
		parsedCmd.Text = rest
	case "ENDS":
		idWord, msg := splitFirst(rest)
		id, err := parseRuleID(idWord, verbWord)
		if err != nil {
			return parsedCmd, err
		}
		parsedCmd.Rule = id
		parsedCmd.Text = msg
	case "RULE", "EXPAND", "START":
		idWord, extra := splitFirst(rest)
		id, err := parseRuleID(idWord, verbWord)
		if err != nil {
			return parsedCmd, err
		}
		if extra != "" {
			return parsedCmd, rcerrors.Inputf("%s takes only a rule number, but got %q after it", verbWord, extra)
		}
		parsedCmd.Rule = id
	case "DEFINE":
		idx := strings.Index(rest, ":")
		if idx < 0 {
			return parsedCmd, rcerrors.Inputf("Give the new rule as ID: DEFINITION, such as %s%s 8: 42 | 42 8", VerbPrefix, verbWord)
		}
		id, err := parseRuleID(strings.TrimSpace(rest[:idx]), verbWord)
		if err != nil {
			return parsedCmd, err
		}
		def := strings.TrimSpace(rest[idx+1:])
		if def == "" {
			return parsedCmd, rcerrors.Inputf("Rule %d needs a definition after the ':'", id)
		}
		parsedCmd.Rule = id
		parsedCmd.Text = def
	case "RULES", "LOOPS", "QUIT":
		if rest != "" {
			return parsedCmd, rcerrors.Inputf("Type %s by itself, without anything after it", verbWord)
		}
	case "HELP":
		// help takes an optional argument
		if rest != "" {
			topic, _ := splitFirst(rest)
			parsedCmd.Text = ExpandAlias(strings.TrimPrefix(topic, VerbPrefix))
		}
	default:
		return parsedCmd, rcerrors.Inputf("I don't know what you mean by %q", VerbPrefix+verbWord)
	}

	return parsedCmd, nil
}

// ExpandAlias returns the canonical form of a verb typed without its prefix.
// Verbs that are not aliases are returned upper-cased but otherwise
// unchanged.
func ExpandAlias(verb string) string {
	verb = strings.ToUpper(verb)
	if canon, ok := VerbAliases[verb]; ok {
		return canon
	}
	return verb
}

func parseRuleID(s string, verbWord string) (int, error) {
	if s == "" {
		return NoRule, rcerrors.Inputf("%s needs a rule number", verbWord)
	}
	id, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return NoRule, rcerrors.WrapInputf(err, "%q is not a rule number", s)
	}
	return int(id), nil
}

// splitFirst splits s into its first whitespace-delimited word and the rest of
// it, with surrounding whitespace removed from both.
func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexFunc(s, func(r rune) bool { return r == ' ' || r == '\t' })
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}
