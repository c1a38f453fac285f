// Package command defines console command data types and handles parsing of
// commands from input sources.
package command

// NoRule is the value of Command.Rule when a command does not name a rule.
const NoRule = -1

// Command is a valid command received from a console input source.
type Command struct {

	// Verb is the canonical name of the command being invoked, such as
	// "CHECK", "RULE", or "QUIT". Some verbs have shorthand forms which are
	// typed differently, for instance ":Q" could be typed instead of ":QUIT",
	// and for all those cases they result in a Command with the canonical
	// verb.
	Verb string

	// Rule is the rule ID the command operates on, for instance the 8 in
	// ":RULE 8". It is NoRule if the command was not given one.
	Rule int

	// Text is the free-form argument of the command with its case preserved,
	// such as the message to check or the definition of a rule.
	Text string
}

// Verbs lists every canonical verb with the arguments it takes and a short
// description, in the order they are shown in help output.
var Verbs = [][3]string{
	{"CHECK", "MESSAGE", "Check whether the start rule matches all of MESSAGE. Any line that does not start with ':' is a CHECK."},
	{"ENDS", "ID MESSAGE", "Show every offset in MESSAGE that rule ID can finish matching at."},
	{"RULE", "ID", "Show the definition of rule ID."},
	{"RULES", "", "Show every rule in the grammar."},
	{"LOOPS", "", "Show which rules are part of a loop."},
	{"EXPAND", "ID", "List every message rule ID matches, if there are finitely many."},
	{"DEFINE", "ID: DEF", "Replace the definition of rule ID with DEF."},
	{"START", "ID", "Make rule ID the rule that CHECK matches against."},
	{"HELP", "", "Show this help."},
	{"QUIT", "", "Leave the console."},
}
