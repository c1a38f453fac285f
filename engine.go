// Package rulecheck contains a CLI-driven engine for reading console commands
// and checking messages against a grammar continuously until the user quits.
package rulecheck

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/rulecheck/internal/command"
	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/internal/input"
	"github.com/dekarrin/rulecheck/internal/match"
	"github.com/dekarrin/rulecheck/internal/rcerrors"
)

const consoleOutputWidth = 80

// DefaultExpandLimit is the most messages that EXPAND will list when Options
// does not give a limit.
const DefaultExpandLimit = 256

// Options changes how an Engine behaves.
type Options struct {
	// Start is the ID of the rule that CHECK matches messages against.
	Start int

	// ForceDirect makes the engine read directly from the input stream even
	// when attached to a TTY.
	ForceDirect bool

	// HistoryFile is where entered lines are saved between sessions when
	// reading through readline. Empty means no history is saved.
	HistoryFile string

	// ExpandLimit is the most messages EXPAND will list. If 0,
	// DefaultExpandLimit is used.
	ExpandLimit int
}

// Engine contains the things needed to check messages against a grammar from
// an interactive shell attached to an input stream and an output stream.
type Engine struct {
	matcher     *match.Matcher
	start       int
	expandLimit int
	in          command.Reader
	out         *bufio.Writer
	forceDirect bool
	running     bool
}

// New creates a new engine ready to operate on the given input and output
// streams. It will immediately open a buffered reader on the input stream and a
// buffered writer on the output stream. The grammar is frozen; rules changed
// with DEFINE are changed in a copy of it.
//
// If nil is given for the input stream, a bufio.Reader is opened on stdin. If
// nil is given for the output stream, a bufio.Writer is opened on stdout.
func New(inputStream io.Reader, outputStream io.Writer, g *grammar.Grammar, opts Options) (*Engine, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}
	if g == nil {
		return nil, fmt.Errorf("grammar is nil")
	}
	if opts.Start < 0 {
		return nil, fmt.Errorf("start rule must not be negative")
	}

	eng := &Engine{
		matcher:     match.New(g),
		start:       opts.Start,
		expandLimit: opts.ExpandLimit,
		out:         bufio.NewWriter(outputStream),
		running:     false,
		forceDirect: opts.ForceDirect,
	}
	if eng.expandLimit == 0 {
		eng.expandLimit = DefaultExpandLimit
	}

	useReadline := !opts.ForceDirect && inputStream == os.Stdin && outputStream == os.Stdout

	if useReadline {
		var err error
		eng.in, err = input.NewInteractiveReader(opts.HistoryFile)
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
	} else {
		direct := input.NewDirectReader(inputStream)
		direct.SkipComments("#")
		eng.in = direct
	}

	return eng, nil
}

// Close closes all resources associated with the Engine, including any
// readline-related resources created for interactive mode.
func (eng *Engine) Close() error {
	if eng.running {
		return fmt.Errorf("cannot close a running engine")
	}

	err := eng.in.Close()
	if err != nil {
		return fmt.Errorf("close command reader: %w", err)
	}

	return nil
}

// Grammar returns the grammar the engine currently checks against. It is
// frozen.
func (eng *Engine) Grammar() *grammar.Grammar {
	return eng.matcher.Grammar()
}

// RunUntilQuit begins reading commands from the streams and carrying them out
// until the QUIT command is received or input ends.
func (eng *Engine) RunUntilQuit() error {
	introMsg := "Welcome to RuleCheck\n"
	if eng.forceDirect {
		introMsg += "(direct input mode)\n"
	}
	introMsg += "====================\n"
	introMsg += "\n"
	introMsg += fmt.Sprintf("Loaded %d rules; checking against rule %d\n", eng.Grammar().Len(), eng.start)
	introMsg += fmt.Sprintf("Type a message to check it, or %sHELP for commands\n", command.VerbPrefix)

	if err := eng.write(introMsg); err != nil {
		return err
	}

	eng.running = true
	// so we dont have to remember to do this on every returned error condition
	defer func() {
		eng.running = false
	}()

	for eng.running {
		cmd, err := command.Get(eng.in, eng.out)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("get user command: %w", err)
		}

		if cmd.Verb == "QUIT" {
			eng.running = false
			break
		}

		output, err := eng.Execute(cmd)
		if err != nil {
			output = rcerrors.HumanMessage(err)
			output = rosed.Edit(output).Wrap(consoleOutputWidth).String()
		}
		if err := eng.write(output + "\n"); err != nil {
			return err
		}
	}

	return eng.write("Goodbye\n")
}

// Execute carries out a single command and returns the text to show for it.
// QUIT is not handled by Execute; it is up to the caller to stop reading
// commands when it is received.
func (eng *Engine) Execute(cmd command.Command) (string, error) {
	switch cmd.Verb {
	case "CHECK":
		return eng.check(cmd.Text)
	case "ENDS":
		return eng.ends(cmd.Rule, cmd.Text)
	case "RULE":
		return eng.showRule(cmd.Rule)
	case "RULES":
		return eng.listRules(), nil
	case "LOOPS":
		return eng.listLoops(), nil
	case "EXPAND":
		return eng.expand(cmd.Rule)
	case "DEFINE":
		return eng.define(cmd.Rule, cmd.Text)
	case "START":
		return eng.setStart(cmd.Rule)
	case "HELP":
		return eng.help(cmd.Text)
	default:
		return "", rcerrors.Inputf("I don't know how to %q", cmd.Verb)
	}
}

func (eng *Engine) check(msg string) (string, error) {
	ends, err := eng.matcher.Resolve(eng.start, msg, 0)
	if err != nil {
		return "", grammarProblem(err)
	}

	length := utf8.RuneCountInString(msg)
	if ends.Has(length) {
		return "VALID", nil
	}

	longest := ends.Max()
	if longest < 0 {
		return fmt.Sprintf("INVALID: rule %d does not match any start of the message", eng.start), nil
	}
	return fmt.Sprintf("INVALID: rule %d matches at most the first %d of %d characters", eng.start, longest, length), nil
}

func (eng *Engine) ends(id int, msg string) (string, error) {
	ends, err := eng.matcher.Resolve(id, msg, 0)
	if err != nil {
		return "", grammarProblem(err)
	}
	return fmt.Sprintf("Rule %d can end at: %s", id, ends), nil
}

func (eng *Engine) showRule(id int) (string, error) {
	r, ok := eng.Grammar().Rule(id)
	if !ok {
		return "", rcerrors.Inputf("There is no rule %d", id)
	}

	output := fmt.Sprintf("%d: %s", id, r)
	if eng.Grammar().IsRecursive(id) {
		output += "\n(this rule is part of a loop)"
	}
	return output, nil
}

func (eng *Engine) listRules() string {
	g := eng.Grammar()
	loops := map[int]bool{}
	for _, id := range g.Recursive() {
		loops[id] = true
	}

	data := [][]string{{"Rule", "Definition", "Loops"}}
	for _, id := range g.IDs() {
		r, _ := g.Lookup(id)
		loopMark := ""
		if loops[id] {
			loopMark = "yes"
		}
		data = append(data, []string{strconv.Itoa(id), r.String(), loopMark})
	}

	tableOpts := rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, consoleOutputWidth, tableOpts).
		String()
}

func (eng *Engine) listLoops() string {
	loops := eng.Grammar().Recursive()
	if len(loops) == 0 {
		return "No rules are part of a loop"
	}

	ids := make([]string, len(loops))
	for i := range loops {
		ids[i] = strconv.Itoa(loops[i])
	}
	return "Rules that are part of a loop: " + strings.Join(ids, ", ")
}

func (eng *Engine) expand(id int) (string, error) {
	lang, err := eng.Grammar().Language(id, eng.expandLimit)
	if err != nil {
		var cycleErr *grammar.CycleError
		if errors.As(err, &cycleErr) {
			return "", rcerrors.WrapInputf(err, "Rule %d matches infinitely many messages; it loops through %s", id, formatPath(cycleErr.Path))
		}
		if errors.Is(err, grammar.ErrLanguageTooLarge) {
			return "", rcerrors.WrapInputf(err, "Rule %d matches more than %d messages", id, eng.expandLimit)
		}
		return "", grammarProblem(err)
	}

	if len(lang) == 0 {
		return fmt.Sprintf("Rule %d matches nothing", id), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rule %d matches %d message(s):", id, len(lang)))
	for _, s := range lang {
		sb.WriteString("\n  ")
		if s == "" {
			sb.WriteString("(empty)")
		} else {
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}

func (eng *Engine) define(id int, def string) (string, error) {
	r, err := grammar.ParseRule(def)
	if err != nil {
		return "", rcerrors.WrapInputf(err, "I can't use that definition: %s", err.Error())
	}

	updated := eng.Grammar().Copy()
	verb := "Added"
	if updated.Has(id) {
		verb = "Replaced"
		err = updated.Redefine(id, r)
	} else {
		err = updated.Define(id, r)
	}
	if err != nil {
		return "", err
	}

	eng.matcher = match.New(updated)

	output := fmt.Sprintf("%s rule %d: %s", verb, id, r)
	if updated.IsRecursive(id) {
		output += "\n(this rule is now part of a loop)"
	}
	return output, nil
}

func (eng *Engine) setStart(id int) (string, error) {
	if !eng.Grammar().Has(id) {
		return "", rcerrors.Inputf("There is no rule %d", id)
	}
	eng.start = id
	return fmt.Sprintf("Messages are now checked against rule %d", id), nil
}

func (eng *Engine) help(topic string) (string, error) {
	var defs [][2]string
	for _, v := range command.Verbs {
		if topic != "" && v[0] != topic {
			continue
		}
		usage := command.VerbPrefix + v[0]
		if v[1] != "" {
			usage += " " + v[1]
		}
		defs = append(defs, [2]string{usage, v[2]})
	}
	if len(defs) == 0 {
		return "", rcerrors.Inputf("There is no command called %s%s", command.VerbPrefix, topic)
	}

	ed := rosed.
		Edit("").
		WithOptions(rosed.Options{ParagraphSeparator: "\n"}).
		InsertDefinitionsTable(0, defs, consoleOutputWidth)

	if topic == "" {
		ed = ed.Insert(0, "Here are the commands you can use:\n")
	}
	return ed.String(), nil
}

func (eng *Engine) write(s string) error {
	if _, err := eng.out.WriteString(s); err != nil {
		return fmt.Errorf("could not write output: %w", err)
	}
	if err := eng.out.Flush(); err != nil {
		return fmt.Errorf("could not flush output: %w", err)
	}
	return nil
}

// grammarProblem turns an error from matching into one that tells the user
// what is wrong with the grammar.
func grammarProblem(err error) error {
	var unkErr *grammar.UnknownRuleError
	if errors.As(err, &unkErr) {
		if unkErr.Referrer >= 0 {
			return rcerrors.WrapInputf(err, "Rule %d uses rule %d, but there is no rule %d; add it with %sDEFINE", unkErr.Referrer, unkErr.ID, unkErr.ID, command.VerbPrefix)
		}
		return rcerrors.WrapInputf(err, "There is no rule %d", unkErr.ID)
	}
	return err
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i := range path {
		parts[i] = strconv.Itoa(path[i])
	}
	return strings.Join(parts, " -> ")
}
