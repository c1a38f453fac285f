/*
Rulecheck checks messages against a grammar of numbered rules and reports how
many of them the grammar matches in full.

It reads a puzzle file made of a block of rules, a blank line, and then one
message per line, and prints the number of messages that rule 0 matches. The
grammar can instead come from an RCF job file, which can also name separate
message files and rule overrides.

Usage:

	rulecheck [flags] PUZZLE_FILE
	rulecheck [flags] -j JOB_FILE
	rulecheck [flags] -i PUZZLE_FILE

The flags are:

	-v, --version
		Give the current version of RuleCheck and then exit.

	-j, --job JOB_FILE
		Load the grammar and messages from the given RCF job file instead of a
		puzzle file. If the file is a manifest, every job it lists is run and
		the count for each is printed after its name.

	-l, --loop
		Replace rules 8 and 11 with their looping versions, "8: 42 | 42 8" and
		"11: 42 31 | 42 11 31", before checking.

	-o, --override "ID: DEF"
		Replace rule ID with DEF before checking. May be given more than once;
		overrides are applied in order after --loop.

	-s, --start ID
		Check messages against rule ID instead of rule 0.

	-w, --workers N
		Check messages using N workers. Defaults to the number of CPUs.

	--strict
		Fail before checking any messages if a rule refers to a rule that is
		not defined.

	--normalize
		Apply Unicode NFC normalization to rules and messages.

	-V, --verbose
		Print a table of every message, whether it is valid, and how much of it
		was matched before printing the count.

	-e, --expand ID
		Print every message that rule ID matches and exit. Fails if rule ID is
		part of a loop.

	-i, --interactive
		Start a console session on the grammar instead of checking messages.
		Any messages in the input are ignored.

	-d, --direct
		Force reading directly from the console as opposed to using GNU readline
		based routines for reading console input even if launched in a tty with
		stdin and stdout. Only has an effect with --interactive.

	--history FILE
		Save console history to FILE. Only has an effect with --interactive.

The exit status is 0 on success, 1 if the flags or arguments are wrong, 2 if the
grammar or messages could not be loaded, and 3 if checking failed, such as when
a rule refers to one that is not defined.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/rulecheck"
	"github.com/dekarrin/rulecheck/internal/batch"
	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/internal/match"
	"github.com/dekarrin/rulecheck/internal/puzzle"
	"github.com/dekarrin/rulecheck/internal/rcf"
	"github.com/dekarrin/rulecheck/internal/version"
	"github.com/spf13/pflag"
)

const (

	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitUsageError indicates that the program was not invoked correctly.
	ExitUsageError

	// ExitLoadError indicates that the grammar or messages could not be loaded.
	ExitLoadError

	// ExitMatchError indicates that an error occurred while checking messages.
	ExitMatchError
)

var (
	returnCode int = ExitSuccess

	flagVersion     = pflag.BoolP("version", "v", false, "Give the current version of RuleCheck and then exit.")
	flagJob         = pflag.StringP("job", "j", "", "Load the grammar and messages from the given RCF job file.")
	flagLoop        = pflag.BoolP("loop", "l", false, "Replace rules 8 and 11 with their looping versions.")
	flagOverrides   = pflag.StringArrayP("override", "o", nil, "Replace a rule, given as \"ID: DEF\". May be repeated.")
	flagStart       = pflag.IntP("start", "s", match.DefaultStart, "Check messages against the given rule.")
	flagWorkers     = pflag.IntP("workers", "w", 0, "Number of workers to check with. Defaults to the number of CPUs.")
	flagStrict      = pflag.Bool("strict", false, "Fail if any rule refers to an undefined rule.")
	flagNormalize   = pflag.Bool("normalize", false, "Apply Unicode NFC normalization to rules and messages.")
	flagVerbose     = pflag.BoolP("verbose", "V", false, "Print the result of every message.")
	flagExpand      = pflag.IntP("expand", "e", -1, "Print every message the given rule matches and exit.")
	flagInteractive = pflag.BoolP("interactive", "i", false, "Start a console session on the grammar.")
	flagDirect      = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of through GNU readline.")
	flagHistory     = pflag.String("history", "", "Save console history to the given file.")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			// we are panicking, make sure we dont lose the panic just because
			// we checked
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	jobs, err := loadJobs(pflag.Args())
	if err != nil {
		var usageErr usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
			returnCode = ExitUsageError
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitLoadError
		return
	}

	if pflag.Lookup("expand").Changed {
		returnCode = expand(jobs, *flagExpand)
		return
	}

	if *flagInteractive {
		returnCode = interactive(jobs)
		return
	}

	returnCode = check(jobs)
}

type usageError string

func (ue usageError) Error() string {
	return string(ue)
}

// loadJobs gathers the jobs to run from the job file or the puzzle file given
// on the command line.
func loadJobs(args []string) ([]rcf.Job, error) {
	if *flagWorkers < 0 {
		return nil, usageError("--workers must not be negative")
	}
	if *flagStart < 0 {
		return nil, usageError("--start must not be negative")
	}

	if *flagJob != "" {
		if len(args) > 0 {
			return nil, usageError("A puzzle file cannot be given with --job")
		}
		for _, name := range []string{"loop", "override", "start", "strict", "normalize"} {
			if pflag.Lookup(name).Changed {
				return nil, usageError(fmt.Sprintf("--%s cannot be given with --job; set it in the job file", name))
			}
		}

		jobs, err := rcf.Load(*flagJob)
		if err != nil {
			return nil, err
		}
		if pflag.Lookup("workers").Changed {
			for i := range jobs {
				jobs[i].Workers = *flagWorkers
			}
		}
		return jobs, nil
	}

	if len(args) < 1 {
		return nil, usageError("Need a puzzle file or --job")
	}
	if len(args) > 1 {
		return nil, usageError("Too many arguments")
	}

	in, err := puzzle.Load(args[0], puzzle.Options{Normalize: *flagNormalize})
	if err != nil {
		return nil, err
	}

	g, err := in.Grammar()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}

	if *flagLoop {
		if err := g.ApplyOverrides(grammar.LoopOverrides...); err != nil {
			return nil, fmt.Errorf("--loop: %w", err)
		}
	}
	for _, line := range *flagOverrides {
		if *flagNormalize {
			line = puzzle.Normalize(line)
		}
		ov, err := grammar.ParseOverride(line)
		if err != nil {
			return nil, fmt.Errorf("--override: %w", err)
		}
		if err := g.ApplyOverrides(ov); err != nil {
			return nil, fmt.Errorf("--override: %w", err)
		}
	}

	job := rcf.Job{
		Name:     args[0],
		Path:     args[0],
		Grammar:  g,
		Start:    *flagStart,
		Strict:   *flagStrict,
		Messages: in.Messages,
		Workers:  *flagWorkers,
	}
	if job.Strict {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", args[0], err)
		}
	}

	return []rcf.Job{job}, nil
}

func check(jobs []rcf.Job) int {
	for _, job := range jobs {
		m := match.New(job.Grammar)

		rep, err := batch.Check(context.Background(), m, job.Start, job.Messages, job.Workers)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %s\n", job.Name, err.Error())
			return ExitMatchError
		}

		if *flagVerbose {
			fmt.Print(resultTable(rep))
		}

		if len(jobs) > 1 {
			fmt.Printf("%s: %d\n", job.Name, rep.Valid)
		} else {
			fmt.Printf("%d\n", rep.Valid)
		}
	}

	return ExitSuccess
}

func expand(jobs []rcf.Job, id int) int {
	if id < 0 {
		fmt.Fprintf(os.Stderr, "--expand must not be negative\nDo -h for help.\n")
		return ExitUsageError
	}

	for _, job := range jobs {
		lang, err := job.Grammar.Language(id, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %s\n", job.Name, err.Error())
			return ExitMatchError
		}

		if len(jobs) > 1 {
			fmt.Printf("%s:\n", job.Name)
		}
		for _, s := range lang {
			fmt.Println(s)
		}
	}

	return ExitSuccess
}

func interactive(jobs []rcf.Job) int {
	if len(jobs) != 1 {
		fmt.Fprintf(os.Stderr, "--interactive needs exactly one job, but got %d\n", len(jobs))
		return ExitUsageError
	}
	job := jobs[0]

	opts := rulecheck.Options{
		Start:       job.Start,
		ForceDirect: *flagDirect,
		HistoryFile: *flagHistory,
	}

	eng, err := rulecheck.New(os.Stdin, os.Stdout, job.Grammar, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitLoadError
	}
	defer eng.Close()

	if err := eng.RunUntilQuit(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitMatchError
	}

	return ExitSuccess
}

func resultTable(rep batch.Report) string {
	data := [][]string{{"#", "Message", "Valid", "Matched"}}
	for _, res := range rep.Results {
		valid := "no"
		if res.Valid {
			valid = "yes"
		}
		matched := "-"
		if res.Longest >= 0 {
			matched = strconv.Itoa(res.Longest)
		}
		data = append(data, []string{strconv.Itoa(res.Index + 1), res.Message, valid, matched})
	}

	tableOpts := rosed.Options{
		TableHeaders: true,
	}

	return rosed.Edit("").
		InsertTableOpts(0, data, 80, tableOpts).
		String()
}
