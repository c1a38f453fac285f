package command

import (
	"bufio"
	"fmt"

	"github.com/dekarrin/rulecheck/internal/rcerrors"
)

// Reader supplies lines typed at the REPL.
type Reader interface {
	// ReadCommand blocks until a line is available and returns it. A final
	// line without a newline is returned with a nil error; the call after it
	// returns "", io.EOF.
	ReadCommand() (string, error)

	// Close releases the Reader's resources.
	Close() error
}

// Get reads lines from cmdStream until one parses as a Command and returns it.
// Lines that do not parse get an error written to ostream; blank lines are
// skipped. Whether the command makes sense for the loaded grammar is not
// checked.
func Get(cmdStream Reader, ostream *bufio.Writer) (Command, error) {
	for {
		input, err := cmdStream.ReadCommand()
		if err != nil {
			return Command{}, fmt.Errorf("could not get input: %w", err)
		}

		cmd, err := ParseCommand(input)
		if err != nil {
			errMsg := fmt.Sprintf("%v\nTry %sHELP for valid commands\n", rcerrors.HumanMessage(err), VerbPrefix)
			if _, err := ostream.WriteString(errMsg); err != nil {
				return Command{}, fmt.Errorf("could not write output: %w", err)
			}
			if err := ostream.Flush(); err != nil {
				return Command{}, fmt.Errorf("could not flush output: %w", err)
			}
			continue
		}

		if cmd.Verb != "" {
			return cmd, nil
		}
	}
}
