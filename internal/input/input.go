// Package input contains readers used in getting RuleCheck console lines from
// a terminal or any other source of input.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DefaultPrompt is the prompt shown by an InteractiveCommandReader before any
// call to SetPrompt.
const DefaultPrompt = "rule> "

// DirectCommandReader implements command.Reader and reads lines from any
// generic input stream directly. It can be used generically with any io.Reader
// but does not sanitize the input of control and escape sequences.
//
// DirectCommandReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectCommandReader struct {
	r             *bufio.Reader
	blanksAllowed bool
	comment       string
}

// InteractiveCommandReader implements command.Reader and reads lines from
// stdin using a go implementation of the GNU Readline library. This keeps input
// clear of all typing and editing escape sequences and enables the use of
// history. This should in general probably only be used when directly
// connecting to a TTY for input.
//
// InteractiveCommandReader should not be used directly; instead, create one
// with [NewInteractiveReader].
type InteractiveCommandReader struct {
	rl            *readline.Instance
	blanksAllowed bool
	prompt        string
}

// NewDirectReader creates a new DirectCommandReader and initializes a buffered
// reader on the provided reader. The returned DirectCommandReader should have
// Close() called on it before disposal.
func NewDirectReader(r io.Reader) *DirectCommandReader {
	return &DirectCommandReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates a new InteractiveCommandReader and initializes
// readline. If historyFile is not empty, entered lines are saved to and loaded
// from it. The returned InteractiveCommandReader must have Close() called on
// it before disposal to properly teardown readline resources.
func NewInteractiveReader(historyFile string) (*InteractiveCommandReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            DefaultPrompt,
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         ":quit",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveCommandReader{
		rl:     rl,
		prompt: DefaultPrompt,
	}, nil
}

// Close cleans up resources associated with the DirectCommandReader. The
// underlying io.Reader is not closed.
func (dcr *DirectCommandReader) Close() error {
	return nil
}

// Close cleans up readline resources and other resources associated with the
// InteractiveCommandReader.
func (icr *InteractiveCommandReader) Close() error {
	return icr.rl.Close()
}

// ReadCommand reads the next line from the input stream. Unless blanks are
// allowed, this function blocks until a line containing non-space characters
// is read. Lines that start with the comment prefix set by SkipComments are
// skipped, which allows a script of console lines to be fed in.
//
// If at end of input, the returned string will be empty and error will be
// io.EOF. If any other error occurs, the returned string will be empty and
// error will be that error.
func (dcr *DirectCommandReader) ReadCommand() (string, error) {
	for {
		line, err := dcr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if dcr.comment != "" && strings.HasPrefix(line, dcr.comment) {
			continue
		}
		if line != "" || dcr.blanksAllowed {
			return line, nil
		}
	}
}

// ReadCommand reads the next line from stdin. Unless blanks are allowed, this
// function blocks until a line consisting of more than empty or
// whitespace-only input is read.
//
// If at end of input, the returned string will be empty and error will be
// io.EOF. Pressing Ctrl-C at the prompt also returns io.EOF. If any other error
// occurs, the returned string will be empty and error will be that error.
func (icr *InteractiveCommandReader) ReadCommand() (string, error) {
	for {
		line, err := icr.rl.Readline()
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line != "" || icr.blanksAllowed {
			return line, nil
		}
	}
}

// AllowBlank sets whether blank lines are returned. By default they are not.
func (dcr *DirectCommandReader) AllowBlank(allow bool) {
	dcr.blanksAllowed = allow
}

// AllowBlank sets whether blank lines are returned. By default they are not.
func (icr *InteractiveCommandReader) AllowBlank(allow bool) {
	icr.blanksAllowed = allow
}

// SkipComments sets a prefix that marks a line as a comment to be skipped.
// Giving the empty string turns comment skipping off, which is the default.
func (dcr *DirectCommandReader) SkipComments(prefix string) {
	dcr.comment = prefix
}

// SetPrompt updates the prompt to the given text.
func (icr *InteractiveCommandReader) SetPrompt(p string) {
	icr.prompt = p
	icr.rl.SetPrompt(p)
}

// GetPrompt gets the current prompt.
func (icr *InteractiveCommandReader) GetPrompt() string {
	return icr.prompt
}
