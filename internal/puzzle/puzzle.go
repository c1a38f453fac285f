// Package puzzle reads the plain-text input format: a block of rule lines, a
// single blank line, and then one message per line.
package puzzle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/rulecheck/internal/grammar"
	"golang.org/x/text/unicode/norm"
)

// Options changes how input is read.
type Options struct {
	// Normalize applies Unicode NFC normalization to every line so that
	// composed and decomposed forms of the same character compare equal.
	Normalize bool
}

// Input is the contents of an input file.
type Input struct {
	// Rules holds the rule lines, without the blank lines around them.
	Rules []string

	// Messages holds every non-blank line after the rules.
	Messages []string
}

// Grammar parses the rule lines of the Input.
func (in Input) Grammar() (*grammar.Grammar, error) {
	return grammar.Parse(in.Rules)
}

// Load reads the input file at the given path.
func Load(path string, opts Options) (Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return Input{}, err
	}
	defer f.Close()

	in, err := Read(f, opts)
	if err != nil {
		return Input{}, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Read reads input from r. Everything up to the first blank line that follows
// at least one rule is a rule line; everything after it is a message. Blank
// lines at the start of the input and blank messages are skipped, and trailing
// carriage returns are removed.
func Read(r io.Reader, opts Options) (Input, error) {
	var in Input
	inRules := true

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if opts.Normalize {
			line = norm.NFC.String(line)
		}

		if strings.TrimSpace(line) == "" {
			if inRules && len(in.Rules) > 0 {
				inRules = false
			}
			continue
		}

		if inRules {
			in.Rules = append(in.Rules, line)
		} else {
			in.Messages = append(in.Messages, line)
		}
	}
	if err := sc.Err(); err != nil {
		return Input{}, err
	}

	return in, nil
}

// ReadLines reads every non-blank line of r, for inputs that hold only
// messages or only rules.
func ReadLines(r io.Reader, opts Options) ([]string, error) {
	var lines []string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if opts.Normalize {
			line = norm.NFC.String(line)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// LoadLines is like ReadLines but reads from the file at the given path.
func LoadLines(path string, opts Options) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := ReadLines(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// Normalize returns s in Unicode NFC form.
func Normalize(s string) string {
	return norm.NFC.String(s)
}
