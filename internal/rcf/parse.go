package rcf

import (
	"fmt"
	"path/filepath"

	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/internal/puzzle"
)

func parseJob(rcf topLevelJob, path string) (Job, error) {
	dir := filepath.Dir(path)
	opts := puzzle.Options{Normalize: rcf.Grammar.Normalize}

	job := Job{
		Name:    rcf.Name,
		Path:    path,
		Start:   rcf.Grammar.Start,
		Strict:  rcf.Grammar.Strict,
		Workers: rcf.Run.Workers,
	}
	if job.Name == "" {
		job.Name = path
	}
	if job.Start < 0 {
		return Job{}, fmt.Errorf("grammar: start: must not be negative")
	}
	if job.Workers < 0 {
		return Job{}, fmt.Errorf("run: workers: must not be negative")
	}

	var ruleLines []string
	var fileMessages []string
	switch {
	case rcf.Grammar.File != "" && len(rcf.Grammar.Rules) > 0:
		return Job{}, fmt.Errorf("grammar: file and rules cannot both be given")
	case rcf.Grammar.File != "":
		in, err := puzzle.Load(relTo(dir, rcf.Grammar.File), opts)
		if err != nil {
			return Job{}, fmt.Errorf("grammar: file: %w", err)
		}
		ruleLines = in.Rules
		fileMessages = in.Messages
	case len(rcf.Grammar.Rules) > 0:
		for _, line := range rcf.Grammar.Rules {
			if opts.Normalize {
				line = puzzle.Normalize(line)
			}
			ruleLines = append(ruleLines, line)
		}
	default:
		return Job{}, fmt.Errorf("grammar: %w", ErrNoGrammar)
	}

	g, err := grammar.Parse(ruleLines)
	if err != nil {
		return Job{}, fmt.Errorf("grammar: %w", err)
	}

	if rcf.Grammar.Loop {
		if err := g.ApplyOverrides(grammar.LoopOverrides...); err != nil {
			return Job{}, fmt.Errorf("grammar: loop: %w", err)
		}
	}
	for i, line := range rcf.Grammar.Overrides {
		if opts.Normalize {
			line = puzzle.Normalize(line)
		}
		ov, err := grammar.ParseOverride(line)
		if err != nil {
			return Job{}, fmt.Errorf("grammar: overrides[%d]: %w", i, err)
		}
		if err := g.ApplyOverrides(ov); err != nil {
			return Job{}, fmt.Errorf("grammar: overrides[%d]: %w", i, err)
		}
	}

	if job.Strict {
		if err := g.Validate(); err != nil {
			return Job{}, fmt.Errorf("grammar: %w", err)
		}
	}
	job.Grammar = g

	// messages given explicitly replace any that came with the grammar file
	if rcf.Messages.File != "" || len(rcf.Messages.List) > 0 {
		if rcf.Messages.File != "" {
			msgs, err := puzzle.LoadLines(relTo(dir, rcf.Messages.File), opts)
			if err != nil {
				return Job{}, fmt.Errorf("messages: file: %w", err)
			}
			job.Messages = append(job.Messages, msgs...)
		}
		for _, m := range rcf.Messages.List {
			if opts.Normalize {
				m = puzzle.Normalize(m)
			}
			job.Messages = append(job.Messages, m)
		}
	} else {
		job.Messages = fileMessages
	}

	return job, nil
}

func relTo(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
