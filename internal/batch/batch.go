// Package batch validates many messages against a single frozen grammar using
// a pool of worker goroutines.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dekarrin/rulecheck/internal/match"
)

// Result is the outcome of checking a single message.
type Result struct {
	// Index is the position of the message in the list given to Check.
	Index int

	// Message is the message that was checked.
	Message string

	// Valid is whether the start rule matched all of Message.
	Valid bool

	// Longest is the length of the longest prefix of Message that the start
	// rule matched, or -1 if it matched none.
	Longest int
}

// Report is the outcome of a call to Check.
type Report struct {
	// Results holds one Result per message, in the order the messages were
	// given.
	Results []Result

	// Valid is the number of messages that were valid.
	Valid int
}

// Total returns the number of messages that were checked.
func (r Report) Total() int {
	return len(r.Results)
}

// Invalid returns the number of messages that were not valid.
func (r Report) Invalid() int {
	return len(r.Results) - r.Valid
}

// ValidMessages returns the messages that were valid, in their original order.
func (r Report) ValidMessages() []string {
	msgs := make([]string, 0, r.Valid)
	for _, res := range r.Results {
		if res.Valid {
			msgs = append(msgs, res.Message)
		}
	}
	return msgs
}

// Check matches every message against the rule with ID start. The work is
// split among the given number of workers; if workers is less than 1, one
// worker per CPU is used.
//
// The first error encountered (an undefined rule, or ctx being cancelled)
// stops the remaining workers and is returned along with a zero Report.
func Check(ctx context.Context, m *match.Matcher, start int, messages []string, workers int) (Report, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(messages) {
		workers = len(messages)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(messages))
	var valid int64
	var next int64 = -1

	var errOnce sync.Once
	var firstErr error
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					fail(ctx.Err())
					return
				}

				idx := int(atomic.AddInt64(&next, 1))
				if idx >= len(messages) {
					return
				}

				msg := messages[idx]
				res, err := checkOne(m, start, msg)
				if err != nil {
					fail(fmt.Errorf("message %d: %w", idx+1, err))
					return
				}
				res.Index = idx
				results[idx] = res
				if res.Valid {
					atomic.AddInt64(&valid, 1)
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return Report{}, firstErr
	}

	return Report{Results: results, Valid: int(valid)}, nil
}

// Count returns the number of messages that are valid against rule 0.
func Count(ctx context.Context, m *match.Matcher, messages []string, workers int) (int, error) {
	rep, err := Check(ctx, m, match.DefaultStart, messages, workers)
	if err != nil {
		return 0, err
	}
	return rep.Valid, nil
}

func checkOne(m *match.Matcher, start int, msg string) (Result, error) {
	ends, err := m.Resolve(start, msg, 0)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Message: msg,
		Valid:   ends.Has(utf8.RuneCountInString(msg)),
		Longest: ends.Max(),
	}
	return res, nil
}
