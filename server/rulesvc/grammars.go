package rulesvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dekarrin/rulecheck/internal/batch"
	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/internal/match"
	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/dekarrin/rulecheck/server/serr"
	"github.com/google/uuid"
)

// DefaultLanguageLimit is the most messages RuleLanguage lists when no limit
// is given.
const DefaultLanguageLimit = 1024

// GrammarSource is the text a stored grammar is built from.
type GrammarSource struct {
	// Name identifies the grammar to people. It must be unique among stored
	// grammars.
	Name string

	// Rules are the "ID: DEFINITION" lines of the grammar.
	Rules []string

	// Loop gives whether rules 8 and 11 are replaced with their looping
	// versions after parsing.
	Loop bool

	// Overrides are "ID: DEFINITION" lines that replace existing rules. They
	// are applied in order, after Loop.
	Overrides []string
}

// GetAllGrammars returns all grammars currently in persistence.
func (svc Service) GetAllGrammars(ctx context.Context) ([]dao.Grammar, error) {
	grammars, err := svc.DB.Grammars().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}

	return grammars, nil
}

// GetGrammar returns the grammar with the given ID.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB. Finally, if there
// is an issue with one of the arguments, it will match serr.ErrBadArgument.
func (svc Service) GetGrammar(ctx context.Context, id string) (dao.Grammar, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Grammar{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	g, err := svc.DB.Grammars().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not get grammar", err)
	}

	return g, nil
}

// CreateGrammar parses and stores a new grammar. Every rule the grammar refers
// to must be defined. Returns the newly-created grammar as it exists after
// creation.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If a grammar with that name is
// already present, it will match serr.ErrAlreadyExists. If the error occured
// due to an unexpected problem with the DB, it will match serr.ErrDB. Finally,
// if the rules cannot be parsed or refer to undefined rules, it will match
// serr.ErrBadArgument.
func (svc Service) CreateGrammar(ctx context.Context, src GrammarSource) (dao.Grammar, error) {
	if strings.TrimSpace(src.Name) == "" {
		return dao.Grammar{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}

	rules, err := buildGrammar(src)
	if err != nil {
		return dao.Grammar{}, err
	}

	_, err = svc.DB.Grammars().GetByName(ctx, src.Name)
	if err == nil {
		return dao.Grammar{}, serr.New("a grammar with that name already exists", serr.ErrAlreadyExists)
	} else if !errors.Is(err, dao.ErrNotFound) {
		return dao.Grammar{}, serr.WrapDB("", err)
	}

	newGrammar := dao.Grammar{
		Name:  src.Name,
		Rules: rules,
	}

	g, err := svc.DB.Grammars().Create(ctx, newGrammar)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Grammar{}, serr.New("a grammar with that name already exists", serr.ErrAlreadyExists)
		}
		return dao.Grammar{}, serr.WrapDB("could not create grammar", err)
	}

	return g, nil
}

// DeleteGrammar deletes the grammar with the given ID. It returns the deleted
// grammar just after it was deleted.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB. Finally, if there
// is an issue with one of the arguments, it will match serr.ErrBadArgument.
func (svc Service) DeleteGrammar(ctx context.Context, id string) (dao.Grammar, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Grammar{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	g, err := svc.DB.Grammars().Delete(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not delete grammar", err)
	}

	return g, nil
}

// UpdateRule replaces the definition of an existing rule in a stored grammar.
// The stored grammar is never modified in place; a changed copy replaces it.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists or the grammar has no rule with that ID, it will match
// serr.ErrNotFound. If the definition cannot be parsed or refers to an
// undefined rule, it will match serr.ErrBadArgument. If the error occured due
// to an unexpected problem with the DB, it will match serr.ErrDB.
func (svc Service) UpdateRule(ctx context.Context, id string, rule int, def string) (dao.Grammar, error) {
	existing, err := svc.GetGrammar(ctx, id)
	if err != nil {
		return dao.Grammar{}, err
	}

	updated := existing.Rules.Copy()
	if err := updated.Extend(rule, def); err != nil {
		var unkErr *grammar.UnknownRuleError
		if errors.As(err, &unkErr) {
			return dao.Grammar{}, serr.New(fmt.Sprintf("grammar has no rule %d", rule), serr.ErrNotFound)
		}
		return dao.Grammar{}, serr.New("definition", err, serr.ErrBadArgument)
	}
	if err := updated.Validate(); err != nil {
		return dao.Grammar{}, serr.New("definition", err, serr.ErrBadArgument)
	}

	existing.Rules = updated
	g, err := svc.DB.Grammars().Update(ctx, existing.ID, existing)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Grammar{}, serr.ErrNotFound
		}
		return dao.Grammar{}, serr.WrapDB("could not update grammar", err)
	}

	return g, nil
}

// CheckMessages checks every message against rule start of a stored grammar.
// If workers is less than 1, svc.Workers is used.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists, it will match serr.ErrNotFound. If the grammar has no rule start, it
// will match serr.ErrBadArgument. If the error occured due to an unexpected
// problem with the DB, it will match serr.ErrDB.
func (svc Service) CheckMessages(ctx context.Context, id string, start int, messages []string, workers int) (batch.Report, error) {
	g, err := svc.GetGrammar(ctx, id)
	if err != nil {
		return batch.Report{}, err
	}

	if !g.Rules.Has(start) {
		return batch.Report{}, serr.New(fmt.Sprintf("grammar has no rule %d", start), serr.ErrBadArgument)
	}
	if workers < 1 {
		workers = svc.Workers
	}

	rep, err := batch.Check(ctx, match.New(g.Rules), start, messages, workers)
	if err != nil {
		return batch.Report{}, serr.New("could not check messages", err)
	}

	return rep, nil
}

// RuleLanguage returns every message that a rule of a stored grammar matches,
// in lexical order. If limit is less than 1, DefaultLanguageLimit is used.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no grammar with that ID
// exists or the grammar has no rule with that ID, it will match
// serr.ErrNotFound. If the rule is part of or uses a loop, it will match
// serr.ErrInfinite. If it matches more than limit messages, it will match
// serr.ErrBadArgument. If the error occured due to an unexpected problem with
// the DB, it will match serr.ErrDB.
func (svc Service) RuleLanguage(ctx context.Context, id string, rule int, limit int) ([]string, error) {
	g, err := svc.GetGrammar(ctx, id)
	if err != nil {
		return nil, err
	}

	if !g.Rules.Has(rule) {
		return nil, serr.New(fmt.Sprintf("grammar has no rule %d", rule), serr.ErrNotFound)
	}
	if limit < 1 {
		limit = DefaultLanguageLimit
	}

	lang, err := g.Rules.Language(rule, limit)
	if err != nil {
		var cycleErr *grammar.CycleError
		if errors.As(err, &cycleErr) {
			return nil, serr.New("", err, serr.ErrInfinite)
		}
		if errors.Is(err, grammar.ErrLanguageTooLarge) {
			return nil, serr.New(fmt.Sprintf("rule %d matches more than %d messages", rule, limit), serr.ErrBadArgument)
		}
		return nil, serr.New("could not expand rule", err)
	}

	return lang, nil
}

// buildGrammar parses src into a grammar with its overrides applied. Any error
// returned matches serr.ErrBadArgument.
func buildGrammar(src GrammarSource) (*grammar.Grammar, error) {
	g, err := grammar.Parse(src.Rules)
	if err != nil {
		return nil, serr.New("rules", err, serr.ErrBadArgument)
	}
	if g.Len() < 1 {
		return nil, serr.New("rules: at least one rule is required", serr.ErrBadArgument)
	}

	if src.Loop {
		if err := g.ApplyOverrides(grammar.LoopOverrides...); err != nil {
			return nil, serr.New("loop", err, serr.ErrBadArgument)
		}
	}

	for _, line := range src.Overrides {
		ov, err := grammar.ParseOverride(line)
		if err != nil {
			return nil, serr.New("overrides", err, serr.ErrBadArgument)
		}
		if err := g.ApplyOverrides(ov); err != nil {
			return nil, serr.New("overrides", err, serr.ErrBadArgument)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, serr.New("rules", err, serr.ErrBadArgument)
	}

	return g, nil
}
