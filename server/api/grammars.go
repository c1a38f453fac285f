package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/dekarrin/rulecheck/server/result"
	"github.com/dekarrin/rulecheck/server/rulesvc"
	"github.com/dekarrin/rulecheck/server/serr"
)

// HTTPGetAllGrammars returns a HandlerFunc that retrieves all stored grammars.
func (api API) HTTPGetAllGrammars() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epGetAllGrammars)
}

// GET /grammars: get all grammars.
func (api API) epGetAllGrammars(req *http.Request) result.Result {
	grammars, err := api.Backend.GetAllGrammars(req.Context())
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]GrammarModel, len(grammars))
	for i := range grammars {
		resp[i] = grammarModel(grammars[i])
	}

	return result.OK(resp, "client got all %d grammar(s)", len(resp))
}

// HTTPCreateGrammar returns a HandlerFunc that parses and stores a new
// grammar.
func (api API) HTTPCreateGrammar() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epCreateGrammar)
}

// POST /grammars: create a new grammar.
func (api API) epCreateGrammar(req *http.Request) result.Result {
	var createGrammar GrammarCreateRequest
	err := parseJSON(req, &createGrammar)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createGrammar.Name == "" {
		return result.BadRequest("name: property is empty or missing from request", "empty name")
	}
	if len(createGrammar.Rules) == 0 {
		return result.BadRequest("rules: property is empty or missing from request", "empty rules")
	}

	src := rulesvc.GrammarSource{
		Name:      createGrammar.Name,
		Rules:     createGrammar.Rules,
		Overrides: createGrammar.Overrides,
		Loop:      createGrammar.Loop,
	}

	newGrammar, err := api.Backend.CreateGrammar(req.Context(), src)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("Grammar with that name already exists", "grammar '%s' already exists", createGrammar.Name)
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		} else {
			return result.InternalServerError(err.Error())
		}
	}

	resp := grammarModel(newGrammar)

	return result.Created(resp, "grammar '%s' (%s) created", resp.Name, resp.ID).
		WithHeader("Location", resp.URI)
}

// HTTPGetGrammar returns a HandlerFunc that gets an existing grammar.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar being operated on.
func (api API) HTTPGetGrammar() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epGetGrammar)
}

// GET /grammars/{id}: get a grammar.
func (api API) epGetGrammar(req *http.Request) result.Result {
	id := requireIDParam(req)

	g, err := api.Backend.GetGrammar(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not get grammar: " + err.Error())
	}

	return result.OK(grammarModel(g), "client got grammar '%s'", g.Name)
}

// HTTPDeleteGrammar returns a HandlerFunc that deletes a grammar.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar being operated on.
func (api API) HTTPDeleteGrammar() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epDeleteGrammar)
}

// DELETE /grammars/{id}: delete a grammar.
func (api API) epDeleteGrammar(req *http.Request) result.Result {
	id := requireIDParam(req)

	deleted, err := api.Backend.DeleteGrammar(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not delete grammar: " + err.Error())
	}

	return result.NoContent("grammar '%s' (%s) deleted", deleted.Name, deleted.ID)
}

// HTTPGetRule returns a HandlerFunc that gets a single rule of a grammar.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar being operated on.
func (api API) HTTPGetRule() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epGetRule)
}

// GET /grammars/{id}/rules/{rule}: get one rule.
func (api API) epGetRule(req *http.Request) result.Result {
	id := requireIDParam(req)
	ruleID, err := getURLParam(req, "rule", parseRuleID)
	if err != nil {
		return result.BadRequest("rule: not a valid rule ID", "rule param: %s", err.Error())
	}

	g, err := api.Backend.GetGrammar(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not get grammar: " + err.Error())
	}

	if !g.Rules.Has(ruleID) {
		return result.NotFound("grammar '%s' has no rule %d", g.Name, ruleID)
	}

	return result.OK(ruleModel(g, ruleID), "client got rule %d of grammar '%s'", ruleID, g.Name)
}

// HTTPReplaceRule returns a HandlerFunc that replaces the definition of an
// existing rule in a grammar.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar being operated on.
func (api API) HTTPReplaceRule() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epReplaceRule)
}

// PUT /grammars/{id}/rules/{rule}: redefine one rule.
func (api API) epReplaceRule(req *http.Request) result.Result {
	id := requireIDParam(req)
	ruleID, err := getURLParam(req, "rule", parseRuleID)
	if err != nil {
		return result.BadRequest("rule: not a valid rule ID", "rule param: %s", err.Error())
	}

	var update RuleUpdateRequest
	err = parseJSON(req, &update)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if update.Definition == "" {
		return result.BadRequest("definition: property is empty or missing from request", "empty definition")
	}

	g, err := api.Backend.UpdateRule(req.Context(), id.String(), ruleID, update.Definition)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound(err.Error())
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError("could not update rule: " + err.Error())
	}

	return result.OK(ruleModel(g, ruleID), "rule %d of grammar '%s' redefined", ruleID, g.Name)
}

// HTTPCreateValidation returns a HandlerFunc that checks a batch of messages
// against a grammar.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar being operated on.
func (api API) HTTPCreateValidation() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epCreateValidation)
}

// POST /grammars/{id}/validations: check messages.
func (api API) epCreateValidation(req *http.Request) result.Result {
	id := requireIDParam(req)

	var validation ValidationRequest
	err := parseJSON(req, &validation)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if validation.Start < 0 {
		return result.BadRequest("start: must not be negative", "negative start rule")
	}
	if api.MaxMessages > 0 && len(validation.Messages) > api.MaxMessages {
		return result.BadRequest(
			fmt.Sprintf("messages: no more than %d may be checked at once", api.MaxMessages),
			"%d messages exceeds limit", len(validation.Messages),
		)
	}

	if api.MaxMessageLength > 0 {
		for i, msg := range validation.Messages {
			if n := utf8.RuneCountInString(msg); n > api.MaxMessageLength {
				return result.BadRequest(
					fmt.Sprintf("messages[%d]: must be no more than %d characters", i, api.MaxMessageLength),
					"message %d has %d characters, exceeds limit", i, n,
				)
			}
		}
	}

	rep, err := api.Backend.CheckMessages(req.Context(), id.String(), validation.Start, validation.Messages, validation.Workers)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError("could not check messages: " + err.Error())
	}

	api.Metrics.CountMessages(rep.Valid, rep.Invalid())

	resp := ValidationModel{
		Total:   rep.Total(),
		Valid:   rep.Valid,
		Results: make([]ValidationResultModel, len(rep.Results)),
	}
	for i, res := range rep.Results {
		resp.Results[i] = ValidationResultModel{
			Index:   res.Index,
			Message: res.Message,
			Valid:   res.Valid,
			Longest: res.Longest,
		}
	}

	return result.OK(resp, "checked %d message(s) against grammar %s rule %d; %d valid", resp.Total, id, validation.Start, resp.Valid)
}

// HTTPGetRuleLanguage returns a HandlerFunc that lists every message a rule
// matches. Rules that match infinitely many messages give an HTTP-409.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the grammar being operated on.
func (api API) HTTPGetRuleLanguage() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epGetRuleLanguage)
}

// GET /grammars/{id}/rules/{rule}/language: expand a rule.
func (api API) epGetRuleLanguage(req *http.Request) result.Result {
	id := requireIDParam(req)
	ruleID, err := getURLParam(req, "rule", parseRuleID)
	if err != nil {
		return result.BadRequest("rule: not a valid rule ID", "rule param: %s", err.Error())
	}

	var limit int
	if limitStr := req.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			return result.BadRequest("limit: must be a positive integer", "bad limit %q", limitStr)
		}
	}

	lang, err := api.Backend.RuleLanguage(req.Context(), id.String(), ruleID, limit)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound(err.Error())
		} else if errors.Is(err, serr.ErrInfinite) {
			return result.Conflict(fmt.Sprintf("Rule %d matches infinitely many messages", ruleID), err.Error())
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError("could not expand rule: " + err.Error())
	}

	resp := LanguageModel{
		Grammar:  id.String(),
		Rule:     ruleID,
		Messages: lang,
	}
	if resp.Messages == nil {
		resp.Messages = []string{}
	}

	return result.OK(resp, "client got %d message(s) of grammar %s rule %d", len(lang), id, ruleID)
}

func grammarModel(g dao.Grammar) GrammarModel {
	m := GrammarModel{
		URI:       PathPrefix + "/grammars/" + g.ID.String(),
		ID:        g.ID.String(),
		Name:      g.Name,
		Rules:     g.Rules.Lines(),
		Recursive: g.Rules.Recursive(),
		Created:   g.Created.Format(time.RFC3339),
		Modified:  g.Modified.Format(time.RFC3339),
	}
	if m.Recursive == nil {
		m.Recursive = []int{}
	}
	return m
}

func ruleModel(g dao.Grammar, id int) RuleModel {
	r, _ := g.Rules.Rule(id)
	return RuleModel{
		URI:        PathPrefix + "/grammars/" + g.ID.String() + "/rules/" + strconv.Itoa(id),
		Grammar:    g.ID.String(),
		ID:         id,
		Definition: r.String(),
		Recursive:  g.Rules.IsRecursive(id),
	}
}
