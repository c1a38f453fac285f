package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/rulecheck/server/result"
	"github.com/dekarrin/rulecheck/server/serr"
	"github.com/dekarrin/rulecheck/server/token"
)

// HTTPCreateLogin returns a HandlerFunc that checks the admin password and
// returns a token that authorizes changes to grammars.
func (api API) HTTPCreateLogin() http.HandlerFunc {
	return httpEndpoint(api.ErrDelay, api.epCreateLogin)
}

func (api API) epCreateLogin(req *http.Request) result.Result {
	loginData := LoginRequest{}
	err := parseJSON(req, &loginData)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	if loginData.Password == "" {
		return result.BadRequest("password: property is empty or missing from request", "empty password")
	}

	err = api.Backend.Login(req.Context(), loginData.Password)
	if err != nil {
		if errors.Is(err, serr.ErrBadCredentials) {
			time.Sleep(api.ErrDelay)
			return result.Unauthorized(serr.ErrBadCredentials.Error(), "admin login: %s", err.Error())
		} else if errors.Is(err, serr.ErrAuthDisabled) {
			return result.NotFound("admin login is disabled")
		}
		return result.InternalServerError(err.Error())
	}

	tok, err := token.Generate(api.Secret, api.Backend.AdminHash)
	if err != nil {
		return result.InternalServerError("could not generate JWT: " + err.Error())
	}

	resp := LoginResponse{
		Token:   tok,
		Expires: time.Now().Add(token.Lifetime).Format(time.RFC3339),
	}
	return result.Created(resp, "admin successfully logged in")
}
