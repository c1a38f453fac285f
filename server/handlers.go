package server

import (
	"net/http"
	"strings"

	"github.com/dekarrin/rulecheck/server/api"
	"github.com/dekarrin/rulecheck/server/middle"
	"github.com/dekarrin/rulecheck/server/result"
	"github.com/go-chi/chi/v5"
)

var (
	paramTypePats = map[string]string{
		"uuid": "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}",
		"rule": "[0-9]+",
	}
)

// p is a quick parameter in a URI, made very small to ease readability in route
// listings.
func p(nameType string) string {
	var name string
	var pat string

	parts := strings.SplitN(nameType, ":", 2)
	name = parts[0]
	if len(parts) == 2 {
		// we have a type, if it's a name in the paramTypePats map use that else
		// treat it as a normal pattern
		pat = parts[1]

		if translatedPat, ok := paramTypePats[parts[1]]; ok {
			pat = translatedPat
		}
	}

	if pat == "" {
		return "{" + name + "}"
	}
	return "{" + name + ":" + pat + "}"
}

func newRouter(a api.API, metrics *middle.Metrics, auth middle.Middleware) chi.Router {
	r := chi.NewRouter()

	r.Use(middle.Observe(metrics))
	r.Mount(api.PathPrefix, newAPIRouter(a, metrics, auth))

	return r
}

func newAPIRouter(a api.API, metrics *middle.Metrics, auth middle.Middleware) chi.Router {
	r := chi.NewRouter()

	grammars := newGrammarsRouter(a, auth)
	info := newInfoRouter(a)

	r.Mount("/grammars", grammars)
	r.Mount("/info", info)
	r.Post("/login", a.HTTPCreateLogin())
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 && strings.HasSuffix(r.URL.Path, "/") {
			RedirectNoTrailingSlash(w, r)
			return
		}
		result.NotFound().WriteResponse(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		result.MethodNotAllowed(r).WriteResponse(w)
	})

	return r
}

func newGrammarsRouter(a api.API, auth middle.Middleware) chi.Router {
	r := chi.NewRouter()

	r.Get("/", a.HTTPGetAllGrammars())
	r.With(auth).Post("/", a.HTTPCreateGrammar())

	r.Route("/"+p("id:uuid"), func(r chi.Router) {
		r.Get("/", a.HTTPGetGrammar())
		r.With(auth).Delete("/", a.HTTPDeleteGrammar())

		r.Route("/rules/"+p("rule:rule"), func(r chi.Router) {
			r.Get("/", a.HTTPGetRule())
			r.With(auth).Put("/", a.HTTPReplaceRule())
			r.Get("/language", a.HTTPGetRuleLanguage())
		})

		r.Post("/validations", a.HTTPCreateValidation())
	})

	return r
}

func newInfoRouter(a api.API) chi.Router {
	r := chi.NewRouter()

	r.Get("/", a.HTTPGetInfo())

	return r
}

// RedirectNoTrailingSlash is an http.HandlerFunc that redirects to the same URL as the
// request but with no trailing slash.
func RedirectNoTrailingSlash(w http.ResponseWriter, req *http.Request) {
	redirPath := strings.TrimRight(req.URL.Path, "/")
	result.Redirection(redirPath).WriteResponse(w)
}
