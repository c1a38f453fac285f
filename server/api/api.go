// Package api provides HTTP API endpoints for the RuleCheck server.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/dekarrin/rulecheck/server/middle"
	"github.com/dekarrin/rulecheck/server/result"
	"github.com/dekarrin/rulecheck/server/rulesvc"
	"github.com/dekarrin/rulecheck/server/serr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// PathPrefix is the prefix of all paths in the API. Routers should mount
	// a sub-router that routes all requests to the API at this path.
	PathPrefix = "/api/v1"
)

// requireIDParam gets the ID of the main entity being referenced in the URI and
// returns it. It panics if the key is not there or is not parsable.
func requireIDParam(r *http.Request) uuid.UUID {
	id, err := getURLParam(r, "id", uuid.Parse)
	if err != nil {
		panic(err.Error())
	}
	return id
}

func getURLParam[E any](r *http.Request, key string, parse func(string) (E, error)) (val E, err error) {
	valStr := chi.URLParam(r, key)
	if valStr == "" {
		// either it does not exist or it is nil; treat both as the same and
		// return an error
		return val, fmt.Errorf("parameter does not exist")
	}

	val, err = parse(valStr)
	if err != nil {
		return val, serr.New("", serr.ErrBadArgument)
	}
	return val, nil
}

// parseRuleID parses a rule ID from a path parameter.
func parseRuleID(s string) (int, error) {
	id, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// API holds parameters for endpoints needed to run and a service layer that
// will perform most of the actual logic. To use API, create one and then
// assign the result of its HTTP* methods as handlers to a router or some other
// kind of server mux.
//
// This is exclusively an API for serving external requests. For direct
// programmatic access into the backend of a RuleCheck server via Go code, see
// [rulesvc.Service].
type API struct {
	// Backend is the service that the API calls to perform the requested
	// actions.
	Backend rulesvc.Service

	// Metrics receives counts of checked messages. It may be nil.
	Metrics *middle.Metrics

	// MaxMessages is the most messages a single validation request may
	// contain. If less than 1, there is no limit.
	MaxMessages int

	// MaxMessageLength is the most characters any one message in a
	// validation request may have. If less than 1, there is no limit.
	MaxMessageLength int

	// Secret is the key that admin tokens are signed with.
	Secret []byte

	// ErrDelay is the amount of time that a request will pause before
	// responding with an HTTP-500 to deprioritize such requests from
	// processing and I/O.
	ErrDelay time.Duration
}

// parseJSON decodes the JSON body of req into v, which must be a pointer. The
// returned error matches serr.ErrBodyUnmarshal if the body is not valid JSON
// for v.
func parseJSON(req *http.Request, v interface{}) error {
	contentType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if contentType != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(bodyData))

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}
	return nil
}

// EndpointFunc produces the Result for a single request.
type EndpointFunc func(req *http.Request) result.Result

// httpEndpoint adapts ep to an http.HandlerFunc that logs every response,
// converts panics into an HTTP-500, and holds back HTTP-500 responses for
// errDelay.
func httpEndpoint(errDelay time.Duration, ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		r := ep(req)

		if r.Status == 0 {
			logHttpResponse("ERROR", req, http.StatusInternalServerError, "endpoint result was never populated")
			http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
			return
		}

		// marshal now so a bad body becomes a 500 instead of a panic in
		// WriteResponse
		if err := r.PrepareMarshaledResponse(); err != nil {
			r = result.Err(http.StatusInternalServerError, "An internal server error occurred", "could not marshal JSON response: %s", err.Error())
		}

		level := "INFO"
		if r.IsErr {
			level = "ERROR"
		}
		logHttpResponse(level, req, r.Status, r.InternalMsg)

		if r.Status == http.StatusInternalServerError {
			time.Sleep(errDelay)
		}

		r.WriteResponse(w)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) {
	panicErr := recover()
	if panicErr == nil {
		return
	}

	result.TextErr(
		http.StatusInternalServerError,
		"An internal server error occurred",
		"panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack()),
	).WriteResponse(w)
	logHttpResponse("ERROR", req, http.StatusInternalServerError, fmt.Sprintf("panic: %v", panicErr))
}

// logHttpResponse logs one line per response with the level padded to five
// characters so that messages line up.
func logHttpResponse(level string, req *http.Request, respStatus int, msg string) {
	remoteIP, _, found := strings.Cut(req.RemoteAddr, ":")
	if !found {
		remoteIP = req.RemoteAddr
	}

	log.Printf("%-5.5s %s %s %s: HTTP-%d %s", level, remoteIP, req.Method, req.URL.Path, respStatus, msg)
}
