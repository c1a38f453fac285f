// Package result contains results that are used to write out API responses.
//
// Every constructor that takes internalMsg treats its first element as a
// format string and the rest as its arguments. The internal message is only
// logged; it is never sent to the client.
package result

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the body of every JSON error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Result is the outcome of an endpoint, ready to be written to the client.
type Result struct {
	Status      int
	IsErr       bool
	IsJSON      bool
	InternalMsg string

	resp  interface{}
	redir string
	hdrs  [][2]string

	// set by calling PrepareMarshaledResponse.
	respJSONBytes []byte
}

func formatMsg(def string, internalMsg []interface{}) string {
	if len(internalMsg) < 1 {
		return def
	}
	return fmt.Sprintf(internalMsg[0].(string), internalMsg[1:]...)
}

// OK returns a Result containing an HTTP-200 with respObj as the body.
func OK(respObj interface{}, internalMsg ...interface{}) Result {
	return Response(http.StatusOK, respObj, "%s", formatMsg("OK", internalMsg))
}

// Created returns a Result containing an HTTP-201 with respObj as the body.
func Created(respObj interface{}, internalMsg ...interface{}) Result {
	return Response(http.StatusCreated, respObj, "%s", formatMsg("created", internalMsg))
}

// NoContent returns a Result containing an HTTP-204.
func NoContent(internalMsg ...interface{}) Result {
	return Response(http.StatusNoContent, nil, "%s", formatMsg("no content", internalMsg))
}

// BadRequest returns a Result containing an HTTP-400 that shows userMsg to the
// client.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusBadRequest, userMsg, "%s", formatMsg("bad request", internalMsg))
}

// Unauthorized returns a Result containing an HTTP-401 along with the
// WWW-Authenticate header for bearer tokens. If userMsg is empty a generic one
// is used.
func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}

	return Err(http.StatusUnauthorized, userMsg, "%s", formatMsg("unauthorized", internalMsg)).
		WithHeader("WWW-Authenticate", `Bearer realm="RuleCheck server", charset="utf-8"`)
}

// NotFound returns a Result containing an HTTP-404.
func NotFound(internalMsg ...interface{}) Result {
	return Err(http.StatusNotFound, "The requested resource was not found", "%s", formatMsg("not found", internalMsg))
}

// MethodNotAllowed returns a Result containing an HTTP-405 naming the method
// and path of req.
func MethodNotAllowed(req *http.Request, internalMsg ...interface{}) Result {
	userMsg := fmt.Sprintf("Method %s is not allowed for %s", req.Method, req.URL.Path)
	return Err(http.StatusMethodNotAllowed, userMsg, "%s", formatMsg("method not allowed", internalMsg))
}

// Conflict returns a Result containing an HTTP-409 that shows userMsg to the
// client.
func Conflict(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusConflict, userMsg, "%s", formatMsg("conflict", internalMsg))
}

// InternalServerError returns a Result containing an HTTP-500. The client only
// ever sees a generic message.
func InternalServerError(internalMsg ...interface{}) Result {
	return Err(http.StatusInternalServerError, "An internal server error occurred", "%s", formatMsg("internal server error", internalMsg))
}

// Response returns a successful JSON Result. If status is
// http.StatusNoContent, respObj is not read and may be nil; otherwise it must
// not be nil.
func Response(status int, respObj interface{}, internalMsg string, v ...interface{}) Result {
	return Result{
		IsJSON:      true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp:        respObj,
	}
}

// Err returns a JSON error Result whose body is an ErrorResponse.
func Err(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		IsJSON:      true,
		IsErr:       true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp: ErrorResponse{
			Error:  userMsg,
			Status: status,
		},
	}
}

// TextErr is like Err but writes userMsg as plain text with no JSON encoding
// of any kind.
func TextErr(status int, userMsg, internalMsg string, v ...interface{}) Result {
	return Result{
		IsErr:       true,
		Status:      status,
		InternalMsg: fmt.Sprintf(internalMsg, v...),
		resp:        userMsg,
	}
}

// Redirection returns a Result containing an HTTP-308 to uri.
func Redirection(uri string) Result {
	return Result{
		Status:      http.StatusPermanentRedirect,
		InternalMsg: "redirect -> " + uri,
		redir:       uri,
	}
}

// WithHeader returns a copy of r that also sets the named header when written.
func (r Result) WithHeader(name, val string) Result {
	cp := r
	cp.respJSONBytes = nil
	cp.hdrs = make([][2]string, len(r.hdrs), len(r.hdrs)+1)
	copy(cp.hdrs, r.hdrs)
	cp.hdrs = append(cp.hdrs, [2]string{name, val})
	return cp
}

// PrepareMarshaledResponse marshals the body of r if it needs it. Once it has
// succeeded, calling it again has no effect.
func (r *Result) PrepareMarshaledResponse() error {
	if r.respJSONBytes != nil {
		return nil
	}
	if !r.IsJSON || r.Status == http.StatusNoContent || r.redir != "" {
		return nil
	}

	var err error
	r.respJSONBytes, err = json.Marshal(r.resp)
	return err
}

// WriteResponse writes r to w. It panics if r was never populated or if its
// body cannot be marshaled; call PrepareMarshaledResponse first to catch the
// latter.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if r.Status == 0 {
		panic("result not populated")
	}

	if err := r.PrepareMarshaledResponse(); err != nil {
		panic(fmt.Sprintf("could not marshal response: %s", err.Error()))
	}

	var body []byte
	hasBody := r.Status != http.StatusNoContent && r.redir == ""

	if r.IsJSON {
		w.Header().Set("Content-Type", "application/json")
		if hasBody {
			body = r.respJSONBytes
		}
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if hasBody {
			body = []byte(fmt.Sprintf("%v", r.resp))
		}
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if r.redir != "" {
		w.Header().Set("Location", r.redir)
	}
	for _, h := range r.hdrs {
		w.Header().Set(h[0], h[1])
	}

	w.WriteHeader(r.Status)

	if body != nil {
		w.Write(body)
	}
}
