// Package middle contains middleware for use with the RuleCheck server.
package middle

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dekarrin/rulecheck/server/result"
	"github.com/dekarrin/rulecheck/server/token"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware is a function that takes a handler and returns a new handler which
// wraps the given one and provides some additional functionality.
type Middleware func(next http.Handler) http.Handler

// Metrics holds the counters that the server exports. Each Metrics has its own
// registry, so any number of them can exist in the same process.
type Metrics struct {
	Registry *prometheus.Registry

	requests *prometheus.CounterVec
	messages *prometheus.CounterVec
}

// NewMetrics creates a Metrics with all of its counters registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
	}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rulecheck_http_requests_total",
		Help: "HTTP requests handled, by method and status code",
	}, []string{"method", "code"})
	m.messages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rulecheck_messages_checked_total",
		Help: "Messages checked against a grammar, by whether they were valid",
	}, []string{"result"})

	m.Registry.MustRegister(m.requests)
	m.Registry.MustRegister(m.messages)

	return m
}

// CountMessages adds to the number of valid and invalid messages checked.
// Calling it on a nil Metrics has no effect.
func (m *Metrics) CountMessages(valid, invalid int) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues("valid").Add(float64(valid))
	m.messages.WithLabelValues("invalid").Add(float64(invalid))
}

// Handler returns an http.Handler that serves the metrics in the Prometheus
// text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Observe is middleware that counts every request in m and logs how long it
// took to serve.
func Observe(m *Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, req)

			status := ww.Status()
			if status == 0 {
				// nothing was explicitly written; net/http sends a 200
				status = http.StatusOK
			}

			m.requests.WithLabelValues(req.Method, strconv.Itoa(status)).Inc()
			log.Printf("DEBUG %s %s: HTTP-%d in %s", req.Method, req.URL.Path, status, time.Since(start))
		})
	}
}

// AuthHandler is middleware that rejects any request that does not carry a
// valid admin token before it reaches the next handler.
type AuthHandler struct {
	secret        []byte
	passHash      []byte
	unauthedDelay time.Duration
	next          http.Handler
}

func (ah *AuthHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	tok, err := token.Get(req)
	if err == nil {
		err = token.Validate(tok, ah.secret, ah.passHash)
	}
	if err != nil {
		r := result.Unauthorized("", err.Error())
		time.Sleep(ah.unauthedDelay)
		r.WriteResponse(w)
		log.Printf("ERROR %s %s: HTTP-%d %s", req.Method, req.URL.Path, r.Status, r.InternalMsg)
		return
	}

	ah.next.ServeHTTP(w, req)
}

// RequireAuth returns middleware that only lets through requests bearing a
// token issued for passHash under secret. If passHash is nil, auth is
// disabled and every request is let through.
func RequireAuth(secret, passHash []byte, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if passHash == nil {
			return next
		}
		return &AuthHandler{
			secret:        secret,
			passHash:      passHash,
			unauthedDelay: unauthDelay,
			next:          next,
		}
	}
}
