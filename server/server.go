// Package server provides an HTTP REST server that stores grammars and checks
// messages against them.
package server

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"

	"github.com/dekarrin/rulecheck/server/api"
	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/dekarrin/rulecheck/server/middle"
	"github.com/dekarrin/rulecheck/server/rulesvc"
	"github.com/go-chi/chi/v5"
)

// bcryptCost is the work factor used to hash the admin password.
var bcryptCost = 14

// RuleCheckServer is an HTTP REST server that stores grammars and checks
// messages against them. The zero-value of a RuleCheckServer should not be
// used directly; call New() to get one ready for use.
type RuleCheckServer struct {
	router  chi.Router
	db      dao.Store
	metrics *middle.Metrics
}

// New creates a new RuleCheckServer from the given config. Unset values in cfg
// are given their defaults before it is validated.
func New(cfg Config) (RuleCheckServer, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return RuleCheckServer{}, fmt.Errorf("config: %w", err)
	}

	db, err := cfg.DB.Connect()
	if err != nil {
		return RuleCheckServer{}, fmt.Errorf("connect DB: %w", err)
	}

	var adminHash []byte
	if cfg.AdminPassword != "" {
		if len(cfg.TokenSecret) == 0 {
			cfg.TokenSecret = make([]byte, 64)
			if _, err := rand.Read(cfg.TokenSecret); err != nil {
				db.Close()
				return RuleCheckServer{}, fmt.Errorf("generate token secret: %w", err)
			}
		}
		adminHash, err = rulesvc.HashPassword(cfg.AdminPassword, bcryptCost)
		if err != nil {
			db.Close()
			return RuleCheckServer{}, fmt.Errorf("admin password: %w", err)
		}
	}

	rcs := RuleCheckServer{
		db:      db,
		metrics: middle.NewMetrics(),
	}

	a := api.API{
		Backend: rulesvc.Service{
			DB:        db,
			Workers:   cfg.Workers,
			AdminHash: adminHash,
		},
		Metrics:          rcs.metrics,
		MaxMessages:      cfg.MaxMessages,
		MaxMessageLength: cfg.MaxMessageLength,
		Secret:           cfg.TokenSecret,
		ErrDelay:         cfg.ErrDelay(),
	}

	auth := middle.RequireAuth(cfg.TokenSecret, adminHash, cfg.ErrDelay())
	rcs.router = newRouter(a, rcs.metrics, auth)

	return rcs, nil
}

// ServeHTTP routes a request to the matching endpoint of the API.
func (rcs RuleCheckServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rcs.router.ServeHTTP(w, req)
}

// Close releases the server's connection to its DB.
func (rcs RuleCheckServer) Close() error {
	return rcs.db.Close()
}

// ServeForever begins listening on the given address and port for HTTP REST
// client requests. If address is kept as "", it will default to "localhost". If
// port is less than 1, it will default to 8080.
func (rcs RuleCheckServer) ServeForever(address string, port int) {
	if address == "" {
		address = "localhost"
	}
	if port < 1 {
		port = 8080
	}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	log.Printf("INFO  Listening on %s", listenAddress)
	log.Fatalf("FATAL %v", http.ListenAndServe(listenAddress, rcs))
}
