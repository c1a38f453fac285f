// Package rulesvc has services for interacting with the RuleCheck server
// backend decoupled from the API that accesses it.
package rulesvc

import (
	"github.com/dekarrin/rulecheck/server/dao"
)

// Service is a service for interacting with and modifying the RuleCheck server
// backend. It performs the actions requested and makes calls to server
// persistence to preserve the backend state.
//
// The zero-value of Service is not ready to be used; assign a valid DAO store
// to DB before attempting to use it.
type Service struct {

	// DB is the persistence store of the service.
	DB dao.Store

	// Workers is the number of workers used to check messages when a request
	// does not ask for a particular number. If less than 1, the number of CPUs
	// is used.
	Workers int

	// AdminHash is the bcrypt hash of the admin password. If nil, admin login
	// is disabled.
	AdminHash []byte
}
