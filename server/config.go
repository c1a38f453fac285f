package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/dekarrin/rulecheck/server/dao/inmem"
	"github.com/dekarrin/rulecheck/server/dao/sqlite"
)

// DBType is the persistence engine a Database config selects.
type DBType string

func (dbt DBType) String() string {
	return string(dbt)
}

const (
	DatabaseNone     DBType = "none"
	DatabaseSQLite   DBType = "sqlite"
	DatabaseInMemory DBType = "inmem"
)

// MinSecretSize is the smallest allowed length of a TokenSecret.
const MinSecretSize = 32

// DefaultMaxMessages is the most messages a single validation request may
// check when Config does not say otherwise.
const DefaultMaxMessages = 10000

// DefaultMaxMessageLength is the longest message, in characters, that a
// validation request may contain when Config does not say otherwise. Matching
// memory grows with the square of message length on recursive rules.
const DefaultMaxMessageLength = 4096

// ParseDBType parses the engine part of a connection string. Case is ignored.
func ParseDBType(s string) (DBType, error) {
	switch DBType(strings.ToLower(s)) {
	case DatabaseSQLite:
		return DatabaseSQLite, nil
	case DatabaseInMemory:
		return DatabaseInMemory, nil
	default:
		return DatabaseNone, fmt.Errorf("DB type not one of 'sqlite' or 'inmem': %q", s)
	}
}

// Database says where grammars are stored.
type Database struct {
	Type DBType

	// DataDir is the directory that holds the database files. Only SQLite
	// uses it.
	DataDir string
}

// Validate returns an error if db names no usable engine or lacks a field
// that its engine needs.
func (db Database) Validate() error {
	switch db.Type {
	case DatabaseInMemory:
		return nil
	case DatabaseSQLite:
		if db.DataDir == "" {
			return fmt.Errorf("DataDir not set to path")
		}
		return nil
	case DatabaseNone:
		return fmt.Errorf("'none' DB is not valid")
	default:
		return fmt.Errorf("unknown database type: %q", db.Type.String())
	}
}

// Connect opens the store db describes. For SQLite the data directory is
// created if it does not exist.
func (db Database) Connect() (dao.Store, error) {
	if err := db.Validate(); err != nil {
		return nil, err
	}

	if db.Type == DatabaseInMemory {
		return inmem.NewDatastore(), nil
	}

	if err := os.MkdirAll(db.DataDir, 0770); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := sqlite.NewDatastore(db.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite: %w", err)
	}
	return store, nil
}

// ParseDBConnString parses a connection string of the form "engine:params",
// or just "engine" when the engine takes no params. "inmem" selects the
// in-memory store and "sqlite:/var/lib/rulecheck" selects SQLite with its
// files in the given directory.
func ParseDBConnString(s string) (Database, error) {
	engine, params, _ := strings.Cut(s, ":")
	params = strings.TrimSpace(params)

	dbType, err := ParseDBType(strings.TrimSpace(engine))
	if err != nil {
		return Database{}, fmt.Errorf("unsupported DB engine: %w", err)
	}

	db := Database{Type: dbType}
	switch dbType {
	case DatabaseInMemory:
		if params != "" {
			return Database{}, fmt.Errorf("unsupported param(s) for in-memory DB engine: %s", params)
		}
	case DatabaseSQLite:
		if params == "" {
			return Database{}, fmt.Errorf("sqlite DB engine requires path to data directory after ':'")
		}
		db.DataDir = params
	}

	return db, nil
}

// Config holds everything that can be set about a RuleCheckServer.
type Config struct {
	// DB is where grammars are stored. Defaults to the in-memory store.
	DB Database

	// Workers is the number of workers used to check the messages of a
	// validation request that does not ask for a number. If not set, the
	// number of CPUs is used.
	Workers int

	// MaxMessages is the most messages that a single validation request may
	// check. If not set it will default to DefaultMaxMessages. Set this to any
	// negative number to remove the limit.
	MaxMessages int

	// MaxMessageLength is the most characters that any one message in a
	// validation request may have. If not set it will default to
	// DefaultMaxMessageLength. Set this to any negative number to remove the
	// limit.
	MaxMessageLength int

	// AdminPassword is the password that must be given to POST /login to get
	// a token authorizing changes to stored grammars. If empty, admin login is
	// disabled and anyone may change grammars.
	AdminPassword string

	// TokenSecret is the key used to sign admin tokens. If not set, a random
	// one is generated when the server starts, and tokens do not survive a
	// restart. If set, it must be at least MinSecretSize bytes long.
	TokenSecret []byte

	// ErrDelayMillis is the amount of additional time to wait (in
	// milliseconds) before sending a response that indicates an internal
	// server error. If not set it will default to 1 second (1000ms). Set this
	// to any negative number to disable the delay.
	ErrDelayMillis int
}

// ErrDelay returns ErrDelayMillis as a Duration, or 0 if the delay is
// disabled.
func (cfg Config) ErrDelay() time.Duration {
	if cfg.ErrDelayMillis < 1 {
		return 0
	}
	return time.Duration(cfg.ErrDelayMillis) * time.Millisecond
}

// FillDefaults returns a copy of cfg with every unset field given its default.
func (cfg Config) FillDefaults() Config {
	if cfg.DB.Type == "" || cfg.DB.Type == DatabaseNone {
		cfg.DB = Database{Type: DatabaseInMemory}
	}
	if cfg.MaxMessages == 0 {
		cfg.MaxMessages = DefaultMaxMessages
	}
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = DefaultMaxMessageLength
	}
	if cfg.ErrDelayMillis == 0 {
		cfg.ErrDelayMillis = 1000
	}
	return cfg
}

// Validate returns an error if cfg has an invalid field. Unset fields count as
// invalid; call Validate on the result of FillDefaults to use defaults.
func (cfg Config) Validate() error {
	if err := cfg.DB.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers: must not be negative")
	}

	if len(cfg.TokenSecret) > 0 && len(cfg.TokenSecret) < MinSecretSize {
		return fmt.Errorf("token secret: must be at least %d bytes", MinSecretSize)
	}

	// all possible values for MaxMessages, MaxMessageLength, and ErrDelayMillis are valid, so no
	// need to check them

	return nil
}
